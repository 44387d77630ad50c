package tx

import (
	"fmt"

	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

// Builder constructs transactions incrementally. Only tests use it; the
// chain engine builds coinbase transactions directly. It is not exposed as
// a standalone transaction-generator tool.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{tx: &Transaction{}}
}

// AddSignedInput adds an input spending the output identified by
// prevOutputHash, signed by key. The signature commits to prevOutputHash
// alone, per the single-output signing scheme.
func (b *Builder) AddSignedInput(prevOutputHash types.Hash, key *crypto.PrivateKey) error {
	sig, err := key.SignOutputHash(prevOutputHash[:])
	if err != nil {
		return fmt.Errorf("sign input: %w", err)
	}
	b.tx.Inputs = append(b.tx.Inputs, Input{
		PrevOutputHash: prevOutputHash,
		PublicKey:      key.PublicKey(),
		Signature:      sig,
	})
	return nil
}

// AddOutput adds an output paying value to addr, with a fresh unique ID.
func (b *Builder) AddOutput(value uint64, addr types.Address) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, NewOutput(value, addr))
	return b
}

// Build returns the constructed transaction. Does not validate — call
// tx.Validate() or tx.ValidateWithUTXOs() separately.
func (b *Builder) Build() *Transaction {
	return b.tx
}
