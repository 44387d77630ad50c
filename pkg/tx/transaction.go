// Package tx defines transaction types, canonical hashing, and validation.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

// Transaction moves value by consuming referenced outputs and producing new ones.
type Transaction struct {
	Inputs  []Input  `json:"inputs" cbor:"inputs"`
	Outputs []Output `json:"outputs" cbor:"outputs"`
}

// Input references a previously-created output by its own hash. The
// signature commits to that hash alone, never to the enclosing transaction.
type Input struct {
	PrevOutputHash types.Hash `json:"prev_output_hash" cbor:"prev_output_hash"`
	PublicKey      []byte     `json:"public_key" cbor:"public_key"`
	Signature      []byte     `json:"signature" cbor:"signature"`
}

// inputJSON is the JSON representation of Input with hex-encoded byte fields.
type inputJSON struct {
	PrevOutputHash types.Hash `json:"prev_output_hash"`
	PublicKey      *string    `json:"public_key"`
	Signature      *string    `json:"signature"`
}

// MarshalJSON encodes the input with hex-encoded public key and signature.
func (in Input) MarshalJSON() ([]byte, error) {
	j := inputJSON{PrevOutputHash: in.PrevOutputHash}
	if in.PublicKey != nil {
		s := hex.EncodeToString(in.PublicKey)
		j.PublicKey = &s
	}
	if in.Signature != nil {
		s := hex.EncodeToString(in.Signature)
		j.Signature = &s
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes an input with hex-encoded public key and signature.
func (in *Input) UnmarshalJSON(data []byte) error {
	var j inputJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	in.PrevOutputHash = j.PrevOutputHash
	if j.PublicKey != nil {
		b, err := hex.DecodeString(*j.PublicKey)
		if err != nil {
			return err
		}
		in.PublicKey = b
	}
	if j.Signature != nil {
		b, err := hex.DecodeString(*j.Signature)
		if err != nil {
			return err
		}
		in.Signature = b
	}
	return nil
}

// Output is a new unspent value assigned to an address. UniqueID disambiguates
// otherwise-identical outputs (same value, same address) so their hashes differ.
type Output struct {
	Value    uint64        `json:"value" cbor:"value"`
	UniqueID uuid.UUID     `json:"unique_id" cbor:"unique_id"`
	Address  types.Address `json:"address" cbor:"address"`
}

// NewOutput builds an output with a fresh unique ID.
func NewOutput(value uint64, addr types.Address) Output {
	return Output{Value: value, UniqueID: uuid.New(), Address: addr}
}

// SigningBytes returns the canonical byte encoding of the output, used both
// as the hash preimage and as the preimage an input's signature commits to.
func (out Output) SigningBytes() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, out.Value)
	idBytes, _ := out.UniqueID.MarshalBinary()
	buf = append(buf, idBytes...)
	addr := []byte(out.Address)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(addr)))
	buf = append(buf, addr...)
	return buf
}

// Hash returns H(canonical-serialisation-of-output). This is both the key
// under which the UTXO set stores the output and the message an input's
// signature commits to when spending it.
func (out Output) Hash() types.Hash {
	return crypto.Hash(out.SigningBytes())
}

// IsCoinbase reports whether the transaction has no inputs.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// SigningBytes returns the canonical byte representation of the whole
// transaction, used to compute its hash (its own identity on the chain and
// in the mempool — distinct from the per-output hash each input signs).
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf = append(buf, in.PrevOutputHash[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.PublicKey)))
		buf = append(buf, in.PublicKey...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.Signature)))
		buf = append(buf, in.Signature...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = append(buf, out.SigningBytes()...)
	}

	return buf
}

// Hash computes the transaction's identity hash over its canonical encoding.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// TotalOutputValue returns the sum of all output values, erroring on overflow.
func (tx *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range tx.Outputs {
		if total > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("output value overflow")
		}
		total += out.Value
	}
	return total, nil
}
