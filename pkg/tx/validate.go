package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

// Structural validation errors.
var (
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrOutputOverflow = errors.New("output values overflow")
	ErrMissingPubKey  = errors.New("input missing public key")
	ErrMissingSig     = errors.New("input missing signature")
	ErrInvalidSig     = errors.New("invalid signature")
	ErrTooManyInputs  = errors.New("too many inputs")
	ErrTooManyOutputs = errors.New("too many outputs")
)

// Validate checks transaction structure and basic rules. It does not check
// UTXO existence or spendability — that requires the UTXO set (see
// ValidateWithUTXOs).
func (tx *Transaction) Validate() error {
	if len(tx.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(tx.Inputs) > config.MaxTxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(tx.Inputs), config.MaxTxInputs)
	}
	if len(tx.Outputs) > config.MaxTxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(tx.Outputs), config.MaxTxOutputs)
	}

	seen := make(map[types.Hash]bool, len(tx.Inputs))
	for i, in := range tx.Inputs {
		if seen[in.PrevOutputHash] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in.PrevOutputHash] = true

		if len(in.PublicKey) == 0 {
			return fmt.Errorf("input %d: %w", i, ErrMissingPubKey)
		}
		if len(in.Signature) == 0 {
			return fmt.Errorf("input %d: %w", i, ErrMissingSig)
		}
	}

	var totalOutput uint64
	for i, out := range tx.Outputs {
		if totalOutput > math.MaxUint64-out.Value {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		totalOutput += out.Value
	}

	return nil
}

// VerifySignatures checks that every input's signature commits to its own
// referenced output hash under its declared public key — never to the
// transaction's own hash.
func (tx *Transaction) VerifySignatures() error {
	for i, in := range tx.Inputs {
		if !crypto.VerifySignature(in.PrevOutputHash[:], in.Signature, in.PublicKey) {
			return fmt.Errorf("input %d: %w", i, ErrInvalidSig)
		}
	}
	return nil
}
