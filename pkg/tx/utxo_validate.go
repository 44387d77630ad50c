package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

// UTXO-aware validation errors.
var (
	ErrInputNotFound   = errors.New("input UTXO not found")
	ErrInsufficientFee = errors.New("insufficient fee")
	ErrInputOverflow   = errors.New("input values overflow")
	ErrAddressMismatch = errors.New("public key does not derive the UTXO's address")
)

// UTXOProvider provides read-only access to unspent outputs, keyed by the
// output's own hash, for transaction validation.
type UTXOProvider interface {
	GetOutput(hash types.Hash) (Output, bool)
}

// ValidateWithUTXOs performs full validation of a transaction against the
// UTXO set: structure, input existence, ownership (the input's public key
// must derive the referenced output's address), signatures (each over its
// own referenced output hash), and inputs >= outputs. Returns the fee
// (inputs - outputs); coinbase transactions (no inputs) have fee 0.
func (tx *Transaction) ValidateWithUTXOs(provider UTXOProvider) (uint64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	if tx.IsCoinbase() {
		return 0, nil
	}

	var totalInput uint64
	for i, in := range tx.Inputs {
		out, ok := provider.GetOutput(in.PrevOutputHash)
		if !ok {
			return 0, fmt.Errorf("input %d (%s): %w", i, in.PrevOutputHash, ErrInputNotFound)
		}

		if err := verifyOwnership(in.PublicKey, out.Address); err != nil {
			return 0, fmt.Errorf("input %d: %w", i, err)
		}

		if totalInput > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("input %d: %w", i, ErrInputOverflow)
		}
		totalInput += out.Value
	}

	if err := tx.VerifySignatures(); err != nil {
		return 0, err
	}

	totalOutput, err := tx.TotalOutputValue()
	if err != nil {
		return 0, fmt.Errorf("output overflow: %w", err)
	}
	if totalInput < totalOutput {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrInsufficientFee, totalInput, totalOutput)
	}

	return totalInput - totalOutput, nil
}

// verifyOwnership checks that pubKey derives the address recorded on the
// output being spent.
func verifyOwnership(pubKey []byte, want types.Address) error {
	if len(pubKey) == 0 {
		return ErrMissingPubKey
	}
	derived := crypto.DeriveAddress(pubKey)
	if derived != want {
		return fmt.Errorf("%w: want %s, derived %s", ErrAddressMismatch, want, derived)
	}
	return nil
}
