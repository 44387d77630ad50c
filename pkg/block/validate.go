package block

import (
	"errors"
	"fmt"

	"github.com/ironledger/ironledger/pkg/types"
)

// Validation errors.
var (
	ErrNilHeader           = errors.New("block has nil header")
	ErrNoTransactions      = errors.New("block has no transactions")
	ErrBadMerkleRoot       = errors.New("merkle root mismatch")
	ErrZeroTimestamp       = errors.New("block timestamp is zero")
	ErrNoCoinbase          = errors.New("first transaction must be coinbase")
	ErrMultipleCoinbase    = errors.New("multiple coinbase transactions in block")
	ErrDuplicateBlockInput = errors.New("duplicate input across transactions in block")
	ErrPoWNotMet           = errors.New("header hash does not satisfy target")
)

// Validate checks block structure and internal consistency: header
// presence, merkle root, coinbase placement, per-transaction structure and
// signatures, intra-block input uniqueness, and proof-of-work. It does not
// check chain linkage (prev_block_hash continuity, monotonic timestamps)
// or UTXO-set membership and reward accounting; those require chain state
// and are the chain engine's responsibility.
func (b *Block) Validate() error {
	if b.Header == nil {
		return ErrNilHeader
	}
	if b.Header.Timestamp == 0 {
		return ErrZeroTimestamp
	}
	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}

	if !b.Transactions[0].IsCoinbase() {
		return ErrNoCoinbase
	}
	for i, t := range b.Transactions[1:] {
		if t.IsCoinbase() {
			return fmt.Errorf("tx %d: %w", i+1, ErrMultipleCoinbase)
		}
	}

	txHashes := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		txHashes[i] = t.Hash()
	}
	expectedRoot := ComputeMerkleRoot(txHashes)
	if b.Header.MerkleRoot != expectedRoot {
		return fmt.Errorf("%w: header=%s computed=%s", ErrBadMerkleRoot, b.Header.MerkleRoot, expectedRoot)
	}

	for i, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
		if !t.IsCoinbase() {
			if err := t.VerifySignatures(); err != nil {
				return fmt.Errorf("tx %d: %w", i, err)
			}
		}
	}

	seen := make(map[types.Hash]int, len(b.Transactions)) // prev_output_hash -> tx index
	for i, t := range b.Transactions {
		for _, in := range t.Inputs {
			if prevTx, exists := seen[in.PrevOutputHash]; exists {
				return fmt.Errorf("tx %d: %w: output %s also spent in tx %d",
					i, ErrDuplicateBlockInput, in.PrevOutputHash, prevTx)
			}
			seen[in.PrevOutputHash] = i
		}
	}

	if !b.Header.MeetsTarget() {
		return fmt.Errorf("%w: hash=%s target=%s", ErrPoWNotMet, b.Header.Hash(), b.Header.Target)
	}

	return nil
}
