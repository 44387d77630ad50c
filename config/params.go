// Package config holds the node's protocol constants and runtime settings.
//
// Protocol constants (this file) are baked in at build time and must match
// across every node on the network. Runtime settings (flags.go) are
// per-node and may vary freely.
package config

import (
	"math/big"

	"github.com/ironledger/ironledger/pkg/types"
)

const (
	// InitialReward is the genesis block's coinbase payout, in whole coins.
	// The chain engine multiplies this by 1e8 to get satoshis.
	InitialReward uint64 = 50

	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval uint64 = 210_000

	// DifficultyUpdateInterval is the number of blocks between target
	// retargets.
	DifficultyUpdateInterval uint64 = 2016

	// IdealBlockTime is the target number of seconds per block.
	IdealBlockTime uint64 = 600

	// BlockTransactionCap bounds how many mempool transactions a mined
	// template may include, on top of the coinbase.
	BlockTransactionCap = 5000

	// MaxMempoolTransactionAge is how long, in seconds, a mempool entry may
	// sit before cleanup_mempool drops it.
	MaxMempoolTransactionAge int64 = 72 * 3600

	// MaxTxInputs and MaxTxOutputs bound transaction shape to keep
	// serialisation and validation cost predictable.
	MaxTxInputs  = 2500
	MaxTxOutputs = 2500
)

// MinTarget is the easiest (largest) target a retarget may ever relax to.
var MinTarget = func() types.Target {
	n, _ := new(big.Int).SetString("00000000ffff0000000000000000000000000000000000000000000000000000", 16)
	return types.TargetFromBigInt(n)
}()

// GenesisTimestamp and GenesisRewardAddress are baked into every node so
// that independently starting a fresh chain (no peers, no persisted store)
// always produces a bit-identical genesis block. The reward address is not
// a spendable key anyone holds; it exists so the genesis coinbase has a
// recipient at all, and its balance is reachable only by whoever later
// proves ownership is irrelevant to consensus — no one is meant to spend it.
const GenesisTimestamp uint64 = 1704067200 // 2024-01-01T00:00:00Z

var GenesisRewardAddress = types.Address("1IronLedgerGenesis00000000000000")

// BlockReward returns the coinbase payout in satoshis for a block at the
// given height: InitialReward halved every HalvingInterval blocks.
func BlockReward(height uint64) uint64 {
	reward := InitialReward * 100_000_000
	halvings := height / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return reward >> halvings
}
