// Package chain implements the consensus engine: block acceptance, the
// UTXO set it maintains, target retargeting, and the mempool it feeds
// block templates from.
package chain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/internal/consensus"
	"github.com/ironledger/ironledger/internal/mempool"
	"github.com/ironledger/ironledger/internal/utxo"
	"github.com/ironledger/ironledger/pkg/block"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// Engine owns the blockchain, UTXO set, and mempool, serialising all access
// under a single read-write lock. No sub-component (utxo.Set, mempool.Pool)
// locks on its own; the engine is the sole point of mutual exclusion.
type Engine struct {
	mu     sync.RWMutex
	blocks []*block.Block
	utxos  *utxo.Set
	pool   *mempool.Pool
	target types.Target
}

// New starts a fresh chain from a genesis block paying the initial reward
// to rewardAddr.
func New(rewardAddr types.Address, genesisTimestamp uint64) (*Engine, error) {
	utxos := utxo.NewSet()
	e := &Engine{
		utxos:  utxos,
		pool:   mempool.New(utxos),
		target: config.MinTarget,
	}

	genesis := CreateGenesisBlock(rewardAddr, genesisTimestamp)
	if err := e.addBlockLocked(genesis); err != nil {
		return nil, fmt.Errorf("applying genesis block: %w", err)
	}
	return e, nil
}

// Height returns the number of blocks accepted so far, genesis included.
func (e *Engine) Height() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return uint64(len(e.blocks))
}

// Tip returns the most recently accepted block, or nil if the chain is empty.
func (e *Engine) Tip() *block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.blocks) == 0 {
		return nil
	}
	return e.blocks[len(e.blocks)-1]
}

// FetchBlock returns the block at the given height (genesis is height 0).
func (e *Engine) FetchBlock(height uint64) (*block.Block, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if height >= uint64(len(e.blocks)) {
		return nil, false
	}
	return e.blocks[height], true
}

// AllBlocks returns a snapshot of the full block history in height order.
func (e *Engine) AllBlocks() []*block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*block.Block, len(e.blocks))
	copy(out, e.blocks)
	return out
}

// Target returns the current proof-of-work target new block templates
// must satisfy.
func (e *Engine) Target() types.Target {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target
}

// UTXOBalance sums the value of every unspent output assigned to addr.
func (e *Engine) UTXOBalance(addr types.Address) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var total uint64
	for _, entry := range e.utxos.All() {
		if entry.Output.Address == addr {
			total += entry.Output.Value
		}
	}
	return total
}

// FetchUTXOs returns every unspent output assigned to addr, alongside
// whether the mempool currently has it reserved by a pending spend.
func (e *Engine) FetchUTXOs(addr types.Address) []utxo.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []utxo.Entry
	for _, entry := range e.utxos.All() {
		if entry.Output.Address == addr {
			out = append(out, entry)
		}
	}
	return out
}

// ValidateTemplate reports whether b still builds on the current tip with
// the current target, i.e. whether it's still worth a miner's time to seal.
// It does not perform full transaction validation: that only happens when
// the sealed block is actually submitted via AddBlock.
func (e *Engine) ValidateTemplate(b *block.Block) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if b == nil || b.Header == nil {
		return false
	}
	var tipHash types.Hash
	if len(e.blocks) > 0 {
		tipHash = e.blocks[len(e.blocks)-1].Header.Hash()
	}
	return b.Header.PrevBlockHash == tipHash && b.Header.Target == e.target
}

// AddBlock validates b against the current chain tip and, if accepted,
// appends it, applies its transactions to the UTXO set, drops its
// transactions from the mempool, and retargets if this is a retarget
// boundary.
func (e *Engine) AddBlock(b *block.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addBlockLocked(b)
}

func (e *Engine) addBlockLocked(b *block.Block) error {
	if b == nil || b.Header == nil {
		return fmt.Errorf("%w: nil block or header", ErrInvalidBlock)
	}
	if err := b.Validate(); err != nil {
		switch {
		case errors.Is(err, block.ErrBadMerkleRoot):
			return fmt.Errorf("%w: %v", ErrInvalidMerkleRoot, err)
		case errors.Is(err, block.ErrNilHeader),
			errors.Is(err, block.ErrZeroTimestamp),
			errors.Is(err, block.ErrNoTransactions),
			errors.Is(err, block.ErrPoWNotMet):
			return fmt.Errorf("%w: %v", ErrInvalidBlock, err)
		default:
			// Everything else Validate checks is transaction-level: coinbase
			// placement, per-transaction structure/signatures, and
			// intra-block double-spends.
			return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
		}
	}

	height := uint64(len(e.blocks))
	if height == 0 {
		if !b.Header.PrevBlockHash.IsZero() {
			return fmt.Errorf("%w: genesis must reference the zero hash", ErrInvalidBlock)
		}
	} else {
		tip := e.blocks[height-1]
		if b.Header.PrevBlockHash != tip.Header.Hash() {
			return fmt.Errorf("%w: prev_block_hash does not match current tip", ErrInvalidBlock)
		}
		if b.Header.Timestamp <= tip.Header.Timestamp {
			return fmt.Errorf("%w: timestamp does not advance past parent", ErrInvalidBlock)
		}
	}

	minerFees, err := e.verifyTransactions(b)
	if err != nil {
		return err
	}
	coinbaseTotal, err := b.Transactions[0].TotalOutputValue()
	if err != nil {
		return fmt.Errorf("%w: coinbase output overflow: %v", ErrInvalidTransaction, err)
	}
	if coinbaseTotal > config.BlockReward(height)+minerFees {
		return fmt.Errorf("%w: coinbase pays %d, entitled to at most %d",
			ErrInvalidTransaction, coinbaseTotal, config.BlockReward(height)+minerFees)
	}

	e.applyUTXOs(b)
	e.blocks = append(e.blocks, b)
	e.pool.RemoveConfirmed(b.Transactions)
	e.tryAdjustTarget()

	return nil
}

// verifyTransactions checks every non-coinbase transaction against the
// current UTXO set and returns the sum of their fees. Block.Validate has
// already checked structure, signatures, and intra-block input uniqueness;
// this adds the UTXO-existence and ownership checks that require chain
// state.
func (e *Engine) verifyTransactions(b *block.Block) (uint64, error) {
	var totalFees uint64
	for i, t := range b.Transactions {
		if t.IsCoinbase() {
			continue
		}
		fee, err := t.ValidateWithUTXOs(e.utxos)
		if err != nil {
			return 0, fmt.Errorf("%w: tx %d: %v", ErrInvalidTransaction, i, err)
		}
		if totalFees > ^uint64(0)-fee {
			return 0, fmt.Errorf("%w: tx %d: fee total overflow", ErrInvalidTransaction, i)
		}
		totalFees += fee
	}
	return totalFees, nil
}

// applyUTXOs commits a block's effect on the UTXO set: every input's
// referenced output is removed, and every transaction's outputs (coinbase
// included) are inserted keyed by their own hash.
func (e *Engine) applyUTXOs(b *block.Block) {
	for _, t := range b.Transactions {
		for _, in := range t.Inputs {
			e.utxos.Delete(in.PrevOutputHash)
		}
	}
	for _, t := range b.Transactions {
		for _, out := range t.Outputs {
			e.utxos.Put(out)
		}
	}
}

// RebuildUTXOs replays the full block history from scratch, discarding and
// reconstructing the UTXO set. Used after loading persisted blocks, and
// must always agree with the incremental updates AddBlock performs.
func (e *Engine) RebuildUTXOs() {
	e.utxos.Reset()
	for _, b := range e.blocks {
		e.applyUTXOs(b)
	}
}

// tryAdjustTarget retargets if the chain has just reached a retarget
// boundary, based on the elapsed time since the start of the interval.
func (e *Engine) tryAdjustTarget() {
	height := uint64(len(e.blocks)) - 1
	if !consensus.ShouldRetarget(height) {
		return
	}
	windowStart := height - config.DifficultyUpdateInterval
	actual := int64(e.blocks[height].Header.Timestamp) - int64(e.blocks[windowStart].Header.Timestamp)
	ideal := int64(config.DifficultyUpdateInterval) * int64(config.IdealBlockTime)
	e.target = consensus.CalcNextTarget(e.target, actual, ideal)
}

// AddToMempool validates t against the current UTXO set and admits it.
func (e *Engine) AddToMempool(t *tx.Transaction, now time.Time) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pool.Add(t, now)
}

// FetchMempoolTx returns a pending transaction by hash, if present.
func (e *Engine) FetchMempoolTx(hash types.Hash) (*tx.Transaction, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pool.Get(hash)
}

// CleanupMempool evicts mempool entries older than config.MaxMempoolTransactionAge.
func (e *Engine) CleanupMempool(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	maxAge := time.Duration(config.MaxMempoolTransactionAge) * time.Second
	return e.pool.CleanupExpired(now, maxAge)
}

// FetchTemplate assembles a candidate block paying the reward and fees to
// rewardAddr: the coinbase value and merkle root are only known once the
// mempool selection is fixed, so the header is built once, then amended,
// then re-hashed.
func (e *Engine) FetchTemplate(rewardAddr types.Address, now uint64) *block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()

	selected := e.pool.SelectOrdered(config.BlockTransactionCap)
	coinbase := &tx.Transaction{
		Outputs: []tx.Output{tx.NewOutput(0, rewardAddr)},
	}
	txs := append([]*tx.Transaction{coinbase}, selected...)

	var prevHash types.Hash
	if len(e.blocks) > 0 {
		prevHash = e.blocks[len(e.blocks)-1].Header.Hash()
	}

	header := &block.Header{
		Timestamp:     now,
		Nonce:         0,
		PrevBlockHash: prevHash,
		Target:        e.target,
	}

	var minerFees uint64
	for _, t := range selected {
		outputTotal, _ := t.TotalOutputValue()
		var inputTotal uint64
		for _, input := range t.Inputs {
			if out, ok := e.utxos.GetOutput(input.PrevOutputHash); ok {
				inputTotal += out.Value
			}
		}
		if inputTotal > outputTotal {
			minerFees += inputTotal - outputTotal
		}
	}
	coinbase.Outputs[0].Value = config.BlockReward(uint64(len(e.blocks))) + minerFees

	hashes := make([]types.Hash, len(txs))
	for i, t := range txs {
		hashes[i] = t.Hash()
	}
	header.MerkleRoot = block.ComputeMerkleRoot(hashes)

	return block.NewBlock(header, txs)
}
