// Package mempool holds validated transactions awaiting block inclusion,
// ordered by descending miner fee.
//
// Pool does no locking of its own: it is a field of the chain engine, which
// serialises all access under its single read-write lock (see
// internal/chain). Holding two locks here would only create a second,
// redundant serialisation point.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ironledger/ironledger/internal/utxo"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// Pool errors.
var (
	ErrInputNotFound = errors.New("mempool: input references nonexistent UTXO")
	ErrInvalid       = errors.New("mempool: transaction failed validation")
)

// Entry is a pending transaction together with its admission metadata.
type Entry struct {
	Tx        *tx.Transaction
	Hash      types.Hash
	Fee       uint64
	EntryTime time.Time
}

// Pool is the set of pending transactions, kept sorted by descending fee.
type Pool struct {
	utxos   *utxo.Set
	entries []*Entry
	byHash  map[types.Hash]*Entry
	bySpend map[types.Hash]types.Hash // input's prev_output_hash -> spending tx hash
}

// New creates an empty pool backed by the given UTXO set. The pool marks
// and unmarks entries in utxos as transactions are admitted, replaced, or
// removed.
func New(utxos *utxo.Set) *Pool {
	return &Pool{
		utxos:   utxos,
		byHash:  make(map[types.Hash]*Entry),
		bySpend: make(map[types.Hash]types.Hash),
	}
}

// Add validates t against the UTXO set and admits it, replacing any
// existing entry that conflicts on a spent output. Returns the computed
// fee.
func (p *Pool) Add(t *tx.Transaction, now time.Time) (uint64, error) {
	fee, err := t.ValidateWithUTXOs(p.utxos)
	if err != nil {
		if errors.Is(err, tx.ErrInputNotFound) {
			return 0, fmt.Errorf("%w: %v", ErrInputNotFound, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for _, in := range t.Inputs {
		if conflictHash, exists := p.bySpend[in.PrevOutputHash]; exists {
			p.removeEntry(conflictHash)
		}
	}

	for _, in := range t.Inputs {
		p.utxos.Mark(in.PrevOutputHash)
		p.bySpend[in.PrevOutputHash] = t.Hash()
	}

	e := &Entry{Tx: t, Hash: t.Hash(), Fee: fee, EntryTime: now}
	p.entries = append(p.entries, e)
	p.byHash[e.Hash] = e
	p.sortByFeeDescending()

	return fee, nil
}

// removeEntry deletes the entry for hash, unmarking the UTXOs it reserved.
// Does not re-sort; callers that need a sorted pool after removal call
// sortByFeeDescending themselves.
func (p *Pool) removeEntry(hash types.Hash) {
	e, ok := p.byHash[hash]
	if !ok {
		return
	}
	for _, in := range e.Tx.Inputs {
		p.utxos.Unmark(in.PrevOutputHash)
		delete(p.bySpend, in.PrevOutputHash)
	}
	delete(p.byHash, hash)
	for i, cur := range p.entries {
		if cur.Hash == hash {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
}

// Remove deletes the entry for hash, if present, unmarking its UTXOs.
func (p *Pool) Remove(hash types.Hash) {
	p.removeEntry(hash)
}

// RemoveConfirmed drops the mempool entries for transactions now committed
// in an accepted block. Their UTXOs are not unmarked: add_block has
// already consumed the underlying outputs entirely.
//
// It also sweeps any entry still in the pool that spends one of the same
// inputs (superseded by a competing transaction that reached the chain
// without ever passing through this mempool, e.g. a block assembled
// elsewhere or replayed during sync). Those entries reference outputs
// add_block has already deleted, so left in place they'd make it into the
// next template and produce an unminable block. Any other outputs a swept
// entry had reserved are unmarked.
func (p *Pool) RemoveConfirmed(txs []*tx.Transaction) {
	consumed := make(map[types.Hash]struct{}, len(txs))
	for _, t := range txs {
		for _, in := range t.Inputs {
			consumed[in.PrevOutputHash] = struct{}{}
		}
		hash := t.Hash()
		if e, ok := p.byHash[hash]; ok {
			for _, in := range e.Tx.Inputs {
				delete(p.bySpend, in.PrevOutputHash)
			}
			delete(p.byHash, hash)
		}
	}

	for hash, e := range p.byHash {
		superseded := false
		for _, in := range e.Tx.Inputs {
			if _, ok := consumed[in.PrevOutputHash]; ok {
				superseded = true
				break
			}
		}
		if !superseded {
			continue
		}
		for _, in := range e.Tx.Inputs {
			p.utxos.Unmark(in.PrevOutputHash)
			delete(p.bySpend, in.PrevOutputHash)
		}
		delete(p.byHash, hash)
	}

	kept := p.entries[:0]
	for _, e := range p.entries {
		if _, ok := p.byHash[e.Hash]; ok {
			kept = append(kept, e)
		}
	}
	p.entries = kept
}

// CleanupExpired removes every entry older than maxAge relative to now,
// unmarking the UTXOs each one reserved. Returns the number removed.
func (p *Pool) CleanupExpired(now time.Time, maxAge time.Duration) int {
	var stale []types.Hash
	for _, e := range p.entries {
		if now.Sub(e.EntryTime) > maxAge {
			stale = append(stale, e.Hash)
		}
	}
	for _, h := range stale {
		p.removeEntry(h)
	}
	return len(stale)
}

// Has reports whether hash is currently pending.
func (p *Pool) Has(hash types.Hash) bool {
	_, ok := p.byHash[hash]
	return ok
}

// Get returns the pending transaction for hash, if any.
func (p *Pool) Get(hash types.Hash) (*tx.Transaction, bool) {
	e, ok := p.byHash[hash]
	if !ok {
		return nil, false
	}
	return e.Tx, true
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	return len(p.entries)
}

// SelectOrdered returns up to limit pending transactions, highest fee
// first. limit <= 0 returns all of them.
func (p *Pool) SelectOrdered(limit int) []*tx.Transaction {
	n := len(p.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*tx.Transaction, n)
	for i := 0; i < n; i++ {
		out[i] = p.entries[i].Tx
	}
	return out
}

// All returns a snapshot of every pending entry, in no particular order.
// Used by the persistent store to serialise the mempool index.
func (p *Pool) All() []Entry {
	out := make([]Entry, len(p.entries))
	for i, e := range p.entries {
		out[i] = *e
	}
	return out
}

func (p *Pool) sortByFeeDescending() {
	sort.SliceStable(p.entries, func(i, j int) bool {
		return p.entries[i].Fee > p.entries[j].Fee
	})
}
