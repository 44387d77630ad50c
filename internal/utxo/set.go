// Package utxo holds the unspent-output set the chain engine mutates under
// its single read-write lock. Set itself does no locking of its own; the
// chain engine owns exclusivity (see internal/chain).
package utxo

import (
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

// Entry pairs a stored output with whether a mempool transaction currently
// reserves it.
type Entry struct {
	Output tx.Output
	Marked bool
}

// Set is an in-memory UTXO set keyed by output hash.
type Set struct {
	entries map[types.Hash]Entry
}

// NewSet returns an empty UTXO set.
func NewSet() *Set {
	return &Set{entries: make(map[types.Hash]Entry)}
}

// Get returns the entry for hash, if present.
func (s *Set) Get(hash types.Hash) (Entry, bool) {
	e, ok := s.entries[hash]
	return e, ok
}

// GetOutput implements tx.UTXOProvider: it exposes the stored output
// regardless of marked state, since validation against the UTXO set
// considers existence, not mempool reservation.
func (s *Set) GetOutput(hash types.Hash) (tx.Output, bool) {
	e, ok := s.entries[hash]
	return e.Output, ok
}

// Put inserts or overwrites an unmarked entry for out, keyed by its hash.
func (s *Set) Put(out tx.Output) {
	s.entries[out.Hash()] = Entry{Output: out}
}

// Delete removes the entry for hash, if any.
func (s *Set) Delete(hash types.Hash) {
	delete(s.entries, hash)
}

// Mark reserves hash for a mempool transaction. Returns false if the output
// does not exist.
func (s *Set) Mark(hash types.Hash) bool {
	e, ok := s.entries[hash]
	if !ok {
		return false
	}
	e.Marked = true
	s.entries[hash] = e
	return true
}

// Unmark releases hash's mempool reservation, if any.
func (s *Set) Unmark(hash types.Hash) {
	e, ok := s.entries[hash]
	if !ok {
		return
	}
	e.Marked = false
	s.entries[hash] = e
}

// Len returns the number of tracked outputs.
func (s *Set) Len() int {
	return len(s.entries)
}

// Reset discards every entry, restoring the set to empty. Used by
// rebuild_utxos before replaying the chain.
func (s *Set) Reset() {
	s.entries = make(map[types.Hash]Entry)
}

// All returns a snapshot copy of the underlying entries, for iteration by
// the persistent store or balance queries.
func (s *Set) All() map[types.Hash]Entry {
	out := make(map[types.Hash]Entry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}
