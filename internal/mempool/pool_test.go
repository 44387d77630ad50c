package mempool

import (
	"testing"
	"time"

	"github.com/ironledger/ironledger/internal/utxo"
	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

func newFundedSet(t *testing.T, key *crypto.PrivateKey, value uint64) (*utxo.Set, tx.Output) {
	t.Helper()
	set := utxo.NewSet()
	out := tx.NewOutput(value, key.Address())
	set.Put(out)
	return set, out
}

func spendTx(t *testing.T, key *crypto.PrivateKey, prevHash types.Hash, outValue uint64) *tx.Transaction {
	t.Helper()
	b := tx.NewBuilder()
	if err := b.AddSignedInput(prevHash, key); err != nil {
		t.Fatalf("AddSignedInput: %v", err)
	}
	dest, _ := crypto.GenerateKey()
	b.AddOutput(outValue, dest.Address())
	return b.Build()
}

func TestPool_Add(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set, out := newFundedSet(t, key, 100)
	pool := New(set)

	txn := spendTx(t, key, out.Hash(), 60)
	fee, err := pool.Add(txn, time.Now())
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fee != 40 {
		t.Errorf("fee = %d, want 40", fee)
	}
	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pool.Len())
	}

	entry, ok := set.Get(out.Hash())
	if !ok || !entry.Marked {
		t.Error("spent output should be marked")
	}
}

func TestPool_Add_MissingInput(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set := utxo.NewSet()
	pool := New(set)

	txn := spendTx(t, key, types.Hash{1}, 1)
	if _, err := pool.Add(txn, time.Now()); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestPool_ConflictReplacement(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set, out := newFundedSet(t, key, 100)
	pool := New(set)

	tx1 := spendTx(t, key, out.Hash(), 10)
	if _, err := pool.Add(tx1, time.Now()); err != nil {
		t.Fatalf("Add tx1: %v", err)
	}

	tx2 := spendTx(t, key, out.Hash(), 20)
	if _, err := pool.Add(tx2, time.Now()); err != nil {
		t.Fatalf("Add tx2: %v", err)
	}

	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after replacement", pool.Len())
	}
	if pool.Has(tx1.Hash()) {
		t.Error("tx1 should have been evicted by the conflicting tx2")
	}
	if !pool.Has(tx2.Hash()) {
		t.Error("tx2 should be present")
	}

	entry, ok := set.Get(out.Hash())
	if !ok || !entry.Marked {
		t.Error("output should remain marked, now reserved by tx2")
	}
}

func TestPool_SelectOrdered_DescendingFee(t *testing.T) {
	keyA, _ := crypto.GenerateKey()
	keyB, _ := crypto.GenerateKey()
	setA, outA := newFundedSet(t, keyA, 100)
	outB := tx.NewOutput(100, keyB.Address())
	setA.Put(outB)
	pool := New(setA)

	lowFee := spendTx(t, keyA, outA.Hash(), 90)  // fee 10
	hiFee := spendTx(t, keyB, outB.Hash(), 50)   // fee 50

	if _, err := pool.Add(lowFee, time.Now()); err != nil {
		t.Fatalf("Add lowFee: %v", err)
	}
	if _, err := pool.Add(hiFee, time.Now()); err != nil {
		t.Fatalf("Add hiFee: %v", err)
	}

	ordered := pool.SelectOrdered(0)
	if len(ordered) != 2 {
		t.Fatalf("SelectOrdered returned %d txs, want 2", len(ordered))
	}
	if ordered[0].Hash() != hiFee.Hash() {
		t.Error("higher-fee transaction should sort first")
	}
}

func TestPool_CleanupExpired(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set, out := newFundedSet(t, key, 100)
	pool := New(set)

	txn := spendTx(t, key, out.Hash(), 10)
	old := time.Now().Add(-2 * time.Hour)
	if _, err := pool.Add(txn, old); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed := pool.CleanupExpired(time.Now(), time.Hour)
	if removed != 1 {
		t.Errorf("CleanupExpired removed %d, want 1", removed)
	}
	if pool.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after cleanup", pool.Len())
	}
	entry, ok := set.Get(out.Hash())
	if !ok || entry.Marked {
		t.Error("output should be unmarked after its entry expires")
	}
}

func TestPool_RemoveConfirmed_SweepsSupersededEntry(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set, out := newFundedSet(t, key, 100)
	pool := New(set)

	// This entry never conflicts with anything the mempool itself saw, so
	// Add admits it normally.
	pending := spendTx(t, key, out.Hash(), 10)
	if _, err := pool.Add(pending, time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// A different transaction spending the same output reaches the chain
	// without ever passing through this mempool (e.g. gossiped directly as
	// part of a block). pending is now unminable and must be swept too.
	confirmed := spendTx(t, key, out.Hash(), 10)
	set.Delete(out.Hash())

	pool.RemoveConfirmed([]*tx.Transaction{confirmed})

	if pool.Has(pending.Hash()) {
		t.Error("entry superseded by a differently-sourced confirmed spend should be swept from the pool")
	}
}

func TestPool_RemoveConfirmed(t *testing.T) {
	key, _ := crypto.GenerateKey()
	set, out := newFundedSet(t, key, 100)
	pool := New(set)

	txn := spendTx(t, key, out.Hash(), 10)
	if _, err := pool.Add(txn, time.Now()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	pool.RemoveConfirmed([]*tx.Transaction{txn})
	if pool.Has(txn.Hash()) {
		t.Error("confirmed tx should be removed from the pool")
	}
}
