package chain

import (
	"testing"
	"time"

	"github.com/ironledger/ironledger/internal/storage"
	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/tx"
)

func TestStore_SaveAndLoad_RoundTrip(t *testing.T) {
	e, key, addr := newTestEngineWithKey(t)

	dest, _ := crypto.GenerateKey()

	tmpl := e.FetchTemplate(addr, 1700000100)
	if err := e.AddBlock(tmpl); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	pending := tx.NewBuilder()
	if err := pending.AddSignedInput(tmpl.Transactions[0].Outputs[0].Hash(), key); err != nil {
		t.Fatalf("AddSignedInput: %v", err)
	}
	pending.AddOutput(1, dest.Address())
	pendingTx := pending.Build()
	if _, err := e.AddToMempool(pendingTx, time.Now()); err != nil {
		t.Fatalf("AddToMempool: %v", err)
	}

	db := storage.NewMemory()
	defer db.Close()
	store := NewStore(db)
	if err := store.Save(e); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(db)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Height() != e.Height() {
		t.Errorf("Height after load = %d, want %d", loaded.Height(), e.Height())
	}
	if loaded.UTXOBalance(addr) != e.UTXOBalance(addr) {
		t.Errorf("UTXOBalance after load = %d, want %d", loaded.UTXOBalance(addr), e.UTXOBalance(addr))
	}
	if _, ok := loaded.FetchMempoolTx(pendingTx.Hash()); !ok {
		t.Error("persisted mempool entry should be replayed on load")
	}
}
