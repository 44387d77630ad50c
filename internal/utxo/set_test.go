package utxo

import (
	"testing"

	"github.com/ironledger/ironledger/pkg/tx"
	"github.com/ironledger/ironledger/pkg/types"
)

func TestSet_PutGetDelete(t *testing.T) {
	s := NewSet()
	out := tx.NewOutput(100, types.Address("addr"))
	s.Put(out)

	got, ok := s.Get(out.Hash())
	if !ok {
		t.Fatal("expected entry to exist")
	}
	if got.Output.Value != 100 {
		t.Errorf("Value = %d, want 100", got.Output.Value)
	}
	if got.Marked {
		t.Error("freshly put entry should not be marked")
	}

	s.Delete(out.Hash())
	if _, ok := s.Get(out.Hash()); ok {
		t.Error("entry should be gone after Delete")
	}
}

func TestSet_MarkUnmark(t *testing.T) {
	s := NewSet()
	out := tx.NewOutput(1, types.Address("addr"))
	s.Put(out)

	if !s.Mark(out.Hash()) {
		t.Fatal("Mark should succeed for an existing output")
	}
	got, _ := s.Get(out.Hash())
	if !got.Marked {
		t.Error("entry should be marked")
	}

	s.Unmark(out.Hash())
	got, _ = s.Get(out.Hash())
	if got.Marked {
		t.Error("entry should be unmarked")
	}
}

func TestSet_MarkMissing(t *testing.T) {
	s := NewSet()
	if s.Mark(types.Hash{1}) {
		t.Error("Mark on a missing output should return false")
	}
}

func TestSet_GetOutput_ImplementsUTXOProvider(t *testing.T) {
	s := NewSet()
	out := tx.NewOutput(42, types.Address("addr"))
	s.Put(out)

	var provider tx.UTXOProvider = s
	got, ok := provider.GetOutput(out.Hash())
	if !ok || got.Value != 42 {
		t.Errorf("GetOutput = (%v, %v), want (value=42, true)", got, ok)
	}
}

func TestSet_ResetAndLen(t *testing.T) {
	s := NewSet()
	s.Put(tx.NewOutput(1, types.Address("a")))
	s.Put(tx.NewOutput(2, types.Address("b")))
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", s.Len())
	}
}

func TestSet_All_IsACopy(t *testing.T) {
	s := NewSet()
	out := tx.NewOutput(1, types.Address("a"))
	s.Put(out)

	snapshot := s.All()
	s.Delete(out.Hash())

	if _, ok := snapshot[out.Hash()]; !ok {
		t.Error("All() snapshot should be unaffected by later mutation")
	}
}
