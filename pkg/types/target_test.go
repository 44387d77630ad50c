package types

import (
	"math/big"
	"testing"
)

func TestTargetFromBigInt_RoundTrip(t *testing.T) {
	v := big.NewInt(123456789)
	target := TargetFromBigInt(v)
	if target.BigInt().Cmp(v) != 0 {
		t.Errorf("BigInt() = %v, want %v", target.BigInt(), v)
	}
}

func TestTargetFromBigInt_Overflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 257)
	got := TargetFromBigInt(huge)
	if got != MaxTarget {
		t.Errorf("overflow should clamp to MaxTarget, got %x", got)
	}
}

func TestTargetFromBigInt_NonPositive(t *testing.T) {
	got := TargetFromBigInt(big.NewInt(0))
	if !got.IsZero() {
		t.Error("zero input should produce zero target")
	}
	got = TargetFromBigInt(big.NewInt(-5))
	if !got.IsZero() {
		t.Error("negative input should produce zero target")
	}
}

func TestTarget_Min(t *testing.T) {
	small := TargetFromBigInt(big.NewInt(10))
	large := TargetFromBigInt(big.NewInt(100))
	if small.Min(large) != small {
		t.Error("Min should return the smaller target")
	}
	if large.Min(small) != small {
		t.Error("Min should be symmetric")
	}
}

func TestTarget_JSONRoundTrip(t *testing.T) {
	want := TargetFromBigInt(big.NewInt(42))
	data, err := want.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var got Target
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %x, want %x", got, want)
	}
}
