package consensus

import (
	"math/big"
	"testing"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/pkg/types"
)

func targetFromInt64(v int64) types.Target {
	return types.TargetFromBigInt(big.NewInt(v))
}

func TestCalcNextTarget_FasterThanIdeal_Halves(t *testing.T) {
	prev := targetFromInt64(1_000_000)
	// actual = ideal/2 -> new = prev/2, within [prev/4, prev*4].
	got := CalcNextTarget(prev, 50, 100)
	want := targetFromInt64(500_000)
	if got != want {
		t.Errorf("CalcNextTarget = %s, want %s", got, want)
	}
}

func TestCalcNextTarget_SlowerThanIdeal_ClampedToQuadruple(t *testing.T) {
	prev := targetFromInt64(1_000_000)
	// actual = 10x ideal -> raw new = prev*10, clamped to prev*4.
	got := CalcNextTarget(prev, 1000, 100)
	want := targetFromInt64(4_000_000)
	if got != want {
		t.Errorf("CalcNextTarget = %s, want %s", got, want)
	}
}

func TestCalcNextTarget_ClampedToQuarter(t *testing.T) {
	prev := targetFromInt64(1_000_000)
	// actual = ideal/100 -> raw new = prev/100, clamped to prev/4.
	got := CalcNextTarget(prev, 1, 100)
	want := targetFromInt64(250_000)
	if got != want {
		t.Errorf("CalcNextTarget = %s, want %s", got, want)
	}
}

func TestCalcNextTarget_CappedAtMinTarget(t *testing.T) {
	huge := types.MaxTarget
	got := CalcNextTarget(huge, 1000, 100) // would overshoot MaxTarget*4
	if got != config.MinTarget {
		t.Errorf("CalcNextTarget = %s, want MinTarget %s", got, config.MinTarget)
	}
}

func TestShouldRetarget(t *testing.T) {
	cases := []struct {
		height uint64
		want   bool
	}{
		{0, false},
		{config.DifficultyUpdateInterval, true},
		{config.DifficultyUpdateInterval - 1, false},
		{config.DifficultyUpdateInterval * 2, true},
	}
	for _, c := range cases {
		if got := ShouldRetarget(c.height); got != c.want {
			t.Errorf("ShouldRetarget(%d) = %v, want %v", c.height, got, c.want)
		}
	}
}
