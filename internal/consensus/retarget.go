// Package consensus implements proof-of-work target retargeting.
package consensus

import (
	"math/big"

	"github.com/ironledger/ironledger/config"
	"github.com/ironledger/ironledger/pkg/types"
)

// CalcNextTarget computes the retargeted proof-of-work target given the
// elapsed time over the last retarget interval (actualSeconds) against the
// ideal elapsed time for that interval (idealSeconds).
//
// new = prevTarget * actual / ideal, clamped to [prevTarget/4, prevTarget*4],
// then capped at config.MinTarget (the easiest target ever permitted).
func CalcNextTarget(prevTarget types.Target, actualSeconds, idealSeconds int64) types.Target {
	if actualSeconds <= 0 {
		actualSeconds = 1
	}
	if idealSeconds <= 0 {
		idealSeconds = 1
	}

	prev := prevTarget.BigInt()
	next := new(big.Int).Mul(prev, big.NewInt(actualSeconds))
	next.Div(next, big.NewInt(idealSeconds))

	quarter := new(big.Int).Div(prev, big.NewInt(4))
	quadruple := new(big.Int).Mul(prev, big.NewInt(4))
	if next.Cmp(quarter) < 0 {
		next = quarter
	}
	if next.Cmp(quadruple) > 0 {
		next = quadruple
	}

	clamped := types.TargetFromBigInt(next)
	return clamped.Min(config.MinTarget)
}

// ShouldRetarget reports whether height is a retarget boundary: a nonzero
// multiple of config.DifficultyUpdateInterval.
func ShouldRetarget(height uint64) bool {
	return height > 0 && height%config.DifficultyUpdateInterval == 0
}
