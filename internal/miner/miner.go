// Package miner implements block production: assembling a template from the
// chain engine, sealing it by nonce search against its target, and
// submitting the result back to the engine.
package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/ironledger/ironledger/internal/chain"
	"github.com/ironledger/ironledger/internal/log"
	"github.com/ironledger/ironledger/pkg/block"
	"github.com/ironledger/ironledger/pkg/types"
)

// Miner repeatedly fetches a template from chain, seals it, and submits it
// back.
type Miner struct {
	chain      *chain.Engine
	rewardAddr types.Address
}

// New creates a miner that pays block rewards to rewardAddr.
func New(chain *chain.Engine, rewardAddr types.Address) *Miner {
	return &Miner{chain: chain, rewardAddr: rewardAddr}
}

// Run fetches, seals, and submits blocks in a loop until ctx is cancelled.
// Between blocks it re-fetches a template so a newly arrived peer block (or
// a retarget) is reflected in the next seal attempt.
func (m *Miner) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		b, err := m.MineOne(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Chain.Error().Err(err).Msg("mining attempt failed")
			continue
		}
		if err := m.chain.AddBlock(b); err != nil {
			log.Chain.Warn().Err(err).Msg("sealed block was rejected by the chain")
		}
	}
}

// MineOne fetches one template and seals it, searching nonces until the
// header hash meets its target or ctx is cancelled.
func (m *Miner) MineOne(ctx context.Context) (*block.Block, error) {
	tmpl := m.chain.FetchTemplate(m.rewardAddr, uint64(time.Now().Unix()))
	if err := Seal(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Seal searches b's header nonce space until its hash meets its target.
// Checks ctx for cancellation periodically rather than on every iteration,
// since ctx.Err() is itself synchronized and a hot loop shouldn't pay for it
// every nonce.
func Seal(ctx context.Context, b *block.Block) error {
	const checkEvery = 1 << 16
	for nonce := uint64(0); ; nonce++ {
		if nonce%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("miner: sealing cancelled: %w", err)
			}
		}
		b.Header.Nonce = nonce
		if b.Header.MeetsTarget() {
			return nil
		}
		if nonce == ^uint64(0) {
			return fmt.Errorf("miner: exhausted nonce space without meeting target")
		}
	}
}
