package p2p

import (
	"time"

	"github.com/ironledger/ironledger/internal/chain"
	"github.com/ironledger/ironledger/internal/log"
)

// cleanupInterval and snapshotInterval are the two cooperative background
// timers: how often stale mempool entries are evicted, and how often the
// chain state is snapshotted to disk.
const (
	cleanupInterval  = 30 * time.Second
	snapshotInterval = 15 * time.Second
)

// RunCleanupLoop evicts expired mempool entries every cleanupInterval until
// stop is closed.
func RunCleanupLoop(engine *chain.Engine, stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := engine.CleanupMempool(time.Now()); n > 0 {
				log.Chain.Info().Int("evicted", n).Msg("cleaned up expired mempool entries")
			}
		case <-stop:
			return
		}
	}
}

// RunSnapshotLoop persists engine to store every snapshotInterval until stop
// is closed.
func RunSnapshotLoop(store *chain.Store, engine *chain.Engine, stop <-chan struct{}) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := store.Save(engine); err != nil {
				log.Store.Error().Err(err).Msg("snapshot failed")
			}
		case <-stop:
			return
		}
	}
}
