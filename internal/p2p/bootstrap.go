package p2p

import (
	"fmt"
	"sort"
	"time"

	"github.com/ironledger/ironledger/internal/chain"
	"github.com/ironledger/ironledger/internal/log"
	"github.com/ironledger/ironledger/internal/storage"
	"github.com/ironledger/ironledger/internal/wire"
	"github.com/ironledger/ironledger/pkg/types"
)

// requestTimeout bounds how long bootstrap waits for a single peer's
// response before giving up on it.
const requestTimeout = 10 * time.Second

// Bootstrap connects to the given seed addresses and, if the local store
// yielded no chain of its own, syncs the chain from whichever peer the
// network majority agrees on.
//
// hadPersistedChain tells Bootstrap whether engine was already loaded from
// disk: if so, seeds are still dialed to join the network, but no chain
// sync is attempted (the spec only syncs from peers when starting cold).
func Bootstrap(hub *Hub, engine *chain.Engine, seeds []string, hadPersistedChain bool) error {
	for _, addr := range seeds {
		if err := dialAndDiscover(hub, addr); err != nil {
			log.Bootstrap.Warn().Err(err).Str("seed", addr).Msg("failed to bootstrap from seed")
		}
	}

	if hadPersistedChain || len(seeds) == 0 {
		return nil
	}

	return syncFromPeers(hub, engine)
}

// dialAndDiscover connects to addr, asks it for its known peers, and waits
// for the NodeList reply. The peers named in that reply are not dialed.
func dialAndDiscover(hub *Hub, addr string) error {
	peer, err := hub.Dial(addr)
	if err != nil {
		return err
	}

	peer.Send(wire.NewEnvelope(hub.SelfID, wire.DiscoverNodes()))

	// NodeList carries peer identities, not network addresses, so this
	// discovery round can't dial anyone new sight unseen; it confirms the
	// seed is reachable and primes the majority-height poll that follows
	// with at least one peer.
	if _, ok := waitForReply(hub, peer.ID, wire.MsgNodeList, requestTimeout); !ok {
		return fmt.Errorf("p2p: %s did not answer DiscoverNodes in time", addr)
	}
	return nil
}

// syncFromPeers implements the majority-rule chain sync described in the
// bootstrap specification: poll every peer's height delta, settle on the
// height the majority agrees with, then replay the winning peer's chain
// into engine. Blocks at heights engine already holds (at least the shared
// genesis) are skipped.
func syncFromPeers(hub *Hub, engine *chain.Engine) error {
	peers := hub.Peers()
	if len(peers) == 0 {
		return nil
	}

	heights := make(map[uint64]int)
	heightOf := make(map[wire.PeerID]uint64)
	for _, id := range peers {
		p, ok := hub.Peer(id)
		if !ok {
			continue
		}
		p.Send(wire.NewEnvelope(hub.SelfID, wire.AskDifference(uint32(engine.Height()))))
		reply, ok := waitForReply(hub, id, wire.MsgDifference, requestTimeout)
		if !ok {
			continue
		}
		peerHeight := int64(engine.Height()) + int64(reply.Msg.Difference)
		if peerHeight < 0 {
			continue
		}
		heights[uint64(peerHeight)]++
		heightOf[id] = uint64(peerHeight)
	}

	winner, ok := majorityHeight(heights, len(peers))
	if !ok {
		log.Bootstrap.Warn().Msg("no peer responded to height poll, skipping sync")
		return nil
	}

	var chosenPeer wire.PeerID
	found := false
	for id, h := range heightOf {
		if h == winner {
			chosenPeer, found = id, true
			break
		}
	}
	if !found {
		return nil
	}

	p, ok := hub.Peer(chosenPeer)
	if !ok {
		return fmt.Errorf("p2p: chosen sync peer disconnected before fetch")
	}
	p.Send(wire.NewEnvelope(hub.SelfID, wire.FetchAllBlocks()))
	reply, ok := waitForReply(hub, chosenPeer, wire.MsgAllBlocks, requestTimeout)
	if !ok {
		return fmt.Errorf("p2p: chosen sync peer did not answer FetchAllBlocks in time")
	}

	blocks := reply.Msg.AllBlocks
	if have := int(engine.Height()); have <= len(blocks) {
		blocks = blocks[have:]
	} else {
		blocks = nil
	}
	for _, b := range blocks {
		if err := engine.AddBlock(b); err != nil {
			return fmt.Errorf("p2p: sync: %w", err)
		}
	}

	engine.RebuildUTXOs()
	log.Bootstrap.Info().Uint64("height", engine.Height()).Msg("synced chain from peer")
	return nil
}

// majorityHeight picks a height by majority rule: a group of size >=
// floor(n/2)+1 wins outright; otherwise the largest group wins, with a
// warning since no true majority was reached.
func majorityHeight(heights map[uint64]int, n int) (uint64, bool) {
	if len(heights) == 0 {
		return 0, false
	}

	threshold := n/2 + 1
	type candidate struct {
		height uint64
		count  int
	}
	var candidates []candidate
	for h, c := range heights {
		candidates = append(candidates, candidate{h, c})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].height < candidates[j].height })

	for _, c := range candidates {
		if c.count >= threshold {
			return c.height, true
		}
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.count > best.count {
			best = c
		}
	}
	log.Bootstrap.Warn().Uint64("height", best.height).Int("votes", best.count).Int("peers", n).
		Msg("no outright majority on chain height, taking the largest group")
	return best.height, true
}

// waitForReply blocks until a reply of the given type arrives from peer, or
// timeout elapses. Any other envelope read from the inbound channel while
// waiting is discarded. It reads the hub's inbound channel directly, which
// is safe only before the dispatcher goroutine has started consuming it.
func waitForReply(hub *Hub, from wire.PeerID, want wire.MessageType, timeout time.Duration) (InboundMessage, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-hub.Inbound:
			if msg.From == from && msg.Env.Msg.Type == want {
				return msg, true
			}
		case <-deadline:
			return InboundMessage{}, false
		}
	}
}

// LoadOrInit opens the persisted chain in db if one exists, or creates a
// fresh chain starting from a genesis block paying rewardAddr. Returns the
// engine and whether a persisted chain was found.
func LoadOrInit(db storage.DB, rewardAddr types.Address, genesisTimestamp uint64) (*chain.Engine, bool, error) {
	if engine, err := chain.Load(db); err == nil {
		return engine, true, nil
	}

	engine, err := chain.New(rewardAddr, genesisTimestamp)
	if err != nil {
		return nil, false, err
	}
	return engine, false, nil
}
