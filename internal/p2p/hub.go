package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ironledger/ironledger/internal/log"
	"github.com/ironledger/ironledger/internal/wire"
)

// InboundMessage pairs a received envelope with the peer it arrived from.
type InboundMessage struct {
	From wire.PeerID
	Env  wire.Envelope
}

// Hub owns every live peer connection. It has no notion of consensus: it
// moves envelopes in and out, and lets the dispatcher decide what they mean.
type Hub struct {
	SelfID wire.PeerID

	mu    sync.RWMutex
	peers map[wire.PeerID]*Peer

	Inbound chan InboundMessage

	seenMu sync.Mutex
	seen   *lru.Cache[wire.PeerID, struct{}]
}

// NewHub creates a hub identifying itself as selfID.
func NewHub(selfID wire.PeerID) *Hub {
	seen, err := lru.New[wire.PeerID, struct{}](seenCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which seenCapacity
		// never is.
		panic(fmt.Sprintf("p2p: building seen cache: %v", err))
	}
	return &Hub{
		SelfID:  selfID,
		peers:   make(map[wire.PeerID]*Peer),
		Inbound: make(chan InboundMessage, inboundBuffer),
		seen:    seen,
	}
}

// Adopt registers conn as a live peer under id and starts its reader and
// writer goroutines. The caller chooses id; Listen and Dial pass a fresh
// random UUID, since there is no handshake that learns the remote node's
// own id.
func (h *Hub) Adopt(id wire.PeerID, addr string, conn net.Conn) *Peer {
	p := &Peer{
		ID:          id,
		Addr:        addr,
		ConnectedAt: time.Now(),
		conn:        conn,
		outbound:    make(chan wire.Envelope, outboundBuffer),
		done:        make(chan struct{}),
	}

	h.mu.Lock()
	h.peers[id] = p
	h.mu.Unlock()

	go h.readLoop(p)
	go h.writeLoop(p)

	log.Hub.Info().Str("peer", id.String()).Str("addr", addr).Msg("peer connected")
	return p
}

// Drop removes a peer from the table and tears down its connection.
func (h *Hub) Drop(id wire.PeerID) {
	h.mu.Lock()
	p, ok := h.peers[id]
	if ok {
		delete(h.peers, id)
	}
	h.mu.Unlock()

	if ok {
		p.Close()
		log.Hub.Info().Str("peer", id.String()).Msg("peer disconnected")
	}
}

// Peer returns the peer with the given id, if connected.
func (h *Hub) Peer(id wire.PeerID) (*Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[id]
	return p, ok
}

// Peers returns a snapshot of every currently connected peer id.
func (h *Hub) Peers() []wire.PeerID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]wire.PeerID, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	return out
}

// Count reports the number of connected peers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// TrackIfNew reports whether id has not been seen before, recording it as
// seen either way. Used by the dispatcher for gossip deduplication.
func (h *Hub) TrackIfNew(id wire.PeerID) bool {
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	if h.seen.Contains(id) {
		return false
	}
	h.seen.Add(id, struct{}{})
	return true
}

// BroadcastExcept tries to deliver env to every peer other than except (the
// zero PeerID value excludes nobody). A peer whose outbound queue is full
// drops the message rather than blocking the others.
func (h *Hub) BroadcastExcept(except wire.PeerID, env wire.Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, p := range h.peers {
		if id == except {
			continue
		}
		if !p.Send(env) {
			log.Hub.Warn().Str("peer", id.String()).Msg("outbound queue full, dropping broadcast")
		}
	}
}

// readLoop decodes envelopes off p's connection and pushes them onto the
// shared inbound channel. Backpressure is cooperative: a full inbound
// channel blocks this reader only, slowing that one peer.
func (h *Hub) readLoop(p *Peer) {
	defer h.Drop(p.ID)
	for {
		env, err := wire.ReadFrom(p.conn)
		if err != nil {
			select {
			case <-p.done:
			default:
				log.Hub.Error().Err(err).Str("peer", p.ID.String()).Msg("read error, tearing down peer")
			}
			return
		}
		select {
		case h.Inbound <- InboundMessage{From: p.ID, Env: env}:
		case <-p.done:
			return
		}
	}
}

// writeLoop drains p's outbound queue onto its connection until the
// connection fails or the peer is torn down.
func (h *Hub) writeLoop(p *Peer) {
	for {
		select {
		case env := <-p.outbound:
			if err := wire.WriteTo(p.conn, env); err != nil {
				log.Hub.Error().Err(err).Str("peer", p.ID.String()).Msg("write error, tearing down peer")
				h.Drop(p.ID)
				return
			}
		case <-p.done:
			return
		}
	}
}
