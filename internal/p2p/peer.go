// Package p2p implements the raw-TCP gossip network: a hub that owns every
// peer connection and a dispatcher that reacts to what arrives on them.
package p2p

import (
	"net"
	"time"

	"github.com/ironledger/ironledger/internal/wire"
)

// outboundBuffer and inboundBuffer are the channel capacities backing every
// peer's write queue and the hub's shared read queue.
const (
	outboundBuffer = 256
	inboundBuffer  = 128
)

// seenCapacity bounds the LRU of recently observed envelope ids used for
// gossip deduplication.
const seenCapacity = 4096

// Peer is a connected remote node as tracked by the hub.
type Peer struct {
	ID          wire.PeerID
	Addr        string
	ConnectedAt time.Time

	conn     net.Conn
	outbound chan wire.Envelope
	done     chan struct{}
}

// Send enqueues env for delivery to p without blocking. Returns false if the
// peer's outbound queue is full, in which case the message is dropped for
// that peer only. Used for broadcast, where a congested peer is expected to
// fall behind rather than stall the sender.
func (p *Peer) Send(env wire.Envelope) bool {
	select {
	case p.outbound <- env:
		return true
	default:
		return false
	}
}

// SendBlocking enqueues env for delivery to p, waiting if its outbound queue
// is full rather than dropping the message. Used for point-to-point replies,
// which must not be silently lost. Returns false only if p disconnects
// before the send completes.
func (p *Peer) SendBlocking(env wire.Envelope) bool {
	select {
	case p.outbound <- env:
		return true
	case <-p.done:
		return false
	}
}

// Close tears down the peer's connection and stops its reader/writer
// goroutines.
func (p *Peer) Close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
