package p2p

import (
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/ironledger/ironledger/internal/log"
)

// Listen starts accepting inbound TCP connections on addr, adopting each one
// into the hub as it arrives. Returns once the listener is bound; the accept
// loop itself runs in a background goroutine until the listener is closed.
func (h *Hub) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("p2p: listen on %s: %w", addr, err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				log.Hub.Info().Err(err).Msg("listener closed")
				return
			}
			h.Adopt(uuid.New(), conn.RemoteAddr().String(), conn)
		}
	}()

	return ln, nil
}

// Dial connects to addr and adopts the resulting connection as a peer.
func (h *Hub) Dial(addr string) (*Peer, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	return h.Adopt(uuid.New(), addr, conn), nil
}
