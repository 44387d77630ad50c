package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// DefaultTTL bounds how many times a gossiped NewBlock/NewTransaction is
// rebroadcast before it is dropped.
const DefaultTTL uint8 = 8

// maxEnvelopeSize caps the length prefix accepted from a peer, so a
// corrupt or hostile length field can't make a reader allocate unbounded
// memory waiting for bytes that will never arrive.
const maxEnvelopeSize = 64 << 20 // 64 MiB

// Envelope wraps a Message with the bookkeeping the hub and dispatcher need:
// a globally unique id for gossip deduplication, the originating peer, and a
// hop-count budget.
type Envelope struct {
	ID     uuid.UUID `cbor:"id"`
	Origin PeerID    `cbor:"origin"`
	TTL    uint8     `cbor:"ttl"`
	Msg    Message   `cbor:"msg"`
}

// NewEnvelope wraps msg for origin with a fresh id and the default TTL.
func NewEnvelope(origin PeerID, msg Message) Envelope {
	return Envelope{ID: uuid.New(), Origin: origin, TTL: DefaultTTL, Msg: msg}
}

// Reply builds a fresh envelope from self carrying msg, per the dispatcher's
// reply rule: a new id, origin self, default TTL.
func Reply(self PeerID, msg Message) Envelope {
	return NewEnvelope(self, msg)
}

// WriteTo encodes env as CBOR and writes it to w preceded by a 64-bit
// little-endian length prefix.
func WriteTo(w io.Writer, env Envelope) error {
	data, err := cbor.Marshal(env)
	if err != nil {
		return fmt.Errorf("wire: marshal envelope: %w", err)
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("wire: write envelope body: %w", err)
	}
	return nil
}

// ReadFrom reads one length-prefixed CBOR envelope from r.
func ReadFrom(r io.Reader) (Envelope, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Envelope{}, fmt.Errorf("wire: read length prefix: %w", err)
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	if n > maxEnvelopeSize {
		return Envelope{}, fmt.Errorf("wire: envelope of %d bytes exceeds the %d byte limit", n, maxEnvelopeSize)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return Envelope{}, fmt.Errorf("wire: read envelope body: %w", err)
	}

	var env Envelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	return env, nil
}
