package block

import (
	"encoding/binary"

	"github.com/ironledger/ironledger/pkg/crypto"
	"github.com/ironledger/ironledger/pkg/types"
)

// Header contains block metadata. It carries no height or version field:
// height is the block's position in the chain, not part of its identity,
// and there is exactly one wire format.
type Header struct {
	Timestamp     uint64       `json:"timestamp" cbor:"timestamp"`
	Nonce         uint64       `json:"nonce" cbor:"nonce"`
	PrevBlockHash types.Hash   `json:"prev_block_hash" cbor:"prev_block_hash"`
	MerkleRoot    types.Hash   `json:"merkle_root" cbor:"merkle_root"`
	Target        types.Target `json:"target" cbor:"target"`
}

// Hash computes the block header hash.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.SigningBytes())
}

// SigningBytes returns the canonical bytes hashed to produce the header hash.
// Format: timestamp(8) | nonce(8) | prev_block_hash(32) | merkle_root(32) | target(32)
func (h *Header) SigningBytes() []byte {
	buf := make([]byte, 0, 8+8+32+32+32)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = append(buf, h.Target.Bytes()...)
	return buf
}

// MeetsTarget reports whether this header's hash satisfies its own target.
func (h *Header) MeetsTarget() bool {
	return h.Hash().MatchesTarget(h.Target)
}
