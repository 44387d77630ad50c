package types

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressVersion is the single supported version byte for Base58Check addresses.
const AddressVersion = 0x00

// addressPayloadLen is the length, in bytes, of a RIPEMD-160 digest.
const addressPayloadLen = 20

// checksumLen is the number of checksum bytes appended before Base58 encoding.
const checksumLen = 4

// Address is a Base58Check-encoded account identifier:
//
//	Base58(version ‖ RIPEMD160(SHA256(pubkey)) ‖ first4(SHA256(SHA256(version ‖ hash))))
type Address string

// String returns the address as a plain string.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is the empty string.
func (a Address) IsZero() bool {
	return a == ""
}

// NewAddress builds an Address from a 20-byte public-key hash (the output of
// RIPEMD160(SHA256(compressed pubkey))).
func NewAddress(pubKeyHash [addressPayloadLen]byte) Address {
	payload := make([]byte, 0, 1+addressPayloadLen)
	payload = append(payload, AddressVersion)
	payload = append(payload, pubKeyHash[:]...)

	checksum := doubleSHA256(payload)[:checksumLen]
	full := append(payload, checksum...)

	return Address(base58.Encode(full))
}

// ParseAddress decodes and validates a Base58Check address string.
func ParseAddress(s string) (Address, error) {
	a := Address(s)
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// Validate checks that the address decodes to at least 25 bytes, carries the
// expected version byte, and has a checksum matching its payload.
func (a Address) Validate() error {
	decoded, err := base58.Decode(string(a))
	if err != nil {
		return fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(decoded) < 1+addressPayloadLen+checksumLen {
		return fmt.Errorf("address too short: %d bytes", len(decoded))
	}

	version := decoded[0]
	if version != AddressVersion {
		return fmt.Errorf("unsupported address version: %#x", version)
	}

	payload := decoded[:len(decoded)-checksumLen]
	wantChecksum := decoded[len(decoded)-checksumLen:]
	gotChecksum := doubleSHA256(payload)[:checksumLen]

	for i := range wantChecksum {
		if wantChecksum[i] != gotChecksum[i] {
			return fmt.Errorf("address checksum mismatch")
		}
	}
	return nil
}

// PubKeyHash returns the 20-byte RIPEMD160(SHA256(pubkey)) payload encoded in
// the address. The address must already be valid.
func (a Address) PubKeyHash() ([addressPayloadLen]byte, error) {
	var out [addressPayloadLen]byte
	decoded, err := base58.Decode(string(a))
	if err != nil {
		return out, fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(decoded) < 1+addressPayloadLen+checksumLen {
		return out, fmt.Errorf("address too short: %d bytes", len(decoded))
	}
	copy(out[:], decoded[1:1+addressPayloadLen])
	return out, nil
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}
