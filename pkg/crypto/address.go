package crypto

import (
	"crypto/sha256"

	"github.com/ironledger/ironledger/pkg/types"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for Base58Check address derivation
)

// DeriveAddress derives the Base58Check address for a compressed secp256k1
// public key: Base58(version ‖ RIPEMD160(SHA256(pubkey)) ‖ checksum).
func DeriveAddress(pubKey []byte) types.Address {
	sha := sha256.Sum256(pubKey)

	ripemd := ripemd160.New()
	ripemd.Write(sha[:])

	var hash [20]byte
	copy(hash[:], ripemd.Sum(nil))

	return types.NewAddress(hash)
}

// Address returns the Base58Check address for this private key's public key.
func (pk *PrivateKey) Address() types.Address {
	return DeriveAddress(pk.PublicKey())
}
