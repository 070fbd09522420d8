// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/hdevalence/ed25519consensus"

	oed25519 "github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/ava-labs/hyperload/crypto"
)

type (
	PublicKey  [ed25519.PublicKeySize]byte
	PrivateKey [ed25519.PrivateKeySize]byte
	Signature  [ed25519.SignatureSize]byte
)

// We use the ZIP-215 specification for ed25519 signature
// verification (https://zips.z.cash/zip-0215) because it provides
// an explicit validity criteria for signatures and is broadly compatible
// with signatures produced by almost all ed25519 implementations.
const (
	PublicKeyLen  = ed25519.PublicKeySize
	PrivateKeyLen = ed25519.PrivateKeySize
	// PrivateKeySeedLen is defined because ed25519.PrivateKey
	// is formatted as privateKey = seed|publicKey. We use this const
	// to extract the publicKey below.
	PrivateKeySeedLen = ed25519.SeedSize
	SignatureLen      = ed25519.SignatureSize

	// HRP is the human readable part of an encoded signer address.
	HRP = "load"
)

var (
	EmptyPublicKey  = [ed25519.PublicKeySize]byte{}
	EmptyPrivateKey = [ed25519.PrivateKeySize]byte{}
	EmptySignature  = [ed25519.SignatureSize]byte{}
)

// GeneratePrivateKey returns a Ed25519 PrivateKey.
func GeneratePrivateKey() (PrivateKey, error) {
	_, k, err := oed25519.GenerateKey(nil)
	if err != nil {
		return EmptyPrivateKey, err
	}
	return PrivateKey(k), nil
}

// PrivateKeyFromSeed derives the PrivateKey for a 32 byte seed.
func PrivateKeyFromSeed(seed []byte) (PrivateKey, error) {
	if len(seed) != PrivateKeySeedLen {
		return EmptyPrivateKey, fmt.Errorf("%w: seed must be %d bytes, got %d", crypto.ErrInvalidPrivateKey, PrivateKeySeedLen, len(seed))
	}
	return PrivateKey(oed25519.NewKeyFromSeed(seed)), nil
}

// LoadHexKey parses a hex encoded seed or full private key. A 0x prefix
// is accepted.
func LoadHexKey(s string) (PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return EmptyPrivateKey, fmt.Errorf("%w: %w", crypto.ErrInvalidPrivateKey, err)
	}
	switch len(b) {
	case PrivateKeySeedLen:
		return PrivateKeyFromSeed(b)
	case PrivateKeyLen:
		return PrivateKey(b), nil
	default:
		return EmptyPrivateKey, fmt.Errorf("%w: unexpected length %d", crypto.ErrInvalidPrivateKey, len(b))
	}
}

// PublicKey returns a PublicKey associated with the Ed25519 PrivateKey p.
// The PublicKey is the last 32 bytes of p.
func (p PrivateKey) PublicKey() PublicKey {
	return PublicKey(p[PrivateKeySeedLen:])
}

// Seed returns the 32 byte seed p was derived from.
func (p PrivateKey) Seed() []byte {
	return p[:PrivateKeySeedLen]
}

// Hex returns the hex encoded seed of p.
func (p PrivateKey) Hex() string {
	return hex.EncodeToString(p.Seed())
}

// Sign returns a valid signature for msg using pk.
func Sign(msg []byte, pk PrivateKey) Signature {
	return Signature(oed25519.Sign(pk[:], msg))
}

// Verify returns whether s is a valid signature of msg by p.
func Verify(msg []byte, p PublicKey, s Signature) bool {
	return ed25519consensus.Verify(p[:], msg, s[:])
}

// Address returns the bech32 encoding of p.
func Address(p PublicKey) string {
	// ConvertBits only fails on invalid bit widths
	conv, _ := bech32.ConvertBits(p[:], 8, 5, true)
	addr, _ := bech32.Encode(HRP, conv)
	return addr
}

// ParseAddress returns the PublicKey encoded in addr.
func ParseAddress(addr string) (PublicKey, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return EmptyPublicKey, err
	}
	if hrp != HRP {
		return EmptyPublicKey, crypto.ErrIncorrectHrp
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return EmptyPublicKey, err
	}
	if len(raw) != PublicKeyLen {
		return EmptyPublicKey, crypto.ErrInvalidPublicKey
	}
	return PublicKey(raw), nil
}
