// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ed25519

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/crypto"
)

var (
	TestPrivateKey = PrivateKey(
		[PrivateKeyLen]byte{
			32, 241, 118, 222, 210, 13, 164, 128, 3, 18,
			109, 215, 176, 215, 168, 171, 194, 181, 4, 11,
			253, 199, 173, 240, 107, 148, 127, 190, 48, 164,
			12, 48, 115, 50, 124, 153, 59, 53, 196, 150, 168,
			143, 151, 235, 222, 128, 136, 161, 9, 40, 139, 85,
			182, 153, 68, 135, 62, 166, 45, 235, 251, 246, 69, 7,
		},
	)
	TestPublicKey = []byte{
		115, 50, 124, 153, 59, 53, 196, 150, 168, 143, 151, 235,
		222, 128, 136, 161, 9, 40, 139, 85, 182, 153, 68, 135,
		62, 166, 45, 235, 251, 246, 69, 7,
	}
)

func TestGeneratePrivateKeyDifferent(t *testing.T) {
	require := require.New(t)
	const numKeysToGenerate int = 10

	m := make(map[PrivateKey]bool)
	for i := 0; i < numKeysToGenerate; i++ {
		priv, err := GeneratePrivateKey()
		require.NoError(err)
		require.NotEqual(EmptyPrivateKey, priv)
		require.False(m[priv], "Duplicate PrivateKey generated")
		m[priv] = true
	}
}

func TestPublicKeyValid(t *testing.T) {
	require := require.New(t)
	var expectedPubKey PublicKey
	copy(expectedPubKey[:], TestPublicKey)
	require.Equal(expectedPubKey, TestPrivateKey.PublicKey())
}

func TestPrivateKeyFromSeed(t *testing.T) {
	require := require.New(t)

	priv, err := PrivateKeyFromSeed(TestPrivateKey.Seed())
	require.NoError(err)
	require.Equal(TestPrivateKey, priv)

	_, err = PrivateKeyFromSeed([]byte{1, 2, 3})
	require.ErrorIs(err, crypto.ErrInvalidPrivateKey)
}

func TestLoadHexKey(t *testing.T) {
	require := require.New(t)

	priv, err := LoadHexKey("0x" + TestPrivateKey.Hex())
	require.NoError(err)
	require.Equal(TestPrivateKey, priv)

	_, err = LoadHexKey("zz")
	require.ErrorIs(err, crypto.ErrInvalidPrivateKey)
}

func TestSignVerify(t *testing.T) {
	require := require.New(t)
	msg := []byte("msg")

	sig := Sign(msg, TestPrivateKey)
	require.True(Verify(msg, TestPrivateKey.PublicKey(), sig))
	require.False(Verify([]byte("other"), TestPrivateKey.PublicKey(), sig))

	other, err := GeneratePrivateKey()
	require.NoError(err)
	require.False(Verify(msg, other.PublicKey(), sig))
}

func TestAddressRoundTrip(t *testing.T) {
	require := require.New(t)
	pub := TestPrivateKey.PublicKey()

	addr := Address(pub)
	require.Contains(addr, HRP+"1")

	parsed, err := ParseAddress(addr)
	require.NoError(err)
	require.Equal(pub, parsed)
}
