// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package operation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/chain"
)

func TestParseKind(t *testing.T) {
	require := require.New(t)

	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(err)
		require.Equal(k, parsed)
	}

	k, err := ParseKind("registerdomain")
	require.NoError(err)
	require.Equal(RegisterDomain, k)

	_, err = ParseKind("BurnAsset")
	require.ErrorIs(err, ErrUnknownKind)

	kinds, err := ParseKinds([]string{"MintAsset", "TransferAsset"})
	require.NoError(err)
	require.Equal([]Kind{MintAsset, TransferAsset}, kinds)

	_, err = ParseKinds([]string{"MintAsset", ""})
	require.ErrorIs(err, ErrUnknownKind)

	require.Len(KindNames(), 8)
}

func TestNewBuilderInvalidAccount(t *testing.T) {
	for _, account := range []string{"", "alice", "@wonderland", "alice@"} {
		_, err := NewBuilder(account, 0)
		require.ErrorIs(t, err, ErrInvalidAccount, account)
	}
}

func TestBuild(t *testing.T) {
	b, err := NewBuilder("alice@wonderland", 1)
	require.NoError(t, err)

	tests := []struct {
		kind   Kind
		ids    []string
		object []chain.ObjectKind
	}{
		{
			kind:   RegisterAccount,
			ids:    []string{"alice7@wonderland"},
			object: []chain.ObjectKind{chain.Account},
		},
		{
			kind:   RegisterDomain,
			ids:    []string{"wonderland7"},
			object: []chain.ObjectKind{chain.Domain},
		},
		{
			kind:   RegisterAssetQuantity,
			ids:    []string{"rose_quantity7#wonderland", "rose_quantity7#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.AssetDefinition, chain.Asset},
		},
		{
			kind:   RegisterAssetBigQuantity,
			ids:    []string{"rose_big_quantity7#wonderland", "rose_big_quantity7#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.AssetDefinition, chain.Asset},
		},
		{
			kind:   RegisterAssetFixed,
			ids:    []string{"rose_fixed7#wonderland", "rose_fixed7#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.AssetDefinition, chain.Asset},
		},
		{
			kind:   RegisterAssetStore,
			ids:    []string{"rose_store7#wonderland", "rose_store7#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.AssetDefinition, chain.Asset},
		},
		{
			kind:   TransferAsset,
			ids:    []string{"rose#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.Asset},
		},
		{
			kind:   MintAsset,
			ids:    []string{"rose#wonderland#alice@wonderland"},
			object: []chain.ObjectKind{chain.Asset},
		},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require := require.New(t)

			instructions, err := b.Build(tt.kind, 7)
			require.NoError(err)
			require.Len(instructions, len(tt.ids))
			for i, instruction := range instructions {
				require.Equal(tt.ids[i], instruction.ID)
				require.Equal(tt.object[i], instruction.Object)
			}
		})
	}
}

func TestBuildValues(t *testing.T) {
	require := require.New(t)

	b, err := NewBuilder("alice@wonderland", 1)
	require.NoError(err)

	instructions, err := b.Build(RegisterAssetBigQuantity, 0)
	require.NoError(err)
	require.Equal(chain.BigQuantity, instructions[0].Value.Type)
	require.Equal(bigQuantityValue, instructions[1].Value.Big)

	instructions, err = b.Build(RegisterAssetStore, 0)
	require.NoError(err)
	require.Len(instructions[1].Value.Store, 2)

	instructions, err = b.Build(TransferAsset, 0)
	require.NoError(err)
	require.Equal(chain.Transfer, instructions[0].Kind)
	require.Equal("bob@wonderland", instructions[0].Destination)
	require.GreaterOrEqual(instructions[0].Value.Quantity, uint32(1))
	require.LessOrEqual(instructions[0].Value.Quantity, uint32(maxTransfer))

	instructions, err = b.Build(MintAsset, 0)
	require.NoError(err)
	require.Equal(chain.Mint, instructions[0].Kind)
	require.GreaterOrEqual(instructions[0].Value.Quantity, uint32(1))
	require.LessOrEqual(instructions[0].Value.Quantity, uint32(maxMint))

	instructions, err = b.Build(RegisterAccount, 0)
	require.NoError(err)
	require.Len(instructions[0].Signatories, 1)

	_, err = b.Build(Kind(99), 0)
	require.ErrorIs(err, ErrUnknownKind)
}
