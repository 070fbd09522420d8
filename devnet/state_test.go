// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/pebble"
)

const (
	alice = "alice@wonderland"
	bob   = "bob@wonderland"
	rose  = "rose#wonderland#alice@wonderland"
)

func newTestState(t *testing.T) (*State, ed25519.PrivateKey) {
	require := require.New(t)

	key, err := ed25519.GeneratePrivateKey()
	require.NoError(err)

	cfg := pebble.NewDefaultConfig()
	cfg.InMemory = true
	cfg.Sync = false
	db, _, err := pebble.New("state", cfg)
	require.NoError(err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	state := NewState(db)
	require.NoError(state.Initialize(NewDefaultConfig(key.PublicKey()).Genesis))
	return state, key
}

func signedTx(t *testing.T, key ed25519.PrivateKey, creator string, instrs ...chain.Instruction) *chain.Transaction {
	tx, err := chain.NewTransaction(DefaultChainID, creator, time.Now().UnixMilli(), 1, instrs).Sign(key)
	require.NoError(t, err)
	return tx
}

func TestGenesis(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	balance, err := state.Balance(rose)
	require.NoError(err)
	require.Equal(uint64(1_000_000), balance)

	for object, id := range map[chain.ObjectKind]string{
		chain.Domain:          "wonderland",
		chain.Account:         bob,
		chain.AssetDefinition: "rose#wonderland",
		chain.Asset:           rose,
	} {
		ok, err := state.Exists(object, id)
		require.NoError(err)
		require.True(ok, id)
	}

	// Initializing again leaves the state untouched.
	require.NoError(state.Execute(signedTx(t, key, alice, chain.MintAsset(rose, 5))))
	require.NoError(state.Initialize(NewDefaultConfig(key.PublicKey()).Genesis))
	balance, err = state.Balance(rose)
	require.NoError(err)
	require.Equal(uint64(1_000_005), balance)
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name   string
		instrs []chain.Instruction
		err    error
	}{
		{
			name:   "register domain",
			instrs: []chain.Instruction{chain.RegisterDomain("wonderland1")},
		},
		{
			name:   "domain exists",
			instrs: []chain.Instruction{chain.RegisterDomain("wonderland")},
			err:    ErrObjectExists,
		},
		{
			name:   "malformed domain",
			instrs: []chain.Instruction{chain.RegisterDomain("a@b")},
			err:    ErrMalformedIdentifier,
		},
		{
			name:   "register account",
			instrs: []chain.Instruction{chain.RegisterAccount("alice1@wonderland", make([]byte, ed25519.PublicKeyLen))},
		},
		{
			name:   "account in unknown domain",
			instrs: []chain.Instruction{chain.RegisterAccount("alice@nowhere")},
			err:    ErrUnknownDomain,
		},
		{
			name: "register quantity asset",
			instrs: []chain.Instruction{
				chain.RegisterAssetDefinition("tulip#wonderland", chain.Quantity),
				chain.RegisterAsset("tulip#wonderland#alice@wonderland", chain.Value{Type: chain.Quantity, Quantity: 1_000}),
			},
		},
		{
			name: "register store asset",
			instrs: []chain.Instruction{
				chain.RegisterAssetDefinition("tulip#wonderland", chain.Store),
				chain.RegisterAsset("tulip#wonderland#alice@wonderland", chain.Value{
					Type:  chain.Store,
					Store: []chain.Metadata{{Key: "Bytes", Value: "[99 98 300]"}},
				}),
			},
		},
		{
			name: "asset of unknown definition",
			instrs: []chain.Instruction{
				chain.RegisterAsset("tulip#wonderland#alice@wonderland", chain.Value{Type: chain.Quantity, Quantity: 1}),
			},
			err: ErrUnknownAssetDefinition,
		},
		{
			name: "asset value type mismatch",
			instrs: []chain.Instruction{
				chain.RegisterAssetDefinition("tulip#wonderland", chain.Fixed),
				chain.RegisterAsset("tulip#wonderland#alice@wonderland", chain.Value{Type: chain.Quantity, Quantity: 1}),
			},
			err: ErrValueTypeMismatch,
		},
		{
			name:   "mint",
			instrs: []chain.Instruction{chain.MintAsset(rose, 100)},
		},
		{
			name:   "mint unknown asset",
			instrs: []chain.Instruction{chain.MintAsset("tulip#wonderland#alice@wonderland", 100)},
			err:    ErrUnknownAsset,
		},
		{
			name:   "transfer",
			instrs: []chain.Instruction{chain.TransferAsset(rose, bob, 10)},
		},
		{
			name:   "transfer to unknown account",
			instrs: []chain.Instruction{chain.TransferAsset(rose, "carol@wonderland", 10)},
			err:    ErrUnknownAccount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			state, key := newTestState(t)

			err := state.Execute(signedTx(t, key, alice, tt.instrs...))
			require.ErrorIs(err, tt.err)
		})
	}
}

func TestTransferBalances(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	require.NoError(state.Execute(signedTx(t, key, alice, chain.TransferAsset(rose, bob, 10))))
	require.NoError(state.Execute(signedTx(t, key, alice, chain.TransferAsset(rose, bob, 5))))

	balance, err := state.Balance(rose)
	require.NoError(err)
	require.Equal(uint64(999_985), balance)
	balance, err = state.Balance("rose#wonderland#bob@wonderland")
	require.NoError(err)
	require.Equal(uint64(15), balance)
}

func TestExecuteIsAtomic(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	err := state.Execute(signedTx(t, key, alice,
		chain.RegisterDomain("wonderland1"),
		chain.RegisterDomain("wonderland"),
	))
	require.ErrorIs(err, ErrObjectExists)

	ok, err := state.Exists(chain.Domain, "wonderland1")
	require.NoError(err)
	require.False(ok)
}

func TestExecuteInsufficientBalance(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	require.NoError(state.Execute(signedTx(t, key, alice, chain.RegisterAccount("carol@wonderland", func() []byte {
		pk := key.PublicKey()
		return pk[:]
	}()))))
	require.NoError(state.Execute(signedTx(t, key, alice,
		chain.RegisterAssetDefinition("tulip#wonderland", chain.Quantity),
		chain.RegisterAsset("tulip#wonderland#carol@wonderland", chain.Value{Type: chain.Quantity, Quantity: 3}),
	)))

	err := state.Execute(signedTx(t, key, "carol@wonderland", chain.TransferAsset("tulip#wonderland#carol@wonderland", bob, 4)))
	require.ErrorIs(err, ErrInsufficientBalance)
}

func TestExecuteAuthorization(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	other, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	err = state.Execute(signedTx(t, other, alice, chain.MintAsset(rose, 1)))
	require.ErrorIs(err, ErrUnauthorizedSigner)

	err = state.Execute(signedTx(t, key, "carol@wonderland", chain.MintAsset(rose, 1)))
	require.ErrorIs(err, ErrUnknownAccount)

	// bob has no signatories
	err = state.Execute(signedTx(t, key, bob, chain.TransferAsset(rose, bob, 1)))
	require.ErrorIs(err, ErrUnauthorizedSigner)
}

func TestExecuteInvalidSignature(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	tx := signedTx(t, key, alice, chain.MintAsset(rose, 1))
	tx.Signature[0] ^= 0xff
	require.ErrorIs(state.Execute(tx), chain.ErrInvalidSignature)
}

func TestExecuteEmpty(t *testing.T) {
	require := require.New(t)
	state, key := newTestState(t)

	other, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	require.NoError(state.Execute(signedTx(t, key, alice)))
	require.NoError(state.Execute(signedTx(t, other, "carol@wonderland")))
}
