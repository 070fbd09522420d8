// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/near/borsh-go"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/pebble"
)

const (
	domainPrefix byte = iota
	accountPrefix
	definitionPrefix
	assetPrefix
)

func key(prefix byte, id string) []byte {
	k := make([]byte, 1+len(id))
	k[0] = prefix
	copy(k[1:], id)
	return k
}

type kv interface {
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
	Put([]byte, []byte) error
}

// State is the world state of the devnet ledger.
type State struct {
	db *pebble.Database
}

func NewState(db *pebble.Database) *State {
	return &State{db: db}
}

// Initialize writes [g] unless the state already holds its domain.
func (s *State) Initialize(g Genesis) error {
	ok, err := s.db.Has(key(domainPrefix, g.Domain))
	if err != nil || ok {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	definition := g.Asset + "#" + g.Domain
	genesis := []chain.Instruction{
		chain.RegisterDomain(g.Domain),
		chain.RegisterAccount(g.Account, g.Signer[:]),
		chain.RegisterAssetDefinition(definition, chain.Quantity),
	}
	if len(g.Recipient) > 0 {
		genesis = append(genesis, chain.RegisterAccount(g.Recipient))
	}
	for _, instr := range genesis {
		if err := apply(batch, g.Account, instr); err != nil {
			return fmt.Errorf("invalid genesis: %w", err)
		}
	}
	if err := putQuantity(batch, definition+"#"+g.Account, g.Balance); err != nil {
		return err
	}
	return batch.Write()
}

// Execute applies every instruction of [tx] atomically. The returned error,
// if any, is the reason the transaction is rejected.
func (s *State) Execute(tx *chain.Transaction) error {
	if err := tx.Verify(); err != nil {
		return err
	}
	// Empty transactions carry nothing to authorize.
	if tx.Empty() {
		return nil
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := authorize(batch, tx.Payload.Creator, tx.Signer); err != nil {
		return err
	}
	for _, instr := range tx.Payload.Instructions {
		if err := apply(batch, tx.Payload.Creator, instr); err != nil {
			return err
		}
	}
	return batch.Write()
}

// Balance returns the quantity held by [asset].
func (s *State) Balance(asset string) (uint64, error) {
	return getQuantity(s.db, asset)
}

// Exists reports whether the object [id] of kind [object] is registered.
func (s *State) Exists(object chain.ObjectKind, id string) (bool, error) {
	switch object {
	case chain.Domain:
		return s.db.Has(key(domainPrefix, id))
	case chain.Account:
		return s.db.Has(key(accountPrefix, id))
	case chain.AssetDefinition:
		return s.db.Has(key(definitionPrefix, id))
	case chain.Asset:
		return s.db.Has(key(assetPrefix, id))
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedInstruction, object)
	}
}

func authorize(db kv, creator string, signer ed25519.PublicKey) error {
	signatories, err := db.Get(key(accountPrefix, creator))
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, creator)
	}
	if err != nil {
		return err
	}
	for i := 0; i+ed25519.PublicKeyLen <= len(signatories); i += ed25519.PublicKeyLen {
		if bytes.Equal(signatories[i:i+ed25519.PublicKeyLen], signer[:]) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnauthorizedSigner, ed25519.Address(signer))
}

func apply(db kv, creator string, instr chain.Instruction) error {
	switch {
	case instr.Kind == chain.Register:
		return register(db, instr)
	case instr.Kind == chain.Mint && instr.Object == chain.Asset:
		return mint(db, instr.ID, instr.Value)
	case instr.Kind == chain.Transfer && instr.Object == chain.Asset:
		return transfer(db, creator, instr.ID, instr.Destination, instr.Value)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedInstruction, instr)
	}
}

func register(db kv, instr chain.Instruction) error {
	switch instr.Object {
	case chain.Domain:
		if len(instr.ID) == 0 || strings.ContainsAny(instr.ID, "@#") {
			return fmt.Errorf("%w: %q", ErrMalformedIdentifier, instr.ID)
		}
		return create(db, key(domainPrefix, instr.ID), nil, instr.ID)
	case chain.Account:
		_, domain, err := parseAccount(instr.ID)
		if err != nil {
			return err
		}
		if err := mustExist(db, key(domainPrefix, domain), ErrUnknownDomain, domain); err != nil {
			return err
		}
		signatories := make([]byte, 0, len(instr.Signatories)*ed25519.PublicKeyLen)
		for _, s := range instr.Signatories {
			if len(s) != ed25519.PublicKeyLen {
				return fmt.Errorf("%w: signatory of %s", chain.ErrInvalidObject, instr.ID)
			}
			signatories = append(signatories, s...)
		}
		return create(db, key(accountPrefix, instr.ID), signatories, instr.ID)
	case chain.AssetDefinition:
		name, domain, ok := strings.Cut(instr.ID, "#")
		if !ok || len(name) == 0 || len(domain) == 0 || strings.ContainsAny(domain, "@#") {
			return fmt.Errorf("%w: %q", ErrMalformedIdentifier, instr.ID)
		}
		if err := mustExist(db, key(domainPrefix, domain), ErrUnknownDomain, domain); err != nil {
			return err
		}
		return create(db, key(definitionPrefix, instr.ID), []byte{byte(instr.Value.Type)}, instr.ID)
	case chain.Asset:
		definition, account, err := parseAsset(instr.ID)
		if err != nil {
			return err
		}
		valueType, err := definitionType(db, definition)
		if err != nil {
			return err
		}
		if valueType != instr.Value.Type {
			return fmt.Errorf("%w: %s holds %d", ErrValueTypeMismatch, definition, valueType)
		}
		if err := mustExist(db, key(accountPrefix, account), ErrUnknownAccount, account); err != nil {
			return err
		}
		if ok, err := db.Has(key(assetPrefix, instr.ID)); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s", ErrObjectExists, instr.ID)
		}
		if instr.Value.Type == chain.Quantity {
			return putQuantity(db, instr.ID, uint64(instr.Value.Quantity))
		}
		v, err := borsh.Serialize(instr.Value)
		if err != nil {
			return fmt.Errorf("%w: %w", chain.ErrInvalidObject, err)
		}
		return db.Put(key(assetPrefix, instr.ID), v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedInstruction, instr)
	}
}

func mint(db kv, asset string, value chain.Value) error {
	if value.Type != chain.Quantity {
		return fmt.Errorf("%w: mint of %d", ErrValueTypeMismatch, value.Type)
	}
	balance, err := getQuantity(db, asset)
	if err != nil {
		return err
	}
	balance, err = add(balance, uint64(value.Quantity))
	if err != nil {
		return err
	}
	return putQuantity(db, asset, balance)
}

func transfer(db kv, creator string, asset string, destination string, value chain.Value) error {
	if value.Type != chain.Quantity {
		return fmt.Errorf("%w: transfer of %d", ErrValueTypeMismatch, value.Type)
	}
	definition, owner, err := parseAsset(asset)
	if err != nil {
		return err
	}
	if owner != creator {
		return fmt.Errorf("%w: %s is owned by %s", ErrUnauthorizedSigner, asset, owner)
	}
	if err := mustExist(db, key(accountPrefix, destination), ErrUnknownAccount, destination); err != nil {
		return err
	}

	amount := uint64(value.Quantity)
	balance, err := getQuantity(db, asset)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientBalance, asset, balance, amount)
	}
	if err := putQuantity(db, asset, balance-amount); err != nil {
		return err
	}

	to := definition + "#" + destination
	received, err := getQuantity(db, to)
	switch {
	case errors.Is(err, ErrUnknownAsset):
		received = 0
	case err != nil:
		return err
	}
	received, err = add(received, amount)
	if err != nil {
		return err
	}
	return putQuantity(db, to, received)
}

func create(db kv, k []byte, v []byte, id string) error {
	ok, err := db.Has(k)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrObjectExists, id)
	}
	return db.Put(k, v)
}

func mustExist(db kv, k []byte, notFound error, id string) error {
	ok, err := db.Has(k)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func definitionType(db kv, definition string) (chain.ValueType, error) {
	v, err := db.Get(key(definitionPrefix, definition))
	if errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAssetDefinition, definition)
	}
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("%w: definition %s", chain.ErrInvalidObject, definition)
	}
	return chain.ValueType(v[0]), nil
}

func getQuantity(db interface{ Get([]byte) ([]byte, error) }, asset string) (uint64, error) {
	v, err := db.Get(key(assetPrefix, asset))
	if errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if err != nil {
		return 0, err
	}
	if len(v) != wrappers.LongLen {
		return 0, fmt.Errorf("%w: %s does not hold a quantity", ErrValueTypeMismatch, asset)
	}
	return database.ParseUInt64(v)
}

func putQuantity(db kv, asset string, quantity uint64) error {
	return db.Put(key(assetPrefix, asset), database.PackUInt64(quantity))
}

func add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func parseAccount(id string) (string, string, error) {
	name, domain, ok := strings.Cut(id, "@")
	if !ok || len(name) == 0 || len(domain) == 0 || strings.ContainsAny(id, "#") || strings.Contains(domain, "@") {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
	}
	return name, domain, nil
}

// parseAsset splits name#domain#account into its definition and owner.
func parseAsset(id string) (string, string, error) {
	parts := strings.SplitN(id, "#", 3)
	if len(parts) != 3 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedIdentifier, id)
	}
	if _, _, err := parseAccount(parts[2]); err != nil {
		return "", "", err
	}
	return parts[0] + "#" + parts[1], parts[2], nil
}
