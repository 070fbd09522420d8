// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package operation

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
)

const (
	// Asset registered for every account at genesis.
	BaseAsset = "rose"
	// Account receiving [TransferAsset].
	Recipient = "bob"

	quantityValue    = 1_000
	bigQuantityValue = "100000000999900"
	fixedValue       = "1000"

	maxMint     = 100
	maxTransfer = 10
)

var ErrInvalidAccount = errors.New("account must be of the form name@domain")

// Builder turns an operation kind into ledger instructions issued by a
// single account. Indexes keep the identifiers of concurrent operations
// distinct.
type Builder struct {
	account string
	domain  string

	lock sync.Mutex
	rng  *rand.Rand
}

func NewBuilder(account string, seed uint64) (*Builder, error) {
	name, domain, ok := strings.Cut(account, "@")
	if !ok || len(name) == 0 || len(domain) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}
	return &Builder{
		account: account,
		domain:  domain,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

func (b *Builder) Account() string { return b.account }

func (b *Builder) Domain() string { return b.domain }

func (b *Builder) AssetDefinition(name string) string {
	return name + "#" + b.domain
}

func (b *Builder) Asset(name string, account string) string {
	return b.AssetDefinition(name) + "#" + account
}

// Build returns the instructions performing kind. Asset registrations
// produce two instructions: the definition followed by the asset owned by
// the issuing account.
func (b *Builder) Build(kind Kind, index int) ([]chain.Instruction, error) {
	switch kind {
	case RegisterAccount:
		pk, err := ed25519.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		signatory := pk.PublicKey()
		id := fmt.Sprintf("alice%d@%s", index, b.domain)
		return []chain.Instruction{chain.RegisterAccount(id, signatory[:])}, nil
	case RegisterDomain:
		return []chain.Instruction{chain.RegisterDomain(fmt.Sprintf("wonderland%d", index))}, nil
	case RegisterAssetQuantity:
		return b.registerAsset(fmt.Sprintf("rose_quantity%d", index), chain.Value{
			Type:     chain.Quantity,
			Quantity: quantityValue,
		}), nil
	case RegisterAssetBigQuantity:
		return b.registerAsset(fmt.Sprintf("rose_big_quantity%d", index), chain.Value{
			Type: chain.BigQuantity,
			Big:  bigQuantityValue,
		}), nil
	case RegisterAssetFixed:
		return b.registerAsset(fmt.Sprintf("rose_fixed%d", index), chain.Value{
			Type:  chain.Fixed,
			Fixed: fixedValue,
		}), nil
	case RegisterAssetStore:
		return b.registerAsset(fmt.Sprintf("rose_store%d", index), chain.Value{
			Type: chain.Store,
			Store: []chain.Metadata{
				{Key: "Bytes", Value: "[99 98 300]"},
				{Key: "Random", Value: b.randomValue()},
			},
		}), nil
	case TransferAsset:
		recipient := Recipient + "@" + b.domain
		return []chain.Instruction{
			chain.TransferAsset(b.Asset(BaseAsset, b.account), recipient, b.amount(maxTransfer)),
		}, nil
	case MintAsset:
		return []chain.Instruction{
			chain.MintAsset(b.Asset(BaseAsset, b.account), b.amount(maxMint)),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func (b *Builder) registerAsset(name string, value chain.Value) []chain.Instruction {
	return []chain.Instruction{
		chain.RegisterAssetDefinition(b.AssetDefinition(name), value.Type),
		chain.RegisterAsset(b.Asset(name, b.account), value),
	}
}

// amount is uniform in [1, upTo].
func (b *Builder) amount(upTo int) uint32 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return uint32(b.rng.Intn(upTo) + 1)
}

// randomValue renders one of the ledger's primitive value shapes.
func (b *Builder) randomValue() string {
	b.lock.Lock()
	defer b.lock.Unlock()

	switch b.rng.Intn(7) {
	case 0:
		return fmt.Sprint(b.rng.Uint32())
	case 1:
		hi := new(big.Int).SetUint64(b.rng.Uint64())
		lo := new(big.Int).SetUint64(b.rng.Uint64())
		return hi.Lsh(hi, 64).Or(hi, lo).String()
	case 2:
		return fmt.Sprint(b.rng.Intn(2) == 1)
	case 3:
		return fmt.Sprintf("hello%d", b.rng.Uint64())
	case 4:
		return fmt.Sprintf("bob%d", b.rng.Uint64())
	case 5:
		return fmt.Sprint(b.rng.Float64())
	default:
		vs := make([]uint32, b.rng.Intn(11))
		for i := range vs {
			vs[i] = b.rng.Uint32()
		}
		return fmt.Sprint(vs)
	}
}
