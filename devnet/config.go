// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"fmt"
	"time"

	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/pubsub"
)

const (
	DefaultAddress       = "127.0.0.1:8080"
	DefaultChainID       = "hyperload-devnet"
	DefaultBlockInterval = 100 * time.Millisecond
	// DefaultValidityWindow bounds how far a transaction timestamp may be
	// from the devnet clock.
	DefaultValidityWindow = time.Minute
)

// Genesis is the state every devnet starts from.
type Genesis struct {
	Domain string `json:"domain"`
	// Account is owned by Signer and holds Balance units of Asset.
	Account   string            `json:"account"`
	Signer    ed25519.PublicKey `json:"-"`
	Recipient string            `json:"recipient"`
	Asset     string            `json:"asset"`
	Balance   uint64            `json:"balance"`
}

type Config struct {
	Address       string        `json:"address"`
	ChainID       string        `json:"chainID"`
	BlockInterval time.Duration `json:"blockInterval"`
	// ValidityWindow is how long a transaction id is remembered for
	// duplicate detection. Older transactions are refused.
	ValidityWindow time.Duration `json:"validityWindow"`
	// DataDir keeps state in memory when empty.
	DataDir            string  `json:"dataDir"`
	MaxPendingMessages int     `json:"maxPendingMessages"`
	Genesis            Genesis `json:"genesis"`
}

func NewDefaultConfig(signer ed25519.PublicKey) Config {
	return Config{
		Address:            DefaultAddress,
		ChainID:            DefaultChainID,
		BlockInterval:      DefaultBlockInterval,
		ValidityWindow:     DefaultValidityWindow,
		MaxPendingMessages: pubsub.DefaultMaxPendingMessages,
		Genesis: Genesis{
			Domain:    "wonderland",
			Account:   "alice@wonderland",
			Signer:    signer,
			Recipient: "bob@wonderland",
			Asset:     "rose",
			Balance:   1_000_000,
		},
	}
}

func (c Config) Verify() error {
	switch {
	case len(c.ChainID) == 0:
		return fmt.Errorf("%w: missing chain id", ErrInvalidConfig)
	case c.BlockInterval <= 0:
		return fmt.Errorf("%w: block interval must be positive", ErrInvalidConfig)
	case c.ValidityWindow <= 0:
		return fmt.Errorf("%w: validity window must be positive", ErrInvalidConfig)
	case c.MaxPendingMessages <= 0:
		return fmt.Errorf("%w: max pending messages must be positive", ErrInvalidConfig)
	case len(c.Genesis.Domain) == 0 || len(c.Genesis.Account) == 0 || len(c.Genesis.Asset) == 0:
		return fmt.Errorf("%w: incomplete genesis", ErrInvalidConfig)
	}
	return nil
}
