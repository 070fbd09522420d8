// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"go.uber.org/atomic"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
)

var (
	_ chain.Client = (*Client)(nil)

	ErrInvalidURI     = errors.New("invalid uri")
	ErrMismatchedTxID = errors.New("mismatched tx id")
	ErrMissingChainID = errors.New("missing chain id")
	ErrMissingCreator = errors.New("missing creator")
)

type ClientConfig struct {
	// URI is the http(s) root of the ledger, for example
	// "http://127.0.0.1:8080".
	URI     string
	ChainID string
	// Creator is the account that signs every transaction.
	Creator string
	Key     ed25519.PrivateKey

	RequestTimeout   time.Duration
	HandshakeTimeout time.Duration
}

// Client talks to a ledger over [JSONRPCEndpoint] and [WebSocketEndpoint].
type Client struct {
	config ClientConfig
	rpc    *JSONRPCClient
	wsURI  string

	nonce *atomic.Uint64
}

func NewClient(config ClientConfig) (*Client, error) {
	u, err := url.Parse(config.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}
	ws := *u
	switch u.Scheme {
	case "http":
		ws.Scheme = "ws"
	case "https":
		ws.Scheme = "wss"
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, u.Scheme)
	}
	ws.Path = strings.TrimSuffix(ws.Path, "/") + WebSocketEndpoint
	if len(config.ChainID) == 0 {
		return nil, ErrMissingChainID
	}
	if len(config.Creator) == 0 {
		return nil, ErrMissingCreator
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.HandshakeTimeout <= 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return &Client{
		config: config,
		rpc:    NewJSONRPCClient(config.URI),
		wsURI:  ws.String(),
		// Seeding with the clock keeps nonces unique across restarts.
		nonce: atomic.NewUint64(uint64(time.Now().UnixNano())),
	}, nil
}

func (c *Client) BuildTransaction(instructions []chain.Instruction) (*chain.Transaction, error) {
	tx := chain.NewTransaction(
		c.config.ChainID,
		c.config.Creator,
		time.Now().UnixMilli(),
		c.nonce.Inc(),
		instructions,
	)
	return tx.Sign(c.config.Key)
}

func (c *Client) Submit(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	txID, err := c.rpc.SubmitTx(ctx, tx.Bytes())
	if err != nil {
		return ids.Empty, err
	}
	if txID != tx.ID() {
		return ids.Empty, fmt.Errorf("%w: expected %s, got %s", ErrMismatchedTxID, tx.ID(), txID)
	}
	return txID, nil
}

func (c *Client) Subscribe(ctx context.Context, filter chain.EventFilter) (chain.EventStream, error) {
	return NewWebSocketClient(ctx, c.wsURI, filter, c.config.HandshakeTimeout)
}

// Ping checks that the ledger is reachable and serves the configured chain.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	chainID, err := c.rpc.Network(ctx)
	if err != nil {
		return err
	}
	if chainID != c.config.ChainID {
		return fmt.Errorf("%w: expected %q, got %q", ErrWrongChain, c.config.ChainID, chainID)
	}
	return nil
}
