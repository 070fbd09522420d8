// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package e2e

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/hyperload/config"
	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/devnet"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/rpc"
)

const blockInterval = 20 * time.Millisecond

// Environment is a devnet together with a config file pointing at it.
type Environment struct {
	Devnet *devnet.Devnet
	Config *config.Config
	// ConfigPath is where Config was written.
	ConfigPath string
}

// NewEnvironment starts an in-memory devnet on a random port, owned by a
// new key, and writes the matching config to [dir].
func NewEnvironment(ctx context.Context, log logging.Logger, tracer trace.Tracer, dir string) (*Environment, error) {
	key, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	devnetConfig := devnet.NewDefaultConfig(key.PublicKey())
	devnetConfig.Address = "127.0.0.1:0"
	devnetConfig.BlockInterval = blockInterval
	d, err := devnet.New(log, tracer, devnetConfig)
	if err != nil {
		return nil, err
	}
	if err := d.Start(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}

	c := config.NewDefaultConfig()
	c.APIURI = d.URI()
	c.ChainID = devnetConfig.ChainID
	c.Account = devnetConfig.Genesis.Account
	c.PrivateKey = key.Hex()
	c.SubmitTimeout = 10 * time.Second
	path := filepath.Join(dir, config.DefaultPath)
	if err := c.Write(path); err != nil {
		_ = d.Close()
		return nil, err
	}
	loaded, err := config.Load(path)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	return &Environment{
		Devnet:     d,
		Config:     loaded,
		ConfigPath: path,
	}, nil
}

// Client connects to the devnet as the configured account.
func (e *Environment) Client() (*rpc.Client, error) {
	clientConfig, err := e.Config.GetClientConfig()
	if err != nil {
		return nil, err
	}
	return rpc.NewClient(clientConfig)
}

// Builder produces operations for the configured account.
func (e *Environment) Builder() (*operation.Builder, error) {
	return operation.NewBuilder(e.Config.Account, uint64(time.Now().UnixNano()))
}

func (e *Environment) Close() error {
	return e.Devnet.Close()
}
