// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ava-labs/hyperload/config"
	"github.com/ava-labs/hyperload/crypto/ed25519"
	"github.com/ava-labs/hyperload/utils"
)

// InitConfig interactively creates the config stored at [path].
func InitConfig(path string, force bool) (*config.Config, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	c := config.NewDefaultConfig()
	var err error
	if c.APIURI, err = PromptURI("ledger uri", c.APIURI); err != nil {
		return nil, err
	}
	if c.ChainID, err = PromptString("chainID", "", 1, 256); err != nil {
		return nil, err
	}
	if c.Account, err = PromptAccount("account", c.Account); err != nil {
		return nil, err
	}
	key, err := PromptKey("private key")
	if err != nil {
		return nil, err
	}
	c.PrivateKey = key.Hex()
	if c.Tracing.Enabled, err = PromptBool("enable tracing"); err != nil {
		return nil, err
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	if err := c.Write(path); err != nil {
		return nil, err
	}
	utils.Outf("{{green}}wrote config:{{/}} %s\n", path)
	utils.Outf("{{yellow}}signer address:{{/}} %s\n", ed25519.Address(key.PublicKey()))
	return c, nil
}
