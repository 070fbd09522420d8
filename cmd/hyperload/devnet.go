// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/config"
	"github.com/ava-labs/hyperload/devnet"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/utils"

	hypertrace "github.com/ava-labs/hyperload/trace"
)

var (
	devnetAddress       string
	devnetBlockInterval time.Duration
	devnetDataDir       string
)

var devnetCmd = &cobra.Command{
	Use:   "devnet",
	Short: "Run a single node ledger owned by the configured account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		key, err := c.Key()
		if err != nil {
			return err
		}
		log, err := utils.NewLogger("devnet", c.GetLogConfig())
		if err != nil {
			return err
		}
		defer log.Stop()
		tracer, err := hypertrace.New(c.GetTraceConfig())
		if err != nil {
			return err
		}
		defer func() {
			if err := tracer.Close(); err != nil {
				log.Warn("unable to flush traces", zap.Error(err))
			}
		}()

		_, domain, ok := strings.Cut(c.Account, "@")
		if !ok {
			return fmt.Errorf("%w: account %q", config.ErrInvalidField, c.Account)
		}
		devnetConfig := devnet.NewDefaultConfig(key.PublicKey())
		devnetConfig.Address = devnetAddress
		devnetConfig.ChainID = c.ChainID
		devnetConfig.BlockInterval = devnetBlockInterval
		devnetConfig.DataDir = devnetDataDir
		devnetConfig.Genesis.Domain = domain
		devnetConfig.Genesis.Account = c.Account
		devnetConfig.Genesis.Recipient = operation.Recipient + "@" + domain

		d, err := devnet.New(log, tracer, devnetConfig)
		if err != nil {
			return err
		}
		if err := d.Start(cmd.Context()); err != nil {
			_ = d.Close()
			return err
		}
		utils.Outf("{{green}}devnet:{{/}} %s {{yellow}}chainID:{{/}} %s\n", d.URI(), c.ChainID)
		<-cmd.Context().Done()
		return d.Close()
	},
}

func init() {
	devnetCmd.Flags().StringVar(&devnetAddress, "address", devnet.DefaultAddress, "address the ledger listens on")
	devnetCmd.Flags().DurationVar(&devnetBlockInterval, "block-interval", devnet.DefaultBlockInterval, "time between blocks")
	devnetCmd.Flags().StringVar(&devnetDataDir, "data-dir", "", "directory of the ledger state, kept in memory when empty")
	rootCmd.AddCommand(devnetCmd)
}
