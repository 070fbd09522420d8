// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/config"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/rpc"
	"github.com/ava-labs/hyperload/utils"

	hypertrace "github.com/ava-labs/hyperload/trace"
)

// environment is shared by every command talking to a ledger.
type environment struct {
	config  *config.Config
	log     logging.Logger
	tracer  trace.Tracer
	client  *rpc.Client
	builder *operation.Builder
}

func newEnvironment(ctx context.Context, name string) (*environment, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := utils.NewLogger(name, c.GetLogConfig())
	if err != nil {
		return nil, err
	}
	tracer, err := hypertrace.New(c.GetTraceConfig())
	if err != nil {
		log.Stop()
		return nil, err
	}
	env := &environment{
		config: c,
		log:    log,
		tracer: tracer,
	}
	if err := env.connect(ctx); err != nil {
		env.close()
		return nil, err
	}
	return env, nil
}

func (e *environment) connect(ctx context.Context) error {
	clientConfig, err := e.config.GetClientConfig()
	if err != nil {
		return err
	}
	e.client, err = rpc.NewClient(clientConfig)
	if err != nil {
		return err
	}
	if err := e.client.Ping(ctx); err != nil {
		return fmt.Errorf("ledger %s unreachable: %w", e.config.APIURI, err)
	}
	e.builder, err = operation.NewBuilder(e.config.Account, uint64(time.Now().UnixNano()))
	if err != nil {
		return err
	}
	e.log.Info("connected to ledger",
		zap.String("uri", e.config.APIURI),
		zap.String("chainID", e.config.ChainID),
		zap.String("account", e.config.Account),
	)
	return nil
}

func (e *environment) close() {
	if err := e.tracer.Close(); err != nil {
		e.log.Warn("unable to flush traces", zap.Error(err))
	}
	e.log.Stop()
}
