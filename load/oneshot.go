// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package load

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/batch"
	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/correlator"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
)

var _ Orchestrator = (*OneshotOrchestrator)(nil)

type OneshotConfig struct {
	Kind  operation.Kind
	Count int
	// SubmitTimeout bounds each blocking submission. Zero waits until the
	// event stream ends.
	SubmitTimeout time.Duration
}

// OneshotOrchestrator performs Count operations of a single kind
// concurrently, each waiting for its own terminal event.
type OneshotOrchestrator struct {
	log    logging.Logger
	status *status.Aggregator
	runner *batch.Runner
	config OneshotConfig
}

func NewOneshotOrchestrator(
	log logging.Logger,
	tracer trace.Tracer,
	client chain.Client,
	builder *operation.Builder,
	metrics *status.Metrics,
	config OneshotConfig,
) *OneshotOrchestrator {
	aggregator := status.NewAggregator(metrics)
	c := correlator.New(log, tracer, client, metrics, correlator.Config{
		SubmitTimeout: config.SubmitTimeout,
	})
	return &OneshotOrchestrator{
		log:    log,
		status: aggregator,
		runner: batch.NewRunner(log, tracer, c, builder, aggregator),
		config: config,
	}
}

func (o *OneshotOrchestrator) Execute(ctx context.Context) error {
	start := time.Now()
	s, err := o.runner.Run(ctx, o.config.Kind, o.config.Count)
	if err != nil {
		return err
	}
	o.log.Info("batch complete",
		zap.Stringer("operation", o.config.Kind),
		zap.Int("count", o.config.Count),
		zap.Uint64("committed", s.Committed),
		zap.Uint64("rejected", s.Rejected),
		zap.Uint64("unknown", s.Unknown),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (o *OneshotOrchestrator) Status() status.Status {
	return o.status.Snapshot()
}
