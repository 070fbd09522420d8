// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package load

import (
	"context"
	"net"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/listener"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/scheduler"
	"github.com/ava-labs/hyperload/server"
	"github.com/ava-labs/hyperload/status"
)

var _ Orchestrator = (*DaemonOrchestrator)(nil)

type DaemonConfig struct {
	TPS   float64
	Kinds []operation.Kind
	Count int
	// ResubscribeDelay is waited before reopening a closed event stream.
	ResubscribeDelay time.Duration
}

// DaemonOrchestrator runs the scheduler, the status listener and the status
// server until its context is done.
type DaemonOrchestrator struct {
	log       logging.Logger
	status    *status.Aggregator
	listener  *listener.Listener
	scheduler *scheduler.Scheduler
	server    *server.Server
}

// NewDaemonOrchestrator serves the status endpoints on [statusListener].
// Metrics are registered on [registry], which is also served at
// [server.MetricsEndpoint].
func NewDaemonOrchestrator(
	log logging.Logger,
	tracer trace.Tracer,
	client chain.Client,
	builder *operation.Builder,
	registry *prometheus.Registry,
	statusListener net.Listener,
	config DaemonConfig,
) (*DaemonOrchestrator, error) {
	metrics, err := status.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	aggregator := status.NewAggregator(metrics)
	s, err := scheduler.New(log, tracer, client, builder, aggregator, scheduler.Config{
		TPS:   config.TPS,
		Kinds: config.Kinds,
		Count: config.Count,
	})
	if err != nil {
		return nil, err
	}
	l := listener.New(log, client, aggregator, config.ResubscribeDelay)
	return &DaemonOrchestrator{
		log:       log,
		status:    aggregator,
		listener:  l,
		scheduler: s,
		server:    server.NewStatusServer(log, statusListener, aggregator, registry, l),
	}, nil
}

// Execute returns nil once ctx is done. The scheduler starts only after the
// listener's first subscription is acknowledged, so no submission outcome
// is missed.
func (d *DaemonOrchestrator) Execute(ctx context.Context) error {
	d.log.Info("starting daemon", zap.String("status", d.server.URI()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.server.Serve(gctx)
	})
	g.Go(func() error {
		return d.listener.Run(gctx)
	})
	g.Go(func() error {
		if err := d.listener.AwaitSubscribed(gctx); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		return d.scheduler.Run(gctx)
	})
	err := g.Wait()

	s := d.status.Snapshot()
	d.log.Info("daemon stopped",
		zap.Uint64("sent", s.Sent),
		zap.Uint64("committed", s.Committed),
		zap.Uint64("rejected", s.Rejected),
		zap.Uint64("unknown", s.Unknown),
		zap.Error(err),
	)
	return err
}

// URI is the root of the status server.
func (d *DaemonOrchestrator) URI() string {
	return d.server.URI()
}

func (d *DaemonOrchestrator) Status() status.Status {
	return d.status.Snapshot()
}
