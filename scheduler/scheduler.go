// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
)

var (
	ErrInvalidRate  = errors.New("rate must be a positive number")
	ErrInvalidCount = errors.New("count must not be negative")
)

type Config struct {
	// TPS is the maximum number of transactions submitted per second.
	TPS   float64
	Kinds []operation.Kind
	// Count is the number of times each kind is performed.
	Count int
}

func (c Config) Verify() error {
	if math.IsNaN(c.TPS) || math.IsInf(c.TPS, 0) || c.TPS <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, c.TPS)
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, c.Count)
	}
	return nil
}

// Scheduler performs a fixed set of operations at a bounded rate, then keeps
// submitting empty transactions at the same rate until stopped.
//
// Every instruction of a unit is submitted as its own transaction. Outcomes
// are not observed here: pair the scheduler with a listener.
type Scheduler struct {
	log     logging.Logger
	tracer  trace.Tracer
	client  chain.Submitter
	builder *operation.Builder
	status  *status.Aggregator

	limiter *rate.Limiter
	queue   *Queue
}

func New(
	log logging.Logger,
	tracer trace.Tracer,
	client chain.Submitter,
	builder *operation.Builder,
	aggregator *status.Aggregator,
	config Config,
) (*Scheduler, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}
	return &Scheduler{
		log:     log,
		tracer:  tracer,
		client:  client,
		builder: builder,
		status:  aggregator,
		// A burst of 1 never lets a slow submission be compensated later.
		limiter: rate.NewLimiter(rate.Limit(config.TPS), 1),
		queue:   NewQueue(config.Kinds, config.Count),
	}, nil
}

// Run drains the queue and then submits heartbeats until ctx is done. It
// returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Drain(ctx)
	if ctx.Err() != nil {
		return nil
	}
	s.Heartbeat(ctx)
	return nil
}

// Drain performs every queued unit. A failed unit is retried on the next
// round without being counted. Drain returns early when ctx is done.
func (s *Scheduler) Drain(ctx context.Context) {
	s.log.Info("performing operations",
		zap.Int("kinds", len(s.queue.Entries())),
		zap.Int("units", s.queue.Remaining()),
	)
	for !s.queue.Empty() {
		for _, e := range s.queue.Entries() {
			if err := s.perform(ctx, e); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn("submit failed",
					zap.Stringer("operation", e.Kind),
					zap.Int("remaining", e.Remaining),
					zap.Error(err),
				)
				continue
			}
			e.Remaining--
		}
		s.queue.Compact()
	}
	s.log.Info("operations exhausted")
}

// Heartbeat submits empty transactions until ctx is done.
func (s *Scheduler) Heartbeat(ctx context.Context) {
	s.log.Info("submitting empty transactions")
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		if err := s.submit(ctx, nil); err != nil {
			s.log.Warn("heartbeat failed", zap.Error(err))
		}
	}
}

func (s *Scheduler) perform(ctx context.Context, e *Entry) error {
	ctx, span := s.tracer.Start(ctx, "Scheduler.perform")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", e.Kind.String()),
		attribute.Int("remaining", e.Remaining),
	)

	instructions, err := s.builder.Build(e.Kind, e.Remaining)
	if err != nil {
		return err
	}
	for _, instruction := range instructions {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.submit(ctx, []chain.Instruction{instruction}); err != nil {
			return err
		}
	}
	return nil
}

// submit hands one transaction to the ledger. In-flight submissions are not
// aborted by cancellation.
func (s *Scheduler) submit(ctx context.Context, instructions []chain.Instruction) error {
	tx, err := s.client.BuildTransaction(instructions)
	if err != nil {
		return err
	}
	s.status.RecordSent(1)
	if _, err := s.client.Submit(context.WithoutCancel(ctx), tx); err != nil {
		s.status.RecordSubmitFailure()
		return err
	}
	return nil
}
