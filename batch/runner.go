// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/neilotoole/errgroup"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/correlator"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
)

var ErrInvalidCount = errors.New("count must not be negative")

// Submitter waits for the terminal outcome of a submission.
type Submitter interface {
	SubmitBlocking(ctx context.Context, instructions []chain.Instruction) (chain.Outcome, error)
}

// Runner performs a batch of independent operations concurrently and
// reports once all of them resolved.
type Runner struct {
	log       logging.Logger
	tracer    trace.Tracer
	submitter Submitter
	builder   *operation.Builder
	status    *status.Aggregator
}

func NewRunner(
	log logging.Logger,
	tracer trace.Tracer,
	submitter Submitter,
	builder *operation.Builder,
	aggregator *status.Aggregator,
) *Runner {
	return &Runner{
		log:       log,
		tracer:    tracer,
		submitter: submitter,
		builder:   builder,
		status:    aggregator,
	}
}

// Run performs kind count times, each with its own index, and returns the
// aggregate status. Any failed submission fails the batch: operations not
// yet started are skipped and the first error is returned once every
// started operation has finished.
func (r *Runner) Run(ctx context.Context, kind operation.Kind, count int) (status.Status, error) {
	ctx, span := r.tracer.Start(ctx, "BatchRunner.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("operation", kind.String()),
		attribute.Int("count", count),
	)

	if count < 0 {
		return r.status.Snapshot(), fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if count == 0 {
		return r.status.Snapshot(), nil
	}

	r.log.Info("starting batch",
		zap.Stringer("operation", kind),
		zap.Int("count", count),
	)
	g, gctx := errgroup.WithContextN(ctx, count, count)
	for i := 0; i < count; i++ {
		index := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return r.perform(gctx, kind, index)
		})
	}
	if err := g.Wait(); err != nil {
		return r.status.Snapshot(), err
	}
	return r.status.Snapshot(), nil
}

func (r *Runner) perform(ctx context.Context, kind operation.Kind, index int) error {
	instructions, err := r.builder.Build(kind, index)
	if err != nil {
		return fmt.Errorf("failed to build %s %d: %w", kind, index, err)
	}
	r.status.RecordSent(1)
	outcome, err := r.submitter.SubmitBlocking(ctx, instructions)
	switch {
	case errors.Is(err, correlator.ErrBuild), errors.Is(err, correlator.ErrHandshake):
		// Nothing reached the ledger
		r.status.RevertSent(1)
		return fmt.Errorf("%s %d: %w", kind, index, err)
	case err != nil:
		// The ledger may have admitted the transaction
		r.status.RecordSubmitFailure()
		return fmt.Errorf("%s %d: %w", kind, index, err)
	}
	r.status.RecordOutcome(outcome)
	r.log.Debug("operation resolved",
		zap.Stringer("operation", kind),
		zap.Int("index", index),
		zap.Stringer("outcome", outcome),
	)
	return nil
}
