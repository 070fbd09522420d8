// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package correlator resolves a single submission to its terminal outcome
// by matching it against the ledger's pipeline events.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/lifecycle"
	"github.com/ava-labs/hyperload/status"
)

var (
	ErrBuild                   = errors.New("failed to build transaction")
	ErrHandshake               = errors.New("subscription handshake failed")
	ErrSubmit                  = errors.New("submission failed")
	ErrUnexpectedClosedChannel = errors.New("unexpected closed channel")
	ErrListenerPanic           = errors.New("listener panicked")
)

type Config struct {
	// SubmitTimeout bounds the wait for a terminal event. An expired wait
	// resolves unknown. Zero waits until the event stream ends.
	SubmitTimeout time.Duration
}

type Correlator struct {
	log     logging.Logger
	tracer  trace.Tracer
	client  chain.Client
	metrics *status.Metrics
	config  Config
}

func New(
	log logging.Logger,
	tracer trace.Tracer,
	client chain.Client,
	metrics *status.Metrics,
	config Config,
) *Correlator {
	return &Correlator{
		log:     log,
		tracer:  tracer,
		client:  client,
		metrics: metrics,
		config:  config,
	}
}

// SubmitBlocking builds a transaction carrying instructions, submits it and
// waits for its terminal outcome.
func (c *Correlator) SubmitBlocking(ctx context.Context, instructions []chain.Instruction) (chain.Outcome, error) {
	tx, err := c.client.BuildTransaction(instructions)
	if err != nil {
		return chain.UnknownOutcome(), fmt.Errorf("%w: %w", ErrBuild, err)
	}
	return c.SubmitTx(ctx, tx)
}

// SubmitTx submits tx and waits for its terminal outcome.
//
// The subscription for tx is acknowledged before tx is submitted, so no
// event can be missed. Once the handshake starts, cancelling ctx does not
// abort the submission or the wait.
func (c *Correlator) SubmitTx(ctx context.Context, tx *chain.Transaction) (chain.Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "Correlator.SubmitBlocking")
	defer span.End()

	txID := tx.ID()
	span.SetAttributes(
		attribute.String("txID", txID.String()),
		attribute.Int("instructions", len(tx.Payload.Instructions)),
	)

	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	var (
		ready  = lifecycle.NewSignal()
		result = make(chan chain.Outcome, 1)
	)
	go c.listen(listenCtx, txID, ready, result)

	if err := ready.Await(listenCtx); err != nil {
		return chain.UnknownOutcome(), fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	start := time.Now()
	if _, err := c.client.Submit(listenCtx, tx); err != nil {
		return chain.UnknownOutcome(), fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	c.metrics.ObserveSubmit(time.Since(start))

	outcome, ok := <-result
	if !ok {
		return chain.UnknownOutcome(), ErrUnexpectedClosedChannel
	}
	c.log.Debug("transaction resolved",
		zap.Stringer("txID", txID),
		zap.Stringer("outcome", outcome),
	)
	return outcome, nil
}

// listen owns the subscription for txID. It resolves ready once the
// subscription is acknowledged and delivers at most one outcome.
func (c *Correlator) listen(
	ctx context.Context,
	txID ids.ID,
	ready *lifecycle.Signal,
	result chan<- chain.Outcome,
) {
	defer close(result)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("correlator listener panicked",
				zap.Stringer("txID", txID),
				zap.Any("panic", r),
			)
			ready.Fail(fmt.Errorf("%w: %v", ErrListenerPanic, r))
		}
	}()

	stream, err := c.client.Subscribe(ctx, chain.HashFilter(txID))
	if err != nil {
		c.log.Warn("unable to subscribe",
			zap.Stringer("txID", txID),
			zap.Error(err),
		)
		ready.Fail(err)
		return
	}
	defer stream.Close()
	ready.MarkReady()

	if c.config.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.SubmitTimeout)
		defer cancel()
	}
	result <- c.resolve(ctx, txID, stream)
}

func (c *Correlator) resolve(ctx context.Context, txID ids.ID, stream chain.EventStream) chain.Outcome {
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			c.log.Debug("event stream ended before a terminal event",
				zap.Stringer("txID", txID),
				zap.Error(err),
			)
			return chain.UnknownOutcome()
		}
		pipeline := event.Pipeline
		if pipeline == nil {
			c.log.Warn("received non-pipeline event",
				zap.Stringer("txID", txID),
				zap.String("type", event.Type),
			)
			return chain.UnknownOutcome()
		}
		if pipeline.Hash != txID {
			continue
		}
		switch pipeline.Status {
		case chain.Validating:
		case chain.Rejected:
			return chain.RejectedOutcome(pipeline.Reason)
		case chain.Committed:
			return chain.CommittedOutcome(txID)
		default:
			return chain.UnknownOutcome()
		}
	}
}
