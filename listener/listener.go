// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package listener

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/lifecycle"
	"github.com/ava-labs/hyperload/status"
)

const DefaultResubscribeDelay = time.Second

// Listener attributes every pipeline event on the ledger to the aggregate
// counters, regardless of which submission produced it.
type Listener struct {
	log    logging.Logger
	client chain.Subscriber
	status *status.Aggregator
	delay  time.Duration

	subscribed *lifecycle.Signal
	streaming  *lifecycle.Flag
}

func New(
	log logging.Logger,
	client chain.Subscriber,
	aggregator *status.Aggregator,
	resubscribeDelay time.Duration,
) *Listener {
	return &Listener{
		log:        log,
		client:     client,
		status:     aggregator,
		delay:      resubscribeDelay,
		subscribed: lifecycle.NewSignal(),
		streaming:  lifecycle.NewFlag(false),
	}
}

// Ready reports whether events are currently being received.
func (l *Listener) Ready() bool {
	return l.streaming.Ready()
}

// AwaitSubscribed blocks until the first subscription is acknowledged or
// has failed.
func (l *Listener) AwaitSubscribed(ctx context.Context) error {
	return l.subscribed.Await(ctx)
}

// Run consumes the unfiltered event stream until ctx is done. Failing to
// subscribe the first time is returned; later stream closures are retried
// after the resubscribe delay.
func (l *Listener) Run(ctx context.Context) error {
	first := true
	for {
		stream, err := l.client.Subscribe(ctx, chain.EventFilter{})
		switch {
		case err != nil && ctx.Err() != nil:
			l.subscribed.Fail(ctx.Err())
			return nil
		case err != nil && first:
			l.subscribed.Fail(err)
			return err
		case err != nil:
			l.log.Warn("unable to resubscribe", zap.Error(err))
		default:
			first = false
			l.subscribed.MarkReady()
			l.streaming.MarkReady()
			l.consume(ctx, stream)
			l.streaming.MarkNotReady()
			_ = stream.Close()
			if ctx.Err() != nil {
				return nil
			}
			l.log.Warn("event stream closed, resubscribing", zap.Duration("delay", l.delay))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.delay):
		}
	}
}

func (l *Listener) consume(ctx context.Context, stream chain.EventStream) {
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			l.log.Debug("event stream ended", zap.Error(err))
			return
		}
		l.observe(event)
	}
}

func (l *Listener) observe(event *chain.Event) {
	if event.Pipeline == nil {
		l.log.Warn("tx with unknown status", zap.String("type", event.Type))
		l.status.RecordUnknown()
		return
	}
	l.log.Debug("got an event",
		zap.Stringer("txID", event.Pipeline.Hash),
		zap.Stringer("status", event.Pipeline.Status),
	)
	switch event.Pipeline.Status {
	case chain.Committed:
		l.status.RecordCommitted()
	case chain.Rejected:
		l.status.RecordRejected()
	}
}
