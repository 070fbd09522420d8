// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/chain/chaintest"
	"github.com/ava-labs/hyperload/correlator"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
	"github.com/ava-labs/hyperload/trace"
)

var errSubmit = errors.New("submit")

func newRunner(t *testing.T, client chain.Client, aggregator *status.Aggregator) *Runner {
	builder, err := operation.NewBuilder("alice@wonderland", 0)
	require.NoError(t, err)
	c := correlator.New(logging.NoLog{}, trace.Noop("test"), client, nil, correlator.Config{})
	return NewRunner(logging.NoLog{}, trace.Noop("test"), c, builder, aggregator)
}

func TestRunCommitted(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterDomain, 3)
	require.NoError(err)
	require.Equal(uint64(3), s.Sent)
	require.Equal(uint64(3), s.Committed)
	require.Zero(s.Rejected)
	require.Zero(s.Unknown)

	// Each operation carries its own index
	seen := map[string]bool{}
	for _, tx := range ledger.Submitted() {
		seen[tx.Payload.Instructions[0].ID] = true
	}
	require.Equal(map[string]bool{"wonderland0": true, "wonderland1": true, "wonderland2": true}, seen)
}

func TestRunEveryOperationResolves(t *testing.T) {
	require := require.New(t)

	const count = 50
	var n atomic.Int64
	ledger := chaintest.NewLedger()
	ledger.Resolve = func(*chain.Transaction) (chain.PipelineStatus, string) {
		if n.Add(1)%2 == 0 {
			return chain.Rejected, "object already exists"
		}
		return chain.Committed, ""
	}

	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterAssetStore, count)
	require.NoError(err)
	require.Equal(uint64(count), s.Resolved())
	require.Equal(uint64(count), s.Sent)
	require.Equal(uint64(count/2), s.Rejected)
	for _, tx := range ledger.Submitted() {
		// Definition and asset travel together
		require.Len(tx.Payload.Instructions, 2)
	}
}

func TestRunUnknownOnStreamEnd(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.Resolve = func(*chain.Transaction) (chain.PipelineStatus, string) {
		return chain.Validating, ""
	}
	ledger.SubmitErr = func(*chain.Transaction) error {
		ledger.EndStreams()
		return nil
	}

	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterDomain, 1)
	require.NoError(err)
	require.Equal(uint64(1), s.Unknown)
}

func TestRunFailureIsFatal(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.SubmitErr = func(tx *chain.Transaction) error {
		if strings.HasSuffix(tx.Payload.Instructions[0].ID, "3") {
			return errSubmit
		}
		return nil
	}

	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterDomain, 5)
	require.ErrorIs(err, correlator.ErrSubmit)
	require.ErrorIs(err, errSubmit)
	// The failed submission stays counted as sent
	require.Equal(s.Sent, s.Resolved()+1)
	require.Less(s.Sent, uint64(5))
}

func TestRunAdmittedThenFailedStaysSent(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.AcceptErr = func(*chain.Transaction) error {
		return context.DeadlineExceeded
	}

	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterDomain, 1)
	require.ErrorIs(err, correlator.ErrSubmit)
	require.ErrorIs(err, context.DeadlineExceeded)
	require.Len(ledger.Submitted(), 1)
	require.Equal(uint64(1), s.Sent)
	require.Zero(s.Resolved())
}

func TestRunHandshakeFailure(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.SubscribeErr = errSubmit

	s, err := newRunner(t, ledger, status.NewAggregator(nil)).Run(context.Background(), operation.RegisterDomain, 2)
	require.ErrorIs(err, correlator.ErrHandshake)
	require.Zero(s.Sent)
	require.Empty(ledger.Submitted())
}

func TestRunCount(t *testing.T) {
	require := require.New(t)

	r := newRunner(t, chaintest.NewLedger(), status.NewAggregator(nil))
	s, err := r.Run(context.Background(), operation.RegisterDomain, 0)
	require.NoError(err)
	require.Zero(s.Sent)

	_, err = r.Run(context.Background(), operation.RegisterDomain, -1)
	require.ErrorIs(err, ErrInvalidCount)
}
