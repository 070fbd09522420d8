// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package load

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/chain/chaintest"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
	"github.com/ava-labs/hyperload/trace"
)

var errRefused = errors.New("refused")

func newBuilder(t *testing.T) *operation.Builder {
	builder, err := operation.NewBuilder(chaintest.Creator, 0)
	require.NoError(t, err)
	return builder
}

func TestOneshotOrchestrator(t *testing.T) {
	require := require.New(t)

	metrics, err := status.NewMetrics(prometheus.NewRegistry())
	require.NoError(err)
	o := NewOneshotOrchestrator(
		logging.NoLog{},
		trace.Noop("test"),
		chaintest.NewLedger(),
		newBuilder(t),
		metrics,
		OneshotConfig{Kind: operation.RegisterAccount, Count: 5},
	)
	require.NoError(o.Execute(context.Background()))

	s := o.Status()
	require.Equal(uint64(5), s.Sent)
	require.Equal(uint64(5), s.Committed)
	require.Zero(s.Rejected)
	require.Zero(s.Unknown)
	require.NotNil(s.LatestCommitted)
	require.Nil(s.LatestRejected)
}

func TestOneshotOrchestratorFailure(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.SubmitErr = func(*chain.Transaction) error { return errRefused }
	o := NewOneshotOrchestrator(
		logging.NoLog{},
		trace.Noop("test"),
		ledger,
		newBuilder(t),
		nil,
		OneshotConfig{Kind: operation.RegisterDomain, Count: 3},
	)
	require.ErrorIs(o.Execute(context.Background()), errRefused)
	require.Zero(o.Status().Committed)
}
