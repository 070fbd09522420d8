// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package correlator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/chain/chaintest"
	"github.com/ava-labs/hyperload/lifecycle"
	"github.com/ava-labs/hyperload/trace"
)

var (
	errSubscribe = errors.New("subscribe")
	errSubmit    = errors.New("submit")
)

func newCorrelator(client chain.Client, config Config) *Correlator {
	return New(logging.NoLog{}, trace.Noop("test"), client, nil, config)
}

func newTx(t *testing.T) *chain.Transaction {
	tx, err := chaintest.NewLedger().BuildTransaction([]chain.Instruction{chain.RegisterDomain("wonderland0")})
	require.NoError(t, err)
	return tx
}

func TestSubmitBlockingCommitted(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	c := newCorrelator(ledger, Config{})

	outcome, err := c.SubmitBlocking(context.Background(), []chain.Instruction{chain.RegisterDomain("wonderland0")})
	require.NoError(err)
	require.Equal(chain.OutcomeCommitted, outcome.Kind)

	submitted := ledger.Submitted()
	require.Len(submitted, 1)
	require.Equal(submitted[0].ID(), outcome.Hash)
	require.Equal(1, ledger.Subscriptions())
	require.Eventually(func() bool {
		return ledger.OpenStreams() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSubmitBlockingRejected(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.Resolve = func(*chain.Transaction) (chain.PipelineStatus, string) {
		return chain.Rejected, "object already exists"
	}
	c := newCorrelator(ledger, Config{})

	outcome, err := c.SubmitBlocking(context.Background(), nil)
	require.NoError(err)
	require.Equal(chain.RejectedOutcome("object already exists"), outcome)
}

func TestSubscribeBeforeSubmit(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var (
		tx     = newTx(t)
		client = chaintest.NewMockClient(ctrl)
		stream = chaintest.NewStream(4)
	)
	gomock.InOrder(
		client.EXPECT().Subscribe(gomock.Any(), chain.HashFilter(tx.ID())).Return(stream, nil),
		client.EXPECT().Submit(gomock.Any(), tx).DoAndReturn(
			func(context.Context, *chain.Transaction) (ids.ID, error) {
				require.True(stream.Push(chain.NewPipelineEvent(tx.ID(), chain.Validating, "")))
				require.True(stream.Push(chain.NewPipelineEvent(tx.ID(), chain.Committed, "")))
				return tx.ID(), nil
			},
		),
	)

	outcome, err := newCorrelator(client, Config{}).SubmitTx(context.Background(), tx)
	require.NoError(err)
	require.Equal(chain.CommittedOutcome(tx.ID()), outcome)
}

func TestStreamClosedAfterAck(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var (
		tx     = newTx(t)
		client = chaintest.NewMockClient(ctrl)
		stream = chaintest.NewMockEventStream(ctrl)
	)
	client.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(stream, nil)
	client.EXPECT().Submit(gomock.Any(), tx).Return(tx.ID(), nil)
	stream.EXPECT().Next(gomock.Any()).Return(nil, chain.ErrStreamClosed)
	stream.EXPECT().Close().Return(nil)

	outcome, err := newCorrelator(client, Config{}).SubmitTx(context.Background(), tx)
	require.NoError(err)
	require.Equal(chain.UnknownOutcome(), outcome)
}

func TestNonPipelineEvent(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.SubmitErr = func(*chain.Transaction) error {
		ledger.Broadcast(&chain.Event{Type: "data"})
		return nil
	}

	outcome, err := newCorrelator(ledger, Config{}).SubmitTx(context.Background(), newTx(t))
	require.NoError(err)
	require.Equal(chain.UnknownOutcome(), outcome)
}

func TestHandshakeFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	client := chaintest.NewMockClient(ctrl)
	client.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(nil, errSubscribe)
	// Submit must never be called

	_, err := newCorrelator(client, Config{}).SubmitTx(context.Background(), newTx(t))
	require.ErrorIs(err, ErrHandshake)
	require.ErrorIs(err, errSubscribe)
}

func TestSubmitFailure(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.SubmitErr = func(*chain.Transaction) error {
		return errSubmit
	}

	_, err := newCorrelator(ledger, Config{}).SubmitTx(context.Background(), newTx(t))
	require.ErrorIs(err, ErrSubmit)
	require.ErrorIs(err, errSubmit)
	require.Empty(ledger.Submitted())

	// The listener stops once the submission fails
	require.Eventually(func() bool {
		return ledger.OpenStreams() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestBuildFailure(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	client := chaintest.NewMockClient(ctrl)
	client.EXPECT().BuildTransaction(gomock.Any()).Return(nil, errSubmit)

	_, err := newCorrelator(client, Config{}).SubmitBlocking(context.Background(), nil)
	require.ErrorIs(err, ErrBuild)
	require.ErrorIs(err, errSubmit)
}

func TestSubmitTimeout(t *testing.T) {
	require := require.New(t)

	ledger := chaintest.NewLedger()
	ledger.Resolve = func(*chain.Transaction) (chain.PipelineStatus, string) {
		// Never terminal
		return chain.Validating, ""
	}

	outcome, err := newCorrelator(ledger, Config{SubmitTimeout: 20 * time.Millisecond}).SubmitTx(context.Background(), newTx(t))
	require.NoError(err)
	require.Equal(chain.UnknownOutcome(), outcome)
}

func TestCallerCancellationDoesNotAbort(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var (
		ctx, cancel = context.WithCancel(context.Background())
		tx          = newTx(t)
		client      = chaintest.NewMockClient(ctrl)
		stream      = chaintest.NewStream(4)
	)
	client.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(stream, nil)
	client.EXPECT().Submit(gomock.Any(), tx).DoAndReturn(
		func(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
			cancel()
			require.NoError(ctx.Err())
			stream.Push(chain.NewPipelineEvent(tx.ID(), chain.Committed, ""))
			return tx.ID(), nil
		},
	)

	outcome, err := newCorrelator(client, Config{}).SubmitTx(ctx, tx)
	require.NoError(err)
	require.Equal(chain.OutcomeCommitted, outcome.Kind)
}

func TestListenerPanic(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var (
		tx     = newTx(t)
		client = chaintest.NewMockClient(ctrl)
		stream = chaintest.NewMockEventStream(ctrl)
	)
	client.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(stream, nil)
	client.EXPECT().Submit(gomock.Any(), tx).Return(tx.ID(), nil)
	stream.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (*chain.Event, error) {
		panic("decoder")
	})
	stream.EXPECT().Close().Return(nil)

	_, err := newCorrelator(client, Config{}).SubmitTx(context.Background(), tx)
	require.ErrorIs(err, ErrUnexpectedClosedChannel)
}

func TestResolvesOnce(t *testing.T) {
	require := require.New(t)

	var (
		txID   = ids.GenerateTestID()
		stream = chaintest.NewStream(8)
		ledger = chaintest.NewLedger()
		c      = newCorrelator(ledger, Config{})
	)
	for _, e := range []*chain.Event{
		chain.NewPipelineEvent(ids.GenerateTestID(), chain.Rejected, "other"),
		chain.NewPipelineEvent(txID, chain.Validating, ""),
		chain.NewPipelineEvent(txID, chain.Committed, ""),
		chain.NewPipelineEvent(txID, chain.Committed, ""),
		chain.NewPipelineEvent(txID, chain.Rejected, "late"),
	} {
		require.True(stream.Push(e))
	}
	stream.End()

	require.Equal(chain.CommittedOutcome(txID), c.resolve(context.Background(), txID, stream))

	// Through the listener, the result channel carries exactly one value.
	ctrl := gomock.NewController(t)
	client := chaintest.NewMockClient(ctrl)
	dup := chaintest.NewStream(8)
	require.True(dup.Push(chain.NewPipelineEvent(txID, chain.Committed, "")))
	require.True(dup.Push(chain.NewPipelineEvent(txID, chain.Committed, "")))
	client.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(dup, nil)

	c = newCorrelator(client, Config{})
	result := make(chan chain.Outcome, 2)
	c.listen(context.Background(), txID, lifecycle.NewSignal(), result)

	var outcomes []chain.Outcome
	for o := range result {
		outcomes = append(outcomes, o)
	}
	require.Equal([]chain.Outcome{chain.CommittedOutcome(txID)}, outcomes)
	require.True(dup.Closed())
}
