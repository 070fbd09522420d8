// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
)

//go:generate go run go.uber.org/mock/mockgen -package=chaintest -destination=chaintest/mock_client.go -mock_names=Client=MockClient,EventStream=MockEventStream . Client,EventStream

// Submitter builds and submits transactions to a ledger.
type Submitter interface {
	// BuildTransaction returns a signed transaction carrying instructions.
	// An empty instruction list produces a no-op transaction.
	BuildTransaction(instructions []Instruction) (*Transaction, error)
	// Submit hands tx to the ledger and returns its hash once accepted
	// for processing. It does not wait for the transaction to resolve.
	Submit(ctx context.Context, tx *Transaction) (ids.ID, error)
}

// Subscriber opens event streams on a ledger.
type Subscriber interface {
	// Subscribe returns once the ledger has acknowledged the subscription,
	// so every event matching filter and emitted afterwards is delivered.
	Subscribe(ctx context.Context, filter EventFilter) (EventStream, error)
}

type Client interface {
	Submitter
	Subscriber
}

type EventStream interface {
	// Next blocks until the next event arrives. It returns
	// [ErrStreamClosed] once the stream is exhausted.
	Next(ctx context.Context) (*Event, error)
	Close() error
}
