// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chaintest

import (
	"context"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/crypto/ed25519"
)

const (
	ChainID = "chaintest"
	Creator = "alice@wonderland"

	streamBuffer = 4096
)

var _ chain.Client = (*Ledger)(nil)

// Ledger is an in-memory [chain.Client]. Every accepted transaction emits a
// Validating event followed by the terminal event chosen by Resolve to all
// matching subscriptions, before Submit returns.
type Ledger struct {
	// Resolve picks the terminal status of tx. Transactions commit when
	// nil.
	Resolve func(tx *chain.Transaction) (chain.PipelineStatus, string)
	// SubmitErr is consulted before tx is accepted. A non-nil error fails
	// the submission.
	SubmitErr func(tx *chain.Transaction) error
	// AcceptErr is consulted after tx is accepted and its events are
	// published. A non-nil error is returned to the submitter anyway.
	AcceptErr func(tx *chain.Transaction) error
	// SubscribeErr fails every subscription when set.
	SubscribeErr error

	key ed25519.PrivateKey

	lock          sync.Mutex
	nonce         uint64
	streams       map[*Stream]chain.EventFilter
	submitted     []*chain.Transaction
	subscriptions int
}

func NewLedger() *Ledger {
	key, err := ed25519.PrivateKeyFromSeed(make([]byte, ed25519.PrivateKeySeedLen))
	if err != nil {
		panic(err)
	}
	return &Ledger{
		key:     key,
		streams: map[*Stream]chain.EventFilter{},
	}
}

func (l *Ledger) BuildTransaction(instructions []chain.Instruction) (*chain.Transaction, error) {
	l.lock.Lock()
	l.nonce++
	nonce := l.nonce
	l.lock.Unlock()

	return chain.NewTransaction(ChainID, Creator, time.Now().UnixMilli(), nonce, instructions).Sign(l.key)
}

func (l *Ledger) Submit(ctx context.Context, tx *chain.Transaction) (ids.ID, error) {
	if err := ctx.Err(); err != nil {
		return ids.Empty, err
	}
	if l.SubmitErr != nil {
		if err := l.SubmitErr(tx); err != nil {
			return ids.Empty, err
		}
	}

	status, reason := chain.Committed, ""
	if l.Resolve != nil {
		status, reason = l.Resolve(tx)
	}

	l.lock.Lock()
	l.submitted = append(l.submitted, tx)
	streams := make([]*Stream, 0, len(l.streams))
	validating := chain.NewPipelineEvent(tx.ID(), chain.Validating, "")
	for s, filter := range l.streams {
		if filter.Matches(validating) {
			streams = append(streams, s)
		}
	}
	l.lock.Unlock()

	for _, s := range streams {
		s.Push(validating)
		s.Push(chain.NewPipelineEvent(tx.ID(), status, reason))
	}
	if l.AcceptErr != nil {
		if err := l.AcceptErr(tx); err != nil {
			return ids.Empty, err
		}
	}
	return tx.ID(), nil
}

func (l *Ledger) Subscribe(ctx context.Context, filter chain.EventFilter) (chain.EventStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.SubscribeErr != nil {
		return nil, l.SubscribeErr
	}

	s := NewStream(streamBuffer)
	s.onClose = func() {
		l.lock.Lock()
		defer l.lock.Unlock()

		delete(l.streams, s)
	}

	l.lock.Lock()
	defer l.lock.Unlock()

	l.streams[s] = filter
	l.subscriptions++
	return s, nil
}

// Broadcast pushes e to every open subscription regardless of filter.
func (l *Ledger) Broadcast(e *chain.Event) {
	for _, s := range l.openStreams() {
		s.Push(e)
	}
}

// EndStreams exhausts every open subscription.
func (l *Ledger) EndStreams() {
	for _, s := range l.openStreams() {
		s.End()
	}
}

func (l *Ledger) openStreams() []*Stream {
	l.lock.Lock()
	defer l.lock.Unlock()

	streams := make([]*Stream, 0, len(l.streams))
	for s := range l.streams {
		streams = append(streams, s)
	}
	return streams
}

func (l *Ledger) Submitted() []*chain.Transaction {
	l.lock.Lock()
	defer l.lock.Unlock()

	txs := make([]*chain.Transaction, len(l.submitted))
	copy(txs, l.submitted)
	return txs
}

func (l *Ledger) Subscriptions() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.subscriptions
}

func (l *Ledger) OpenStreams() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.streams)
}
