// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"sync"
	"time"

	"github.com/ava-labs/hyperload/chain"
)

// Status is a point in time view of the transactions issued by a run.
// Timestamps are nil until the first transaction of their category.
type Status struct {
	Committed uint64 `json:"txs_committed"`
	Rejected  uint64 `json:"txs_rejected"`
	Sent      uint64 `json:"txs_sent"`
	Unknown   uint64 `json:"txs_unknown"`

	LatestCommitted *time.Time `json:"latest_committed_transaction"`
	LatestRejected  *time.Time `json:"latest_rejected_transaction"`
	LatestSent      *time.Time `json:"latest_sent_at"`
	LatestUnknown   *time.Time `json:"latest_unknown_at"`
}

// Resolved is the number of transactions that reached a terminal state.
func (s Status) Resolved() uint64 {
	return s.Committed + s.Rejected + s.Unknown
}

// Aggregator accumulates [Status] for the lifetime of a run. It is safe for
// concurrent use and never resets.
type Aggregator struct {
	metrics *Metrics
	now     func() time.Time

	lock   sync.RWMutex
	status Status
}

// NewAggregator returns an empty Aggregator. Every update is mirrored to
// metrics when it is non-nil.
func NewAggregator(metrics *Metrics) *Aggregator {
	return &Aggregator{
		metrics: metrics,
		now:     time.Now,
	}
}

// stamp strips the monotonic reading so snapshots survive a JSON round trip.
func (a *Aggregator) stamp() *time.Time {
	t := a.now().UTC().Round(0)
	return &t
}

// RecordSent counts n transactions handed to the ledger. It must be called
// before the submission so a racing event never observes more resolved
// than sent transactions.
func (a *Aggregator) RecordSent(n int) {
	if n <= 0 {
		return
	}
	a.lock.Lock()
	defer a.lock.Unlock()

	a.status.Sent += uint64(n)
	a.status.LatestSent = a.stamp()
	a.metrics.sent(n)
}

// RevertSent undoes RecordSent(n) for transactions that provably never
// reached the ledger. The latest sent timestamp is left untouched.
func (a *Aggregator) RevertSent(n int) {
	if n <= 0 {
		return
	}
	a.lock.Lock()
	defer a.lock.Unlock()

	a.status.Sent -= min(uint64(n), a.status.Sent)
	a.metrics.reverted(n)
}

// RecordSubmitFailure counts a submission that returned an error. The
// transaction stays counted as sent: the ledger may still have admitted it,
// and its outcome may still be observed.
func (a *Aggregator) RecordSubmitFailure() {
	a.metrics.submitFailed()
}

func (a *Aggregator) RecordCommitted() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.status.Committed++
	a.status.LatestCommitted = a.stamp()
	a.metrics.committed()
}

func (a *Aggregator) RecordRejected() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.status.Rejected++
	a.status.LatestRejected = a.stamp()
	a.metrics.rejected()
}

func (a *Aggregator) RecordUnknown() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.status.Unknown++
	a.status.LatestUnknown = a.stamp()
	a.metrics.unknown()
}

func (a *Aggregator) RecordOutcome(o chain.Outcome) {
	switch o.Kind {
	case chain.OutcomeCommitted:
		a.RecordCommitted()
	case chain.OutcomeRejected:
		a.RecordRejected()
	default:
		a.RecordUnknown()
	}
}

// Snapshot returns a consistent copy of the current status.
func (a *Aggregator) Snapshot() Status {
	a.lock.RLock()
	defer a.lock.RUnlock()

	s := a.status
	s.LatestCommitted = copyTime(s.LatestCommitted)
	s.LatestRejected = copyTime(s.LatestRejected)
	s.LatestSent = copyTime(s.LatestSent)
	s.LatestUnknown = copyTime(s.LatestUnknown)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
