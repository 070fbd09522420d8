// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package status

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hyperload"

// Metrics mirrors the aggregator into prometheus. A nil *Metrics discards
// every observation.
type Metrics struct {
	txsSent        prometheus.Gauge
	txsCommitted   prometheus.Counter
	txsRejected    prometheus.Counter
	txsUnknown     prometheus.Counter
	submitFailures prometheus.Counter
	submitLatency  prometheus.Histogram
}

func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		txsSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "txs_sent",
			Help:      "number of transactions handed to the ledger",
		}),
		txsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_committed",
			Help:      "number of committed transactions",
		}),
		txsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_rejected",
			Help:      "number of rejected transactions",
		}),
		txsUnknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txs_unknown",
			Help:      "number of transactions with an indeterminate outcome",
		}),
		submitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_failures",
			Help:      "number of submissions that returned an error",
		}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_latency_seconds",
			Help:      "time spent submitting a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.txsSent),
		r.Register(m.txsCommitted),
		r.Register(m.txsRejected),
		r.Register(m.txsUnknown),
		r.Register(m.submitFailures),
		r.Register(m.submitLatency),
	)
	return m, errs.Err
}

func (m *Metrics) sent(n int) {
	if m == nil {
		return
	}
	m.txsSent.Add(float64(n))
}

func (m *Metrics) reverted(n int) {
	if m == nil {
		return
	}
	m.txsSent.Sub(float64(n))
}

func (m *Metrics) submitFailed() {
	if m == nil {
		return
	}
	m.submitFailures.Inc()
}

func (m *Metrics) committed() {
	if m == nil {
		return
	}
	m.txsCommitted.Inc()
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.txsRejected.Inc()
}

func (m *Metrics) unknown() {
	if m == nil {
		return
	}
	m.txsUnknown.Inc()
}

// ObserveSubmit records the duration of a single submission.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(d.Seconds())
}
