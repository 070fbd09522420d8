// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace       = "state"
	metricsInterval = 10 * time.Second
)

type metrics struct {
	stallStart time.Time
	writeStall metric.Averager

	getLatency   metric.Averager
	writeLatency metric.Averager
	batches      prometheus.Counter
	batchOps     prometheus.Counter

	compactions       *prometheus.CounterVec
	activeCompactions prometheus.Gauge

	tombstones  prometheus.Gauge
	diskUsage   prometheus.Gauge
	memtable    prometheus.Gauge
	obsoleteSST prometheus.Gauge
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()
	m := &metrics{
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches",
			Help:      "number of batches written",
		}),
		batchOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_ops",
			Help:      "number of puts and deletes applied through batches",
		}),
		compactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compactions",
			Help:      "number of compactions by input level",
		}, []string{"level"}),
		activeCompactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_compactions",
			Help:      "number of running compactions",
		}),
		tombstones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tombstones",
			Help:      "approximate count of internal tombstones",
		}),
		diskUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "disk_usage",
			Help:      "bytes used by tables, WAL and manifests",
		}),
		memtable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memtable_size",
			Help:      "bytes allocated by memtables",
		}),
		obsoleteSST: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "obsolete_table_size",
			Help:      "bytes in tables no longer referenced by the db",
		}),
	}

	errs := wrappers.Errs{}
	var err error
	m.writeStall, err = metric.NewAverager(namespace+"_write_stall", "time spent waiting for disk write", r)
	errs.Add(err)
	m.getLatency, err = metric.NewAverager(namespace+"_read_latency", "time spent waiting for db get", r)
	errs.Add(err)
	m.writeLatency, err = metric.NewAverager(namespace+"_batch_latency", "time spent committing a batch", r)
	errs.Add(err)
	errs.Add(
		r.Register(m.batches),
		r.Register(m.batchOps),
		r.Register(m.compactions),
		r.Register(m.activeCompactions),
		r.Register(m.tombstones),
		r.Register(m.diskUsage),
		r.Register(m.memtable),
		r.Register(m.obsoleteSST),
	)
	return r, m, errs.Err
}

func (m *metrics) observeBatch(ops uint32, start time.Time) {
	m.batches.Inc()
	m.batchOps.Add(float64(ops))
	m.writeLatency.Observe(float64(time.Since(start)))
}

func (db *Database) onCompactionBegin(info pebble.CompactionInfo) {
	db.metrics.activeCompactions.Inc()
	level := "other"
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		level = "l0"
	}
	db.metrics.compactions.WithLabelValues(level).Inc()
}

func (db *Database) onCompactionEnd(pebble.CompactionInfo) {
	db.metrics.activeCompactions.Dec()
}

func (db *Database) onWriteStallBegin(pebble.WriteStallBeginInfo) {
	db.metrics.stallStart = time.Now()
}

func (db *Database) onWriteStallEnd() {
	db.metrics.writeStall.Observe(float64(time.Since(db.metrics.stallStart)))
}

// collectMetrics samples the db until it is closed.
func (db *Database) collectMetrics() {
	t := time.NewTicker(metricsInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			m := db.db.Metrics()
			db.metrics.tombstones.Set(float64(m.Keys.TombstoneCount))
			db.metrics.diskUsage.Set(float64(m.DiskSpaceUsage()))
			db.metrics.memtable.Set(float64(m.MemTable.Size))
			db.metrics.obsoleteSST.Set(float64(m.Table.ObsoleteSize))
		case <-db.closing:
			return
		}
	}
}
