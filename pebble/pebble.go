// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/units"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrClosed = errors.New("closed")

type Config struct {
	CacheSize             int // B
	BytesPerSync          int // B
	MaxOpenFiles          int
	ConcurrentCompactions int
	Sync                  bool
	// InMemory keeps every file in memory. The path passed to [New] is
	// only used as a name.
	InMemory bool
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:             64 * units.MiB,
		BytesPerSync:          units.MiB,
		MaxOpenFiles:          4_096,
		ConcurrentCompactions: 1,
		Sync:                  true,
	}
}

// Database is a key value store backed by pebble.
type Database struct {
	db        *pebble.DB
	metrics   *metrics
	writeOpts *pebble.WriteOptions

	closeOnce sync.Once
	closing   chan struct{}
	closed    sync.WaitGroup
}

func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	d := &Database{
		closing:   make(chan struct{}),
		writeOpts: &pebble.WriteOptions{Sync: cfg.Sync},
	}
	cache := pebble.NewCache(int64(cfg.CacheSize))
	opts := &pebble.Options{
		Cache:                    cache,
		BytesPerSync:             cfg.BytesPerSync,
		MaxOpenFiles:             cfg.MaxOpenFiles,
		MaxConcurrentCompactions: func() int { return cfg.ConcurrentCompactions },
	}
	if cfg.InMemory {
		opts.FS = vfs.NewMem()
	}
	opts.EventListener = &pebble.EventListener{
		CompactionBegin: d.onCompactionBegin,
		CompactionEnd:   d.onCompactionEnd,
		WriteStallBegin: d.onWriteStallBegin,
		WriteStallEnd:   d.onWriteStallEnd,
	}
	registry, metrics, err := newMetrics()
	if err != nil {
		cache.Unref()
		return nil, nil, err
	}
	d.metrics = metrics
	db, err := pebble.Open(file, opts)
	// The db holds its own reference to the cache.
	cache.Unref()
	if err != nil {
		return nil, nil, err
	}
	d.db = db

	d.closed.Add(1)
	go func() {
		d.collectMetrics()
		d.closed.Done()
	}()
	return d, registry, nil
}

func (db *Database) Get(key []byte) ([]byte, error) {
	start := time.Now()
	defer func() {
		db.metrics.getLatency.Observe(float64(time.Since(start)))
	}()
	return get(db.db, key)
}

func (db *Database) Has(key []byte) (bool, error) {
	return has(db.db, key)
}

func (db *Database) Put(key, value []byte) error {
	return db.db.Set(key, value, db.writeOpts)
}

func (db *Database) Delete(key []byte) error {
	return db.db.Delete(key, db.writeOpts)
}

// NewBatch returns a batch that can read its own writes.
func (db *Database) NewBatch() *Batch {
	return &Batch{
		b:  db.db.NewIndexedBatch(),
		db: db,
	}
}

func (db *Database) Close() error {
	err := ErrClosed
	db.closeOnce.Do(func() {
		close(db.closing)
		db.closed.Wait()
		err = db.db.Close()
	})
	return err
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r reader, key []byte) ([]byte, error) {
	data, closer, err := r.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, database.ErrNotFound
		}
		return nil, err
	}
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret, closer.Close()
}

func has(r reader, key []byte) (bool, error) {
	_, err := get(r, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Batch stages writes that become visible to the database on [Batch.Write].
type Batch struct {
	b  *pebble.Batch
	db *Database
}

func (b *Batch) Get(key []byte) ([]byte, error) { return get(b.b, key) }

func (b *Batch) Has(key []byte) (bool, error) { return has(b.b, key) }

func (b *Batch) Put(key, value []byte) error { return b.b.Set(key, value, nil) }

func (b *Batch) Delete(key []byte) error { return b.b.Delete(key, nil) }

func (b *Batch) Size() int { return int(b.b.Count()) }

func (b *Batch) Write() error {
	start := time.Now()
	if err := b.b.Commit(b.db.writeOpts); err != nil {
		return err
	}
	b.db.metrics.observeBatch(b.b.Count(), start)
	return nil
}

// Close releases the batch. Unwritten changes are dropped.
func (b *Batch) Close() error {
	return b.b.Close()
}
