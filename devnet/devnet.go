// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/pebble"
	"github.com/ava-labs/hyperload/pubsub"
	"github.com/ava-labs/hyperload/rpc"
	"github.com/ava-labs/hyperload/server"
)

var _ rpc.Ledger = (*Devnet)(nil)

// Devnet is a single node ledger. Transactions are admitted over
// [rpc.JSONRPCEndpoint], executed in blocks every BlockInterval and their
// progress is streamed over [rpc.WebSocketEndpoint].
type Devnet struct {
	log    logging.Logger
	tracer trace.Tracer
	config Config

	db       *pebble.Database
	registry *prometheus.Registry
	state    *State

	ws     *rpc.WebSocketServer
	pubsub *pubsub.Server
	server *server.Server

	lock    sync.Mutex
	pending []*chain.Transaction
	// seen maps admitted transaction ids to their timestamp until they
	// leave the validity window.
	seen    map[ids.ID]int64
	started bool
	closed  bool

	height    *atomic.Uint64
	committed *atomic.Uint64
	rejected  *atomic.Uint64

	stop      chan struct{}
	stopOnce  sync.Once
	producing sync.WaitGroup
}

func New(log logging.Logger, tracer trace.Tracer, config Config) (*Devnet, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	dbConfig := pebble.NewDefaultConfig()
	dbConfig.Sync = false
	path := config.DataDir
	if len(path) == 0 {
		dbConfig.InMemory = true
		path = "devnet"
	}
	db, registry, err := pebble.New(path, dbConfig)
	if err != nil {
		return nil, err
	}
	state := NewState(db)
	if err := state.Initialize(config.Genesis); err != nil {
		_ = db.Close()
		return nil, err
	}

	ws, pubsubServer := rpc.NewWebSocketServer(log, tracer, config.MaxPendingMessages)
	return &Devnet{
		log:       log,
		tracer:    tracer,
		config:    config,
		db:        db,
		registry:  registry,
		state:     state,
		ws:        ws,
		pubsub:    pubsubServer,
		seen:      map[ids.ID]int64{},
		height:    atomic.NewUint64(0),
		committed: atomic.NewUint64(0),
		rejected:  atomic.NewUint64(0),
		stop:      make(chan struct{}),
	}, nil
}

func (d *Devnet) Logger() logging.Logger { return d.log }

func (d *Devnet) Tracer() trace.Tracer { return d.tracer }

func (d *Devnet) ChainID() string { return d.config.ChainID }

// Start binds the configured address and begins producing blocks until
// [ctx] is done or [Close] is called.
func (d *Devnet) Start(ctx context.Context) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	switch {
	case d.closed:
		return ErrClosed
	case d.started:
		return ErrAlreadyStarted
	}

	listener, err := server.Listen(d.config.Address)
	if err != nil {
		return err
	}
	jsonHandler, err := rpc.NewJSONRPCHandler(rpc.Name, rpc.NewJSONRPCServer(d))
	if err != nil {
		_ = listener.Close()
		return err
	}
	d.server = server.New(d.log, listener, server.NewDefaultHTTPConfig(), []string{"*"}, server.DefaultShutdownTimeout)
	d.server.AddRoute(jsonHandler, rpc.JSONRPCEndpoint, http.MethodPost)
	d.server.AddRoute(d.pubsub, rpc.WebSocketEndpoint, http.MethodGet)
	d.server.AddRoute(promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}), server.MetricsEndpoint, http.MethodGet)
	d.started = true

	go func() {
		if err := d.server.Dispatch(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.log.Error("devnet server stopped", zap.Error(err))
		}
	}()
	d.producing.Add(1)
	go d.produceBlocks(ctx)

	d.log.Info("devnet started",
		zap.String("uri", d.server.URI()),
		zap.String("chainID", d.config.ChainID),
		zap.Duration("blockInterval", d.config.BlockInterval),
	)
	return nil
}

// Run starts the devnet and closes it once [ctx] is done.
func (d *Devnet) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return d.Close()
}

// URI is the http root clients connect to.
func (d *Devnet) URI() string {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.server == nil {
		return ""
	}
	return d.server.URI()
}

// Submit admits [tx] into the next block and publishes its Validating event.
func (d *Devnet) Submit(ctx context.Context, tx *chain.Transaction) error {
	_, span := d.tracer.Start(ctx, "Devnet.Submit")
	defer span.End()

	d.lock.Lock()
	defer d.lock.Unlock()

	var (
		now       = time.Now().UnixMilli()
		window    = d.config.ValidityWindow.Milliseconds()
		timestamp = tx.Payload.Timestamp
		_, seen   = d.seen[tx.ID()]
	)
	switch {
	case d.closed:
		return ErrClosed
	case !d.started:
		return ErrNotStarted
	case timestamp < now-window:
		return fmt.Errorf("%w: %d < %d", ErrTimestampTooEarly, timestamp, now-window)
	case timestamp > now+window:
		return fmt.Errorf("%w: %d > %d", ErrTimestampTooLate, timestamp, now+window)
	case seen:
		return ErrDuplicateTx
	}
	d.seen[tx.ID()] = timestamp
	d.pending = append(d.pending, tx)
	// Publishing under the lock orders Validating before the terminal event
	// emitted by the block producer.
	return d.ws.Publish(chain.NewPipelineEvent(tx.ID(), chain.Validating, ""))
}

func (d *Devnet) produceBlocks(ctx context.Context) {
	defer d.producing.Done()

	t := time.NewTicker(d.config.BlockInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			d.produceBlock()
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		}
	}
}

func (d *Devnet) produceBlock() {
	d.lock.Lock()
	txs := d.pending
	d.pending = nil
	d.expire(time.Now().UnixMilli() - d.config.ValidityWindow.Milliseconds())
	d.lock.Unlock()

	if len(txs) == 0 {
		return
	}
	height := d.height.Inc()
	var committed, rejected int
	for _, tx := range txs {
		status, reason := chain.Committed, ""
		if err := d.state.Execute(tx); err != nil {
			status, reason = chain.Rejected, err.Error()
			d.rejected.Inc()
			rejected++
		} else {
			d.committed.Inc()
			committed++
		}
		if err := d.ws.Publish(chain.NewPipelineEvent(tx.ID(), status, reason)); err != nil {
			d.log.Warn("unable to publish event",
				zap.Stringer("txID", tx.ID()),
				zap.Error(err),
			)
		}
	}
	d.log.Debug("produced block",
		zap.Uint64("height", height),
		zap.Int("committed", committed),
		zap.Int("rejected", rejected),
	)
}

// expire forgets ids with a timestamp before [cutoff]. Submit refuses those
// transactions, so they cannot be replayed. Assumes the lock is held.
func (d *Devnet) expire(cutoff int64) {
	for id, timestamp := range d.seen {
		if timestamp < cutoff {
			delete(d.seen, id)
		}
	}
}

// Height is the number of blocks produced.
func (d *Devnet) Height() uint64 { return d.height.Load() }

func (d *Devnet) Committed() uint64 { return d.committed.Load() }

func (d *Devnet) Rejected() uint64 { return d.rejected.Load() }

func (d *Devnet) State() *State { return d.state }

// Close stops block production, disconnects every subscriber and releases
// the state.
func (d *Devnet) Close() error {
	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		return ErrClosed
	}
	d.closed = true
	srv := d.server
	d.lock.Unlock()

	d.stopOnce.Do(func() { close(d.stop) })
	d.producing.Wait()

	var err error
	if srv != nil {
		d.pubsub.Close()
		err = srv.Shutdown()
	}
	if dbErr := d.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
