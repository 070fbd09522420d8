// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/chain"
	"github.com/ava-labs/hyperload/pubsub"
)

// WebSocketServer streams ledger events to subscribed connections.
type WebSocketServer struct {
	log    logging.Logger
	tracer trace.Tracer
	s      *pubsub.Server

	lock          sync.RWMutex
	subscriptions map[*pubsub.Connection]chain.EventFilter
}

func NewWebSocketServer(
	log logging.Logger,
	tracer trace.Tracer,
	maxPendingMessages int,
) (*WebSocketServer, *pubsub.Server) {
	w := &WebSocketServer{
		log:           log,
		tracer:        tracer,
		subscriptions: map[*pubsub.Connection]chain.EventFilter{},
	}
	cfg := pubsub.NewDefaultServerConfig()
	cfg.MaxPendingMessages = maxPendingMessages
	w.s = pubsub.New(log, cfg, w.MessageCallback(), w.removeSubscription)
	return w, w.s
}

// Note: no need to have a worker here as subscriptions are cheap to
// register.
func (w *WebSocketServer) MessageCallback() pubsub.Callback {
	return func(msgBytes []byte, c *pubsub.Connection) {
		_, span := w.tracer.Start(context.Background(), "WebSocketServer.Callback")
		defer span.End()

		msg, err := UnpackMessage(msgBytes)
		if err != nil {
			w.log.Debug("unable to unpack message",
				zap.Int("len", len(msgBytes)),
				zap.Error(err),
			)
			w.reply(c, err)
			return
		}
		switch msg.Type {
		case SubscribeMessage:
			var filter chain.EventFilter
			if msg.Filter != nil {
				filter = *msg.Filter
			}
			// Register before acknowledging so no event published after the
			// ack can be missed.
			w.lock.Lock()
			w.subscriptions[c] = filter
			w.lock.Unlock()

			ack, err := PackSubscribedMessage()
			if err != nil {
				w.log.Error("unable to pack ack", zap.Error(err))
				return
			}
			if err := c.Send(ack); err != nil {
				w.log.Debug("unable to acknowledge subscription", zap.Error(err))
			}
		default:
			w.log.Debug("unexpected message",
				zap.String("type", msg.Type),
			)
			w.reply(c, ErrUnexpectedMessage)
		}
	}
}

func (w *WebSocketServer) reply(c *pubsub.Connection, err error) {
	msg, perr := PackErrorMessage(err)
	if perr != nil {
		return
	}
	_ = c.Send(msg)
}

func (w *WebSocketServer) removeSubscription(c *pubsub.Connection) {
	w.lock.Lock()
	defer w.lock.Unlock()

	delete(w.subscriptions, c)
}

// Publish sends e to every subscription whose filter matches it.
func (w *WebSocketServer) Publish(e *chain.Event) error {
	msg, err := PackEventMessage(e)
	if err != nil {
		return err
	}

	w.lock.RLock()
	conns := make([]*pubsub.Connection, 0, len(w.subscriptions))
	for c, filter := range w.subscriptions {
		if filter.Matches(e) {
			conns = append(conns, c)
		}
	}
	w.lock.RUnlock()

	w.s.Publish(msg, conns)
	return nil
}

func (w *WebSocketServer) Subscriptions() int {
	w.lock.RLock()
	defer w.lock.RUnlock()

	return len(w.subscriptions)
}
