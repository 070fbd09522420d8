// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ava-labs/hyperload/chain"
)

var _ chain.EventStream = (*WebSocketClient)(nil)

// WebSocketClient is an acknowledged subscription to [WebSocketEndpoint].
type WebSocketClient struct {
	conn *websocket.Conn

	events chan *chain.Event
	done   chan struct{}
	// err is written before events is closed.
	err error

	cl sync.Once
}

// NewWebSocketClient dials [uri], subscribes with [filter] and waits up to
// [handshakeTimeout] for the acknowledgement.
func NewWebSocketClient(
	ctx context.Context,
	uri string,
	filter chain.EventFilter,
	handshakeTimeout time.Duration,
) (*WebSocketClient, error) {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if err != nil {
		return nil, err
	}
	// not using resp for now
	resp.Body.Close()

	pending, err := handshake(ctx, conn, filter)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c := &WebSocketClient{
		conn:   conn,
		events: make(chan *chain.Event, eventBacklog),
		done:   make(chan struct{}),
	}
	go c.readPump(pending)
	return c, nil
}

// handshake returns any events that raced ahead of the acknowledgement.
func handshake(ctx context.Context, conn *websocket.Conn, filter chain.EventFilter) ([]*chain.Event, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	msg, err := PackSubscribeMessage(filter)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return nil, err
	}

	var pending []*chain.Event
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		m, err := UnpackMessage(raw)
		if err != nil {
			return nil, err
		}
		switch {
		case m.Type == SubscribedMessage:
			return pending, nil
		case m.Type == ErrorMessage:
			return nil, fmt.Errorf("%w: %s", ErrSubscriptionRefused, m.Error)
		case m.IsEvent():
			pending = append(pending, m.ChainEvent())
		}
	}
}

func (c *WebSocketClient) readPump(pending []*chain.Event) {
	defer close(c.events)

	for _, e := range pending {
		if !c.deliver(e) {
			return
		}
	}
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		m, err := UnpackMessage(raw)
		if err != nil {
			c.err = err
			return
		}
		if m.Type == ErrorMessage {
			c.err = fmt.Errorf("%w: %s", ErrServer, m.Error)
			return
		}
		if !m.IsEvent() {
			continue
		}
		if !c.deliver(m.ChainEvent()) {
			return
		}
	}
}

func (c *WebSocketClient) deliver(e *chain.Event) bool {
	select {
	case c.events <- e:
		return true
	case <-c.done:
		return false
	}
}

// Next returns the next event. Once the connection goes away or the server
// reports an error it returns [chain.ErrStreamClosed].
func (c *WebSocketClient) Next(ctx context.Context) (*chain.Event, error) {
	select {
	case e, ok := <-c.events:
		if !ok {
			if c.err != nil {
				return nil, fmt.Errorf("%w: %w", chain.ErrStreamClosed, c.err)
			}
			return nil, chain.ErrStreamClosed
		}
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes [c]'s connection to the server.
func (c *WebSocketClient) Close() error {
	var err error
	c.cl.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}
