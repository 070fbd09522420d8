// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chaintest

import (
	"context"
	"sync"

	"github.com/ava-labs/hyperload/chain"
)

var _ chain.EventStream = (*Stream)(nil)

// Stream is an in-memory [chain.EventStream] fed by Push.
type Stream struct {
	lock   sync.Mutex
	events chan *chain.Event
	ended  bool

	closeOnce sync.Once
	closed    chan struct{}
	onClose   func()
}

func NewStream(size int) *Stream {
	return &Stream{
		events: make(chan *chain.Event, size),
		closed: make(chan struct{}),
	}
}

// Push queues e for delivery. It returns false once the stream has ended
// or been closed.
func (s *Stream) Push(e *chain.Event) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.ended {
		return false
	}
	select {
	case s.events <- e:
		return true
	case <-s.closed:
		return false
	}
}

// End marks the stream exhausted. Queued events are still delivered.
func (s *Stream) End() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.ended {
		return
	}
	s.ended = true
	close(s.events)
}

func (s *Stream) Next(ctx context.Context) (*chain.Event, error) {
	select {
	case e, ok := <-s.events:
		if !ok {
			return nil, chain.ErrStreamClosed
		}
		return e, nil
	case <-s.closed:
		return nil, chain.ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}

func (s *Stream) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
