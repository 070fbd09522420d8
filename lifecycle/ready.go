// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrNotReady = errors.New("not ready")

type Ready interface {
	Ready() bool
}

// Signal is a one-shot readiness signal. It resolves exactly once, either
// ready or failed, and every waiter observes the same result.
type Signal struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

func (s *Signal) MarkReady() {
	s.resolve(nil)
}

// Fail resolves s with err. A nil err is reported as [ErrNotReady].
func (s *Signal) Fail(err error) {
	if err == nil {
		err = ErrNotReady
	}
	s.resolve(err)
}

func (s *Signal) resolve(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *Signal) Ready() bool {
	select {
	case <-s.done:
		return s.err == nil
	default:
		return false
	}
}

// Await blocks until s resolves or ctx is done.
func (s *Signal) Await(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flag is a readiness state that can be toggled.
type Flag struct {
	b atomic.Bool
}

func NewFlag(initialState bool) *Flag {
	f := &Flag{}
	f.b.Store(initialState)
	return f
}

func (f *Flag) Ready() bool {
	return f.b.Load()
}

func (f *Flag) MarkReady() {
	f.b.Store(true)
}

func (f *Flag) MarkNotReady() {
	f.b.Store(false)
}

// Group is ready when every member is.
type Group []Ready

func (g Group) Ready() bool {
	for _, r := range g {
		if !r.Ready() {
			return false
		}
	}
	return true
}
