// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test")

func TestSignalReady(t *testing.T) {
	require := require.New(t)

	s := NewSignal()
	require.False(s.Ready())

	go s.MarkReady()
	require.NoError(s.Await(context.Background()))
	require.True(s.Ready())

	// Resolves only once
	s.Fail(errTest)
	require.NoError(s.Await(context.Background()))
}

func TestSignalFail(t *testing.T) {
	require := require.New(t)

	s := NewSignal()
	s.Fail(errTest)
	s.MarkReady()
	require.ErrorIs(s.Await(context.Background()), errTest)
	require.False(s.Ready())

	s = NewSignal()
	s.Fail(nil)
	require.ErrorIs(s.Await(context.Background()), ErrNotReady)
}

func TestSignalAwaitCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, NewSignal().Await(ctx), context.DeadlineExceeded)
}

func TestGroup(t *testing.T) {
	require := require.New(t)

	a := NewFlag(true)
	b := NewFlag(false)
	g := Group{a, b}
	require.False(g.Ready())

	b.MarkReady()
	require.True(g.Ready())

	a.MarkNotReady()
	require.False(g.Ready())

	require.True(Group{}.Ready())
}
