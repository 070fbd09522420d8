// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import "errors"

var (
	ErrClosed      = errors.New("connection closed")
	ErrBufferFull  = errors.New("send buffer full")
	ErrInvalidPing = errors.New("ping period must be less than pong wait")
)
