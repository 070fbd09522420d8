// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "errors"

var (
	ErrClosed              = errors.New("closed")
	ErrMessageMissing      = errors.New("message missing")
	ErrUnexpectedMessage   = errors.New("unexpected message")
	ErrSubscriptionRefused = errors.New("subscription refused")
	ErrServer              = errors.New("server error")
	ErrWrongChain          = errors.New("wrong chain")
	ErrStatus              = errors.New("unexpected http status")
)
