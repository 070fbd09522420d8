// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	ErrInvalidObject    = errors.New("invalid object")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnsigned         = errors.New("transaction is not signed")
	ErrStreamClosed     = errors.New("event stream closed")
	ErrUnknownStatus    = errors.New("unknown pipeline status")
)
