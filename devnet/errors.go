// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package devnet

import "errors"

// Errors returned while executing a transaction become the rejection
// reason of its pipeline event.
var (
	ErrObjectExists           = errors.New("object already exists")
	ErrUnknownDomain          = errors.New("unknown domain")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrUnknownAssetDefinition = errors.New("unknown asset definition")
	ErrUnknownAsset           = errors.New("unknown asset")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrValueTypeMismatch      = errors.New("value type mismatch")
	ErrMalformedIdentifier    = errors.New("malformed identifier")
	ErrUnauthorizedSigner     = errors.New("unauthorized signer")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	ErrOverflow               = errors.New("overflow")

	ErrDuplicateTx       = errors.New("duplicate transaction")
	ErrTimestampTooEarly = errors.New("timestamp too early")
	ErrTimestampTooLate  = errors.New("timestamp too late")
	ErrNotStarted        = errors.New("not started")
	ErrAlreadyStarted    = errors.New("already started")
	ErrClosed            = errors.New("closed")
	ErrInvalidConfig     = errors.New("invalid config")
)
