// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import "errors"

var (
	ErrInputEmpty    = errors.New("input is empty")
	ErrInputTooLarge = errors.New("input is too large")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrConfigExists  = errors.New("config already exists")
)
