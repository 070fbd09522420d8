// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "time"

const (
	Name              = "ledger"
	JSONRPCEndpoint   = "/ledgerapi"
	WebSocketEndpoint = "/ledgerws"

	// Handshakes never wait longer than this for the server acknowledgement.
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultRequestTimeout   = 30 * time.Second

	eventBacklog = 1_024
)
