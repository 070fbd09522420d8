// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/units"
)

// DefaultMaxPendingMessages bounds the events queued for a slow subscriber
// before further messages to it are dropped.
const DefaultMaxPendingMessages = 16_384

const (
	readBufferSize  = units.KiB
	writeBufferSize = 4 * units.KiB
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	// Subscribe requests carry a filter and nothing else.
	maxReadMessageSize = 4 * units.KiB
)
