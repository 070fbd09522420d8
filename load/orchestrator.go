// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package load

import (
	"context"

	"github.com/ava-labs/hyperload/status"
)

// Orchestrator drives a load run against a ledger.
type Orchestrator interface {
	// Execute blocks until the run completes, fails or ctx is done.
	Execute(ctx context.Context) error
	// Status is the aggregate observed so far.
	Status() status.Status
}
