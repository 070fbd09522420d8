// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

type OutcomeKind uint8

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeCommitted
	OutcomeRejected
)

// Outcome is the terminal result of a blocking submission.
type Outcome struct {
	Kind OutcomeKind
	// Hash is set for [OutcomeCommitted].
	Hash ids.ID
	// Reason is set for [OutcomeRejected].
	Reason string
}

func CommittedOutcome(hash ids.ID) Outcome {
	return Outcome{Kind: OutcomeCommitted, Hash: hash}
}

func RejectedOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

func UnknownOutcome() Outcome {
	return Outcome{Kind: OutcomeUnknown}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeCommitted:
		return fmt.Sprintf("committed(%s)", o.Hash)
	case OutcomeRejected:
		return fmt.Sprintf("rejected(%s)", o.Reason)
	default:
		return "unknown"
	}
}
