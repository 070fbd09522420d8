// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

type PipelineStatus uint8

const (
	Validating PipelineStatus = iota
	Rejected
	Committed
)

func (s PipelineStatus) String() string {
	switch s {
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Terminal reports whether no further events follow s for the same hash.
func (s PipelineStatus) Terminal() bool {
	return s == Rejected || s == Committed
}

func (s PipelineStatus) MarshalText() ([]byte, error) {
	switch s {
	case Validating, Rejected, Committed:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, s)
	}
}

func (s *PipelineStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "validating":
		*s = Validating
	case "rejected":
		*s = Rejected
	case "committed":
		*s = Committed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, b)
	}
	return nil
}

// PipelineEvent reports the progress of a single transaction.
type PipelineEvent struct {
	Hash   ids.ID         `json:"hash"`
	Status PipelineStatus `json:"status"`
	// Reason is set when Status is [Rejected].
	Reason string `json:"reason,omitempty"`
}

const PipelineEventType = "pipeline"

// Event is anything delivered on an event stream. Pipeline is nil for
// event types other than [PipelineEventType].
type Event struct {
	Type     string         `json:"type"`
	Pipeline *PipelineEvent `json:"event,omitempty"`
}

func NewPipelineEvent(hash ids.ID, status PipelineStatus, reason string) *Event {
	return &Event{
		Type: PipelineEventType,
		Pipeline: &PipelineEvent{
			Hash:   hash,
			Status: status,
			Reason: reason,
		},
	}
}

// EventFilter selects the pipeline events delivered by a subscription. The
// zero value matches every pipeline event.
type EventFilter struct {
	Hash *ids.ID `json:"hash,omitempty"`
}

func HashFilter(hash ids.ID) EventFilter {
	return EventFilter{Hash: &hash}
}

func (f EventFilter) Matches(e *Event) bool {
	if e.Pipeline == nil {
		// Non-pipeline events are never filtered.
		return true
	}
	return f.Hash == nil || *f.Hash == e.Pipeline.Hash
}
