// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/avalanchego/trace"
)

var _ trace.Tracer = (*noOpTracer)(nil)

// noOpTracer is an implementation of trace.Tracer that does nothing.
type noOpTracer struct {
	oteltrace.Tracer
}

// Noop returns a tracer that records nothing. Components fall back to it
// when no tracer is configured.
func Noop(appName string) trace.Tracer {
	return &noOpTracer{
		Tracer: oteltrace.NewNoopTracerProvider().Tracer(appName),
	}
}

func (*noOpTracer) Close() error {
	return nil
}
