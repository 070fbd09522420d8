// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ava-labs/hyperload/lifecycle"
	"github.com/ava-labs/hyperload/status"
)

const (
	StatusEndpoint  = "/status"
	MetricsEndpoint = "/metrics"
	HealthEndpoint  = "/health"
)

type Snapshotter interface {
	Snapshot() status.Status
}

// NewStatusHandler serves the current snapshot of [aggregator] as JSON.
func NewStatusHandler(log logging.Logger, aggregator Snapshotter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(log, w, http.StatusOK, aggregator.Snapshot())
	})
}

type healthReply struct {
	Healthy bool `json:"healthy"`
}

// NewHealthHandler responds 503 until [ready] reports ready.
func NewHealthHandler(log logging.Logger, ready lifecycle.Ready) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		healthy := ready.Ready()
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(log, w, code, healthReply{Healthy: healthy})
	})
}

func writeJSON(log logging.Logger, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("failed to write response", zap.Error(err))
	}
}

// NewStatusServer serves [StatusEndpoint], [MetricsEndpoint] and
// [HealthEndpoint] on [listener]. Any other path is a 404.
func NewStatusServer(
	log logging.Logger,
	listener net.Listener,
	aggregator Snapshotter,
	gatherer prometheus.Gatherer,
	ready lifecycle.Ready,
) *Server {
	s := New(log, listener, NewDefaultHTTPConfig(), []string{"*"}, DefaultShutdownTimeout)
	s.AddRoute(NewStatusHandler(log, aggregator), StatusEndpoint, http.MethodGet)
	s.AddRoute(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}), MetricsEndpoint, http.MethodGet)
	s.AddRoute(NewHealthHandler(log, ready), HealthEndpoint, http.MethodGet)
	return s
}

// WaitHealthy polls [uri] until it reports healthy or [timeout] elapses.
func WaitHealthy(uri string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(uri + HealthEndpoint) //nolint:gosec
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
