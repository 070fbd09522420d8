// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestNewPrometheusConfig(t *testing.T) {
	require := require.New(t)

	c, err := NewPrometheusConfig([]string{"http://127.0.0.1:8084", "http://localhost:9000"}, "/metrics")
	require.NoError(err)
	require.Len(c.ScrapeConfigs, 1)
	require.Equal("/metrics", c.ScrapeConfigs[0].MetricsPath)
	require.Equal([]string{"127.0.0.1:8084", "localhost:9000"}, c.ScrapeConfigs[0].StaticConfigs[0].Targets)
	require.Equal("1s", c.Global.ScrapeInterval)

	_, err = NewPrometheusConfig([]string{"://bad"}, "/metrics")
	require.Error(err)
}

func TestDashboardURL(t *testing.T) {
	require := require.New(t)

	require.Equal("http://localhost:9090/graph", DashboardURL("http://localhost:9090", nil))

	dashboard := DashboardURL("http://localhost:9090", []string{"a", "b c"})
	require.True(strings.HasPrefix(dashboard, "http://localhost:9090/graph?g0.expr=a&g0.tab=0"))
	require.Contains(dashboard, "&g1.expr=b+c&g1.tab=0&g1.step_input=1&g1.range_input=5m")
	require.Equal(1, strings.Count(dashboard, "?"))
}

func TestGeneratePrometheusWritesConfig(t *testing.T) {
	require := require.New(t)

	file := filepath.Join(t.TempDir(), "prometheus.yaml")
	require.NoError(GeneratePrometheus(
		context.Background(),
		[]string{"http://127.0.0.1:8084"},
		"/metrics",
		"http://localhost:9090",
		false,
		false,
		file,
		t.TempDir(),
		DefaultPanels,
	))

	raw, err := os.ReadFile(file)
	require.NoError(err)
	var c PrometheusConfig
	require.NoError(yaml.Unmarshal(raw, &c))
	require.Equal("hyperload", c.ScrapeConfigs[0].JobName)
	require.Equal([]string{"127.0.0.1:8084"}, c.ScrapeConfigs[0].StaticConfigs[0].Targets)
}
