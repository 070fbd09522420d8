// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

//nolint:gosec
package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/pkg/browser"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/hyperload/utils"
)

const (
	CommittedRate    = "increase(hyperload_txs_committed[5s])/5"
	RejectedRate     = "increase(hyperload_txs_rejected[5s])/5"
	SentRate         = "deriv(hyperload_txs_sent[5s])"
	UnknownRate      = "increase(hyperload_txs_unknown[5s])/5"
	SubmitLatency    = "increase(hyperload_submit_latency_seconds_sum[5s])/increase(hyperload_submit_latency_seconds_count[5s])*1000"
	InFlight         = "hyperload_txs_sent - hyperload_txs_committed - hyperload_txs_rejected - hyperload_txs_unknown"
	prometheusBinary = "/tmp/prometheus"
	fsModeWrite      = 0o600
)

var (
	RejectionPercent = fmt.Sprintf("(%s)/(%s + %s) * 100", RejectedRate, CommittedRate, RejectedRate)

	DefaultPanels = []string{
		CommittedRate,
		RejectedRate,
		SentRate,
		UnknownRate,
		RejectionPercent,
		InFlight,
		SubmitLatency,
	}
)

type PrometheusStaticConfig struct {
	Targets []string `yaml:"targets"`
}

type PrometheusScrapeConfig struct {
	JobName       string                    `yaml:"job_name"`
	StaticConfigs []*PrometheusStaticConfig `yaml:"static_configs"`
	MetricsPath   string                    `yaml:"metrics_path"`
}

type PrometheusConfig struct {
	Global struct {
		ScrapeInterval     string `yaml:"scrape_interval"`
		EvaluationInterval string `yaml:"evaluation_interval"`
	} `yaml:"global"`
	ScrapeConfigs []*PrometheusScrapeConfig `yaml:"scrape_configs"`
}

// NewPrometheusConfig returns a config scraping [metricsPath] on every
// status server in [uris].
func NewPrometheusConfig(uris []string, metricsPath string) (*PrometheusConfig, error) {
	endpoints := make([]string, len(uris))
	for i, uri := range uris {
		endpoint, err := utils.HostPort(uri)
		if err != nil {
			return nil, err
		}
		endpoints[i] = endpoint
	}

	var prometheusConfig PrometheusConfig
	prometheusConfig.Global.ScrapeInterval = "1s"
	prometheusConfig.Global.EvaluationInterval = "1s"
	prometheusConfig.ScrapeConfigs = []*PrometheusScrapeConfig{
		{
			JobName: "hyperload",
			StaticConfigs: []*PrometheusStaticConfig{
				{
					Targets: endpoints,
				},
			},
			MetricsPath: metricsPath,
		},
	}
	return &prometheusConfig, nil
}

// DashboardURL encodes [panels] as graph queries against [baseURI].
//
// Params are encoded manually because prometheus skips any panels that are
// not numerically sorted and `url.Values` only sorts lexicographically.
func DashboardURL(baseURI string, panels []string) string {
	dashboard := baseURI + "/graph"
	for i, panel := range panels {
		appendChar := "&"
		if i == 0 {
			appendChar = "?"
		}
		dashboard = fmt.Sprintf("%s%sg%d.expr=%s&g%d.tab=0&g%d.step_input=1&g%d.range_input=5m", dashboard, appendChar, i, url.QueryEscape(panel), i, i, i)
	}
	return dashboard
}

func GeneratePrometheus(
	ctx context.Context,
	uris []string,
	metricsPath string,
	baseURI string,
	openBrowser bool,
	startPrometheus bool,
	prometheusFile string,
	prometheusData string,
	panels []string,
) error {
	prometheusConfig, err := NewPrometheusConfig(uris, metricsPath)
	if err != nil {
		return err
	}
	yamlData, err := yaml.Marshal(prometheusConfig)
	if err != nil {
		return err
	}
	if err := os.WriteFile(prometheusFile, yamlData, fsModeWrite); err != nil {
		return err
	}
	utils.Outf("{{green}}wrote prometheus config:{{/}} %s\n", prometheusFile)

	dashboard := DashboardURL(baseURI, panels)
	if !startPrometheus {
		if !openBrowser {
			utils.Outf("{{orange}}pre-built dashboard:{{/}} %s\n", dashboard)
			utils.Outf("{{green}}prometheus cmd:{{/}} %s --config.file=%s --storage.tsdb.path=%s\n", prometheusBinary, prometheusFile, prometheusData)
			return nil
		}
		return browser.OpenURL(dashboard)
	}

	// Interrupting [ctx] stops prometheus.
	cmd := exec.CommandContext(ctx, prometheusBinary, "--config.file="+prometheusFile, "--storage.tsdb.path="+prometheusData)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	exited := make(chan struct{})
	go func() {
		select {
		case <-exited:
			return
		case <-time.After(5 * time.Second):
			if !openBrowser {
				utils.Outf("{{orange}}pre-built dashboard:{{/}} %s\n", dashboard)
				return
			}
			utils.Outf("{{cyan}}opening dashboard{{/}}\n")
			if err := browser.OpenURL(dashboard); err != nil {
				utils.Outf("{{red}}unable to open dashboard:{{/}} %s\n", err.Error())
			}
		}
	}()

	utils.Outf("{{cyan}}starting prometheus (%s) in background{{/}}\n", prometheusBinary)
	err = cmd.Run()
	close(exited)
	if err != nil && ctx.Err() == nil {
		utils.Outf("{{orange}}prometheus exited with error:{{/}} %v\n", err)
		utils.Outf(`install prometheus using the following commands:

rm -f /tmp/prometheus
wget https://github.com/prometheus/prometheus/releases/download/v2.43.0/prometheus-2.43.0.linux-amd64.tar.gz
tar -xvf prometheus-2.43.0.linux-amd64.tar.gz
rm prometheus-2.43.0.linux-amd64.tar.gz
mv prometheus-2.43.0.linux-amd64/prometheus /tmp/prometheus
rm -rf prometheus-2.43.0.linux-amd64

`)
		return err
	}
	utils.Outf("{{cyan}}prometheus exited{{/}}\n")
	return nil
}
