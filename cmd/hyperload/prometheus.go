// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/hyperload/cli"
	"github.com/ava-labs/hyperload/server"
)

var (
	prometheusTargets []string
	prometheusBaseURI string
	prometheusFile    string
	prometheusData    string
	openBrowser       bool
	startPrometheus   bool
)

var prometheusCmd = &cobra.Command{
	Use:   "prometheus",
	Short: "Generate a prometheus config scraping daemon metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cli.GeneratePrometheus(
			cmd.Context(),
			prometheusTargets,
			server.MetricsEndpoint,
			prometheusBaseURI,
			openBrowser,
			startPrometheus,
			prometheusFile,
			prometheusData,
			cli.DefaultPanels,
		)
	},
}

func init() {
	prometheusCmd.Flags().StringSliceVar(&prometheusTargets, "target", []string{"http://127.0.0.1:8084"}, "status servers to scrape")
	prometheusCmd.Flags().StringVar(&prometheusBaseURI, "prometheus-base-uri", "http://localhost:9090", "prometheus server location")
	prometheusCmd.Flags().StringVar(&prometheusFile, "prometheus-file", "/tmp/prometheus.yaml", "prometheus file location")
	prometheusCmd.Flags().StringVar(&prometheusData, "prometheus-data", "/tmp/prometheus", "prometheus data location")
	prometheusCmd.Flags().BoolVar(&openBrowser, "prometheus-open-browser", true, "open browser to prometheus dashboard")
	prometheusCmd.Flags().BoolVar(&startPrometheus, "prometheus-start", true, "start local prometheus server")
	rootCmd.AddCommand(prometheusCmd)
}
