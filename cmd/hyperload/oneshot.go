// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ava-labs/hyperload/load"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/status"
)

var (
	oneshotCount     int
	oneshotOperation string
)

var oneshotCmd = &cobra.Command{
	Use:   "oneshot",
	Short: "Perform an operation count times concurrently and print the final status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kind, err := operation.ParseKind(oneshotOperation)
		if err != nil {
			return err
		}
		env, err := newEnvironment(cmd.Context(), "oneshot")
		if err != nil {
			return err
		}
		defer env.close()

		metrics, err := status.NewMetrics(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		o := load.NewOneshotOrchestrator(env.log, env.tracer, env.client, env.builder, metrics, load.OneshotConfig{
			Kind:          kind,
			Count:         oneshotCount,
			SubmitTimeout: env.config.SubmitTimeout,
		})
		if err := o.Execute(cmd.Context()); err != nil {
			return err
		}

		out, err := json.MarshalIndent(o.Status(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	oneshotCmd.Flags().IntVar(&oneshotCount, "count", 100, "number of concurrent operations")
	oneshotCmd.Flags().StringVar(&oneshotOperation, "operation", "", "operation to perform ("+strings.Join(operation.KindNames(), ", ")+")")
	_ = oneshotCmd.MarkFlagRequired("operation")
	rootCmd.AddCommand(oneshotCmd)
}
