// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ava-labs/hyperload/listener"
	"github.com/ava-labs/hyperload/load"
	"github.com/ava-labs/hyperload/operation"
	"github.com/ava-labs/hyperload/server"
	"github.com/ava-labs/hyperload/utils"
)

var (
	daemonAddress    string
	daemonTPS        float64
	daemonCount      int
	daemonOperations []string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Perform operations at a fixed rate and serve the status until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		kinds, err := operation.ParseKinds(daemonOperations)
		if err != nil {
			return err
		}
		env, err := newEnvironment(cmd.Context(), "daemon")
		if err != nil {
			return err
		}
		defer env.close()

		statusListener, err := server.Listen(daemonAddress)
		if err != nil {
			return err
		}
		d, err := load.NewDaemonOrchestrator(
			env.log,
			env.tracer,
			env.client,
			env.builder,
			prometheus.NewRegistry(),
			statusListener,
			load.DaemonConfig{
				TPS:              daemonTPS,
				Kinds:            kinds,
				Count:            daemonCount,
				ResubscribeDelay: listener.DefaultResubscribeDelay,
			},
		)
		if err != nil {
			_ = statusListener.Close()
			return err
		}
		utils.Outf("{{green}}status:{{/}} %s%s\n", d.URI(), server.StatusEndpoint)
		return d.Execute(cmd.Context())
	},
}

func init() {
	daemonCmd.Flags().StringVar(&daemonAddress, "address", "127.0.0.1:8084", "address of the status server")
	daemonCmd.Flags().Float64Var(&daemonTPS, "tps", 2, "transactions submitted per second")
	daemonCmd.Flags().IntVar(&daemonCount, "count", 100, "number of times each operation is performed")
	daemonCmd.Flags().StringArrayVar(&daemonOperations, "operation", nil, "operation to perform, repeatable ("+strings.Join(operation.KindNames(), ", ")+")")
	_ = daemonCmd.MarkFlagRequired("operation")
	rootCmd.AddCommand(daemonCmd)
}
