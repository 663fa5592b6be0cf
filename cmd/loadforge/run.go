package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanbrace/loadforge/internal/config"
	"github.com/ryanbrace/loadforge/internal/engine"
	"github.com/ryanbrace/loadforge/internal/report"
	"github.com/ryanbrace/loadforge/internal/scenarios"
)

var (
	runDashboard bool
	runWS        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scenario set to completion and print final stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		built := scenarios.Build(infra.Target.DSN)
		coordinator := engine.NewSessionCoordinator(built, engine.RealClock{}, logger)

		sinkCtx, cancelSinks := contextForSinks(cmd)
		defer cancelSinks()

		if runDashboard {
			go report.NewDashboardSink().Run(sinkCtx, coordinator)
		} else {
			go report.NewConsoleSink(cmd.OutOrStdout()).Run(sinkCtx, coordinator)
		}
		if runWS {
			hub := report.NewWebSocketSink(logger)
			go hub.Run(sinkCtx, coordinator)
			go serveWebSocket(hub)
		}

		result := coordinator.Run(cmd.Context(), cfg)
		printFinal(cmd, result)
		if result.Err != nil {
			return result.Err
		}
		return nil
	},
}

func printFinal(cmd *cobra.Command, result engine.NodeStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "final stats:")
	for _, s := range result.Steps {
		fmt.Fprintf(out, "  %s/%s: ok=%d fail=%d mean_ms=%.2f rps=%.2f\n",
			s.ScenarioName, s.StepName, s.OKCount, s.FailCount, s.MeanMS, s.RPS)
	}
}

func init() {
	runCmd.Flags().BoolVar(&runDashboard, "tui", false, "Show a terminal dashboard while running")
	runCmd.Flags().BoolVar(&runWS, "ws", false, "Serve live stats over WebSocket while running")
	rootCmd.AddCommand(runCmd)
}
