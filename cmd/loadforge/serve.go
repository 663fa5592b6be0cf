package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ryanbrace/loadforge/internal/report"
)

// contextForSinks derives a context tied to the command's context that
// reporting sinks can run under; cancelling it stops every sink when Run
// returns.
func contextForSinks(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithCancel(cmd.Context())
}

// serveWebSocket starts the HTTP server exposing the WebSocket hub's
// upgrade endpoint, using the infra config's listen address and port.
func serveWebSocket(hub *report.WebSocketSink) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.Handler)

	addr := fmt.Sprintf("%s:%d", infra.Server.Listen, infra.Server.Port)
	srv := &http.Server{Addr: addr, Handler: mux}
	logger.Info("reporting server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("reporting server stopped", "error", err)
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scenario set with the HTTP/WebSocket dashboard always on",
	Long: `Serve is equivalent to "run --ws --tui": it runs the default scenario
set while exposing live per-step stats over WebSocket for remote
dashboards and a terminal dashboard locally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runDashboard = true
		runWS = true
		return runCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
