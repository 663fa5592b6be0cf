package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryanbrace/loadforge/internal/appconfig"
	"github.com/ryanbrace/loadforge/internal/engine"
	"github.com/ryanbrace/loadforge/internal/obslog"
)

var (
	infra      appconfig.Config
	logger     obslog.Logger
	configPath string
	infraPath  string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "loadforge",
	Short: "Load-testing engine: scenario scheduler, connection pools, stats",
	Long: `loadforge drives scenarios of scheduled virtual-user load against a
target system. It compiles each scenario's declared load simulations into
a timeline, spawns and cancels virtual users to track that timeline, and
reports per-step latency, throughput, and error counts as the run
progresses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := appconfig.Load(infraPath)
		if err != nil {
			return err
		}
		infra = cfg

		level := infra.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		format := infra.Logging.Format
		if logFormat != "" {
			format = logFormat
		}
		logger = obslog.New(level, format)
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "Path to the per-run EngineConfig JSON file")
	f.StringVarP(&infraPath, "infra", "i", "", "Path to the infra TOML config file")
	f.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides infra config")
	f.StringVar(&logFormat, "log-format", "", "Log format (console, json); overrides infra config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitForError(err)
	}
}

func exitForError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(exitCodeFor(err))
}

// exitCodeFor maps an AppError's Kind to a process exit code: validation
// and resource failures (caught before or during session init, no steps
// ever ran) get distinct codes from a runtime StopCurrentTest, which is a
// cooperative, success-like shutdown.
func exitCodeFor(err error) int {
	ae, ok := err.(*engine.AppError)
	if !ok {
		return 1
	}
	switch {
	case ae.IsValidation():
		return 2
	case ae.IsResource():
		return 3
	case ae.Kind == engine.KindStopTestRequested:
		return 0
	case ae.Kind == engine.KindWarmUpManyFailedSteps:
		return 4
	default:
		return 1
	}
}
