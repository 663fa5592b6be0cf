package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryanbrace/loadforge/internal/config"
	"github.com/ryanbrace/loadforge/internal/engine"
	"github.com/ryanbrace/loadforge/internal/scenarios"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the scenario set and EngineConfig without running anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		built := scenarios.Build(infra.Target.DSN)
		for _, s := range built {
			if err := s.Validate(); err != nil {
				return err
			}
		}

		names := make(map[string]bool, len(built))
		var duplicates []string
		for _, s := range built {
			if names[s.Name] {
				duplicates = append(duplicates, s.Name)
			}
			names[s.Name] = true
		}
		if len(duplicates) > 0 {
			return engine.NewDuplicateScenarioNameError(duplicates)
		}

		if len(cfg.TargetScenarios) > 0 {
			for _, want := range cfg.TargetScenarios {
				if !names[want] {
					return fmt.Errorf("target_scenarios: unknown scenario %q", want)
				}
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ok: %d scenario(s) valid\n", len(built))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
