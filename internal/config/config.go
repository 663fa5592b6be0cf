// Package config loads the per-run EngineConfig: which scenarios to run
// this invocation and the free-form settings string handed to each
// scenario's Init hook. This is the JSON surface spec.md pins explicitly
// for the "-c/--config" CLI flag, distinct from the infra TOML file (see
// internal/appconfig).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryanbrace/loadforge/internal/engine"
)

// fileConfig is the on-disk JSON shape. CustomSettings is keyed by
// scenario name; a scenario absent from the map keeps its built-in
// default settings.
type fileConfig struct {
	TargetScenarios []string          `json:"target_scenarios"`
	CustomSettings  map[string]string `json:"custom_settings"`
}

// Load reads path and returns an engine.EngineConfig. An empty path
// yields a zero-value config (run every scenario, no overrides). The
// file extension must be .json; anything else is rejected up front so a
// typo'd flag fails fast instead of falling through to a confusing parse
// error.
func Load(path string) (engine.EngineConfig, error) {
	if path == "" {
		return engine.EngineConfig{}, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" {
		return engine.EngineConfig{}, engine.NewUnsupportedConfigFormatError(ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return engine.EngineConfig{}, engine.NewConfigParseFailedError(path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return engine.EngineConfig{}, engine.NewConfigParseFailedError(path, err)
	}

	return engine.EngineConfig{
		TargetScenarios: fc.TargetScenarios,
		CustomSettings:  fc.CustomSettings,
	}, nil
}
