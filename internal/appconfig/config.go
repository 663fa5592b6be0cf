// Package appconfig loads the infra-level TOML configuration: the
// reporting server's listen address, default logging, and the default
// Postgres target DSN used by internal/pgtarget. This is deployment
// configuration, distinct from the per-run EngineConfig (see
// internal/config) that selects and tunes scenarios.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Listen string `toml:"listen"`
	Port   int    `toml:"port"`
}

type TargetConfig struct {
	DSN string `toml:"dsn"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Target  TargetConfig  `toml:"target"`
	Logging LoggingConfig `toml:"logging"`
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Listen: "127.0.0.1",
			Port:   7656,
		},
		Target: TargetConfig{
			DSN: "postgres://localhost:5432/loadforge?sslmode=disable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the infra config from path, or, when path is empty, from the
// first well-known location found, falling back to Defaults() when none
// exists. An explicit path that cannot be read or parsed is an error; the
// config returned with it holds the defaults. Environment variables always
// take precedence over file values.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse infra config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func findConfigFile() string {
	var candidates []string

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".loadforge", "config.toml"))
	}
	candidates = append(candidates, "/etc/loadforge/config.toml")

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LOADFORGE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("LOADFORGE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOADFORGE_TARGET_DSN"); v != "" {
		cfg.Target.DSN = v
	}
	if v := os.Getenv("LOADFORGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOADFORGE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
