package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Listen != "127.0.0.1" || cfg.Server.Port != 7656 {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingExplicitPathErrorsKeepingDefaults(t *testing.T) {
	t.Setenv("LOADFORGE_LISTEN", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("want an error when an explicit path does not exist")
	}
	if cfg.Server.Port != 7656 {
		t.Errorf("want the defaults preserved alongside the parse error, got %+v", cfg)
	}
}

func TestLoadParsesTOMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
listen = "0.0.0.0"
port = 9000

[target]
dsn = "postgres://db:5432/app"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Errorf("want server overrides applied, got %+v", cfg.Server)
	}
	if cfg.Target.DSN != "postgres://db:5432/app" {
		t.Errorf("want target dsn overridden, got %q", cfg.Target.DSN)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("want logging overrides applied, got %+v", cfg.Logging)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[server]\nlisten = \"0.0.0.0\"\nport = 9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOADFORGE_LISTEN", "10.0.0.5")
	t.Setenv("LOADFORGE_PORT", "1234")
	t.Setenv("LOADFORGE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Listen != "10.0.0.5" {
		t.Errorf("want env LOADFORGE_LISTEN to win over the file, got %q", cfg.Server.Listen)
	}
	if cfg.Server.Port != 1234 {
		t.Errorf("want env LOADFORGE_PORT to win over the file, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("want env LOADFORGE_LOG_LEVEL applied even with no file value, got %q", cfg.Logging.Level)
	}
}

func TestLoadIgnoresMalformedPortEnv(t *testing.T) {
	t.Setenv("LOADFORGE_PORT", "not-a-number")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7656 {
		t.Errorf("want a malformed LOADFORGE_PORT left ignored, got %d", cfg.Server.Port)
	}
}
