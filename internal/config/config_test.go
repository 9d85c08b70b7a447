package config

import (
	"os"
	"path/filepath"
	"testing"

	"uncertainty-budget/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvStorageDSN, "")
	t.Setenv(EnvAddr, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.SignificantFigures != 4 {
		t.Errorf("SignificantFigures = %d, want 4", cfg.Output.SignificantFigures)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("Backend = %q, want %q", cfg.Storage.Backend, BackendFile)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv(EnvStorageDSN, "")
	t.Setenv(EnvAddr, "")

	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	cfg := Default()
	cfg.Storage.Backend = BackendMemory
	cfg.Server.Addr = ":9999"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Addr != ":9999" || loaded.Storage.Backend != BackendMemory {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvStorageDSN, "postgres://localhost/ubudget?sslmode=disable")
	t.Setenv(EnvAddr, ":7070")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != BackendPostgres {
		t.Errorf("Backend = %q, want postgres", cfg.Storage.Backend)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, want :7070", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"file without directory", func(c *Config) { c.Storage.Directory = "" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"bad format", func(c *Config) { c.Output.Format = "html" }},
		{"zero significant figures", func(c *Config) { c.Output.SignificantFigures = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Directory = "/tmp/x"
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.IsType(err, errors.TypeConfig) {
				t.Fatalf("Validate() = %v, want CONFIG_ERROR", err)
			}
		})
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.IsType(err, errors.TypeConfig) {
		t.Fatalf("Load() = %v, want CONFIG_ERROR", err)
	}
}
