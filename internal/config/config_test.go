// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	opserrors "github.com/tombee/opspec/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPSPEC_LOG_LEVEL", "OPSPEC_LOG_FORMAT", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
		"OPSPEC_TEMPLATE", "OPSPEC_IN_PIPELINE", "OPSPEC_METRICS_FILE", "OPSPEC_TRACING",
		"OPSPEC_DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level 'warn', got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected log format 'text', got %q", cfg.Log.Format)
	}
	if cfg.Validation.Template || cfg.Validation.InPipeline {
		t.Errorf("expected strict validation defaults, got %+v", cfg.Validation)
	}
	if cfg.Metrics.File != "" {
		t.Errorf("expected no metrics file, got %q", cfg.Metrics.File)
	}
	if cfg.Tracing.Enabled {
		t.Errorf("expected tracing disabled")
	}
	if cfg.Tracing.ServiceName != "opspec" {
		t.Errorf("expected service name 'opspec', got %q", cfg.Tracing.ServiceName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errText string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:   "trace level",
			modify: func(c *Config) { c.Log.Level = "trace" },
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: true,
			errText: "log.level",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errText: "log.format",
		},
		{
			name: "tracing without service name",
			modify: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.ServiceName = ""
			},
			wantErr: true,
			errText: "tracing.service_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
validation:
  in_pipeline: true
metrics:
  file: /tmp/opspec.prom
tracing:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected format defaulted to text, got %q", cfg.Log.Format)
	}
	if !cfg.Validation.InPipeline {
		t.Errorf("expected in_pipeline true")
	}
	if cfg.Metrics.File != "/tmp/opspec.prom" {
		t.Errorf("unexpected metrics file %q", cfg.Metrics.File)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.ServiceName != "opspec" {
		t.Errorf("unexpected tracing config %+v", cfg.Tracing)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n  format: json\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPSPEC_LOG_LEVEL", "ERROR")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("OPSPEC_TEMPLATE", "true")
	t.Setenv("OPSPEC_IN_PIPELINE", "1")
	t.Setenv("OPSPEC_METRICS_FILE", "out.prom")
	t.Setenv("OPSPEC_TRACING", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("expected level error, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected format text, got %q", cfg.Log.Format)
	}
	if !cfg.Validation.Template || !cfg.Validation.InPipeline {
		t.Errorf("expected validation flags from env, got %+v", cfg.Validation)
	}
	if cfg.Metrics.File != "out.prom" {
		t.Errorf("expected metrics file from env, got %q", cfg.Metrics.File)
	}
	if !cfg.Tracing.Enabled {
		t.Errorf("expected tracing enabled from env")
	}
}

func TestLoad_DebugOverridesLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPSPEC_LOG_LEVEL", "error")
	t.Setenv("OPSPEC_DEBUG", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.AddSource {
		t.Errorf("expected debug level with source, got %+v", cfg.Log)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var cfgErr *opserrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Key != "config_file" {
		t.Errorf("expected key config_file, got %q", cfgErr.Key)
	}

	t.Setenv("OPSPEC_LOG_FORMAT", "xml")
	_, err = Load("")
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Key != "validation" {
		t.Errorf("expected key validation, got %q", cfgErr.Key)
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected wrapped ErrInvalidConfig, got %v", err)
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.AddSource = true

	lc := cfg.LoggerConfig(os.Stdout)
	if lc.Level != "warn" || string(lc.Format) != "text" || !lc.AddSource || lc.Output != os.Stdout {
		t.Errorf("unexpected logger config %+v", lc)
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "opspec", "config.yaml"); path != want {
		t.Errorf("ConfigPath() = %q, want %q", path, want)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultPath(t *testing.T) {
	xdg := t.TempDir()
	project := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("OPSPEC_CONFIG", "")
	t.Chdir(project)

	if got := DefaultPath(); got != "" {
		t.Errorf("expected no default path before any file exists, got %q", got)
	}

	user := filepath.Join(xdg, "opspec", "config.yaml")
	writeFile(t, user)
	if got := DefaultPath(); got != user {
		t.Errorf("DefaultPath() = %q, want user config %q", got, user)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(wd, ProjectFile)
	writeFile(t, local)
	if got := DefaultPath(); got != local {
		t.Errorf("DefaultPath() = %q, want project config %q", got, local)
	}

	explicit := filepath.Join(t.TempDir(), "missing.yaml")
	t.Setenv("OPSPEC_CONFIG", explicit)
	if got := DefaultPath(); got != explicit {
		t.Errorf("DefaultPath() = %q, want explicit %q", got, explicit)
	}
}
