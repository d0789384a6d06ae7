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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tombee/opspec/internal/log"
	opserrors "github.com/tombee/opspec/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents the complete opspec configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Validation ValidationConfig `yaml:"validation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: OPSPEC_LOG_LEVEL, LOG_LEVEL
	// Default: warn
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: OPSPEC_LOG_FORMAT, LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	AddSource bool `yaml:"add_source"`
}

// ValidationConfig holds the default binding mode for commands that
// don't set it with flags.
type ValidationConfig struct {
	// Template relaxes the required-input check.
	// Environment: OPSPEC_TEMPLATE
	Template bool `yaml:"template"`

	// InPipeline accepts {{ ops.* }} references.
	// Environment: OPSPEC_IN_PIPELINE
	InPipeline bool `yaml:"in_pipeline"`
}

// MetricsConfig configures the prometheus textfile written on exit.
type MetricsConfig struct {
	// File is the textfile path. Empty disables the export.
	// Environment: OPSPEC_METRICS_FILE
	File string `yaml:"file,omitempty"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	// Enabled writes spans to stderr.
	// Environment: OPSPEC_TRACING
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in spans.
	ServiceName string `yaml:"service_name,omitempty"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: "opspec",
		},
	}
}

// Load loads configuration from an optional YAML file and environment
// variables. Environment variables take precedence over the file.
// If configPath is empty, only environment variables are used.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &opserrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &opserrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaults.Tracing.ServiceName
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := firstEnv("OPSPEC_LOG_LEVEL", "LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := firstEnv("OPSPEC_LOG_FORMAT", "LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = parseBool(val)
	}
	// OPSPEC_DEBUG wins over any level setting.
	if parseBool(os.Getenv("OPSPEC_DEBUG")) {
		c.Log.Level = "debug"
		c.Log.AddSource = true
	}

	if val := os.Getenv("OPSPEC_TEMPLATE"); val != "" {
		c.Validation.Template = parseBool(val)
	}
	if val := os.Getenv("OPSPEC_IN_PIPELINE"); val != "" {
		c.Validation.InPipeline = parseBool(val)
	}

	if val := os.Getenv("OPSPEC_METRICS_FILE"); val != "" {
		c.Metrics.File = val
	}

	if val := os.Getenv("OPSPEC_TRACING"); val != "" {
		c.Tracing.Enabled = parseBool(val)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(val string) bool {
	return val == "1" || strings.ToLower(val) == "true"
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, "log.level: "+err.Error())
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}

	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		errs = append(errs, "tracing.service_name is required when tracing is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration
// writing to out.
func (c *Config) LoggerConfig(out io.Writer) *log.Config {
	return &log.Config{
		Level:     c.Log.Level,
		Format:    log.Format(c.Log.Format),
		Output:    out,
		AddSource: c.Log.AddSource,
	}
}
