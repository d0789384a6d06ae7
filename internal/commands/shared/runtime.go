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

package shared

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/tombee/opspec/internal/binder"
	"github.com/tombee/opspec/internal/config"
	"github.com/tombee/opspec/internal/log"
	"github.com/tombee/opspec/internal/metrics"
	"github.com/tombee/opspec/internal/tracing"
)

// Runtime holds what commands share for one invocation: configuration,
// logger and the instrumented binder.
type Runtime struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Binder  *binder.Binder

	metricsFile string
	provider    *tracing.Provider
}

var (
	runtimeMu sync.Mutex
	current   *Runtime
)

// SetupRuntime loads configuration and builds the runtime from it and
// the global flags. Logs and spans go to stderr.
func SetupRuntime(stderr io.Writer) (*Runtime, error) {
	path := GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	rt, err := NewRuntime(cfg, stderr)
	if err != nil {
		return nil, err
	}

	runtimeMu.Lock()
	current = rt
	runtimeMu.Unlock()
	return rt, nil
}

// NewRuntime builds a runtime from cfg, applying --verbose, --quiet,
// --metrics-file and --trace over it.
func NewRuntime(cfg *config.Config, stderr io.Writer) (*Runtime, error) {
	if stderr == nil {
		stderr = os.Stderr
	}

	logCfg := cfg.LoggerConfig(stderr)
	switch {
	case GetVerbose():
		logCfg.Level = "debug"
	case GetQuiet():
		logCfg.Level = "error"
	}
	logger := log.New(logCfg)

	rt := &Runtime{
		Config:      cfg,
		Logger:      logger,
		Metrics:     metrics.New(),
		metricsFile: cfg.Metrics.File,
	}
	if f := GetMetricsFile(); f != "" {
		rt.metricsFile = f
	}

	opts := []binder.Option{binder.WithLogger(logger), binder.WithMetrics(rt.Metrics)}

	if GetTrace() || cfg.Tracing.Enabled {
		exporter, err := tracing.NewConsoleExporter(stderr)
		if err != nil {
			return nil, err
		}
		v, _, _ := GetVersion()
		provider, err := tracing.NewProvider(cfg.Tracing.ServiceName, v, exporter)
		if err != nil {
			return nil, err
		}
		rt.provider = provider
		opts = append(opts, binder.WithTracer(provider.Tracer(tracing.InstrumentationName)))
	}

	rt.Binder = binder.New(opts...)
	return rt, nil
}

// GetRuntime returns the runtime set up by the root command, or a
// default one when a command runs on its own (tests).
func GetRuntime() *Runtime {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if current == nil {
		rt, err := NewRuntime(config.Default(), io.Discard)
		if err != nil {
			panic(fmt.Sprintf("default runtime: %v", err))
		}
		current = rt
	}
	return current
}

// ResetRuntimeForTest drops the current runtime.
func ResetRuntimeForTest() {
	runtimeMu.Lock()
	current = nil
	runtimeMu.Unlock()
}

// Close writes the metrics textfile, if configured, and flushes spans.
func (r *Runtime) Close(ctx context.Context) error {
	var firstErr error
	if r.metricsFile != "" {
		if err := r.Metrics.WriteTextfile(r.metricsFile); err != nil {
			firstErr = err
		}
	}
	if r.provider != nil {
		if err := r.provider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to flush spans: %w", err)
		}
	}
	return firstErr
}

// BindModes returns the template and in-pipeline defaults from config.
func (r *Runtime) BindModes() (template, inPipeline bool) {
	return r.Config.Validation.Template, r.Config.Validation.InPipeline
}
