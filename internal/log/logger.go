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

// Package log builds the slog loggers used across opspec. Level and
// format come from the config layer; this package only turns them into
// a handler and supplies the shared field keys.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format is the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// LevelTrace sits below Debug. The binder logs each port decision here.
const LevelTrace = slog.Level(-8)

// Field keys shared by every component.
const (
	ValidationIDKey = "validation_id"
	OpKey           = "op"
	FileKey         = "file"
	PortKey         = "port"
	KindKey         = "kind"
	DurationKey     = "duration_ms"
)

// Config selects the handler built by New. Zero values mean info level,
// JSON output on stderr.
type Config struct {
	Level     string
	Format    Format
	Output    io.Writer
	AddSource bool
}

// New creates a logger from cfg. An unrecognised level falls back to
// info; Config.Validate rejects those before they get here.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	if cfg.Format == FormatText {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var levels = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a level name, case-insensitively, to its slog.Level.
// The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	if l, ok := levels[strings.ToLower(name)]; ok {
		return l, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (want trace, debug, info, warn or error)", name)
}

func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithOpContext tags logger with the validation id and, when the op is
// named, the op name.
func WithOpContext(logger *slog.Logger, validationID, opName string) *slog.Logger {
	attrs := []any{slog.String(ValidationIDKey, validationID)}
	if opName != "" {
		attrs = append(attrs, slog.String(OpKey, opName))
	}
	return logger.With(attrs...)
}

// Elapsed reports d in whole milliseconds under DurationKey.
func Elapsed(d time.Duration) slog.Attr {
	return slog.Int64(DurationKey, d.Milliseconds())
}

// Trace logs at LevelTrace, skipping attribute work when disabled.
func Trace(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
}
