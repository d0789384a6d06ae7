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

// Package binder runs op parsing and param binding with logging,
// metrics and tracing around each call.
package binder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tombee/opspec/internal/log"
	"github.com/tombee/opspec/internal/metrics"
	"github.com/tombee/opspec/internal/tracing"
	opserrors "github.com/tombee/opspec/pkg/errors"
	"github.com/tombee/opspec/pkg/ops"
	"go.opentelemetry.io/otel/trace"
)

// Operations recorded in logs, metrics and spans.
const (
	OperationParse = "parse"
	OperationBind  = "bind"
)

// Binder wraps the pure ops functions with instrumentation. It is safe
// for concurrent use.
type Binder struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	newID   func() string
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) { b.logger = logger }
}

// WithMetrics sets the collectors. The default is a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binder) { b.metrics = m }
}

// WithTracer sets the tracer. The default records nothing.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Binder) { b.tracer = tracer }
}

// New creates a Binder.
func New(opts ...Option) *Binder {
	b := &Binder{
		logger:  log.Discard(),
		metrics: metrics.New(),
		tracer:  tracing.NoopTracer(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = log.WithComponent(b.logger, "binder")
	return b
}

// Metrics returns the collectors the binder records to.
func (b *Binder) Metrics() *metrics.Metrics {
	return b.metrics
}

// Result is the outcome of a successful Bind.
type Result struct {
	ValidationID string             `json:"validation_id"`
	Op           string             `json:"op,omitempty"`
	Template     bool               `json:"template"`
	Bindings     []ops.ParamBinding `json:"bindings"`
}

// Values returns the bindings keyed by port name.
func (r *Result) Values() map[string]any {
	return ops.BindingMap(r.Bindings)
}

// ParseFile reads and parses the op document at path. Read failures are
// returned wrapped so callers can tell them apart with errors.Is on
// fs errors.
func (b *Binder) ParseFile(ctx context.Context, path string, opts ops.ParseOptions) (*ops.Op, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read op file: %w", err)
	}

	op, err := b.ParseOp(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return op, nil
}

// ParseOp parses and statically validates an op document.
func (b *Binder) ParseOp(ctx context.Context, data []byte, opts ops.ParseOptions) (*ops.Op, error) {
	id := b.newID()
	logger := log.WithOpContext(b.logger, id, "")
	ctx, span := tracing.StartValidation(ctx, b.tracer, OperationParse, id, "")
	defer span.End()

	start := time.Now()
	op, err := ops.ParseOp(data, opts)
	elapsed := time.Since(start)

	b.metrics.RecordValidation(OperationParse, err == nil, elapsed)
	if err != nil {
		b.fail(ctx, logger, span, OperationParse, err)
		return nil, err
	}

	span.SetAttributes(map[string]any{
		"op.name":     op.Name,
		"op.kind":     op.Kind,
		"op.inputs":   len(op.Inputs),
		"op.outputs":  len(op.Outputs),
		"param_style": string(op.ParamStyle()),
	})
	span.SetOK()
	logger.Debug("op parsed",
		slog.String(log.OpKey, op.Name),
		slog.String("param_style", string(op.ParamStyle())),
		log.Elapsed(elapsed),
	)
	return op, nil
}

// Bind binds params to op's ports. A nil params map binds the params
// carried by the document.
func (b *Binder) Bind(ctx context.Context, op *ops.Op, params map[string]any, opts ops.BindOptions) (*Result, error) {
	id := b.newID()
	logger := log.WithOpContext(b.logger, id, op.Name)
	ctx, span := tracing.StartValidation(ctx, b.tracer, OperationBind, id, op.Name)
	defer span.End()
	span.SetAttributes(map[string]any{
		"bind.template":    opts.Template,
		"bind.in_pipeline": opts.InPipeline,
	})

	start := time.Now()
	bindings, err := op.Bind(params, opts)
	elapsed := time.Since(start)

	b.metrics.RecordValidation(OperationBind, err == nil, elapsed)
	if err != nil {
		b.fail(ctx, logger, span, OperationBind, err)
		return nil, err
	}

	refs := 0
	for _, binding := range bindings {
		if !binding.IsRef() {
			log.Trace(ctx, logger, "port bound", slog.String(log.PortKey, binding.Name))
			continue
		}
		refs++
		b.metrics.RecordReference(string(binding.Ref.Namespace))
		span.AddEvent("reference", map[string]any{
			"port":      binding.Name,
			"namespace": string(binding.Ref.Namespace),
			"expr":      binding.Ref.Expr,
		})
	}

	span.SetAttributes(map[string]any{"bind.bindings": len(bindings), "bind.references": refs})
	span.SetOK()
	logger.Info("params bound",
		slog.Int("bindings", len(bindings)),
		slog.Int("references", refs),
		log.Elapsed(elapsed),
	)

	return &Result{
		ValidationID: id,
		Op:           op.Name,
		Template:     opts.Template,
		Bindings:     bindings,
	}, nil
}

// fail records every failure joined into err.
func (b *Binder) fail(ctx context.Context, logger *slog.Logger, span *tracing.ValidationSpan, operation string, err error) {
	failures := opserrors.Failures(err)
	kinds := make([]string, 0, len(failures))
	for _, f := range failures {
		kinds = append(kinds, string(f.Kind))
		b.metrics.RecordFailure(string(f.Kind))
		logger.DebugContext(ctx, "validation failure",
			slog.String(log.KindKey, string(f.Kind)),
			slog.String("field", f.Field),
			slog.String("message", f.Message),
		)
	}

	span.SetAttributes(map[string]any{"validation.failures": len(failures), "validation.kinds": kinds})
	span.RecordError(err)
	logger.Warn("validation failed",
		slog.String("operation", operation),
		slog.Int("failures", len(failures)),
		slog.Any("kinds", kinds),
	)
}
