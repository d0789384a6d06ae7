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

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ValidationSpan wraps an OpenTelemetry span with validation helpers.
// A nil *ValidationSpan is safe to use.
type ValidationSpan struct {
	span trace.Span
}

// StartValidation creates a span for one validation call. operation is
// "parse" or "bind".
func StartValidation(ctx context.Context, tracer trace.Tracer, operation, validationID, opName string) (context.Context, *ValidationSpan) {
	attrs := []attribute.KeyValue{
		attribute.String("validation.id", validationID),
		attribute.String("validation.operation", operation),
		attribute.String("span.type", "op.validation"),
	}
	if opName != "" {
		attrs = append(attrs, attribute.String("op.name", opName))
	}

	ctx, span := tracer.Start(ctx, fmt.Sprintf("op.%s", operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	return ctx, &ValidationSpan{span: span}
}

// SetAttributes adds key-value attributes to the span.
func (v *ValidationSpan) SetAttributes(attrs map[string]any) {
	if v == nil || v.span == nil {
		return
	}
	v.span.SetAttributes(toAttributes(attrs)...)
}

// AddEvent records a timestamped event within the span.
func (v *ValidationSpan) AddEvent(name string, attrs map[string]any) {
	if v == nil || v.span == nil {
		return
	}
	v.span.AddEvent(name, trace.WithAttributes(toAttributes(attrs)...))
}

// RecordError marks the span failed.
func (v *ValidationSpan) RecordError(err error) {
	if v == nil || v.span == nil || err == nil {
		return
	}
	v.span.RecordError(err)
	v.span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful.
func (v *ValidationSpan) SetOK() {
	if v == nil || v.span == nil {
		return
	}
	v.span.SetStatus(codes.Ok, "")
}

// End marks the span as complete.
func (v *ValidationSpan) End() {
	if v == nil || v.span == nil {
		return
	}
	v.span.End()
}

// TraceID returns the trace ID as a string.
func (v *ValidationSpan) TraceID() string {
	if v == nil || v.span == nil {
		return ""
	}
	return v.span.SpanContext().TraceID().String()
}

func toAttributes(attrs map[string]any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		case []string:
			out = append(out, attribute.StringSlice(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
	return out
}
