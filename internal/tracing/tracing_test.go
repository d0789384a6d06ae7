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
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestProvider(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider, err := NewProvider("test-service", "1.0.0", exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartValidation(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := StartValidation(context.Background(), provider.Tracer(InstrumentationName), "bind", "v-1", "train")
	span.SetAttributes(map[string]any{"bindings": 3, "template": false})
	span.AddEvent("reference", map[string]any{"namespace": "runs"})
	span.SetOK()
	assert.NotEmpty(t, span.TraceID())
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	got := spans[0]
	assert.Equal(t, "op.bind", got.Name)
	assert.Equal(t, codes.Ok, got.Status.Code)

	attrs := attrMap(got.Attributes)
	assert.Equal(t, "v-1", attrs["validation.id"].AsString())
	assert.Equal(t, "train", attrs["op.name"].AsString())
	assert.Equal(t, int64(3), attrs["bindings"].AsInt64())
	assert.False(t, attrs["template"].AsBool())

	require.Len(t, got.Events, 1)
	assert.Equal(t, "reference", got.Events[0].Name)
}

func TestValidationSpan_RecordError(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, span := StartValidation(context.Background(), provider.Tracer(InstrumentationName), "parse", "v-2", "")
	span.RecordError(errors.New("type mismatch"))
	span.RecordError(nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "type mismatch", spans[0].Status.Description)
	_, hasOp := attrMap(spans[0].Attributes)["op.name"]
	assert.False(t, hasOp)
}

func TestValidationSpan_Nil(t *testing.T) {
	var span *ValidationSpan
	span.SetAttributes(map[string]any{"a": 1})
	span.AddEvent("e", nil)
	span.RecordError(errors.New("x"))
	span.SetOK()
	span.End()
	assert.Empty(t, span.TraceID())
}

func TestNoopTracer(t *testing.T) {
	_, span := StartValidation(context.Background(), NoopTracer(), "bind", "v-3", "op")
	span.End()
	assert.False(t, span.span.SpanContext().IsValid())
}

func TestConsoleExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := NewConsoleExporter(&buf)
	require.NoError(t, err)

	provider, err := NewProvider("opspec", "test", exporter)
	require.NoError(t, err)

	_, span := StartValidation(context.Background(), provider.Tracer(InstrumentationName), "parse", "v-4", "train")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"op.parse"`)
}

func TestToAttributes(t *testing.T) {
	attrs := attrMap(toAttributes(map[string]any{
		"s":  "v",
		"i":  1,
		"i6": int64(2),
		"f":  1.5,
		"b":  true,
		"ss": []string{"a", "b"},
		"x":  struct{}{},
	}))

	assert.Equal(t, "v", attrs["s"].AsString())
	assert.Equal(t, int64(1), attrs["i"].AsInt64())
	assert.Equal(t, int64(2), attrs["i6"].AsInt64())
	assert.Equal(t, 1.5, attrs["f"].AsFloat64())
	assert.True(t, attrs["b"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["ss"].AsStringSlice())
	assert.Equal(t, "{}", attrs["x"].AsString())
}
