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

// Package metrics holds the prometheus collectors recorded by the binder.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on the validations counter.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics is the set of validation collectors registered on one
// registry. The zero value is not usable; use New.
type Metrics struct {
	registry *prometheus.Registry

	// validations counts validation calls by operation and outcome
	validations *prometheus.CounterVec

	// failures counts individual failures by error kind
	failures *prometheus.CounterVec

	// references counts deferred references bound, by namespace
	references *prometheus.CounterVec

	// duration observes validation latency by operation
	duration *prometheus.HistogramVec
}

// New registers the validation collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opspec_validations_total",
				Help: "Total validation calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opspec_validation_errors_total",
				Help: "Total validation failures by error kind",
			},
			[]string{"kind"},
		),
		references: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opspec_references_total",
				Help: "Total deferred references bound by namespace",
			},
			[]string{"namespace"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opspec_validation_duration_seconds",
				Help:    "Validation latency by operation",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"operation"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordValidation records one validation call.
func (m *Metrics) RecordValidation(operation string, ok bool, elapsed time.Duration) {
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.validations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordFailure increments the failure counter for kind.
func (m *Metrics) RecordFailure(kind string) {
	m.failures.WithLabelValues(kind).Inc()
}

// RecordReference increments the reference counter for namespace.
func (m *Metrics) RecordReference(namespace string) {
	m.references.WithLabelValues(namespace).Inc()
}

// WriteTextfile writes the current values in the text exposition
// format, for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
