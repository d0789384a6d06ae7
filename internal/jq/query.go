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

// Package jq runs jq queries over command results.
package jq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

const (
	DefaultTimeout      = time.Second
	DefaultMaxInputSize = 10 << 20
)

// Query is a compiled jq expression. It is safe for concurrent use.
type Query struct {
	expr         string
	code         *gojq.Code
	timeout      time.Duration
	maxInputSize int
}

type Option func(*Query)

// WithTimeout bounds a single Run.
func WithTimeout(d time.Duration) Option {
	return func(q *Query) { q.timeout = d }
}

// WithMaxInputSize limits the JSON encoding of the input, in bytes.
func WithMaxInputSize(n int) Option {
	return func(q *Query) { q.maxInputSize = n }
}

// Compile parses and compiles expression. The empty expression is the
// identity query.
func Compile(expression string, opts ...Option) (*Query, error) {
	q := &Query{expr: expression, timeout: DefaultTimeout, maxInputSize: DefaultMaxInputSize}
	for _, opt := range opts {
		opt(q)
	}
	if expression == "" {
		return q, nil
	}

	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	q.code, err = gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return q, nil
}

// Run evaluates the query against data. data may be any value that
// marshals to JSON; struct fields are addressed by their json tags.
// One result is returned as is, several as a slice, none as nil.
func (q *Query) Run(ctx context.Context, data any) (any, error) {
	if q.code == nil {
		return data, nil
	}

	input, err := q.normalize(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	var results []any
	iter := q.code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("jq query timed out after %v", q.timeout)
			}
			return nil, fmt.Errorf("jq query %s: %w", q.expr, err)
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (q *Query) String() string { return q.expr }

// normalize round-trips data through JSON so gojq sees only JSON types.
func (q *Query) normalize(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding query input: %w", err)
	}
	if len(raw) > q.maxInputSize {
		return nil, fmt.Errorf("query input is %d bytes, limit is %d", len(raw), q.maxInputSize)
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding query input: %w", err)
	}
	return out, nil
}
