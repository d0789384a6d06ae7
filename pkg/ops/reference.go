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

package ops

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Namespace is the first segment of a deferred reference.
type Namespace string

const (
	// NamespaceRuns addresses the outputs of an existing run.
	NamespaceRuns Namespace = "runs"

	// NamespaceOps addresses the outputs of a sibling op in the same
	// pipeline.
	NamespaceOps Namespace = "ops"
)

const (
	refOpen   = "{{"
	refClose  = "}}"
	outputsKw = "outputs"
)

var namespaces = map[Namespace]bool{
	NamespaceRuns: true,
	NamespaceOps:  true,
}

// Reference is a parsed {{ <namespace>.<id>.outputs.<field> }} value.
type Reference struct {
	// Namespace is runs or ops
	Namespace Namespace `json:"namespace"`

	// ID identifies the run or op; opaque to this package
	ID string `json:"id"`

	// Output is the referenced output name
	Output string `json:"output"`

	// Expr is the inner expression with delimiters and whitespace removed.
	// It is the value bound in place of the reference.
	Expr string `json:"expr"`
}

// ParseReference recognizes a deferred reference. The second return value
// is false for anything that is not exactly one well-formed reference;
// such strings are ordinary values.
func ParseReference(s string) (Reference, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, refOpen) || !strings.HasSuffix(s, refClose) || len(s) < len(refOpen)+len(refClose) {
		return Reference{}, false
	}

	expr := strings.TrimSpace(s[len(refOpen) : len(s)-len(refClose)])
	parts := strings.Split(expr, ".")
	if len(parts) < 4 {
		return Reference{}, false
	}

	for _, part := range parts {
		if part == "" {
			return Reference{}, false
		}
	}

	ns := Namespace(parts[0])
	if !namespaces[ns] || parts[len(parts)-2] != outputsKw {
		return Reference{}, false
	}

	id := strings.Join(parts[1:len(parts)-2], ".")
	output := parts[len(parts)-1]
	if strings.ContainsAny(expr, " \t{}") {
		return Reference{}, false
	}

	return Reference{
		Namespace: ns,
		ID:        id,
		Output:    output,
		Expr:      expr,
	}, true
}

// IsReference reports whether v is a string holding a deferred reference.
func IsReference(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = ParseReference(s)
	return ok
}

// RequiresPipeline reports whether the reference can only be resolved
// inside a pipeline, where sibling ops exist.
func (r Reference) RequiresPipeline() bool {
	return r.Namespace == NamespaceOps
}

// RunUUID parses the id of a runs reference. Run ids are UUIDs written
// either as 32 hex characters or in the dashed form.
func (r Reference) RunUUID() (uuid.UUID, error) {
	if r.Namespace != NamespaceRuns {
		return uuid.Nil, fmt.Errorf("reference %q does not address a run", r.Expr)
	}
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("run id %q: %w", r.ID, err)
	}
	return id, nil
}

// String returns the bound form of the reference.
func (r Reference) String() string {
	return r.Expr
}
