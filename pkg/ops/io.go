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
	"regexp"

	opserrors "github.com/tombee/opspec/pkg/errors"
)

// namePattern restricts port and op names.
var namePattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// Direction tells inputs from outputs.
type Direction string

const (
	DirectionInput  Direction = "inputs"
	DirectionOutput Direction = "outputs"
)

// IODeclaration describes one typed input or output port of an op.
// A declaration with a default value is implicitly optional.
type IODeclaration struct {
	// Name is the port identifier, unique across inputs and outputs
	Name string `yaml:"name" json:"name"`

	// Type is the declared value type
	Type IOType `yaml:"type" json:"type"`

	// Value is the default bound when no param is supplied
	Value any `yaml:"value,omitempty" json:"value,omitempty"`

	// IsOptional allows the port to stay unbound
	IsOptional bool `yaml:"is_optional,omitempty" json:"is_optional,omitempty"`

	// Description explains what the port carries
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Optional reports whether the port may be left without a param.
func (d *IODeclaration) Optional() bool {
	return d.IsOptional || d.Value != nil
}

// Validate checks a single declaration in the given direction.
func (d *IODeclaration) Validate(dir Direction) error {
	field := fmt.Sprintf("%s.%s", dir, d.Name)

	if d.Name == "" {
		return &opserrors.ValidationError{
			Kind:    opserrors.KindInvalidDeclaration,
			Field:   string(dir),
			Message: "port name is required",
		}
	}
	if !namePattern.MatchString(d.Name) {
		return &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      field,
			Message:    fmt.Sprintf("invalid port name %q", d.Name),
			Suggestion: "use letters, digits, '-' and '_' only",
		}
	}
	if d.Type == "" {
		return &opserrors.ValidationError{
			Kind:    opserrors.KindInvalidDeclaration,
			Field:   field,
			Message: "port type is required",
		}
	}
	if !d.Type.Valid() {
		return &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      field,
			Message:    fmt.Sprintf("unknown io type %q", string(d.Type)),
			Suggestion: "use one of: " + typeList(),
		}
	}
	if dir == DirectionInput && d.Type.IsOutputOnly() {
		return &opserrors.ValidationError{
			Kind:       opserrors.KindOutputOnlyInput,
			Field:      field,
			Message:    fmt.Sprintf("type %s can only be declared as an output", d.Type),
			Suggestion: "move the port to outputs or pick a value type",
		}
	}
	if d.Value != nil {
		if _, err := d.Type.Coerce(d.Value); err != nil {
			return withField(err, field+".value")
		}
	}
	return nil
}

// ValidateDeclarations runs the parse-time checks over an op's ports:
// each declaration must be well formed, output-only types may not be
// inputs, and no name may repeat across inputs and outputs.
// All failures are returned joined.
func ValidateDeclarations(inputs, outputs []IODeclaration) error {
	var errs []error
	seen := make(map[string]Direction, len(inputs)+len(outputs))

	check := func(dir Direction, decls []IODeclaration) {
		for i := range decls {
			d := &decls[i]
			if d.Name != "" {
				if prev, dup := seen[d.Name]; dup {
					errs = append(errs, &opserrors.ValidationError{
						Kind:       opserrors.KindDuplicateDeclaration,
						Field:      fmt.Sprintf("%s.%s", dir, d.Name),
						Message:    fmt.Sprintf("name %q is already declared in %s", d.Name, prev),
						Suggestion: "rename one of the ports",
					})
				} else {
					seen[d.Name] = dir
				}
			}
			if err := d.Validate(dir); err != nil {
				errs = append(errs, err)
			}
		}
	}
	check(DirectionInput, inputs)
	check(DirectionOutput, outputs)

	return opserrors.Join(errs...)
}

// withField stamps a field onto a ValidationError produced without one.
func withField(err error, field string) error {
	if verr, ok := err.(*opserrors.ValidationError); ok && verr.Field == "" {
		verr.Field = field
	}
	return err
}
