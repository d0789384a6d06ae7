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
	"sort"

	opserrors "github.com/tombee/opspec/pkg/errors"
)

// ParamBinding pairs a declared port with its bound value.
type ParamBinding struct {
	// Name is the port name
	Name string `json:"name"`

	// Value is the coerced value, the default, nil for an unbound optional
	// port, or the reference expression when Ref is set
	Value any `json:"value"`

	// Ref is set when Value is an unresolved deferred reference
	Ref *Reference `json:"ref,omitempty"`
}

// IsRef reports whether the binding is a deferred reference.
func (b ParamBinding) IsRef() bool {
	return b.Ref != nil
}

// BindOptions controls the call-site dependent parts of binding.
type BindOptions struct {
	// Template relaxes the required-input check: a template leaves
	// required ports for a later instantiation to fill.
	Template bool

	// InPipeline allows references to sibling ops ({{ ops.* }}), which
	// only resolve inside a pipeline.
	InPipeline bool
}

// ValidateParams binds params to the declared inputs and outputs.
// When isTemplate is true required inputs may stay unbound and op
// references are accepted.
func ValidateParams(params map[string]any, inputs, outputs []IODeclaration, isTemplate bool) ([]ParamBinding, error) {
	return Bind(params, inputs, outputs, BindOptions{Template: isTemplate, InPipeline: isTemplate})
}

// Bind validates params against the declared ports and returns one
// binding per declaration, inputs first, in declaration order.
//
// Supplied names with no declaration fail regardless of opts. A supplied
// value is first checked for a deferred reference, then coerced to the
// declared type. Ports without a value take their default, or nil when
// optional, when opts.Template is set, or when the port is an output
// (outputs are produced by the run). A required input with nothing to
// bind fails. Defaults are copied, so modifying a bound value never
// touches the declaration.
//
// On failure every problem found is returned joined and no bindings are
// returned.
func Bind(params map[string]any, inputs, outputs []IODeclaration, opts BindOptions) ([]ParamBinding, error) {
	var errs []error

	declared := make(map[string]bool, len(inputs)+len(outputs))
	for i := range inputs {
		declared[inputs[i].Name] = true
	}
	for i := range outputs {
		declared[outputs[i].Name] = true
	}

	var unknown []string
	for name := range params {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, &opserrors.ValidationError{
			Kind:       opserrors.KindUnknownParam,
			Field:      "params." + name,
			Message:    fmt.Sprintf("param %q does not match any declared input or output", name),
			Suggestion: "remove the param or declare a port with this name",
		})
	}

	bindings := make([]ParamBinding, 0, len(inputs)+len(outputs))
	bind := func(dir Direction, decls []IODeclaration) {
		for i := range decls {
			b, err := bindOne(&decls[i], dir, params, opts)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			bindings = append(bindings, b)
		}
	}
	bind(DirectionInput, inputs)
	bind(DirectionOutput, outputs)

	if len(errs) > 0 {
		return nil, opserrors.Join(errs...)
	}
	return bindings, nil
}

func bindOne(d *IODeclaration, dir Direction, params map[string]any, opts BindOptions) (ParamBinding, error) {
	field := "params." + d.Name

	if raw, ok := params[d.Name]; ok && raw != nil {
		if s, isStr := raw.(string); isStr {
			if ref, isRef := ParseReference(s); isRef {
				if ref.RequiresPipeline() && !opts.InPipeline {
					return ParamBinding{}, &opserrors.ValidationError{
						Kind:       opserrors.KindIllegalReference,
						Field:      field,
						Message:    fmt.Sprintf("reference %q addresses op %q, which cannot be resolved outside a pipeline", ref.Expr, ref.ID),
						Suggestion: "use a runs reference or validate the op within its pipeline",
					}
				}
				return ParamBinding{Name: d.Name, Value: ref.Expr, Ref: &ref}, nil
			}
		}

		v, err := d.Type.Coerce(raw)
		if err != nil {
			return ParamBinding{}, withField(err, field)
		}
		return ParamBinding{Name: d.Name, Value: v}, nil
	}

	if d.Value != nil {
		return ParamBinding{Name: d.Name, Value: cloneValue(d.Value)}, nil
	}

	if d.IsOptional || opts.Template || dir == DirectionOutput {
		return ParamBinding{Name: d.Name, Value: nil}, nil
	}

	return ParamBinding{}, &opserrors.ValidationError{
		Kind:       opserrors.KindMissingRequired,
		Field:      fmt.Sprintf("%s.%s", dir, d.Name),
		Message:    fmt.Sprintf("input %q is required and has no param or default", d.Name),
		Suggestion: "supply a param, set a default value, or mark the input is_optional",
		Expected:   string(d.Type),
	}
}

// cloneValue copies the maps and slices yaml decoding produces so a
// binding never aliases its declaration's default.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// BindingMap returns the bindings keyed by name.
func BindingMap(bindings []ParamBinding) map[string]any {
	out := make(map[string]any, len(bindings))
	for _, b := range bindings {
		out[b.Name] = b.Value
	}
	return out
}
