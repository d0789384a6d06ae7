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
	"errors"
	"fmt"
	"strings"

	opserrors "github.com/tombee/opspec/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrMalformedDocument wraps YAML/JSON decoding failures of an op
// document.
var ErrMalformedDocument = errors.New("failed to parse op definition")

// Kinds of op document.
const (
	KindOp       = "op"
	KindTemplate = "template"
)

// TriggerPolicy decides when an op runs relative to its upstream ops.
type TriggerPolicy string

const (
	TriggerAllSucceeded TriggerPolicy = "all_succeeded"
	TriggerAllFailed    TriggerPolicy = "all_failed"
	TriggerAllDone      TriggerPolicy = "all_done"
	TriggerOneSucceeded TriggerPolicy = "one_succeeded"
	TriggerOneFailed    TriggerPolicy = "one_failed"
	TriggerOneDone      TriggerPolicy = "one_done"
)

var triggerPolicies = map[TriggerPolicy]bool{
	TriggerAllSucceeded: true,
	TriggerAllFailed:    true,
	TriggerAllDone:      true,
	TriggerOneSucceeded: true,
	TriggerOneFailed:    true,
	TriggerOneDone:      true,
}

// ParamStyle names how an op document supplied its params.
type ParamStyle string

const (
	ParamStyleNone     ParamStyle = "none"
	ParamStyleInline   ParamStyle = "inline"
	ParamStyleDeclared ParamStyle = "declared"
)

// Op is an op or template document: its typed ports plus the params
// bound to them. Fields beyond ports and params are carried for the
// pipeline layer and only checked for shape.
type Op struct {
	// Version is the document schema version
	Version int `yaml:"version,omitempty" json:"version,omitempty"`

	// Kind is "op" (default) or "template"
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Name identifies the op within its pipeline
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description provides human-readable context
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Tags are free-form labels
	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Inputs are the declared input ports
	Inputs []IODeclaration `yaml:"inputs,omitempty" json:"inputs,omitempty"`

	// Outputs are the declared output ports
	Outputs []IODeclaration `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	// Params binds values to ports by name
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// Declarations is an alternative spelling of Params; the two are
	// mutually exclusive
	Declarations map[string]any `yaml:"declarations,omitempty" json:"declarations,omitempty"`

	// Dependencies names upstream ops
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	// Trigger is the policy applied to upstream results
	Trigger TriggerPolicy `yaml:"trigger,omitempty" json:"trigger,omitempty"`

	// SkipOnUpstreamSkip skips the op when an upstream op was skipped
	SkipOnUpstreamSkip bool `yaml:"skip_on_upstream_skip,omitempty" json:"skip_on_upstream_skip,omitempty"`

	style ParamStyle
}

// ParseOptions controls parse-time validation.
type ParseOptions struct {
	// InPipeline accepts {{ ops.* }} references in params.
	InPipeline bool
}

// ParseOp parses and validates an op document from YAML (or JSON) bytes.
//
// Params found in the document are checked against the declared ports
// immediately, except that required inputs may be left for run time.
func ParseOp(data []byte, opts ParseOptions) (*Op, error) {
	var op Op
	if err := yaml.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	if err := op.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid op definition: %w", err)
	}

	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("invalid op definition: %w", err)
	}

	if _, err := Bind(op.Params, op.Inputs, op.Outputs, BindOptions{Template: true, InPipeline: opts.InPipeline}); err != nil {
		return nil, fmt.Errorf("invalid op params: %w", err)
	}

	return &op, nil
}

// Normalize resolves the params/declarations spelling. Supplying both is
// an error; declarations alone are moved into Params.
func (o *Op) Normalize() error {
	switch {
	case o.Params != nil && o.Declarations != nil:
		return errParamsAndDeclarations()
	case o.Declarations != nil:
		o.Params = o.Declarations
		o.Declarations = nil
		o.style = ParamStyleDeclared
	case o.Params != nil:
		o.style = ParamStyleInline
	default:
		o.style = ParamStyleNone
	}

	if o.Kind == "" {
		o.Kind = KindOp
	}
	o.Kind = strings.ToLower(o.Kind)
	return nil
}

func errParamsAndDeclarations() error {
	return &opserrors.ValidationError{
		Kind:       opserrors.KindConflictingBinding,
		Field:      "declarations",
		Message:    "params and declarations are mutually exclusive",
		Suggestion: "keep only params",
	}
}

// Validate runs the parse-time checks on the document. It does not bind
// params; see ParseOp and Bind.
func (o *Op) Validate() error {
	var errs []error

	// Normalize clears Declarations, so this only fires for callers
	// that skip it.
	if o.Params != nil && o.Declarations != nil {
		errs = append(errs, errParamsAndDeclarations())
	}

	if o.Kind != "" && o.Kind != KindOp && o.Kind != KindTemplate {
		errs = append(errs, &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      "kind",
			Message:    fmt.Sprintf("invalid kind %q", o.Kind),
			Suggestion: "use op or template",
		})
	}

	if o.Name != "" && !namePattern.MatchString(o.Name) {
		errs = append(errs, &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      "name",
			Message:    fmt.Sprintf("invalid op name %q", o.Name),
			Suggestion: "use letters, digits, '-' and '_' only",
		})
	}

	if o.Trigger != "" && !triggerPolicies[o.Trigger] {
		errs = append(errs, &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      "trigger",
			Message:    fmt.Sprintf("invalid trigger policy %q", o.Trigger),
			Suggestion: "use one of all_succeeded, all_failed, all_done, one_succeeded, one_failed, one_done",
		})
	}

	if err := ValidateDeclarations(o.Inputs, o.Outputs); err != nil {
		errs = append(errs, err)
	}

	return opserrors.Join(errs...)
}

// IsTemplate reports whether the document is a reusable template.
func (o *Op) IsTemplate() bool {
	return strings.EqualFold(o.Kind, KindTemplate)
}

// ParamStyle reports how the document supplied its params. It is only
// meaningful after Normalize.
func (o *Op) ParamStyle() ParamStyle {
	if o.style == "" {
		return ParamStyleNone
	}
	return o.style
}

// Bind binds params to the op's ports. A nil params map binds the
// params carried by the document itself.
func (o *Op) Bind(params map[string]any, opts BindOptions) ([]ParamBinding, error) {
	if params == nil {
		params = o.Params
	}
	return Bind(params, o.Inputs, o.Outputs, opts)
}
