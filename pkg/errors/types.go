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

package errors

import (
	"fmt"
)

// Kind classifies a ValidationError.
type Kind string

const (
	// KindDuplicateDeclaration marks a port name declared more than once
	// across an op's inputs and outputs.
	KindDuplicateDeclaration Kind = "duplicate_declaration"

	// KindOutputOnlyInput marks an output-only type (metric, metadata)
	// declared as an input.
	KindOutputOnlyInput Kind = "output_only_input"

	// KindConflictingBinding marks an op that supplies both params and
	// declarations.
	KindConflictingBinding Kind = "conflicting_binding"

	// KindUnknownParam marks a supplied param with no matching declaration.
	KindUnknownParam Kind = "unknown_param"

	// KindTypeMismatch marks a value whose shape or scheme does not match
	// the declared type.
	KindTypeMismatch Kind = "type_mismatch"

	// KindMissingRequired marks a required port left unbound outside
	// template context.
	KindMissingRequired Kind = "missing_required"

	// KindIllegalReference marks a deferred reference that cannot be
	// resolved from the call site.
	KindIllegalReference Kind = "illegal_reference"

	// KindInvalidDeclaration marks a malformed port or op declaration
	// (empty name, unknown type, bad trigger).
	KindInvalidDeclaration Kind = "invalid_declaration"
)

// Sentinels for errors.Is matching on Kind alone.
var (
	ErrDuplicateDeclarationName     = &ValidationError{Kind: KindDuplicateDeclaration}
	ErrIllegalOutputOnlyTypeAsInput = &ValidationError{Kind: KindOutputOnlyInput}
	ErrConflictingBindingMechanism  = &ValidationError{Kind: KindConflictingBinding}
	ErrUnknownParam                 = &ValidationError{Kind: KindUnknownParam}
	ErrTypeMismatch                 = &ValidationError{Kind: KindTypeMismatch}
	ErrMissingRequiredParam         = &ValidationError{Kind: KindMissingRequired}
	ErrIllegalReference             = &ValidationError{Kind: KindIllegalReference}
	ErrInvalidDeclaration           = &ValidationError{Kind: KindInvalidDeclaration}
)

// ValidationError represents user input validation failures.
// Use this for invalid user input, malformed data, or constraint violations.
type ValidationError struct {
	// Kind classifies the failure
	Kind Kind

	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string

	// Expected describes the expected type or shape, if applicable
	Expected string

	// Actual describes the supplied type or shape, if applicable
	Actual string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, msg)
	}
	return fmt.Sprintf("validation failed: %s", msg)
}

// Is reports whether target is a sentinel of the same Kind. A target with
// a Field set only matches an error for that same field.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok || t.Kind == "" {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// ErrorType implements ErrorClassifier.
func (e *ValidationError) ErrorType() string {
	return "validation"
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "log.level")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ConfigError) ErrorType() string {
	return "config"
}
