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

package shared

import (
	"errors"
	"io/fs"

	opserrors "github.com/tombee/opspec/pkg/errors"
	"github.com/tombee/opspec/pkg/ops"
)

// Error codes for structured JSON output
const (
	// Document errors (E001-E099)
	ErrorCodeInvalidDeclaration = "E001" // Malformed port or op field
	ErrorCodeInvalidYAML        = "E002" // Invalid YAML syntax
	ErrorCodeDuplicateName      = "E003" // Port declared more than once
	ErrorCodeIllegalReference   = "E004" // Reference not resolvable here
	ErrorCodeOutputOnlyInput    = "E005" // metric/metadata declared as input
	ErrorCodeConflictingBinding = "E006" // params and declarations together

	// Configuration errors (E200-E299)
	ErrorCodeInvalidConfig = "E202" // Invalid configuration

	// Input errors (E300-E399)
	ErrorCodeMissingInput = "E301" // Required input missing
	ErrorCodeInvalidInput = "E302" // Value does not match the declared type
	ErrorCodeFileNotFound = "E303" // File not found or unreadable
	ErrorCodeUnknownParam = "E304" // Param names no declared port

	// Internal errors (E400-E499)
	ErrorCodeInternal = "E402" // Internal error
)

var kindCodes = map[opserrors.Kind]string{
	opserrors.KindInvalidDeclaration:   ErrorCodeInvalidDeclaration,
	opserrors.KindDuplicateDeclaration: ErrorCodeDuplicateName,
	opserrors.KindIllegalReference:     ErrorCodeIllegalReference,
	opserrors.KindOutputOnlyInput:      ErrorCodeOutputOnlyInput,
	opserrors.KindConflictingBinding:   ErrorCodeConflictingBinding,
	opserrors.KindMissingRequired:      ErrorCodeMissingInput,
	opserrors.KindTypeMismatch:         ErrorCodeInvalidInput,
	opserrors.KindUnknownParam:         ErrorCodeUnknownParam,
}

// ErrorCodeForKind maps a validation error kind to its JSON error code
func ErrorCodeForKind(kind opserrors.Kind) string {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return ErrorCodeInternal
}

// JSONErrors converts err into structured errors, one per validation
// failure it carries. file is attached to each entry when set.
func JSONErrors(file string, err error) []JSONError {
	if err == nil {
		return nil
	}

	failures := opserrors.Failures(err)
	if len(failures) == 0 {
		code := ErrorCodeInternal
		var pathErr *fs.PathError
		var cfgErr *opserrors.ConfigError
		switch {
		case errors.As(err, &pathErr):
			code = ErrorCodeFileNotFound
		case errors.Is(err, ops.ErrMalformedDocument):
			code = ErrorCodeInvalidYAML
		case errors.As(err, &cfgErr):
			code = ErrorCodeInvalidConfig
		}
		return []JSONError{{Code: code, Type: errorType(err), Message: err.Error(), File: file}}
	}

	out := make([]JSONError, 0, len(failures))
	for _, f := range failures {
		out = append(out, JSONError{
			Code:       ErrorCodeForKind(f.Kind),
			Type:       f.ErrorType(),
			Kind:       string(f.Kind),
			Message:    f.Error(),
			Field:      f.Field,
			File:       file,
			Suggestion: f.Suggestion,
		})
	}
	return out
}

func errorType(err error) string {
	var c opserrors.ErrorClassifier
	if errors.As(err, &c) {
		return c.ErrorType()
	}
	return ""
}
