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
	"fmt"
	"io"
	"io/fs"
	"os"

	opserrors "github.com/tombee/opspec/pkg/errors"
)

// Exit codes for opspec commands
const (
	ExitSuccess          = 0
	ExitValidationFailed = 1
	ExitUnreadable       = 2 // unreadable file or bad usage
	ExitMissingInput     = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		if e.Message == "" {
			return e.Cause.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for op documents or params that
// failed validation
func NewValidationError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitValidationFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewUnreadableError creates an error for files that could not be read
// and for invalid command usage
func NewUnreadableError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitUnreadable,
		Message: msg,
		Cause:   cause,
	}
}

// NewMissingInputError creates an error for required inputs left unbound
func NewMissingInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitMissingInput,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCodeFor classifies an error from parsing or binding. Read failures
// map to ExitUnreadable. Validation failures that are all missing
// required inputs map to ExitMissingInput; any other failure maps to
// ExitValidationFailed.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ExitUnreadable
	}

	if opserrors.AllOfKind(err, opserrors.KindMissingRequired) {
		return ExitMissingInput
	}
	return ExitValidationFailed
}

// WrapExit attaches the exit code for err.
func WrapExit(msg string, err error) *ExitError {
	return &ExitError{Code: ExitCodeFor(err), Message: msg, Cause: err}
}

// HandleExitError prints err and exits with its code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(ReportError(os.Stderr, err))
}

// ReportError prints err with any suggestions it carries and returns the
// exit code. An ExitError with an empty message and no cause has already
// been reported (JSON mode) and prints nothing.
func ReportError(w io.Writer, err error) int {
	code := ExitCodeFor(err)

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Message == "" && exitErr.Cause == nil {
		return code
	}

	failures := opserrors.Failures(err)
	if len(failures) == 0 {
		fmt.Fprintln(w, "Error:", err.Error())
		return code
	}

	if errors.As(err, &exitErr) && exitErr.Message != "" {
		fmt.Fprintln(w, "Error:", exitErr.Message)
	}
	printFailures(w, failures)
	return code
}

func printFailures(w io.Writer, failures []*opserrors.ValidationError) {
	for _, f := range failures {
		fmt.Fprintf(w, "  %s\n", RenderError(f.Error()))
		if f.Suggestion != "" {
			fmt.Fprintf(w, "    %s %s\n", RenderLabel("Suggestion:"), f.Suggestion)
		}
	}
}
