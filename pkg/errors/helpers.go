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
	"errors"
)

// Is and As re-export the standard library so callers need one errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// Join collects validation failures into one error, dropping nils.
// A nil result means every check passed.
func Join(errs ...error) error { return errors.Join(errs...) }

func New(message string) error { return errors.New(message) }

// Failures flattens err into the ValidationErrors it carries, in order.
// Joined errors and %w chains are both walked. Errors that are not
// ValidationErrors are skipped.
//
//	for _, f := range errors.Failures(err) {
//	    fmt.Printf("%s: %s\n", f.Field, f.Message)
//	}
func Failures(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case *ValidationError:
			out = append(out, v)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			if inner := v.Unwrap(); inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// AllOfKind reports whether err carries at least one ValidationError and
// every one of them has the given kind.
func AllOfKind(err error, kind Kind) bool {
	failures := Failures(err)
	if len(failures) == 0 {
		return false
	}
	for _, f := range failures {
		if f.Kind != kind {
			return false
		}
	}
	return true
}
