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

// Package ops provides the typed port model and parameter binding for
// pipeline operations.
//
// An op declares typed inputs and outputs. Callers bind values to those
// ports through a params mapping; ValidateParams checks every supplied
// value against its declared type, fills defaults and rejects extraneous
// or missing params. String values of the form
//
//	{{ runs.<id>.outputs.<field> }}
//	{{ ops.<id>.outputs.<field> }}
//
// are deferred references: they bypass type coercion and are bound as
// the trimmed inner expression for the execution engine to resolve.
//
// Everything in this package is a pure function of its arguments and is
// safe for concurrent use.
package ops
