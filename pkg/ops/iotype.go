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
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	opserrors "github.com/tombee/opspec/pkg/errors"
)

// IOType is the declared type of an op input or output.
type IOType string

const (
	TypeStr       IOType = "str"
	TypeInt       IOType = "int"
	TypeFloat     IOType = "float"
	TypeBool      IOType = "bool"
	TypeDict      IOType = "dict"
	TypeList      IOType = "list"
	TypePath      IOType = "path"
	TypeGCSPath   IOType = "gcs_path"
	TypeS3Path    IOType = "s3_path"
	TypeAzurePath IOType = "azure_path"
	TypeMetric    IOType = "metric"
	TypeMetadata  IOType = "metadata"
)

// errShape is returned by coercers when the value has the wrong shape
// and there is nothing more specific to say.
var errShape = errors.New("wrong shape")

// ioTypeSpec is the per-type behaviour held in the registry.
type ioTypeSpec struct {
	// coerce validates a raw value and returns the bound value.
	coerce func(raw any) (any, error)

	// outputOnly types may not be declared as inputs.
	outputOnly bool

	// referenceLike types name a location in a filesystem or object store.
	referenceLike bool
}

// ioTypeOrder lists every IOType in documentation order.
var ioTypeOrder = []IOType{
	TypeStr, TypeInt, TypeFloat, TypeBool, TypeDict, TypeList,
	TypePath, TypeGCSPath, TypeS3Path, TypeAzurePath,
	TypeMetric, TypeMetadata,
}

// ioTypeRegistry is read-only after package initialization.
var ioTypeRegistry = map[IOType]ioTypeSpec{
	TypeStr:       {coerce: coerceString},
	TypeInt:       {coerce: coerceInt},
	TypeFloat:     {coerce: coerceFloat},
	TypeBool:      {coerce: coerceBool},
	TypeDict:      {coerce: coerceDict},
	TypeList:      {coerce: coerceList},
	TypePath:      {coerce: coerceString, referenceLike: true},
	TypeGCSPath:   {coerce: coerceScheme("gs://"), referenceLike: true},
	TypeS3Path:    {coerce: coerceScheme("s3://"), referenceLike: true},
	TypeAzurePath: {coerce: coerceScheme("wasbs://", "wasb://", "abfss://", "abfs://"), referenceLike: true},
	TypeMetric:    {coerce: coerceFloat, outputOnly: true},
	TypeMetadata:  {coerce: coerceMetadata, outputOnly: true},
}

// typeAliases maps accepted spellings onto canonical types.
var typeAliases = map[string]IOType{
	"array": TypeList,
}

// IOTypes returns every supported IOType.
func IOTypes() []IOType {
	out := make([]IOType, len(ioTypeOrder))
	copy(out, ioTypeOrder)
	return out
}

// ParseIOType resolves a type name as written in an op document.
// Matching is case-insensitive and accepts "array" for list.
func ParseIOType(name string) (IOType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := typeAliases[key]; ok {
		return alias, nil
	}
	t := IOType(key)
	if !t.Valid() {
		return "", &opserrors.ValidationError{
			Kind:       opserrors.KindInvalidDeclaration,
			Field:      "type",
			Message:    fmt.Sprintf("unknown io type %q", name),
			Suggestion: "use one of: " + typeList(),
		}
	}
	return t, nil
}

// Valid reports whether t is a registered type.
func (t IOType) Valid() bool {
	_, ok := ioTypeRegistry[t]
	return ok
}

// IsOutputOnly reports whether t may only be declared as an output.
func (t IOType) IsOutputOnly() bool {
	return ioTypeRegistry[t].outputOnly
}

// IsReferenceLike reports whether values of t point at a path, either
// local or in cloud storage.
func (t IOType) IsReferenceLike() bool {
	return ioTypeRegistry[t].referenceLike
}

// Coerce validates raw against t and returns the value to bind.
// Accepted values are returned unchanged.
func (t IOType) Coerce(raw any) (any, error) {
	entry, ok := ioTypeRegistry[t]
	if !ok {
		return nil, &opserrors.ValidationError{
			Kind:    opserrors.KindInvalidDeclaration,
			Message: fmt.Sprintf("unknown io type %q", string(t)),
		}
	}
	v, err := entry.coerce(raw)
	if err != nil {
		verr := &opserrors.ValidationError{
			Kind:     opserrors.KindTypeMismatch,
			Message:  fmt.Sprintf("expected %s, got %s", t, describe(raw)),
			Expected: string(t),
			Actual:   describe(raw),
		}
		if !errors.Is(err, errShape) {
			verr.Message += ": " + err.Error()
		}
		return nil, verr
	}
	return v, nil
}

// UnmarshalYAML accepts type names through ParseIOType.
func (t *IOType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseIOType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalJSON accepts type names through ParseIOType.
func (t *IOType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseIOType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func coerceString(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return nil, errShape
}

func coerceBool(raw any) (any, error) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	return nil, errShape
}

// coerceInt rejects floats even when integral and never parses strings.
func coerceInt(raw any) (any, error) {
	if n, ok := raw.(json.Number); ok {
		if _, err := n.Int64(); err != nil {
			return nil, errShape
		}
		return n, nil
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return raw, nil
	}
	return nil, errShape
}

func coerceFloat(raw any) (any, error) {
	if n, ok := raw.(json.Number); ok {
		if _, err := n.Float64(); err != nil {
			return nil, errShape
		}
		return n, nil
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return raw, nil
	}
	return nil, errShape
}

func coerceDict(raw any) (any, error) {
	if raw != nil && reflect.ValueOf(raw).Kind() == reflect.Map {
		return raw, nil
	}
	return nil, errShape
}

func coerceList(raw any) (any, error) {
	if raw == nil {
		return nil, errShape
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Slice, reflect.Array:
		return raw, nil
	}
	return nil, errShape
}

// coerceMetadata accepts structured documents only; bare scalars are
// rejected.
func coerceMetadata(raw any) (any, error) {
	if v, err := coerceDict(raw); err == nil {
		return v, nil
	}
	if v, err := coerceList(raw); err == nil {
		return v, nil
	}
	return nil, errShape
}

func coerceScheme(schemes ...string) func(any) (any, error) {
	return func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, errShape
		}
		for _, scheme := range schemes {
			if strings.HasPrefix(s, scheme) {
				return s, nil
			}
		}
		return nil, fmt.Errorf("value must start with %s", strings.Join(schemes, " or "))
	}
}

// describe names the shape of a raw value for diagnostics.
func describe(raw any) string {
	if raw == nil {
		return "null"
	}
	switch raw.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	}
	switch reflect.ValueOf(raw).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Map:
		return "mapping"
	case reflect.Slice, reflect.Array:
		return "sequence"
	}
	return fmt.Sprintf("%T", raw)
}

func typeList() string {
	names := make([]string, len(ioTypeOrder))
	for i, t := range ioTypeOrder {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
