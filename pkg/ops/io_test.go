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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	opserrors "github.com/tombee/opspec/pkg/errors"
)

func TestIODeclarationOptional(t *testing.T) {
	assert.False(t, (&IODeclaration{Name: "a", Type: TypeInt}).Optional())
	assert.True(t, (&IODeclaration{Name: "a", Type: TypeInt, IsOptional: true}).Optional())
	assert.True(t, (&IODeclaration{Name: "a", Type: TypeInt, Value: 12}).Optional(), "a default makes the port optional")
}

func TestIODeclarationValidate(t *testing.T) {
	tests := []struct {
		name     string
		decl     IODeclaration
		dir      Direction
		wantKind opserrors.Kind
	}{
		{name: "valid input", decl: IODeclaration{Name: "lr", Type: TypeFloat}, dir: DirectionInput},
		{name: "valid output metric", decl: IODeclaration{Name: "accuracy", Type: TypeMetric}, dir: DirectionOutput},
		{name: "valid default", decl: IODeclaration{Name: "epochs", Type: TypeInt, Value: 10}, dir: DirectionInput},
		{name: "path family input", decl: IODeclaration{Name: "data", Type: TypeGCSPath}, dir: DirectionInput},
		{name: "missing name", decl: IODeclaration{Type: TypeInt}, dir: DirectionInput, wantKind: opserrors.KindInvalidDeclaration},
		{name: "bad name", decl: IODeclaration{Name: "learning rate", Type: TypeFloat}, dir: DirectionInput, wantKind: opserrors.KindInvalidDeclaration},
		{name: "missing type", decl: IODeclaration{Name: "lr"}, dir: DirectionInput, wantKind: opserrors.KindInvalidDeclaration},
		{name: "unknown type", decl: IODeclaration{Name: "lr", Type: "tensor"}, dir: DirectionInput, wantKind: opserrors.KindInvalidDeclaration},
		{name: "metric input", decl: IODeclaration{Name: "accuracy", Type: TypeMetric}, dir: DirectionInput, wantKind: opserrors.KindOutputOnlyInput},
		{name: "metadata input", decl: IODeclaration{Name: "info", Type: TypeMetadata}, dir: DirectionInput, wantKind: opserrors.KindOutputOnlyInput},
		{name: "default of wrong type", decl: IODeclaration{Name: "epochs", Type: TypeInt, Value: "ten"}, dir: DirectionInput, wantKind: opserrors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decl.Validate(tt.dir)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *opserrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantKind, verr.Kind)
		})
	}
}

func TestIODeclarationValidate_DefaultField(t *testing.T) {
	d := IODeclaration{Name: "epochs", Type: TypeInt, Value: 1.5}
	err := d.Validate(DirectionInput)

	var verr *opserrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "inputs.epochs.value", verr.Field)
}

func TestValidateDeclarations(t *testing.T) {
	t.Run("disjoint names", func(t *testing.T) {
		err := ValidateDeclarations(
			[]IODeclaration{{Name: "data", Type: TypeS3Path}, {Name: "lr", Type: TypeFloat}},
			[]IODeclaration{{Name: "model", Type: TypePath}, {Name: "loss", Type: TypeMetric}},
		)
		assert.NoError(t, err)
	})

	t.Run("nil sets", func(t *testing.T) {
		assert.NoError(t, ValidateDeclarations(nil, nil))
	})

	t.Run("input and output share a name", func(t *testing.T) {
		err := ValidateDeclarations(
			[]IODeclaration{{Name: "param1", Type: TypeInt}},
			[]IODeclaration{{Name: "param1", Type: TypeInt}},
		)
		require.Error(t, err)
		assert.ErrorIs(t, err, opserrors.ErrDuplicateDeclarationName)

		failures := opserrors.Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, "outputs.param1", failures[0].Field)
	})

	t.Run("duplicate within inputs", func(t *testing.T) {
		err := ValidateDeclarations([]IODeclaration{{Name: "a", Type: TypeInt}, {Name: "a", Type: TypeStr}}, nil)
		assert.ErrorIs(t, err, opserrors.ErrDuplicateDeclarationName)
	})

	t.Run("reports every failure", func(t *testing.T) {
		err := ValidateDeclarations(
			[]IODeclaration{{Name: "acc", Type: TypeMetric}, {Name: "x", Type: TypeInt}},
			[]IODeclaration{{Name: "x", Type: TypeInt}},
		)
		failures := opserrors.Failures(err)
		require.Len(t, failures, 2)
		assert.Equal(t, opserrors.KindOutputOnlyInput, failures[0].Kind)
		assert.Equal(t, opserrors.KindDuplicateDeclaration, failures[1].Kind)
	})

	t.Run("invalid port still claims its name", func(t *testing.T) {
		err := ValidateDeclarations(
			[]IODeclaration{{Name: "x", Type: TypeMetric}},
			[]IODeclaration{{Name: "x", Type: TypeInt}},
		)
		assert.ErrorIs(t, err, opserrors.ErrIllegalOutputOnlyTypeAsInput)
		assert.ErrorIs(t, err, opserrors.ErrDuplicateDeclarationName)

		failures := opserrors.Failures(err)
		require.Len(t, failures, 2)
		assert.Equal(t, "inputs.x", failures[0].Field)
		assert.Equal(t, "outputs.x", failures[1].Field)
	})
}
