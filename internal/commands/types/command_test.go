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

package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/opspec/internal/commands/shared"
)

func TestList(t *testing.T) {
	infos := List()
	require.Len(t, infos, 12)

	byName := map[string]TypeInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.Equal(t, "str", infos[0].Name)
	assert.True(t, byName["metric"].OutputOnly)
	assert.True(t, byName["metadata"].OutputOnly)
	assert.False(t, byName["path"].OutputOnly)
	for _, name := range []string{"path", "gcs_path", "s3_path", "azure_path"} {
		assert.True(t, byName[name].Reference, name)
	}
	assert.False(t, byName["int"].Reference)
}

func TestTypesCommand(t *testing.T) {
	shared.ResetFlagsForTest()
	t.Cleanup(shared.ResetFlagsForTest)

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 12)
	assert.Contains(t, buf.String(), "output only")
}

func TestTypesCommand_JSON(t *testing.T) {
	shared.ResetFlagsForTest()
	shared.SetJSONForTest(true)
	t.Cleanup(shared.ResetFlagsForTest)

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var resp typesResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "types", resp.Command)
	assert.Equal(t, List(), resp.Types)
}
