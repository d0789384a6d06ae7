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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlain(t *testing.T) {
	EnableColor(false)
	t.Cleanup(func() { EnableColor(true) })

	assert.Equal(t, SymbolOK+" done", RenderOK("done"))
	assert.Equal(t, SymbolWarn+" careful", RenderWarn("careful"))
	assert.Equal(t, SymbolError+" failed", RenderError("failed"))
	assert.Equal(t, "label:", RenderLabel("label:"))
	assert.Equal(t, "epochs = 5", RenderBinding("epochs", "5", false))
	assert.Equal(t, "data "+SymbolRef+" runs.x.outputs.y", RenderBinding("data", "runs.x.outputs.y", true))
}

func TestIsColorTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	t.Setenv("TERM", "xterm-256color")
	t.Setenv("NO_COLOR", "")
	assert.False(t, IsColorTerminal(f), "regular file is not a terminal")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, IsColorTerminal(os.Stdout))

	t.Setenv("NO_COLOR", "")
	t.Setenv("TERM", "dumb")
	assert.False(t, IsColorTerminal(os.Stdout))
}
