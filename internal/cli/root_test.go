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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/bind"
	"github.com/tombee/opspec/internal/commands/shared"
	"github.com/tombee/opspec/internal/commands/validate"
)

func newTestRoot(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	shared.ResetFlagsForTest()
	shared.ResetRuntimeForTest()
	t.Cleanup(shared.ResetFlagsForTest)
	t.Cleanup(shared.ResetRuntimeForTest)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPSPEC_METRICS_FILE", "")
	t.Setenv("OPSPEC_TRACING", "")

	root := NewRootCommand()
	root.AddCommand(validate.NewCommand(), bind.NewCommand())

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	return root, &stdout, &stderr
}

func writeOp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "op.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write op: %v", err)
	}
	return path
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "opspec" {
		t.Errorf("expected use 'opspec', got %q", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("expected short description to be set")
	}
	if cmd.Long == "" {
		t.Error("expected long description to be set")
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"verbose", "quiet", "json", "config", "metrics-file", "trace"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("%s flag not registered", name)
		}
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-05")
	defer SetVersion("dev", "unknown", "unknown")

	v, c, b := GetVersion()
	if v != "1.2.3" || c != "abc123" || b != "2026-01-05" {
		t.Errorf("unexpected version info: %s %s %s", v, c, b)
	}
}

func TestExecute_WritesMetricsOnFailure(t *testing.T) {
	op := writeOp(t, "inputs:\n  - name: epochs\n    type: int\n")
	metrics := filepath.Join(t.TempDir(), "opspec.prom")
	root, _, _ := newTestRoot(t, "--metrics-file", metrics, "bind", op, "--param", "epochs=five")

	err := Execute(context.Background(), root)
	if shared.ExitCodeFor(err) != shared.ExitValidationFailed {
		t.Fatalf("expected exit code %d, got %d (%v)", shared.ExitValidationFailed, shared.ExitCodeFor(err), err)
	}

	data, readErr := os.ReadFile(metrics)
	if readErr != nil {
		t.Fatalf("metrics file not written: %v", readErr)
	}
	for _, want := range []string{
		`opspec_validations_total{operation="bind",outcome="failed"} 1`,
		`opspec_validation_errors_total{kind="type_mismatch"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestExecute_Trace(t *testing.T) {
	op := writeOp(t, "name: train\ninputs:\n  - name: epochs\n    type: int\n    value: 1\n")
	root, stdout, stderr := newTestRoot(t, "--trace", "validate", op)

	if err := Execute(context.Background(), root); err != nil {
		t.Fatalf("validate failed: %v\nstderr: %s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), op) {
		t.Errorf("expected %s in output, got %q", op, stdout.String())
	}
	for _, span := range []string{"op.parse", "op.bind"} {
		if !strings.Contains(stderr.String(), span) {
			t.Errorf("expected span %s on stderr", span)
		}
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, []byte("log:\n  level: loud\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	op := writeOp(t, "name: a\n")
	root, _, _ := newTestRoot(t, "--config", cfg, "validate", op)

	err := Execute(context.Background(), root)
	if code := shared.ExitCodeFor(err); code != shared.ExitUnreadable {
		t.Errorf("expected exit code %d, got %d (%v)", shared.ExitUnreadable, code, err)
	}
}

func TestExecute_ConfigSetsBindModes(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, []byte("validation:\n  template: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	op := writeOp(t, "inputs:\n  - name: epochs\n    type: int\n")

	root, _, _ := newTestRoot(t, "--config", cfg, "validate", op)
	if err := Execute(context.Background(), root); err != nil {
		t.Errorf("template mode from config should accept unbound inputs: %v", err)
	}

	root, _, _ = newTestRoot(t, "--config", cfg, "validate", op, "--template=false")
	if code := shared.ExitCodeFor(Execute(context.Background(), root)); code != shared.ExitMissingInput {
		t.Errorf("expected exit code %d with --template=false, got %d", shared.ExitMissingInput, code)
	}
}

func TestVerboseAndQuietConflict(t *testing.T) {
	op := writeOp(t, "name: a\n")
	root, _, _ := newTestRoot(t, "-v", "-q", "validate", op)

	if err := Execute(context.Background(), root); err == nil {
		t.Error("expected --verbose and --quiet together to fail")
	}
}
