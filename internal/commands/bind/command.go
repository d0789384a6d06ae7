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

package bind

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/shared"
	"github.com/tombee/opspec/internal/jq"
	"github.com/tombee/opspec/pkg/ops"
	"gopkg.in/yaml.v3"
)

type options struct {
	shared.BindModes
	params     []string
	paramsFile string
	query      string
}

type bindResponse struct {
	shared.JSONResponse
	ValidationID string             `json:"validation_id"`
	Op           string             `json:"op,omitempty"`
	Template     bool               `json:"template"`
	Bindings     []ops.ParamBinding `json:"bindings"`
	Values       map[string]any     `json:"values"`
}

// NewCommand creates the bind command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "bind <op-file>",
		Short: "Bind run-time params to an op's ports",
		Annotations: map[string]string{
			"group": "validation",
		},
		Long: `Bind validates params against the ports an op declares and prints the
value each port is bound to.

Params come from the op document, then --params-file (a YAML or JSON
mapping), then --param flags; later sources override earlier ones.
--param values are typed as YAML scalars, so 5 is an int, 0.5 a float and
true a bool. Quote a value to keep it a string: --param tag='"5"'.

References ({{ runs.<uuid>.outputs.x }}, {{ ops.<name>.outputs.x }}) are
kept unresolved and shown with an arrow.

Exit codes: 0 bound, 1 invalid params, 2 unreadable file or bad usage,
3 only required inputs missing.`,
		Example: `  # Bind with inline params
  opspec bind train.yaml --param epochs=10 --param lr=0.05

  # Bind from a file and pick one value
  opspec bind train.yaml --params-file params.yaml --query '.values.data'

  # Check a template without filling its required inputs
  opspec bind template.yaml --template --json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			shared.ResolveBindModes(cmd.Flags(), &opts.BindModes, shared.GetRuntime())
			return runBind(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.params, "param", "p", nil, "Param as name=value (repeatable)")
	cmd.Flags().StringVarP(&opts.paramsFile, "params-file", "f", "", "YAML or JSON file of params")
	shared.AddBindModeFlags(cmd.Flags(), &opts.BindModes)
	cmd.Flags().StringVar(&opts.query, "query", "", "jq expression applied to the JSON result")

	return cmd
}

func runBind(cmd *cobra.Command, path string, opts options) error {
	rt := shared.GetRuntime()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	query, err := jq.Compile(opts.query)
	if err != nil {
		return shared.NewUnreadableError("invalid --query", err)
	}

	op, err := rt.Binder.ParseFile(ctx, path, ops.ParseOptions{InPipeline: opts.InPipeline})
	if err != nil {
		return fail(cmd, path, err)
	}

	params, err := collectParams(op.Params, opts)
	if err != nil {
		return err
	}

	result, err := rt.Binder.Bind(ctx, op, params, ops.BindOptions{
		Template:   opts.Template || op.IsTemplate(),
		InPipeline: opts.InPipeline,
	})
	if err != nil {
		return fail(cmd, path, err)
	}

	bindings := make([]ops.ParamBinding, len(result.Bindings))
	for i, b := range result.Bindings {
		b.Value = jsonable(b.Value)
		bindings[i] = b
	}
	resp := bindResponse{
		JSONResponse: shared.NewResponse("bind", true),
		ValidationID: result.ValidationID,
		Op:           result.Op,
		Template:     result.Template,
		Bindings:     bindings,
		Values:       ops.BindingMap(bindings),
	}

	if opts.query != "" {
		v, err := query.Run(ctx, resp)
		if err != nil {
			return shared.NewValidationError("query failed", err)
		}
		return printJSON(cmd.OutOrStdout(), v)
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), resp)
	}

	printBindings(cmd.OutOrStdout(), op, bindings)
	return nil
}

// fail reports err in JSON mode and returns the exit error for it.
func fail(cmd *cobra.Command, path string, err error) error {
	if shared.GetJSON() {
		if emitErr := shared.EmitJSONError(cmd.OutOrStdout(), "bind", shared.JSONErrors(path, err)); emitErr != nil {
			return emitErr
		}
		return &shared.ExitError{Code: shared.ExitCodeFor(err)}
	}
	return shared.WrapExit("bind failed", err)
}

// collectParams layers --params-file and --param over the document's
// own params.
func collectParams(base map[string]any, opts options) (map[string]any, error) {
	params := make(map[string]any, len(base))
	for k, v := range base {
		params[k] = v
	}

	if opts.paramsFile != "" {
		data, err := os.ReadFile(opts.paramsFile)
		if err != nil {
			return nil, shared.NewUnreadableError("failed to read params file", err)
		}
		var fromFile map[string]any
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return nil, shared.NewUnreadableError(fmt.Sprintf("invalid params file %s", opts.paramsFile), err)
		}
		for k, v := range fromFile {
			params[k] = v
		}
	}

	for _, p := range opts.params {
		name, value, err := ParseParam(p)
		if err != nil {
			return nil, shared.NewUnreadableError("invalid --param", err)
		}
		params[name] = value
	}

	return params, nil
}

// ParseParam splits name=value and types value as a YAML scalar.
// References and values YAML cannot read are kept as strings.
func ParseParam(s string) (string, any, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("expected name=value, got %q", s)
	}

	if raw == "" || ops.IsReference(raw) {
		return name, raw, nil
	}

	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return name, raw, nil
	}
	return name, v, nil
}

func printBindings(w io.Writer, op *ops.Op, bindings []ops.ParamBinding) {
	title := op.Name
	if title == "" {
		title = "op"
	}
	fmt.Fprintln(w, shared.RenderOK(fmt.Sprintf("%s: %d ports bound", title, len(bindings))))

	direction := make(map[string]string, len(bindings))
	for _, in := range op.Inputs {
		direction[in.Name] = string(ops.DirectionInput)
	}
	for _, out := range op.Outputs {
		direction[out.Name] = string(ops.DirectionOutput)
	}

	for _, dir := range []string{string(ops.DirectionInput), string(ops.DirectionOutput)} {
		var lines []string
		for _, b := range bindings {
			if direction[b.Name] == dir {
				lines = append(lines, "    "+shared.RenderBinding(b.Name, formatValue(b.Value), b.IsRef()))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", shared.RenderLabel(dir+":"))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<unbound>"
	case string:
		return val
	case map[string]any, map[any]any, []any:
		data, err := json.Marshal(jsonable(val))
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// jsonable converts map[any]any, which yaml.v3 produces for non-string
// keys, into values encoding/json accepts.
func jsonable(v any) any {
	switch val := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[fmt.Sprint(k)] = jsonable(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = jsonable(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = jsonable(x)
		}
		return out
	default:
		return v
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
