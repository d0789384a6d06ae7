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

package validate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/shared"
	"github.com/tombee/opspec/internal/watch"
	"github.com/tombee/opspec/pkg/ops"
)

type options struct {
	shared.BindModes
	watch bool
}

// fileResult is the outcome for one op document.
type fileResult struct {
	File       string   `json:"file"`
	Valid      bool     `json:"valid"`
	Name       string   `json:"name,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	ParamStyle string   `json:"param_style,omitempty"`
	Inputs     []string `json:"inputs,omitempty"`
	Outputs    []string `json:"outputs,omitempty"`

	err error
}

type validateResponse struct {
	shared.JSONResponse
	Files  []fileResult       `json:"files"`
	Errors []shared.JSONError `json:"errors,omitempty"`
}

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "validate <file|glob>...",
		Short: "Validate op documents",
		Annotations: map[string]string{
			"group": "validation",
		},
		Long: `Validate parses op documents and checks their declared ports and params.

Each argument is a file, a directory (searched for .yaml, .yml and .json
documents) or a doublestar glob such as 'ops/**/*.yaml'.

Checks:
  - every port has a unique name and a known type
  - metric and metadata ports are declared as outputs only
  - params name declared ports and match their types
  - references ({{ inputs.x }}, {{ runs.<uuid>.x }}) are well formed;
    {{ ops.x }} is only accepted with --in-pipeline

Documents of kind 'op' must also bind every required input. Pass
--template (or declare 'kind: template') to leave required inputs for a
later instantiation.

Exit codes: 0 valid, 1 invalid, 2 unreadable, 3 only required inputs missing.`,
		Example: `  # Validate one op
  opspec validate train.yaml

  # Validate a tree of ops as pipeline members
  opspec validate 'pipelines/**/*.yaml' --in-pipeline

  # Re-validate on every save
  opspec validate ops/ --watch

  # Machine-readable results
  opspec validate ops/ --json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			shared.ResolveBindModes(cmd.Flags(), &opts.BindModes, shared.GetRuntime())
			return runValidate(cmd, args, opts)
		},
	}

	shared.AddBindModeFlags(cmd.Flags(), &opts.BindModes)
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-validate files when they change")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts options) error {
	files, err := watch.Expand(args)
	if err != nil {
		return shared.NewUnreadableError("invalid file argument", err)
	}
	if len(files) == 0 {
		return shared.NewUnreadableError(fmt.Sprintf("no op documents match %v", args), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]fileResult, 0, len(files))
	for _, f := range files {
		results = append(results, validateFile(ctx, f, opts))
	}
	code := report(cmd, results)

	if opts.watch {
		return watchFiles(ctx, cmd, files, opts)
	}

	if code != shared.ExitSuccess {
		return &shared.ExitError{Code: code}
	}
	return nil
}

func validateFile(ctx context.Context, path string, opts options) fileResult {
	rt := shared.GetRuntime()
	res := fileResult{File: path}

	op, err := rt.Binder.ParseFile(ctx, path, ops.ParseOptions{InPipeline: opts.InPipeline})
	if err != nil {
		res.err = err
		return res
	}

	res.Name = op.Name
	res.Kind = op.Kind
	res.ParamStyle = string(op.ParamStyle())
	for _, in := range op.Inputs {
		res.Inputs = append(res.Inputs, in.Name)
	}
	for _, out := range op.Outputs {
		res.Outputs = append(res.Outputs, out.Name)
	}

	if !opts.Template && !op.IsTemplate() {
		if _, err := rt.Binder.Bind(ctx, op, nil, ops.BindOptions{InPipeline: opts.InPipeline}); err != nil {
			res.err = fmt.Errorf("%s: %w", path, err)
			return res
		}
	}

	res.Valid = true
	return res
}

// report prints results and returns the exit code for the batch:
// unreadable files win over invalid ones, which win over missing inputs.
func report(cmd *cobra.Command, results []fileResult) int {
	code := shared.ExitSuccess
	for _, r := range results {
		code = worse(code, shared.ExitCodeFor(r.err))
	}

	if shared.GetJSON() {
		resp := validateResponse{
			JSONResponse: shared.NewResponse("validate", code == shared.ExitSuccess),
			Files:        results,
		}
		for _, r := range results {
			resp.Errors = append(resp.Errors, shared.JSONErrors(r.File, r.err)...)
		}
		if err := shared.EmitJSON(cmd.OutOrStdout(), resp); err != nil {
			return shared.ExitValidationFailed
		}
		return code
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, r := range results {
		printResult(out, errOut, r)
	}
	return code
}

func printResult(out, errOut io.Writer, r fileResult) {
	if r.Valid {
		fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s (%s, %d inputs, %d outputs)",
			r.File, r.Kind, len(r.Inputs), len(r.Outputs))))
		return
	}
	fmt.Fprintln(errOut, shared.RenderError(r.File))
	shared.ReportError(errOut, r.err)
}

func worse(a, b int) int {
	rank := map[int]int{
		shared.ExitSuccess:          0,
		shared.ExitMissingInput:     1,
		shared.ExitValidationFailed: 2,
		shared.ExitUnreadable:       3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func watchFiles(ctx context.Context, cmd *cobra.Command, files []string, opts options) error {
	rt := shared.GetRuntime()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.NewWatcher(files, rt.Logger)
	if err != nil {
		return shared.NewUnreadableError("failed to watch files", err)
	}

	if !shared.GetJSON() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s watching %d file(s), press Ctrl+C to stop\n",
			shared.RenderLabel("watch:"), len(files))
	}

	return w.Run(ctx, func(ev watch.Event) {
		if ev.Type == "deleted" || ev.Type == "renamed" {
			fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderWarn(ev.Path+" "+ev.Type))
			return
		}
		report(cmd, []fileResult{validateFile(ctx, ev.Path, opts)})
	})
}
