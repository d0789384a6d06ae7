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

// Package cli builds the opspec root command: global flags, runtime
// setup from configuration, and exit handling.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for opspec
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "opspec",
		Short: "opspec - validate op ports and bind their params",
		Long: `opspec checks op documents: the typed inputs and outputs an op declares
and the params bound to them. Params are coerced to their declared types,
and deferred references to other runs or ops are kept for resolution at
run time.

Run 'opspec validate <file>' to check an op document.
Run 'opspec bind <file> --param name=value' to see what each port receives.
Run 'opspec types' for the port types an op may declare.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			shared.EnableColor(!shared.GetJSON() && shared.IsColorTerminal(os.Stdout))
			if _, err := shared.SetupRuntime(cmd.ErrOrStderr()); err != nil {
				return shared.NewUnreadableError("invalid configuration", err)
			}
			return nil
		},
	}

	verbose, quiet, json, config := shared.RegisterFlagPointers()
	metricsFile, trace := shared.RegisterObservabilityFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/opspec/config.yaml)")
	cmd.PersistentFlags().StringVar(metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	cmd.PersistentFlags().BoolVar(trace, "trace", false, "Print trace spans to stderr")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

// Execute runs root and then flushes metrics and spans, whether or not
// the command succeeded.
func Execute(ctx context.Context, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if closeErr := shared.GetRuntime().Close(ctx); closeErr != nil && err == nil {
		err = shared.NewValidationError("failed to flush telemetry", closeErr)
	}
	return err
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
