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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/shared"
	"github.com/tombee/opspec/pkg/ops"
)

// TypeInfo describes one supported port type.
type TypeInfo struct {
	Name       string `json:"name"`
	OutputOnly bool   `json:"output_only"`
	Reference  bool   `json:"reference"`
}

type typesResponse struct {
	shared.JSONResponse
	Types []TypeInfo `json:"types"`
}

// NewCommand creates the types command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the port types an op may declare",
		Annotations: map[string]string{
			"group": "validation",
		},
		Long: `Types lists every io type accepted in an op's inputs and outputs.

Output-only types (metric, metadata) are produced by a run and may not be
declared as inputs. Reference types name a location on a filesystem or in
an object store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := List()
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), typesResponse{
					JSONResponse: shared.NewResponse("types", true),
					Types:        infos,
				})
			}

			for _, info := range infos {
				var notes string
				switch {
				case info.OutputOnly:
					notes = shared.RenderLabel("output only")
				case info.Reference:
					notes = shared.RenderLabel("reference")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", info.Name, notes)
			}
			return nil
		},
	}
}

// List returns the registry in documentation order.
func List() []TypeInfo {
	all := ops.IOTypes()
	out := make([]TypeInfo, 0, len(all))
	for _, t := range all {
		out = append(out, TypeInfo{
			Name:       string(t),
			OutputOnly: t.IsOutputOnly(),
			Reference:  t.IsReferenceLike(),
		})
	}
	return out
}
