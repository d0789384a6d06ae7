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

package version

import (
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tombee/opspec/internal/commands/shared"
	"github.com/tombee/opspec/pkg/ops"
)

// VersionInfo describes the running binary and the IO types it accepts.
type VersionInfo struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	IOTypes   []string `json:"io_types"`
}

type versionResponse struct {
	shared.JSONResponse
	VersionInfo
}

var readBuildInfo = debug.ReadBuildInfo

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the opspec release, the commit and date it was built from,
the Go toolchain and the IO types this build recognises.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
}

// Current returns the version of the running binary. Values stamped with
// -ldflags win; a plain "go install" build falls back to module and VCS
// data embedded by the toolchain.
func Current() VersionInfo {
	v, c, b := shared.GetVersion()
	info := VersionInfo{Version: v, Commit: c, BuildDate: b, GoVersion: runtime.Version()}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = strings.TrimPrefix(bi.Main.Version, "v")
		}
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "unknown":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildDate == "unknown":
				info.BuildDate = s.Value
			}
		}
	}

	for _, t := range ops.IOTypes() {
		info.IOTypes = append(info.IOTypes, string(t))
	}
	return info
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := Current()

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), versionResponse{
			JSONResponse: shared.NewResponse("version", true),
			VersionInfo:  info,
		})
	}

	cmd.Printf("opspec %s (%s, built %s, %s)\n", info.Version, info.Commit, info.BuildDate, info.GoVersion)
	cmd.Printf("io types: %s\n", strings.Join(info.IOTypes, ", "))
	return nil
}
