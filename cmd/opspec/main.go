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

package main

import (
	"context"

	"github.com/tombee/opspec/internal/cli"
	"github.com/tombee/opspec/internal/commands/bind"
	"github.com/tombee/opspec/internal/commands/types"
	"github.com/tombee/opspec/internal/commands/validate"
	versioncmd "github.com/tombee/opspec/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	rootCmd.AddCommand(validate.NewCommand())
	rootCmd.AddCommand(bind.NewCommand())
	rootCmd.AddCommand(types.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := cli.Execute(context.Background(), rootCmd); err != nil {
		cli.HandleExitError(err)
	}
}
