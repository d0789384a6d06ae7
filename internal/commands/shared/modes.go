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
	"github.com/spf13/pflag"
)

// BindModes holds the --template and --in-pipeline flags shared by the
// validate and bind commands.
type BindModes struct {
	Template   bool
	InPipeline bool
}

// AddBindModeFlags registers --template and --in-pipeline on fs.
func AddBindModeFlags(fs *pflag.FlagSet, m *BindModes) {
	fs.BoolVar(&m.Template, "template", false, "Allow required inputs to stay unbound")
	fs.BoolVar(&m.InPipeline, "in-pipeline", false, "Accept {{ ops.* }} references")
}

// ResolveBindModes fills flags left unset on the command line from the
// runtime configuration.
func ResolveBindModes(fs *pflag.FlagSet, m *BindModes, rt *Runtime) {
	template, inPipeline := rt.BindModes()
	if !fs.Changed("template") {
		m.Template = template
	}
	if !fs.Changed("in-pipeline") {
		m.InPipeline = inPipeline
	}
}
