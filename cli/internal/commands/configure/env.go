/*
Copyright 2021 GramLabs, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package configure

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
)

// EnvOptions are the options for viewing a configuration as environment variables
type EnvOptions struct {
	// Config is the optunactl configuration to view
	Config *config.OptunaConfig
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Export prefixes each variable with the shell export keyword
	Export bool
	// Unset generates commands to clear the variables instead
	Unset bool
}

// NewEnvCommand creates a new command for viewing a configuration as environment variables
func NewEnvCommand(o *EnvOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Generate environment variables from configuration",
		Long:  "View the current context of the optunactl configuration as environment variables",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.env),
	}

	cmd.Flags().BoolVar(&o.Export, "export", false, "prefix each variable for use with a POSIX shell")
	cmd.Flags().BoolVar(&o.Unset, "unset", false, "generate commands to unset the variables")

	return cmd
}

func (o *EnvOptions) env() error {
	if o.Unset {
		for _, k := range config.EnvironmentNames() {
			_, _ = fmt.Fprintf(o.Out, "unset %s\n", k)
		}
		return nil
	}

	env, err := config.EnvironmentMapping(o.Config.Reader())
	if err != nil {
		return err
	}

	// Serialize the environment map to a ".env" format
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := env[k]
		if o.Export {
			_, _ = fmt.Fprintf(o.Out, "export %s=%s\n", k, strconv.Quote(v))
			continue
		}
		_, _ = fmt.Fprintf(o.Out, "%s=%s\n", k, v)
	}

	return nil
}
