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
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
)

// SetOptions are the options for setting a configuration property to a new value
type SetOptions struct {
	// Config is the optunactl configuration to modify
	Config *config.OptunaConfig

	// Key is the name of the property being set
	Key string
	// Value is the new value for the property
	Value string
}

// NewSetCommand creates a new command for setting a configuration property
func NewSetCommand(o *SetOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set NAME [VALUE]",
		Short: "Modify the configuration file",
		Long: "Modify a single property of the optunactl configuration file.\n\n" +
			"Properties use a dotted notation, for example:\n" +
			"  current-context\n" +
			"  server.NAME.address\n" +
			"  server.NAME.root_prefix\n" +
			"  server.NAME.token_endpoint\n" +
			"  authorization.NAME.token\n" +
			"  context.NAME.server\n" +
			"  context.NAME.authorization",
		Args: cobra.RangeArgs(1, 2),

		ValidArgsFunction: o.completeKey,

		PreRun: func(cmd *cobra.Command, args []string) {
			o.Complete(args)
		},
		RunE: commander.WithoutArgsE(o.set),
	}

	return cmd
}

// Complete overwrites the options using from an argument slice
func (o *SetOptions) Complete(args []string) {
	if len(args) > 0 {
		o.Key = args[0]
	}
	if len(args) > 1 {
		o.Value = args[1]
	} else if strings.Contains(o.Key, "=") {
		s := strings.SplitN(o.Key, "=", 2)
		o.Key = s[0]
		o.Value = s[1]
	}
}

func (o *SetOptions) set() error {
	if err := o.Config.Update(config.SetProperty(o.Key, o.Value)); err != nil {
		return err
	}

	return o.Config.Write()
}

// completeKey suggests property names using the objects already present in the configuration
func (o *SetOptions) completeKey(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	mini, err := config.Minify(o.Config.Reader())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	keys := []string{"current-context"}
	for _, s := range mini.Servers {
		keys = append(keys, "server."+s.Name+".address", "server."+s.Name+".root_prefix", "server."+s.Name+".token_endpoint")
	}
	for _, a := range mini.Authorizations {
		keys = append(keys, "authorization."+a.Name+".token")
	}
	for _, c := range mini.Contexts {
		keys = append(keys, "context."+c.Name+".server", "context."+c.Name+".authorization")
	}

	var suggestions []string
	for _, k := range keys {
		if strings.HasPrefix(k, toComplete) {
			suggestions = append(suggestions, k)
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}
