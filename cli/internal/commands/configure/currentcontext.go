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

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
)

// CurrentContextOptions are the options for viewing the current context
type CurrentContextOptions struct {
	// Config is the optunactl configuration to view
	Config *config.OptunaConfig
	// IOStreams are used to access the standard process streams
	commander.IOStreams
}

// NewCurrentContextCommand creates a new command for viewing the current context
func NewCurrentContextCommand(o *CurrentContextOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current-context",
		Short: "Display the current context",
		Long:  "Display the name of the context used to reach the dashboard",

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.currentContext),
	}

	return cmd
}

func (o *CurrentContextOptions) currentContext() error {
	_, err := fmt.Fprintln(o.Out, o.Config.Reader().ContextName())
	return err
}

// UseContextOptions are the options for switching the current context
type UseContextOptions struct {
	// Config is the optunactl configuration to modify
	Config *config.OptunaConfig
	// IOStreams are used to access the standard process streams
	commander.IOStreams
}

// NewUseContextCommand creates a new command for switching the current context
func NewUseContextCommand(o *UseContextOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use-context NAME",
		Short: "Switch the current context",
		Long:  "Persist a new current context in the configuration file",

		Args: cobra.ExactArgs(1),

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.useContext(args[0])
		},
	}

	return cmd
}

func (o *UseContextOptions) useContext(name string) error {
	if err := o.Config.Update(config.SetProperty("current-context", name)); err != nil {
		return err
	}

	if err := o.Config.Write(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(o.Out, "Switched to context \"%s\".\n", name)
	return err
}
