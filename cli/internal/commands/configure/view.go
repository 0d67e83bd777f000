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
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
)

// ViewOptions are the options for viewing a configuration file
type ViewOptions struct {
	// Config is the optunactl configuration to view
	Config *config.OptunaConfig
	// Printer is the resource printer used to render the configuration
	Printer commander.ResourcePrinter
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// FileOnly causes view to just dump the configuration file to out
	FileOnly bool
	// Minify causes the configuration to be evaluated and reduced to only the current effective configuration
	Minify bool
}

// NewViewCommand creates a new command for viewing the configuration
func NewViewCommand(o *ViewOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the configuration file",
		Long:  "View the optunactl configuration file merged with defaults",

		Annotations: map[string]string{
			commander.PrinterAllowedFormats: "json,yaml",
			commander.PrinterOutputFormat:   "yaml",
		},

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE:   commander.WithoutArgsE(o.view),
	}

	cmd.Flags().BoolVar(&o.FileOnly, "raw", false, "display the raw configuration file without merging")
	cmd.Flags().BoolVar(&o.Minify, "minify", false, "reduce information to effective values")

	commander.SetPrinter(nil, &o.Printer, cmd)

	return cmd
}

func (o *ViewOptions) view() error {
	// Dump the raw config file bytes to the console
	if o.FileOnly {
		f, err := os.Open(o.Config.Filename)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		_, err = io.Copy(o.Out, f)
		return err
	}

	// Reduce using the Reader
	if o.Minify {
		mini, err := config.Minify(o.Config.Reader())
		if err != nil {
			return err
		}
		return o.Printer.PrintObj(mini, o.Out)
	}

	return o.Printer.PrintObj(o.Config, o.Out)
}
