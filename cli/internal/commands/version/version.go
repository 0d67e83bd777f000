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
package version

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/version"
)

// Options is the configuration for reporting version information
type Options struct {
	// Printer is the resource printer used to render structured output
	Printer commander.ResourcePrinter
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Product is the current product name, defaults to the root command name
	Product string
	// Output is the structured output format, empty for plain text
	Output string
}

// NewCommand creates a new command for reporting version information
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Long:  "Print the version information of optunactl",

		PreRun: func(cmd *cobra.Command, args []string) {
			commander.SetStreams(&o.IOStreams, cmd)
			if o.Product == "" {
				o.Product = cmd.Root().Name()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.version(cmd.Flags().Changed("output"))
		},
	}

	cmd.Annotations = map[string]string{
		commander.PrinterAllowedFormats: "json,yaml",
		commander.PrinterOutputFormat:   "json",
	}
	commander.SetPrinter(nil, &o.Printer, cmd)

	return cmd
}

func (o *Options) version(structured bool) error {
	info := version.GetInfo()
	if structured {
		return o.Printer.PrintObj(map[string]*version.Info{o.Product: info}, o.Out)
	}

	_, err := fmt.Fprintf(o.Out, "%s version: %s\n", o.Product, info.String())
	return err
}
