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
package commands

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/cli/internal/commands/check"
	"github.com/thestormforge/optunactl/cli/internal/commands/completion"
	"github.com/thestormforge/optunactl/cli/internal/commands/configure"
	"github.com/thestormforge/optunactl/cli/internal/commands/debug"
	"github.com/thestormforge/optunactl/cli/internal/commands/docs"
	"github.com/thestormforge/optunactl/cli/internal/commands/login"
	"github.com/thestormforge/optunactl/cli/internal/commands/open"
	"github.com/thestormforge/optunactl/cli/internal/commands/ping"
	"github.com/thestormforge/optunactl/cli/internal/commands/studies"
	"github.com/thestormforge/optunactl/cli/internal/commands/version"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/pkg/api"
)

// NewRootCommand creates a new top-level command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "optunactl",
		Short:             "Work with Optuna studies from the command line",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	// Create a global configuration
	cfg := &config.OptunaConfig{}
	commander.ConfigGlobals(cfg, rootCmd)

	so := func() studies.Options { return studies.Options{Config: cfg} }

	// Study Commands
	rootCmd.AddCommand(studies.NewGetCommand(&studies.GetOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewCreateCommand(&studies.CreateOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewRenameCommand(&studies.RenameOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewDeleteCommand(&studies.DeleteOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewNoteCommand(&studies.NoteOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewUploadCommand(&studies.ArtifactOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewDeleteArtifactCommand(&studies.ArtifactOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewSelectCommand(&studies.SelectOptions{Options: so()}))
	rootCmd.AddCommand(open.NewCommand(&open.Options{Config: cfg}))

	// Trial Commands
	rootCmd.AddCommand(studies.NewTellCommand(&studies.TellOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewSetUserAttrsCommand(&studies.SetUserAttrsOptions{Options: so()}))

	// Preferential Optimization Commands
	rootCmd.AddCommand(studies.NewPreferCommand(&studies.PreferenceOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewSkipCommand(&studies.PreferenceOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewHistoryCommand(&studies.PreferenceOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewFeedbackComponentCommand(&studies.PreferenceOptions{Options: so()}))

	// Analysis Commands
	rootCmd.AddCommand(studies.NewPlotCommand(&studies.PlotOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewCompareCommand(&studies.PlotOptions{Options: so()}))
	rootCmd.AddCommand(studies.NewImportancesCommand(&studies.ImportancesOptions{Options: so()}))

	// Administrative Commands
	rootCmd.AddCommand(login.NewCommand(&login.Options{Config: cfg}))
	rootCmd.AddCommand(ping.NewCommand(&ping.Options{Config: cfg}))
	rootCmd.AddCommand(configure.NewCommand(&configure.Options{Config: cfg}))
	rootCmd.AddCommand(check.NewCommand(&check.Options{Config: cfg}))
	rootCmd.AddCommand(completion.NewCommand(&completion.Options{}))
	rootCmd.AddCommand(version.NewCommand(&version.Options{}))
	rootCmd.AddCommand(docs.NewCommand(&docs.Options{}))
	rootCmd.AddCommand(debug.NewCommand(&debug.Options{}))

	commander.MapErrors(rootCmd, mapError)
	return rootCmd
}

// mapError intercepts errors returned by commands before they are reported.
func mapError(err error) error {
	if api.IsUnauthorized(err) {
		// Trust the error message we get from the dashboard or proxy
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w, try running 'optunactl login'", err)
		}
		return fmt.Errorf("unauthorized, try running 'optunactl login'")
	}

	// A stopped dashboard is the most common failure
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w, is the dashboard running? (see 'optunactl config view --minify')", err)
	}

	return err
}
