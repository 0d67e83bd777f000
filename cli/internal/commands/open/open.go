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

package open

import (
	"fmt"
	"net/url"
	"os/user"
	"strconv"

	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/internal/routes"
)

const browserPrompt = `Opening your default browser to visit:

	%s

`

// Options is the configuration for opening dashboard pages
type Options struct {
	// Config is the optunactl configuration
	Config *config.OptunaConfig
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	// Page is the dashboard view to open
	Page string
	// TrialNumber limits the trial list to a single trial
	TrialNumber int
	// DisplayURL prints the location instead of opening a browser
	DisplayURL bool
	// DisplayQR prints a QR code of the location instead of opening a browser
	DisplayQR bool

	// openURL opens a browser, defaults to the system browser
	openURL func(string) error
}

// NewCommand creates a new command for opening the dashboard
func NewCommand(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [STUDY_ID]",
		Short: "Open the dashboard in a browser",
		Long:  "Open a page of the Optuna dashboard in the default web browser",

		Args: cobra.MaximumNArgs(1),

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.open(args)
		},
	}

	cmd.Flags().StringVar(&o.Page, "page", "", "the dashboard `page` to open")
	cmd.Flags().IntVar(&o.TrialNumber, "trial", -1, "open the trial list at a single trial `number`")
	cmd.Flags().BoolVar(&o.DisplayURL, "url", false, "display the URL instead of opening a browser")
	cmd.Flags().BoolVar(&o.DisplayQR, "qr", false, "display a QR code instead of opening a browser")

	commander.SetFlagValues(cmd, "page", routes.Pages()...)

	return cmd
}

func (o *Options) open(args []string) error {
	loc, err := o.location(args)
	if err != nil {
		return err
	}

	switch {
	case o.DisplayQR:
		qrterminal.Generate(loc.String(), qrterminal.L, o.Out)
		_, _ = fmt.Fprintf(o.Out, "If you are having problems scanning, use your browser to visit: %s\n", loc)
		return nil
	case o.DisplayURL:
		_, err := fmt.Fprintln(o.Out, loc.String())
		return err
	default:
		return o.openBrowser(loc.String())
	}
}

// location resolves the requested page against the current server
func (o *Options) location(args []string) (*url.URL, error) {
	studyID := -1
	if len(args) > 0 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid study ID \"%s\"", args[0])
		}
		studyID = id
	}

	srv, err := config.CurrentServer(o.Config.Reader())
	if err != nil {
		return nil, err
	}
	r := &routes.Resolver{Address: srv.Address, RootPrefix: srv.RootPrefix}

	if o.TrialNumber >= 0 {
		if studyID < 0 {
			return nil, fmt.Errorf("a study ID is required to open a trial")
		}
		if o.Page != "" && routes.Page(o.Page) != routes.PageTrialList {
			return nil, fmt.Errorf("a trial can only be opened on the %s page", routes.PageTrialList)
		}
		return r.TrialLink(studyID, o.TrialNumber)
	}

	page := routes.Page(o.Page)
	if page == "" {
		page = routes.PageStudyList
		if studyID >= 0 {
			page = routes.PageTop
		}
	}

	return r.PageURL(page, studyID)
}

// openBrowser prints the supplied URL and possibly opens a web browser pointing to that URL
func (o *Options) openBrowser(loc string) error {
	u, err := user.Current()
	if err != nil {
		return err
	}

	// Do not open the browser for root, but assume they still have one
	if u.Uid == "0" {
		_, _ = fmt.Fprintf(o.Out, "%s\n", loc)
		return nil
	}

	openURL := o.openURL
	if openURL == nil {
		openURL = browser.OpenURL
	}

	_, _ = fmt.Fprintf(o.Out, browserPrompt, loc)
	if err := openURL(loc); err != nil {
		return fmt.Errorf("failed to open browser, use 'optunactl open --url' instead")
	}

	return nil
}
