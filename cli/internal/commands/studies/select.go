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

package studies

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/internal/routes"
	"github.com/thestormforge/optunactl/internal/selection"
)

// SelectOptions includes the configuration for selecting trials to download
type SelectOptions struct {
	Options

	Feasible bool
	Pareto   bool
}

// NewSelectCommand creates a new command for building trial selection download links
func NewSelectCommand(o *SelectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select STUDY_ID [NUMBER...]",
		Short: "Print the CSV download link of selected trials",
		Long: "Print the dashboard link used to download the selected trials of a study as CSV.\n\n" +
			"Trial numbers may be listed individually or as ranges (e.g. \"1,3-5\"); with no trial\n" +
			"numbers every trial of the study is selected.",

		Args: cobra.MinimumNArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.selectTrials(cmd.Context(), args)
		},
	}

	cmd.Flags().BoolVar(&o.Feasible, "feasible", false, "select the trials satisfying their constraints")
	cmd.Flags().BoolVar(&o.Pareto, "pareto", false, "select the trials on the Pareto front")

	return cmd
}

func (o *SelectOptions) selectTrials(ctx context.Context, args []string) error {
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}

	sel, err := selection.Parse(strings.Join(args[1:], ","))
	if err != nil {
		return err
	}

	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return err
	}

	if missing := sel.Missing(&study); len(missing) > 0 {
		return fmt.Errorf("trial %d not found in study \"%s\"", missing[0], study.Name)
	}

	// Narrow an explicit selection (or every trial) down to the candidates
	if o.Feasible || o.Pareto {
		candidates := selection.Candidates(&study, selection.Options{
			IncludeInfeasible: !o.Feasible,
			IncludeDominated:  !o.Pareto,
		})
		narrowed := selection.New()
		for i := range candidates {
			if sel.Len() == 0 || sel.Contains(candidates[i].Number) {
				narrowed = narrowed.Add(candidates[i].Number)
			}
		}
		if narrowed.Len() == 0 {
			return fmt.Errorf("no trials of study \"%s\" match the selection", study.Name)
		}
		sel = narrowed
	}

	srv, err := config.CurrentServer(o.Config.Reader())
	if err != nil {
		return err
	}

	u, err := sel.CSVURL(&routes.Resolver{Address: srv.Address, RootPrefix: srv.RootPrefix}, study.ID)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(o.Out, u.String())
	return err
}
