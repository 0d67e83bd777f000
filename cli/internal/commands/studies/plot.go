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

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// PlotOptions includes the configuration for fetching plots
type PlotOptions struct {
	Options
}

// NewPlotCommand creates a new command for fetching the Plotly figure of a study plot
func NewPlotCommand(o *PlotOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot STUDY_ID TYPE",
		Short: "Fetch a study plot",
		Long:  "Fetch the Plotly figure (data and layout) of a study plot rendered by the dashboard",

		Args:      cobra.ExactArgs(2),
		ValidArgs: plotTypes(),

		Annotations: map[string]string{
			commander.PrinterAllowedFormats: "json,yaml",
			commander.PrinterOutputFormat:   "json",
		},

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.plot(cmd.Context(), args)
		},
	}

	commander.SetPrinter(nil, &o.Printer, cmd)

	return cmd
}

func (o *PlotOptions) plot(ctx context.Context, args []string) error {
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}

	plotType := v1.PlotType(args[1])
	if !isPlotType(plotType) {
		return fmt.Errorf("unknown plot type \"%s\"", args[1])
	}

	p, err := o.StudiesAPI.GetPlot(ctx, studyID, plotType)
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(&p, o.Out)
}

// NewCompareCommand creates a new command for fetching a plot comparing studies
func NewCompareCommand(o *PlotOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare TYPE STUDY_ID...",
		Short: "Fetch a plot comparing studies",
		Long:  "Fetch the Plotly figure of a plot comparing multiple studies",

		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(v1.CompareStudiesPlotEDF)},

		Annotations: map[string]string{
			commander.PrinterAllowedFormats: "json,yaml",
			commander.PrinterOutputFormat:   "json",
		},

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.compare(cmd.Context(), args)
		},
	}

	commander.SetPrinter(nil, &o.Printer, cmd)

	return cmd
}

func (o *PlotOptions) compare(ctx context.Context, args []string) error {
	plotType := v1.CompareStudiesPlotType(args[0])
	if plotType != v1.CompareStudiesPlotEDF {
		return fmt.Errorf("unknown comparison plot type \"%s\"", args[0])
	}

	ids, err := parseIDs("study ID", args[1:])
	if err != nil {
		return err
	}

	p, err := o.StudiesAPI.GetCompareStudiesPlot(ctx, ids, plotType)
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(&p, o.Out)
}

// ImportancesOptions includes the configuration for computing parameter importances
type ImportancesOptions struct {
	Options

	Evaluator string
}

// NewImportancesCommand creates a new command for computing parameter importances
func NewImportancesCommand(o *ImportancesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importances STUDY_ID",
		Short: "Display parameter importances",
		Long:  "Display the importance of each parameter for every objective of a study",

		Args: cobra.ExactArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.importances(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&o.Evaluator, "evaluator", string(v1.EvaluatorPedAnova), "importance `evaluator` to run on the server")

	commander.SetFlagValues(cmd, "evaluator",
		string(v1.EvaluatorPedAnova),
		string(v1.EvaluatorFanova),
		string(v1.EvaluatorMeanDecreaseImpurity))
	commander.SetPrinter(&studiesMeta{}, &o.Printer, cmd)

	return cmd
}

func (o *ImportancesOptions) importances(ctx context.Context, arg string) error {
	studyID, err := parseID("study ID", arg)
	if err != nil {
		return err
	}

	evaluator := v1.ParamImportanceEvaluator(o.Evaluator)
	switch evaluator {
	case v1.EvaluatorPedAnova, v1.EvaluatorFanova, v1.EvaluatorMeanDecreaseImpurity:
	default:
		return fmt.Errorf("unknown importance evaluator \"%s\"", o.Evaluator)
	}

	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return err
	}

	pi, err := o.StudiesAPI.GetParamImportances(ctx, studyID, evaluator)
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(&ImportanceList{StudyID: studyID, MetricNames: study.MetricNames, ParamImportances: pi}, o.Out)
}

func plotTypes() []string {
	types := make([]string, 0, len(v1.PlotTypes))
	for _, t := range v1.PlotTypes {
		types = append(types, string(t))
	}
	return types
}

func isPlotType(t v1.PlotType) bool {
	for _, pt := range v1.PlotTypes {
		if t == pt {
			return true
		}
	}
	return false
}
