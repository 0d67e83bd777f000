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
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/selection"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// GetOptions includes the configuration for getting dashboard objects
type GetOptions struct {
	Options

	SortBy   string
	Selector string
	All      bool
	Feasible bool
	Pareto   bool
}

// NewGetCommand creates a new get command
func NewGetCommand(o *GetOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get TYPE [ID...]",
		Short: "Display dashboard resources",
		Long: "Get studies, trials or preference history from the Optuna dashboard.\n\n" +
			"Trials and preference history are listed for a single study:\n" +
			"  get trials STUDY_ID [NUMBER...]\n" +
			"  get preference-history STUDY_ID",

		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: o.validArgs,

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.get(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&o.Selector, "selector", "l", o.Selector, "selector (user attribute `query`) to filter on")
	cmd.Flags().StringVar(&o.SortBy, "sort-by", o.SortBy, "sort list types using this JSONPath `expression`")
	cmd.Flags().BoolVarP(&o.All, "all", "A", false, "include removed preference history entries")
	cmd.Flags().BoolVar(&o.Feasible, "feasible", false, "only include trials satisfying their constraints")
	cmd.Flags().BoolVar(&o.Pareto, "pareto", false, "only include trials on the Pareto front")

	commander.SetPrinter(&studiesMeta{}, &o.Printer, cmd)

	return cmd
}

func (o *GetOptions) get(ctx context.Context, args []string) error {
	t, err := normalizeType(args[0])
	if err != nil {
		return err
	}

	switch t {
	case typeStudy:
		ids, err := parseIDs("study ID", args[1:])
		if err != nil {
			return err
		}
		return o.getStudies(ctx, ids)

	case typeTrial:
		if len(args) < 2 {
			return fmt.Errorf("a study ID is required to get trials")
		}
		studyID, err := parseID("study ID", args[1])
		if err != nil {
			return err
		}
		sel, err := selection.Parse(strings.Join(args[2:], ","))
		if err != nil {
			return err
		}
		return o.getTrials(ctx, studyID, sel)

	case typePreferenceHistory:
		if len(args) != 2 {
			return fmt.Errorf("a single study ID is required to get preference history")
		}
		studyID, err := parseID("study ID", args[1])
		if err != nil {
			return err
		}
		return o.getPreferenceHistory(ctx, studyID)
	}

	return fmt.Errorf("cannot get %s", t)
}

func (o *GetOptions) getStudies(ctx context.Context, ids []int) error {
	summaries, err := o.StudiesAPI.GetStudySummaries(ctx)
	if err != nil {
		return err
	}

	l := &StudyList{}
	if len(ids) == 0 {
		l.Studies = summaries
	} else {
		for _, id := range ids {
			found := false
			for i := range summaries {
				if summaries[i].StudyID == id {
					l.Studies = append(l.Studies, summaries[i])
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("study %d not found", id)
			}
		}
	}

	// If this was a request for a single object, just print it out (e.g. don't produce a JSON list for a single element)
	if len(ids) == 1 && len(l.Studies) == 1 {
		return o.Printer.PrintObj(&l.Studies[0], o.Out)
	}

	if err := o.filterAndSortStudies(l); err != nil {
		return err
	}

	return o.Printer.PrintObj(l, o.Out)
}

func (o *GetOptions) getTrials(ctx context.Context, studyID int, sel selection.Selection) error {
	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return err
	}

	if missing := sel.Missing(&study); len(missing) > 0 {
		return fmt.Errorf("trial %d not found in study \"%s\"", missing[0], study.Name)
	}

	// Narrow the trials down to the candidates before applying the explicit selection
	if o.Feasible || o.Pareto {
		study.Trials = selection.Candidates(&study, selection.Options{
			IncludeInfeasible: !o.Feasible,
			IncludeDominated:  !o.Pareto,
		})
	}

	l := &TrialList{Study: &study, Trials: sel.Trials(&study)}

	if sel.Len() == 1 && len(l.Trials) == 1 {
		return o.Printer.PrintObj(&l.Trials[0], o.Out)
	}

	if err := o.filterAndSortTrials(l); err != nil {
		return err
	}

	return o.Printer.PrintObj(l, o.Out)
}

func (o *GetOptions) getPreferenceHistory(ctx context.Context, studyID int) error {
	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return err
	}

	l := &PreferenceHistoryList{StudyID: study.ID}
	for i := range study.PreferenceHistory {
		if o.All || !study.PreferenceHistory[i].IsRemoved {
			l.Entries = append(l.Entries, study.PreferenceHistory[i])
		}
	}

	if o.SortBy != "" {
		sort.Slice(l.Entries, sortByField(o.SortBy, func(i int) interface{} {
			return map[string]interface{}{
				"id":        l.Entries[i].ID,
				"clicked":   int64(l.Entries[i].Clicked),
				"timestamp": l.Entries[i].Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			}
		}))
	}

	return o.Printer.PrintObj(l, o.Out)
}

func (o *GetOptions) filterAndSortStudies(l *StudyList) error {
	// Filter the study list using Kubernetes label selectors against the user attributes
	if sel, err := labels.Parse(o.Selector); err != nil {
		return err
	} else if !sel.Empty() {
		var filtered []v1.StudySummary
		for i := range l.Studies {
			if matchesSelector(sel, l.Studies[i].UserAttrs) {
				filtered = append(filtered, l.Studies[i])
			}
		}
		l.Studies = filtered
	}

	// If sorting was requested, sort using maps with all the sortable keys
	if o.SortBy != "" {
		sort.Slice(l.Studies, sortByField(o.SortBy, func(i int) interface{} { return sortableStudyData(&l.Studies[i]) }))
	}

	return nil
}

func (o *GetOptions) filterAndSortTrials(l *TrialList) error {
	if sel, err := labels.Parse(o.Selector); err != nil {
		return err
	} else if !sel.Empty() {
		var filtered []v1.Trial
		for i := range l.Trials {
			if matchesSelector(sel, l.Trials[i].UserAttrs) {
				filtered = append(filtered, l.Trials[i])
			}
		}
		l.Trials = filtered
	}

	if o.SortBy != "" {
		sort.Slice(l.Trials, sortByField(o.SortBy, func(i int) interface{} { return sortableTrialData(l.Study, &l.Trials[i]) }))
	}

	return nil
}
