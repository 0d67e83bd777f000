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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// PreferenceOptions includes the configuration for preferential optimization commands
type PreferenceOptions struct {
	Options

	Candidates  []int
	Worst       int
	OutputType  string
	ArtifactKey string
}

// NewPreferCommand creates a new command for reporting a preference
func NewPreferCommand(o *PreferenceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefer STUDY_ID",
		Short: "Report the worst of a set of trials",
		Long:  "Report which of the candidate trials of a preferential study is the worst",

		Args: cobra.ExactArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.prefer(cmd.Context(), args[0])
		},
	}

	cmd.Flags().IntSliceVar(&o.Candidates, "candidates", nil, "trial `numbers` shown to the user")
	cmd.Flags().IntVar(&o.Worst, "worst", -1, "trial `number` chosen as the worst candidate")

	_ = cmd.MarkFlagRequired("candidates")
	_ = cmd.MarkFlagRequired("worst")

	return cmd
}

func (o *PreferenceOptions) prefer(ctx context.Context, arg string) error {
	studyID, err := parseID("study ID", arg)
	if err != nil {
		return err
	}

	if len(o.Candidates) < 2 {
		return fmt.Errorf("at least two candidates are required")
	}
	found := false
	for _, c := range o.Candidates {
		found = found || c == o.Worst
	}
	if !found {
		return fmt.Errorf("the worst trial %d must be one of the candidates", o.Worst)
	}

	if err := o.StudiesAPI.ReportPreference(ctx, studyID, o.Candidates, o.Worst); err != nil {
		return err
	}

	_, err = fmt.Fprintf(o.Out, "preference reported for study %d\n", studyID)
	return err
}

// NewSkipCommand creates a new command for skipping a trial in preferential optimization
func NewSkipCommand(o *PreferenceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skip STUDY_ID NUMBER",
		Short: "Skip a trial of a preferential study",
		Long:  "Skip a trial so it is no longer offered as a candidate for comparison",

		Args: cobra.ExactArgs(2),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.skip(cmd.Context(), args)
		},
	}

	o.Printer = &verbPrinter{verb: "skipped"}

	return cmd
}

func (o *PreferenceOptions) skip(ctx context.Context, args []string) error {
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}
	number, err := parseID("trial number", args[1])
	if err != nil {
		return err
	}

	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, number)
	if err != nil {
		return err
	}
	trial, err := findTrialByNumber(&study, number)
	if err != nil {
		return err
	}

	if err := o.StudiesAPI.SkipPreferentialTrial(ctx, studyID, trial.TrialID); err != nil {
		return err
	}

	return o.Printer.PrintObj(trial, o.Out)
}

// NewHistoryCommand creates a new command for removing and restoring preference history entries
func NewHistoryCommand(o *PreferenceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Remove or restore preference history",
		Long:  "Remove or restore the entries of a preferential study history",
	}

	remove := &cobra.Command{
		Use:   "remove STUDY_ID HISTORY_ID",
		Short: "Remove a preference history entry",
		Args:  cobra.ExactArgs(2),

		PreRunE: func(cmd *cobra.Command, args []string) error {
			o.Printer = &verbPrinter{verb: "removed"}
			return o.setStudiesAPI(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.history(cmd.Context(), args, o.StudiesAPI.RemovePreferentialHistory)
		},
	}

	restore := &cobra.Command{
		Use:   "restore STUDY_ID HISTORY_ID",
		Short: "Restore a removed preference history entry",
		Args:  cobra.ExactArgs(2),

		PreRunE: func(cmd *cobra.Command, args []string) error {
			o.Printer = &verbPrinter{verb: "restored"}
			return o.setStudiesAPI(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.history(cmd.Context(), args, o.StudiesAPI.RestorePreferentialHistory)
		},
	}

	cmd.AddCommand(remove, restore)

	return cmd
}

func (o *PreferenceOptions) history(ctx context.Context, args []string, update func(context.Context, int, uuid.UUID) error) error {
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}
	id, err := uuid.Parse(args[1])
	if err != nil {
		return fmt.Errorf("invalid preference history ID \"%s\": %w", args[1], err)
	}

	if err := update(ctx, studyID, id); err != nil {
		return err
	}

	return o.Printer.PrintObj(&v1.PreferenceHistoryEntry{ID: id.String()}, o.Out)
}

// NewFeedbackComponentCommand creates a new command for configuring the preferential feedback component
func NewFeedbackComponentCommand(o *PreferenceOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback-component STUDY_ID",
		Short: "Configure how trials are presented for comparison",
		Long:  "Configure whether preferential trials are presented using their note or an artifact",

		Args: cobra.ExactArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.feedbackComponent(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&o.OutputType, "output-type", string(v1.FeedbackOutputNote), "the `type` of trial output to compare")
	cmd.Flags().StringVar(&o.ArtifactKey, "artifact-key", "", "user attribute `key` holding the artifact ID to compare")

	commander.SetFlagValues(cmd, "output-type", string(v1.FeedbackOutputNote), string(v1.FeedbackOutputArtifact))

	return cmd
}

func (o *PreferenceOptions) feedbackComponent(ctx context.Context, arg string) error {
	studyID, err := parseID("study ID", arg)
	if err != nil {
		return err
	}

	c := v1.FeedbackComponentType{OutputType: v1.FeedbackOutputType(o.OutputType)}
	switch c.OutputType {
	case v1.FeedbackOutputNote:
		if o.ArtifactKey != "" {
			return fmt.Errorf("an artifact key can only be used with the artifact output type")
		}
	case v1.FeedbackOutputArtifact:
		if o.ArtifactKey == "" {
			return fmt.Errorf("an artifact key is required for the artifact output type")
		}
		c.ArtifactKey = o.ArtifactKey
	default:
		return fmt.Errorf("invalid output type \"%s\"", o.OutputType)
	}

	if err := o.StudiesAPI.ReportFeedbackComponent(ctx, studyID, c); err != nil {
		return err
	}

	_, err = fmt.Fprintf(o.Out, "feedback component for study %d set to %s\n", studyID, c.OutputType)
	return err
}
