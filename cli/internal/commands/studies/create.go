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
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/pkg/api"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// StudyDefinition is the file format accepted when creating a study
type StudyDefinition struct {
	Name       string              `json:"study_name"`
	Directions []v1.StudyDirection `json:"directions"`
}

// CreateOptions includes the configuration for creating studies
type CreateOptions struct {
	Options

	Filename   string
	Directions []string

	overrideDirections bool
}

// NewCreateCommand creates a new command for creating studies
func NewCreateCommand(o *CreateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create study [NAME]",
		Short: "Create a new study",
		Long:  "Create a new study on the Optuna dashboard",

		Args: cobra.RangeArgs(1, 2),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			o.overrideDirections = o.Filename == "" || cmd.Flags().Changed("direction")
			return o.create(cmd.Context(), trimType(args, typeStudy))
		},
	}

	cmd.Flags().StringVarP(&o.Filename, "filename", "f", o.Filename, "file that contains the study definition")
	cmd.Flags().StringSliceVar(&o.Directions, "direction", []string{string(v1.StudyDirectionMinimize)}, "optimization `direction` of each objective")

	_ = cmd.MarkFlagFilename("filename", "yml", "yaml", "json")
	commander.SetFlagValues(cmd, "direction", string(v1.StudyDirectionMinimize), string(v1.StudyDirectionMaximize))

	o.Printer = &verbPrinter{verb: "created"}

	return cmd
}

func (o *CreateOptions) create(ctx context.Context, args []string) error {
	def := StudyDefinition{}
	if o.Filename != "" {
		r, err := o.IOStreams.OpenFile(o.Filename)
		if err != nil {
			return err
		}
		if err := commander.NewResourceReader().ReadInto(r, &def); err != nil {
			return err
		}
	}

	// Command line values take precedence over the file
	if len(args) > 0 {
		def.Name = args[0]
	}
	if len(def.Directions) == 0 || o.overrideDirections {
		def.Directions = nil
		for _, d := range o.Directions {
			def.Directions = append(def.Directions, v1.StudyDirection(strings.ToLower(d)))
		}
	}

	if def.Name == "" {
		return fmt.Errorf("a study name is required")
	}
	for _, d := range def.Directions {
		if d != v1.StudyDirectionMinimize && d != v1.StudyDirectionMaximize {
			return fmt.Errorf("invalid study direction \"%s\"", d)
		}
	}

	s, err := o.StudiesAPI.CreateNewStudy(ctx, def.Name, def.Directions)
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(&s, o.Out)
}

// RenameOptions includes the configuration for renaming studies
type RenameOptions struct {
	Options
}

// NewRenameCommand creates a new command for renaming studies
func NewRenameCommand(o *RenameOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename study ID NAME",
		Short: "Rename a study",
		Long:  "Rename a study; the trials of the study are copied to a new study with the supplied name",

		Args: cobra.RangeArgs(2, 3),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.rename(cmd.Context(), trimType(args, typeStudy))
		},
	}

	o.Printer = &verbPrinter{verb: "renamed"}

	return cmd
}

func (o *RenameOptions) rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("a study ID and new name are required")
	}
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}

	s, err := o.StudiesAPI.RenameStudy(ctx, studyID, args[1])
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(&s, o.Out)
}

// DeleteOptions includes the configuration for deleting studies
type DeleteOptions struct {
	Options

	// RemoveArtifacts also deletes the artifacts associated with the study
	RemoveArtifacts bool
	// IgnoreNotFound treats missing resources as successful deletes
	IgnoreNotFound bool
}

// NewDeleteCommand creates a new deletion command
func NewDeleteCommand(o *DeleteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete study ID...",
		Short: "Delete studies",
		Long:  "Delete studies from the Optuna dashboard",

		Args: cobra.MinimumNArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.delete(cmd.Context(), trimType(args, typeStudy))
		},
	}

	cmd.Flags().BoolVar(&o.RemoveArtifacts, "remove-artifacts", false, "also delete the artifacts of the study")
	cmd.Flags().BoolVar(&o.IgnoreNotFound, "ignore-not-found", false, "treat missing studies as a successful delete")

	o.Printer = &verbPrinter{verb: "deleted"}

	return cmd
}

func (o *DeleteOptions) delete(ctx context.Context, args []string) error {
	ids, err := parseIDs("study ID", args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("a study ID is required for delete")
	}

	summaries, err := o.StudiesAPI.GetStudySummaries(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		s := v1.StudySummary{StudyID: id}
		for i := range summaries {
			if summaries[i].StudyID == id {
				s = summaries[i]
			}
		}

		if err := o.StudiesAPI.DeleteStudy(ctx, id, o.RemoveArtifacts); err != nil {
			if o.IgnoreNotFound && api.IsNotFound(err) {
				continue
			}
			return err
		}

		if err := o.Printer.PrintObj(&s, o.Out); err != nil {
			return err
		}
	}
	return nil
}
