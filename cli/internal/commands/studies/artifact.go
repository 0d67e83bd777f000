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
	"path/filepath"

	"github.com/spf13/cobra"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// ArtifactOptions includes the configuration for uploading and deleting artifacts
type ArtifactOptions struct {
	Options

	// TrialNumber targets the artifacts of a trial instead of the study, negative for the study
	TrialNumber int
	// MediaType overrides the detected media type of an upload
	MediaType string
	// Name overrides the file name of an upload
	Name string
}

// NewUploadCommand creates a new command for uploading artifacts
func NewUploadCommand(o *ArtifactOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload artifact STUDY_ID FILE",
		Short: "Upload an artifact",
		Long:  "Upload a file as an artifact of a study or one of its trials",

		Args: cobra.RangeArgs(2, 3),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.upload(cmd.Context(), trimType(args, typeArtifact))
		},
	}

	cmd.Flags().IntVar(&o.TrialNumber, "trial", -1, "attach the artifact to the trial with this `number`")
	cmd.Flags().StringVar(&o.MediaType, "media-type", "", "media `type` of the file, detected from the content when omitted")
	cmd.Flags().StringVar(&o.Name, "name", "", "file `name` stored with the artifact")

	o.Printer = &verbPrinter{verb: "uploaded"}

	return cmd
}

// NewDeleteArtifactCommand creates a new command for deleting artifacts
func NewDeleteArtifactCommand(o *ArtifactOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-artifact STUDY_ID ARTIFACT_ID...",
		Short: "Delete artifacts",
		Long:  "Delete artifacts from a study or one of its trials",

		Args: cobra.MinimumNArgs(2),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.deleteArtifacts(cmd.Context(), args)
		},
	}

	cmd.Flags().IntVar(&o.TrialNumber, "trial", -1, "delete from the trial with this `number`")

	o.Printer = &verbPrinter{verb: "deleted"}

	return cmd
}

func (o *ArtifactOptions) upload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("a study ID and file are required")
	}
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}

	meta, err := o.StudiesAPI.Meta(ctx)
	if err != nil {
		return err
	}
	if !meta.ArtifactIsAvailable {
		return fmt.Errorf("the dashboard does not have an artifact store configured")
	}

	data, err := o.IOStreams.ReadFile(args[1])
	if err != nil {
		return err
	}

	name := o.Name
	if name == "" {
		if args[1] == "-" {
			return fmt.Errorf("a name is required when uploading from standard input")
		}
		name = filepath.Base(args[1])
	}

	mediaType := o.MediaType
	if mediaType == "" {
		mediaType = v1.DetectMediaType(data)
	}
	dataURL := v1.NewDataURL(mediaType, data)

	var resp v1.UploadArtifactResponse
	if o.TrialNumber >= 0 {
		trial, err := o.trial(ctx, studyID)
		if err != nil {
			return err
		}
		resp, err = o.StudiesAPI.UploadTrialArtifact(ctx, studyID, trial.TrialID, name, dataURL)
		if err != nil {
			return err
		}
	} else {
		resp, err = o.StudiesAPI.UploadStudyArtifact(ctx, studyID, name, dataURL)
		if err != nil {
			return err
		}
	}

	return o.Printer.PrintObj(&v1.Artifact{ArtifactID: resp.ArtifactID, Filename: name, MimeType: mediaType}, o.Out)
}

func (o *ArtifactOptions) deleteArtifacts(ctx context.Context, args []string) error {
	studyID, err := parseID("study ID", args[0])
	if err != nil {
		return err
	}

	var trial *v1.Trial
	if o.TrialNumber >= 0 {
		if trial, err = o.trial(ctx, studyID); err != nil {
			return err
		}
	}

	for _, artifactID := range args[1:] {
		if trial != nil {
			err = o.StudiesAPI.DeleteTrialArtifact(ctx, studyID, trial.TrialID, artifactID)
		} else {
			err = o.StudiesAPI.DeleteStudyArtifact(ctx, studyID, artifactID)
		}
		if err != nil {
			return err
		}

		if err := o.Printer.PrintObj(&v1.Artifact{ArtifactID: artifactID}, o.Out); err != nil {
			return err
		}
	}

	return nil
}

// trial resolves the trial number option
func (o *ArtifactOptions) trial(ctx context.Context, studyID int) (*v1.Trial, error) {
	study, err := o.StudiesAPI.GetStudyDetail(ctx, studyID, o.TrialNumber)
	if err != nil {
		return nil, err
	}
	return findTrialByNumber(&study, o.TrialNumber)
}
