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
package debug

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// Payload kinds accepted by the translate command
const (
	kindStudySummaries    = "study-summaries"
	kindStudyDetail       = "study-detail"
	kindRenameStudy       = "rename-study"
	kindTrial             = "trial"
	kindPreferenceHistory = "preference-history"
	kindUploadArtifact    = "upload-artifact"
)

// TranslateOptions configure a response translation session.
type TranslateOptions struct {
	// Printer is the resource printer used to render the translated value
	Printer commander.ResourcePrinter
	// IOStreams are used to access the standard process streams
	commander.IOStreams

	Filename string
	StudyID  int
}

// NewTranslateCommand creates a command which converts a raw dashboard response into the client model
func NewTranslateCommand(o *TranslateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate KIND",
		Short: "Translate a raw dashboard response",
		Long:  "Convert a JSON response captured from the dashboard into the values seen by optunactl",

		Args: cobra.ExactArgs(1),
		ValidArgs: []string{
			kindStudySummaries,
			kindStudyDetail,
			kindRenameStudy,
			kindTrial,
			kindPreferenceHistory,
			kindUploadArtifact,
		},

		Annotations: map[string]string{
			commander.PrinterAllowedFormats: "json,yaml",
			commander.PrinterOutputFormat:   "yaml",
		},

		PreRun: commander.StreamsPreRun(&o.IOStreams),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.translate(args[0])
		},
	}

	cmd.Flags().StringVarP(&o.Filename, "filename", "f", "-", "`file` containing the response body")
	cmd.Flags().IntVar(&o.StudyID, "study-id", 0, "study `id` used for study detail responses")

	_ = cmd.MarkFlagFilename("filename", "json")
	commander.SetPrinter(nil, &o.Printer, cmd)

	return cmd
}

func (o *TranslateOptions) translate(kind string) error {
	data, err := o.ReadFile(o.Filename)
	if err != nil {
		return err
	}

	obj, err := translate(strings.ToLower(kind), o.StudyID, data)
	if err != nil {
		return err
	}

	return o.Printer.PrintObj(obj, o.Out)
}

// translate decodes the wire payload of the supplied kind and runs it through the conversion
func translate(kind string, studyID int, data []byte) (interface{}, error) {
	switch kind {
	case kindStudySummaries:
		w := &v1.StudySummariesResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		summaries := make([]v1.StudySummary, 0, len(w.StudySummaries))
		for i := range w.StudySummaries {
			s, err := v1.ToStudySummary(&w.StudySummaries[i])
			if err != nil {
				return nil, fmt.Errorf("study_summaries[%d]: %w", i, err)
			}
			summaries = append(summaries, s)
		}
		return summaries, nil

	case kindStudyDetail:
		w := &v1.StudyDetailResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		return v1.ToStudyDetail(studyID, w)

	case kindRenameStudy:
		w := &v1.RenameStudyResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		return v1.ToRenamedStudySummary(w)

	case kindTrial:
		w := &v1.TrialResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		return v1.ToTrial(w)

	case kindPreferenceHistory:
		w := &v1.PreferenceHistoryResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		return v1.ToPreferenceHistoryEntry(w)

	case kindUploadArtifact:
		w := &v1.UploadArtifactAPIResponse{}
		if err := json.Unmarshal(data, w); err != nil {
			return nil, err
		}
		return v1.ToUploadArtifactResponse(w), nil

	default:
		return nil, fmt.Errorf("unknown response kind \"%s\"", kind)
	}
}
