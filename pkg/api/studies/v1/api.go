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

package v1

import (
	"context"

	"github.com/google/uuid"
	"github.com/thestormforge/optunactl/pkg/api"
)

const (
	endpointMeta           = "/meta"
	endpointStudies        = "/studies"
	endpointTrials         = "/trials"
	endpointArtifacts      = "/artifacts"
	endpointCompareStudies = "/compare-studies"
)

const (
	ErrStudyNotFound     api.ErrorType = "study-not-found"
	ErrStudyInvalid      api.ErrorType = "study-invalid"
	ErrTrialNotFound     api.ErrorType = "trial-not-found"
	ErrTrialInvalid      api.ErrorType = "trial-invalid"
	ErrNoteConflict      api.ErrorType = "note-conflict"
	ErrArtifactNotFound  api.ErrorType = "artifact-not-found"
	ErrArtifactInvalid   api.ErrorType = "artifact-invalid"
	ErrPreferenceInvalid api.ErrorType = "preference-invalid"
)

// API is the dashboard's study and trial API.
type API interface {
	Meta(ctx context.Context) (APIMeta, error)

	GetStudySummaries(ctx context.Context) ([]StudySummary, error)
	// GetStudyDetail returns a study along with the trials numbered at or after the supplied offset.
	GetStudyDetail(ctx context.Context, studyID int, after int) (StudyDetail, error)
	CreateNewStudy(ctx context.Context, name string, directions []StudyDirection) (StudySummary, error)
	DeleteStudy(ctx context.Context, studyID int, removeArtifacts bool) error
	RenameStudy(ctx context.Context, studyID int, name string) (StudySummary, error)
	// SaveStudyNote replaces the study note; the note version must be one greater than the stored version.
	SaveStudyNote(ctx context.Context, studyID int, note Note) error
	SaveTrialNote(ctx context.Context, studyID, trialID int, note Note) error

	UploadTrialArtifact(ctx context.Context, studyID, trialID int, filename, dataURL string) (UploadArtifactResponse, error)
	UploadStudyArtifact(ctx context.Context, studyID int, filename, dataURL string) (UploadArtifactResponse, error)
	DeleteTrialArtifact(ctx context.Context, studyID, trialID int, artifactID string) error
	DeleteStudyArtifact(ctx context.Context, studyID int, artifactID string) error

	TellTrial(ctx context.Context, trialID int, state TrialState, values []float64) error
	SaveTrialUserAttrs(ctx context.Context, trialID int, attrs Attributes) error

	GetParamImportances(ctx context.Context, studyID int, evaluator ParamImportanceEvaluator) ([][]ParamImportance, error)

	ReportPreference(ctx context.Context, studyID int, candidates []int, clicked int) error
	SkipPreferentialTrial(ctx context.Context, studyID, trialID int) error
	RemovePreferentialHistory(ctx context.Context, studyID int, id uuid.UUID) error
	RestorePreferentialHistory(ctx context.Context, studyID int, id uuid.UUID) error
	ReportFeedbackComponent(ctx context.Context, studyID int, component FeedbackComponentType) error

	GetPlot(ctx context.Context, studyID int, plotType PlotType) (PlotResponse, error)
	GetCompareStudiesPlot(ctx context.Context, studyIDs []int, plotType CompareStudiesPlotType) (PlotResponse, error)
}
