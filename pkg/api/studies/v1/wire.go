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
	"encoding/json"

	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

// Wire representations of the server responses. Timestamps are kept as strings and optional fields
// as pointers or nil slices so that conversion can tell absent values apart.

type StudySummariesResponse struct {
	StudySummaries []StudySummaryResponse `json:"study_summaries"`
}

type StudySummaryResponse struct {
	StudyID        int              `json:"study_id"`
	StudyName      string           `json:"study_name"`
	Directions     []StudyDirection `json:"directions"`
	UserAttrs      Attributes       `json:"user_attrs"`
	IsPreferential bool             `json:"is_preferential"`
	DatetimeStart  *string          `json:"datetime_start,omitempty"`
}

type CreateNewStudyResponse struct {
	StudySummary StudySummaryResponse `json:"study_summary"`
}

// RenameStudyResponse is the study summary returned by the rename endpoint, which spells the
// preferential flag "is_prefential".
type RenameStudyResponse struct {
	StudyID        int              `json:"study_id"`
	StudyName      string           `json:"study_name"`
	Directions     []StudyDirection `json:"directions"`
	UserAttrs      Attributes       `json:"user_attrs"`
	IsPrefential   bool             `json:"is_prefential"`
	IsPreferential *bool            `json:"is_preferential,omitempty"`
	DatetimeStart  *string          `json:"datetime_start,omitempty"`
}

type StudyDetailResponse struct {
	Name                    string                      `json:"name"`
	DatetimeStart           *string                     `json:"datetime_start,omitempty"`
	Directions              []StudyDirection            `json:"directions"`
	UserAttrs               Attributes                  `json:"user_attrs"`
	Trials                  []TrialResponse             `json:"trials"`
	BestTrials              []TrialResponse             `json:"best_trials"`
	UnionSearchSpace        []SearchSpaceItem           `json:"union_search_space"`
	IntersectionSearchSpace []SearchSpaceItem           `json:"intersection_search_space"`
	UnionUserAttrs          []AttributeSpec             `json:"union_user_attrs"`
	HasIntermediateValues   bool                        `json:"has_intermediate_values"`
	Note                    Note                        `json:"note"`
	ObjectiveNames          []string                    `json:"objective_names,omitempty"`
	FormWidgets             *FormWidgets                `json:"form_widgets,omitempty"`
	IsPreferential          bool                        `json:"is_preferential"`
	FeedbackComponentType   *FeedbackComponentType      `json:"feedback_component_type,omitempty"`
	Preferences             [][2]int                    `json:"preferences,omitempty"`
	PreferenceHistory       []PreferenceHistoryResponse `json:"preference_history,omitempty"`
	PlotlyGraphObjects      []PlotlyGraphObject         `json:"plotly_graph_objects"`
	Artifacts               []Artifact                  `json:"artifacts"`
	SkippedTrialNumbers     []int                       `json:"skipped_trial_numbers,omitempty"`
}

type TrialResponse struct {
	TrialID            int                     `json:"trial_id"`
	StudyID            int                     `json:"study_id"`
	Number             int                     `json:"number"`
	State              TrialState              `json:"state"`
	Values             []numstr.NumberOrString `json:"values,omitempty"`
	IntermediateValues []IntermediateValue     `json:"intermediate_values"`
	DatetimeStart      *string                 `json:"datetime_start,omitempty"`
	DatetimeComplete   *string                 `json:"datetime_complete,omitempty"`
	Params             []TrialParam            `json:"params"`
	FixedParams        []FixedParam            `json:"fixed_params"`
	UserAttrs          Attributes              `json:"user_attrs"`
	Note               Note                    `json:"note"`
	Artifacts          []Artifact              `json:"artifacts"`
	Constraints        []float64               `json:"constraints"`
}

type PreferenceHistoryResponse struct {
	History   PreferenceHistoryRecord `json:"history"`
	IsRemoved bool                    `json:"is_removed"`
}

type PreferenceHistoryRecord struct {
	ID          string       `json:"id"`
	Candidates  []int        `json:"candidates"`
	Clicked     int          `json:"clicked"`
	Mode        FeedbackMode `json:"mode"`
	Timestamp   string       `json:"timestamp"`
	Preferences [][2]int     `json:"preferences"`
}

type UploadArtifactAPIResponse struct {
	ArtifactID string     `json:"artifact_id"`
	Artifacts  []Artifact `json:"artifacts"`
}

type ParamImportancesResponse struct {
	ParamImportances [][]ParamImportance `json:"param_importances"`
}

// PlotResponse is a Plotly figure rendered by the server.
type PlotResponse struct {
	Data   json.RawMessage `json:"data"`
	Layout json.RawMessage `json:"layout"`
}

// Request bodies

type CreateNewStudyRequest struct {
	StudyName  string           `json:"study_name"`
	Directions []StudyDirection `json:"directions"`
}

type DeleteStudyRequest struct {
	RemoveAssociatedArtifacts bool `json:"remove_associated_artifacts"`
}

type RenameStudyRequest struct {
	StudyName string `json:"study_name"`
}

type UploadArtifactRequest struct {
	File     string `json:"file"`
	Filename string `json:"filename"`
}

type TellTrialRequest struct {
	State  TrialState `json:"state"`
	Values []float64  `json:"values,omitempty"`
}

type SaveTrialUserAttrsRequest struct {
	UserAttrs Attributes `json:"user_attrs"`
}

type ReportPreferenceRequest struct {
	Candidates []int        `json:"candidates"`
	Clicked    int          `json:"clicked"`
	Mode       FeedbackMode `json:"mode"`
}
