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
	"time"
)

// StudyDirection is the optimization direction of a single objective.
type StudyDirection string

const (
	StudyDirectionMinimize StudyDirection = "minimize"
	StudyDirectionMaximize StudyDirection = "maximize"
)

// FeedbackOutputType indicates where human feedback on a preferential study is recorded.
type FeedbackOutputType string

const (
	FeedbackOutputNote     FeedbackOutputType = "note"
	FeedbackOutputArtifact FeedbackOutputType = "artifact"
)

// FeedbackMode is how a preference was expressed.
type FeedbackMode string

const (
	FeedbackModeChooseWorst FeedbackMode = "ChooseWorst"
)

// PlotType enumerates the server rendered plots of a single study.
type PlotType string

const (
	PlotHistory            PlotType = "history"
	PlotSlice              PlotType = "slice"
	PlotContour            PlotType = "contour"
	PlotParallelCoordinate PlotType = "parallel_coordinate"
	PlotParamImportances   PlotType = "param_importances"
	PlotEDF                PlotType = "edf"
	PlotTimeline           PlotType = "timeline"
	PlotRank               PlotType = "rank"
	PlotParetoFront        PlotType = "pareto_front"
	PlotIntermediateValues PlotType = "intermediate_values"
)

// PlotTypes lists every supported single study plot.
var PlotTypes = []PlotType{
	PlotHistory, PlotSlice, PlotContour, PlotParallelCoordinate, PlotParamImportances,
	PlotEDF, PlotTimeline, PlotRank, PlotParetoFront, PlotIntermediateValues,
}

// CompareStudiesPlotType enumerates the plots comparing multiple studies.
type CompareStudiesPlotType string

const (
	CompareStudiesPlotEDF CompareStudiesPlotType = "edf"
)

// ParamImportanceEvaluator selects the algorithm used to compute parameter importances.
type ParamImportanceEvaluator string

const (
	EvaluatorPedAnova             ParamImportanceEvaluator = "ped_anova"
	EvaluatorFanova               ParamImportanceEvaluator = "fanova"
	EvaluatorMeanDecreaseImpurity ParamImportanceEvaluator = "mean_decrease_impurity"
)

// StudySummary is the brief description of a study used in study listings.
type StudySummary struct {
	StudyID        int              `json:"study_id"`
	StudyName      string           `json:"study_name"`
	Directions     []StudyDirection `json:"directions"`
	UserAttrs      Attributes       `json:"user_attrs"`
	IsPreferential bool             `json:"is_preferential"`
	DatetimeStart  *time.Time       `json:"datetime_start,omitempty"`
}

// StudyDetail is a study along with its trials and the information derived from them.
type StudyDetail struct {
	ID                      int                      `json:"id"`
	Name                    string                   `json:"name"`
	DatetimeStart           *time.Time               `json:"datetime_start,omitempty"`
	Directions              []StudyDirection         `json:"directions"`
	UserAttrs               Attributes               `json:"user_attrs"`
	Trials                  []Trial                  `json:"trials"`
	BestTrials              []Trial                  `json:"best_trials"`
	UnionSearchSpace        []SearchSpaceItem        `json:"union_search_space"`
	IntersectionSearchSpace []SearchSpaceItem        `json:"intersection_search_space"`
	UnionUserAttrs          []AttributeSpec          `json:"union_user_attrs"`
	HasIntermediateValues   bool                     `json:"has_intermediate_values"`
	Note                    Note                     `json:"note"`
	MetricNames             []string                 `json:"metric_names"`
	FormWidgets             *FormWidgets             `json:"form_widgets,omitempty"`
	IsPreferential          bool                     `json:"is_preferential"`
	FeedbackComponentType   FeedbackComponentType    `json:"feedback_component_type"`
	Preferences             [][2]int                 `json:"preferences"`
	PreferenceHistory       []PreferenceHistoryEntry `json:"preference_history"`
	PlotlyGraphObjects      []PlotlyGraphObject      `json:"plotly_graph_objects"`
	Artifacts               []Artifact               `json:"artifacts"`
	SkippedTrialNumbers     []int                    `json:"skipped_trial_numbers"`
}

// Summary returns the summary of the study.
func (s *StudyDetail) Summary() StudySummary {
	return StudySummary{
		StudyID:        s.ID,
		StudyName:      s.Name,
		Directions:     cloneSlice(s.Directions),
		UserAttrs:      s.UserAttrs.DeepCopy(),
		IsPreferential: s.IsPreferential,
		DatetimeStart:  cloneTime(s.DatetimeStart),
	}
}

// Note is free form text with a version used to detect concurrent edits.
type Note struct {
	Version int    `json:"version"`
	Body    string `json:"body"`
}

// SearchSpaceItem is a parameter name and the distribution it was sampled from.
type SearchSpaceItem struct {
	Name         string       `json:"name"`
	Distribution Distribution `json:"distribution"`
}

// Distribution describes the range of values of a parameter.
type Distribution struct {
	Type    string              `json:"type"`
	Low     *float64            `json:"low,omitempty"`
	High    *float64            `json:"high,omitempty"`
	Step    *float64            `json:"step,omitempty"`
	Log     bool                `json:"log,omitempty"`
	Choices []CategoricalChoice `json:"choices,omitempty"`
}

// CategoricalChoice is one of the values of a categorical distribution.
type CategoricalChoice struct {
	PyType string `json:"pytype"`
	Value  string `json:"value"`
}

// AttributeSpec describes a user attribute key seen on the trials of a study.
type AttributeSpec struct {
	Key      string `json:"key"`
	Sortable bool   `json:"sortable"`
}

// FeedbackComponentType describes how feedback on preferential studies is collected.
type FeedbackComponentType struct {
	OutputType  FeedbackOutputType `json:"output_type"`
	ArtifactKey string             `json:"artifact_key,omitempty"`
}

// FormWidgets describe the form used to tell the results of a human-in-the-loop trial.
type FormWidgets struct {
	OutputType string       `json:"output_type"`
	Widgets    []FormWidget `json:"widgets"`
}

// FormWidget is a single input of a trial form. Which fields are set depends on the type.
type FormWidget struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Key         string    `json:"key,omitempty"`
	UserAttrKey string    `json:"user_attr_key,omitempty"`
	Optional    bool      `json:"optional,omitempty"`
	Choices     []string  `json:"choices,omitempty"`
	Values      []float64 `json:"values,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Step        *float64  `json:"step,omitempty"`
	Labels      []Label   `json:"labels,omitempty"`
}

// Label annotates a slider value.
type Label struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// PlotlyGraphObject is a pre-rendered Plotly figure attached to a study.
type PlotlyGraphObject struct {
	ID          string `json:"id"`
	GraphObject string `json:"graph_object"`
}

// Artifact is the metadata of a file attached to a study or trial.
type Artifact struct {
	ArtifactID string `json:"artifact_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mimetype"`
	Encoding   string `json:"encoding"`
}

// PreferenceHistoryEntry records one human comparison of candidate trials.
type PreferenceHistoryEntry struct {
	ID           string       `json:"id"`
	Candidates   []int        `json:"candidates"`
	Clicked      int          `json:"clicked"`
	FeedbackMode FeedbackMode `json:"feedback_mode"`
	Timestamp    time.Time    `json:"timestamp"`
	Preferences  [][2]int     `json:"preferences"`
	IsRemoved    bool         `json:"is_removed"`
}

// UploadArtifactResponse is the result of storing an artifact.
type UploadArtifactResponse struct {
	ArtifactID string     `json:"artifact_id"`
	Artifacts  []Artifact `json:"artifacts"`
}

// ParamImportance is the importance of a single parameter to an objective.
type ParamImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// APIMeta describes the optional capabilities of the server.
type APIMeta struct {
	ArtifactIsAvailable        bool                        `json:"artifact_is_available"`
	PlotlypyIsAvailable        bool                        `json:"plotlypy_is_available"`
	JupyterlabExtensionContext *JupyterlabExtensionContext `json:"jupyterlab_extension_context,omitempty"`
}

// JupyterlabExtensionContext is present when the dashboard is served from a JupyterLab extension.
type JupyterlabExtensionContext struct {
	BaseURL string `json:"base_url"`
}
