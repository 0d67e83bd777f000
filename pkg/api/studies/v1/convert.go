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
	"fmt"

	"github.com/google/uuid"
)

// policy describes how a wire field becomes a domain field.
type policy string

const (
	// The value is copied; collections and maps are deep-copied.
	policyCopy policy = "copy"
	// Like copy, but an absent collection becomes an empty one.
	policyDefaultEmpty policy = "default-empty"
	// Each element is converted with its own table; an absent collection becomes an empty one.
	policyNested policy = "nested"
	// An absent value is replaced with a fixed default.
	policyDefault policy = "default"
	// An absent timestamp is nil, a malformed one fails the conversion.
	policyOptionalTimestamp policy = "optional-timestamp"
	// An absent or malformed timestamp fails the conversion.
	policyTimestamp policy = "timestamp"
	// A UUID is written in canonical form; values that are not UUIDs are kept as is.
	policyUUID policy = "uuid"
	// The value is supplied by the caller rather than the response.
	policyArgument policy = "argument"
)

// fieldMapping maps one wire key to one domain field. The domain field name is the Go field name.
type fieldMapping[W, D any] struct {
	Wire   string
	Domain string
	Policy policy
	apply  func(*W, *D) error
}

type mappingTable[W, D any] []fieldMapping[W, D]

func (t mappingTable[W, D]) convert(w *W, d *D) error {
	for _, m := range t {
		if m.apply == nil {
			continue
		}
		if err := m.apply(w, d); err != nil {
			return err
		}
	}
	return nil
}

var studySummaryFields = mappingTable[StudySummaryResponse, StudySummary]{
	{Wire: "study_id", Domain: "StudyID", Policy: policyCopy, apply: func(w *StudySummaryResponse, d *StudySummary) error {
		d.StudyID = w.StudyID
		return nil
	}},
	{Wire: "study_name", Domain: "StudyName", Policy: policyCopy, apply: func(w *StudySummaryResponse, d *StudySummary) error {
		d.StudyName = w.StudyName
		return nil
	}},
	{Wire: "directions", Domain: "Directions", Policy: policyDefaultEmpty, apply: func(w *StudySummaryResponse, d *StudySummary) error {
		d.Directions = cloneSlice(w.Directions)
		return nil
	}},
	{Wire: "user_attrs", Domain: "UserAttrs", Policy: policyDefaultEmpty, apply: func(w *StudySummaryResponse, d *StudySummary) error {
		d.UserAttrs = w.UserAttrs.DeepCopy()
		return nil
	}},
	{Wire: "is_preferential", Domain: "IsPreferential", Policy: policyCopy, apply: func(w *StudySummaryResponse, d *StudySummary) error {
		d.IsPreferential = w.IsPreferential
		return nil
	}},
	{Wire: "datetime_start", Domain: "DatetimeStart", Policy: policyOptionalTimestamp, apply: func(w *StudySummaryResponse, d *StudySummary) (err error) {
		d.DatetimeStart, err = parseOptionalTimestamp("datetime_start", w.DatetimeStart)
		return
	}},
}

var renamedStudySummaryFields = mappingTable[RenameStudyResponse, StudySummary]{
	{Wire: "study_id", Domain: "StudyID", Policy: policyCopy, apply: func(w *RenameStudyResponse, d *StudySummary) error {
		d.StudyID = w.StudyID
		return nil
	}},
	{Wire: "study_name", Domain: "StudyName", Policy: policyCopy, apply: func(w *RenameStudyResponse, d *StudySummary) error {
		d.StudyName = w.StudyName
		return nil
	}},
	{Wire: "directions", Domain: "Directions", Policy: policyDefaultEmpty, apply: func(w *RenameStudyResponse, d *StudySummary) error {
		d.Directions = cloneSlice(w.Directions)
		return nil
	}},
	{Wire: "user_attrs", Domain: "UserAttrs", Policy: policyDefaultEmpty, apply: func(w *RenameStudyResponse, d *StudySummary) error {
		d.UserAttrs = w.UserAttrs.DeepCopy()
		return nil
	}},
	// The rename endpoint misspells the key; the correct spelling wins if a server ever sends it
	{Wire: "is_prefential", Domain: "IsPreferential", Policy: policyCopy, apply: func(w *RenameStudyResponse, d *StudySummary) error {
		d.IsPreferential = w.IsPrefential
		if w.IsPreferential != nil {
			d.IsPreferential = *w.IsPreferential
		}
		return nil
	}},
	{Wire: "datetime_start", Domain: "DatetimeStart", Policy: policyOptionalTimestamp, apply: func(w *RenameStudyResponse, d *StudySummary) (err error) {
		d.DatetimeStart, err = parseOptionalTimestamp("datetime_start", w.DatetimeStart)
		return
	}},
}

var studyDetailFields = mappingTable[StudyDetailResponse, StudyDetail]{
	{Wire: "", Domain: "ID", Policy: policyArgument},
	{Wire: "name", Domain: "Name", Policy: policyCopy, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.Name = w.Name
		return nil
	}},
	{Wire: "datetime_start", Domain: "DatetimeStart", Policy: policyOptionalTimestamp, apply: func(w *StudyDetailResponse, d *StudyDetail) (err error) {
		d.DatetimeStart, err = parseOptionalTimestamp("datetime_start", w.DatetimeStart)
		return
	}},
	{Wire: "directions", Domain: "Directions", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.Directions = cloneSlice(w.Directions)
		return nil
	}},
	{Wire: "user_attrs", Domain: "UserAttrs", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.UserAttrs = w.UserAttrs.DeepCopy()
		return nil
	}},
	{Wire: "trials", Domain: "Trials", Policy: policyNested, apply: func(w *StudyDetailResponse, d *StudyDetail) (err error) {
		d.Trials, err = toTrials("trials", w.Trials)
		return
	}},
	{Wire: "best_trials", Domain: "BestTrials", Policy: policyNested, apply: func(w *StudyDetailResponse, d *StudyDetail) (err error) {
		d.BestTrials, err = toTrials("best_trials", w.BestTrials)
		return
	}},
	{Wire: "union_search_space", Domain: "UnionSearchSpace", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.UnionSearchSpace = mapSlice(w.UnionSearchSpace, cloneSearchSpaceItem)
		return nil
	}},
	{Wire: "intersection_search_space", Domain: "IntersectionSearchSpace", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.IntersectionSearchSpace = mapSlice(w.IntersectionSearchSpace, cloneSearchSpaceItem)
		return nil
	}},
	{Wire: "union_user_attrs", Domain: "UnionUserAttrs", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.UnionUserAttrs = cloneSlice(w.UnionUserAttrs)
		return nil
	}},
	{Wire: "has_intermediate_values", Domain: "HasIntermediateValues", Policy: policyCopy, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.HasIntermediateValues = w.HasIntermediateValues
		return nil
	}},
	{Wire: "note", Domain: "Note", Policy: policyCopy, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.Note = w.Note
		return nil
	}},
	{Wire: "objective_names", Domain: "MetricNames", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.MetricNames = cloneSlice(w.ObjectiveNames)
		return nil
	}},
	{Wire: "form_widgets", Domain: "FormWidgets", Policy: policyCopy, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.FormWidgets = cloneFormWidgets(w.FormWidgets)
		return nil
	}},
	{Wire: "is_preferential", Domain: "IsPreferential", Policy: policyCopy, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.IsPreferential = w.IsPreferential
		return nil
	}},
	{Wire: "feedback_component_type", Domain: "FeedbackComponentType", Policy: policyDefault, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.FeedbackComponentType = defaultFeedbackComponentType(w.FeedbackComponentType)
		return nil
	}},
	{Wire: "preferences", Domain: "Preferences", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.Preferences = cloneSlice(w.Preferences)
		return nil
	}},
	{Wire: "preference_history", Domain: "PreferenceHistory", Policy: policyNested, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.PreferenceHistory = make([]PreferenceHistoryEntry, len(w.PreferenceHistory))
		for i := range w.PreferenceHistory {
			e, err := ToPreferenceHistoryEntry(&w.PreferenceHistory[i])
			if err != nil {
				return within(fmt.Sprintf("preference_history[%d]", i), err)
			}
			d.PreferenceHistory[i] = e
		}
		return nil
	}},
	{Wire: "plotly_graph_objects", Domain: "PlotlyGraphObjects", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.PlotlyGraphObjects = cloneSlice(w.PlotlyGraphObjects)
		return nil
	}},
	{Wire: "artifacts", Domain: "Artifacts", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.Artifacts = cloneSlice(w.Artifacts)
		return nil
	}},
	{Wire: "skipped_trial_numbers", Domain: "SkippedTrialNumbers", Policy: policyDefaultEmpty, apply: func(w *StudyDetailResponse, d *StudyDetail) error {
		d.SkippedTrialNumbers = cloneSlice(w.SkippedTrialNumbers)
		return nil
	}},
}

var trialFields = mappingTable[TrialResponse, Trial]{
	{Wire: "trial_id", Domain: "TrialID", Policy: policyCopy, apply: func(w *TrialResponse, d *Trial) error {
		d.TrialID = w.TrialID
		return nil
	}},
	{Wire: "study_id", Domain: "StudyID", Policy: policyCopy, apply: func(w *TrialResponse, d *Trial) error {
		d.StudyID = w.StudyID
		return nil
	}},
	{Wire: "number", Domain: "Number", Policy: policyCopy, apply: func(w *TrialResponse, d *Trial) error {
		d.Number = w.Number
		return nil
	}},
	{Wire: "state", Domain: "State", Policy: policyCopy, apply: func(w *TrialResponse, d *Trial) error {
		d.State = w.State
		return nil
	}},
	{Wire: "values", Domain: "Values", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.Values = cloneSlice(w.Values)
		return nil
	}},
	{Wire: "intermediate_values", Domain: "IntermediateValues", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.IntermediateValues = cloneSlice(w.IntermediateValues)
		return nil
	}},
	{Wire: "datetime_start", Domain: "DatetimeStart", Policy: policyOptionalTimestamp, apply: func(w *TrialResponse, d *Trial) (err error) {
		d.DatetimeStart, err = parseOptionalTimestamp("datetime_start", w.DatetimeStart)
		return
	}},
	{Wire: "datetime_complete", Domain: "DatetimeComplete", Policy: policyOptionalTimestamp, apply: func(w *TrialResponse, d *Trial) (err error) {
		d.DatetimeComplete, err = parseOptionalTimestamp("datetime_complete", w.DatetimeComplete)
		return
	}},
	{Wire: "params", Domain: "Params", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.Params = mapSlice(w.Params, cloneTrialParam)
		return nil
	}},
	{Wire: "fixed_params", Domain: "FixedParams", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.FixedParams = cloneSlice(w.FixedParams)
		return nil
	}},
	{Wire: "user_attrs", Domain: "UserAttrs", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.UserAttrs = w.UserAttrs.DeepCopy()
		return nil
	}},
	{Wire: "note", Domain: "Note", Policy: policyCopy, apply: func(w *TrialResponse, d *Trial) error {
		d.Note = w.Note
		return nil
	}},
	{Wire: "artifacts", Domain: "Artifacts", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.Artifacts = cloneSlice(w.Artifacts)
		return nil
	}},
	{Wire: "constraints", Domain: "Constraints", Policy: policyDefaultEmpty, apply: func(w *TrialResponse, d *Trial) error {
		d.Constraints = cloneSlice(w.Constraints)
		return nil
	}},
}

var preferenceHistoryFields = mappingTable[PreferenceHistoryResponse, PreferenceHistoryEntry]{
	{Wire: "history.id", Domain: "ID", Policy: policyUUID, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.ID = w.History.ID
		if id, err := uuid.Parse(w.History.ID); err == nil {
			d.ID = id.String()
		}
		return nil
	}},
	{Wire: "history.candidates", Domain: "Candidates", Policy: policyDefaultEmpty, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.Candidates = cloneSlice(w.History.Candidates)
		return nil
	}},
	{Wire: "history.clicked", Domain: "Clicked", Policy: policyCopy, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.Clicked = w.History.Clicked
		return nil
	}},
	{Wire: "history.mode", Domain: "FeedbackMode", Policy: policyCopy, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.FeedbackMode = w.History.Mode
		return nil
	}},
	{Wire: "history.timestamp", Domain: "Timestamp", Policy: policyTimestamp, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) (err error) {
		d.Timestamp, err = ParseTimestamp("history.timestamp", w.History.Timestamp)
		return
	}},
	{Wire: "history.preferences", Domain: "Preferences", Policy: policyDefaultEmpty, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.Preferences = cloneSlice(w.History.Preferences)
		return nil
	}},
	{Wire: "is_removed", Domain: "IsRemoved", Policy: policyCopy, apply: func(w *PreferenceHistoryResponse, d *PreferenceHistoryEntry) error {
		d.IsRemoved = w.IsRemoved
		return nil
	}},
}

// ToStudySummary converts a study summary response.
func ToStudySummary(w *StudySummaryResponse) (StudySummary, error) {
	s := StudySummary{}
	if err := studySummaryFields.convert(w, &s); err != nil {
		return StudySummary{}, err
	}
	return s, nil
}

// ToRenamedStudySummary converts the response of the rename endpoint.
func ToRenamedStudySummary(w *RenameStudyResponse) (StudySummary, error) {
	s := StudySummary{}
	if err := renamedStudySummaryFields.convert(w, &s); err != nil {
		return StudySummary{}, err
	}
	return s, nil
}

// ToStudyDetail converts a study detail response. The response does not include the study
// identifier so it must be supplied.
func ToStudyDetail(studyID int, w *StudyDetailResponse) (StudyDetail, error) {
	s := StudyDetail{ID: studyID}
	if err := studyDetailFields.convert(w, &s); err != nil {
		return StudyDetail{}, err
	}
	return s, nil
}

// ToTrial converts a trial response.
func ToTrial(w *TrialResponse) (Trial, error) {
	t := Trial{}
	if err := trialFields.convert(w, &t); err != nil {
		return Trial{}, err
	}
	return t, nil
}

// ToPreferenceHistoryEntry converts a preference history response.
func ToPreferenceHistoryEntry(w *PreferenceHistoryResponse) (PreferenceHistoryEntry, error) {
	e := PreferenceHistoryEntry{}
	if err := preferenceHistoryFields.convert(w, &e); err != nil {
		return PreferenceHistoryEntry{}, err
	}
	return e, nil
}

// ToUploadArtifactResponse converts the response of an artifact upload.
func ToUploadArtifactResponse(w *UploadArtifactAPIResponse) UploadArtifactResponse {
	return UploadArtifactResponse{
		ArtifactID: w.ArtifactID,
		Artifacts:  cloneSlice(w.Artifacts),
	}
}

func toTrials(field string, ws []TrialResponse) ([]Trial, error) {
	ts := make([]Trial, len(ws))
	for i := range ws {
		t, err := ToTrial(&ws[i])
		if err != nil {
			return nil, within(fmt.Sprintf("%s[%d]", field, i), err)
		}
		ts[i] = t
	}
	return ts, nil
}
