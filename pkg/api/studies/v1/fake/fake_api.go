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

package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thestormforge/optunactl/pkg/api"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

var _ v1.API = &FakeAPI{}

// FakeAPI is an in-memory implementation of the studies API. Values are returned by JSON round trip
// so callers never share memory with the stored state.
type FakeAPI struct {
	mu       sync.Mutex
	studies  map[int]*v1.StudyDetail
	nextID   int
	nextTID  int
	Requests []string
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		studies: make(map[int]*v1.StudyDetail),
		nextID:  1,
		nextTID: 1,
	}
}

// AddStudy stores a study; trials are assigned identifiers if they do not have one.
func (f *FakeAPI) AddStudy(s v1.StudyDetail) v1.StudyDetail {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.ID == 0 {
		s.ID = f.nextID
	}
	if s.ID >= f.nextID {
		f.nextID = s.ID + 1
	}
	for i := range s.Trials {
		s.Trials[i].StudyID = s.ID
		if s.Trials[i].TrialID == 0 {
			s.Trials[i].TrialID = f.nextTID
		}
		if s.Trials[i].TrialID >= f.nextTID {
			f.nextTID = s.Trials[i].TrialID + 1
		}
	}

	stored := clone(s)
	f.studies[s.ID] = &stored
	return clone(stored)
}

func (f *FakeAPI) record(format string, args ...interface{}) {
	f.Requests = append(f.Requests, fmt.Sprintf(format, args...))
}

func (f *FakeAPI) study(id int) (*v1.StudyDetail, error) {
	s, ok := f.studies[id]
	if !ok {
		return nil, &api.Error{Type: v1.ErrStudyNotFound, Message: fmt.Sprintf("study %d not found", id)}
	}
	return s, nil
}

func (f *FakeAPI) trial(id int) (*v1.StudyDetail, *v1.Trial, error) {
	for _, s := range f.studies {
		for i := range s.Trials {
			if s.Trials[i].TrialID == id {
				return s, &s.Trials[i], nil
			}
		}
	}
	return nil, nil, &api.Error{Type: v1.ErrTrialNotFound, Message: fmt.Sprintf("trial %d not found", id)}
}

func (f *FakeAPI) Meta(context.Context) (v1.APIMeta, error) {
	return v1.APIMeta{ArtifactIsAvailable: true}, nil
}

func (f *FakeAPI) GetStudySummaries(context.Context) ([]v1.StudySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetStudySummaries")

	ids := make([]int, 0, len(f.studies))
	for id := range f.studies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	summaries := make([]v1.StudySummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, f.studies[id].Summary())
	}
	return summaries, nil
}

func (f *FakeAPI) GetStudyDetail(_ context.Context, studyID int, after int) (v1.StudyDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetStudyDetail %d %d", studyID, after)

	s, err := f.study(studyID)
	if err != nil {
		return v1.StudyDetail{}, err
	}
	d := clone(*s)
	trials := d.Trials[:0]
	for _, t := range d.Trials {
		if t.Number >= after {
			trials = append(trials, t)
		}
	}
	d.Trials = trials
	return d, nil
}

func (f *FakeAPI) CreateNewStudy(_ context.Context, name string, directions []v1.StudyDirection) (v1.StudySummary, error) {
	f.mu.Lock()
	f.record("CreateNewStudy %s", name)
	for _, s := range f.studies {
		if s.Name == name {
			f.mu.Unlock()
			return v1.StudySummary{}, &api.Error{Type: v1.ErrStudyInvalid, Message: fmt.Sprintf("study %q already exists", name)}
		}
	}
	f.mu.Unlock()

	now := time.Now().UTC()
	s := f.AddStudy(v1.StudyDetail{
		Name:          name,
		Directions:    directions,
		DatetimeStart: &now,
		UserAttrs:     v1.Attributes{},
		FeedbackComponentType: v1.FeedbackComponentType{
			OutputType: v1.FeedbackOutputNote,
		},
	})
	return s.Summary(), nil
}

func (f *FakeAPI) DeleteStudy(_ context.Context, studyID int, removeArtifacts bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteStudy %d %t", studyID, removeArtifacts)

	if _, err := f.study(studyID); err != nil {
		return err
	}
	delete(f.studies, studyID)
	return nil
}

func (f *FakeAPI) RenameStudy(_ context.Context, studyID int, name string) (v1.StudySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RenameStudy %d %s", studyID, name)

	s, err := f.study(studyID)
	if err != nil {
		return v1.StudySummary{}, err
	}
	s.Name = name
	return s.Summary(), nil
}

func (f *FakeAPI) SaveStudyNote(_ context.Context, studyID int, note v1.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SaveStudyNote %d %d", studyID, note.Version)

	s, err := f.study(studyID)
	if err != nil {
		return err
	}
	if note.Version != s.Note.Version+1 {
		return &api.Error{Type: v1.ErrNoteConflict, Message: "note version conflict"}
	}
	s.Note = note
	return nil
}

func (f *FakeAPI) SaveTrialNote(_ context.Context, studyID, trialID int, note v1.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SaveTrialNote %d %d %d", studyID, trialID, note.Version)

	s, t, err := f.trial(trialID)
	if err != nil {
		return err
	}
	if s.ID != studyID {
		return &api.Error{Type: v1.ErrTrialNotFound}
	}
	if note.Version != t.Note.Version+1 {
		return &api.Error{Type: v1.ErrNoteConflict, Message: "note version conflict"}
	}
	t.Note = note
	return nil
}

func (f *FakeAPI) UploadTrialArtifact(_ context.Context, studyID, trialID int, filename, dataURL string) (v1.UploadArtifactResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UploadTrialArtifact %d %d %s", studyID, trialID, filename)

	_, t, err := f.trial(trialID)
	if err != nil {
		return v1.UploadArtifactResponse{}, err
	}
	a, err := newArtifact(filename, dataURL)
	if err != nil {
		return v1.UploadArtifactResponse{}, err
	}
	t.Artifacts = append(t.Artifacts, a)
	return v1.UploadArtifactResponse{ArtifactID: a.ArtifactID, Artifacts: append([]v1.Artifact{}, t.Artifacts...)}, nil
}

func (f *FakeAPI) UploadStudyArtifact(_ context.Context, studyID int, filename, dataURL string) (v1.UploadArtifactResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UploadStudyArtifact %d %s", studyID, filename)

	s, err := f.study(studyID)
	if err != nil {
		return v1.UploadArtifactResponse{}, err
	}
	a, err := newArtifact(filename, dataURL)
	if err != nil {
		return v1.UploadArtifactResponse{}, err
	}
	s.Artifacts = append(s.Artifacts, a)
	return v1.UploadArtifactResponse{ArtifactID: a.ArtifactID, Artifacts: append([]v1.Artifact{}, s.Artifacts...)}, nil
}

func (f *FakeAPI) DeleteTrialArtifact(_ context.Context, studyID, trialID int, artifactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTrialArtifact %d %d %s", studyID, trialID, artifactID)

	_, t, err := f.trial(trialID)
	if err != nil {
		return err
	}
	var ok bool
	t.Artifacts, ok = removeArtifact(t.Artifacts, artifactID)
	if !ok {
		return &api.Error{Type: v1.ErrArtifactNotFound}
	}
	return nil
}

func (f *FakeAPI) DeleteStudyArtifact(_ context.Context, studyID int, artifactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteStudyArtifact %d %s", studyID, artifactID)

	s, err := f.study(studyID)
	if err != nil {
		return err
	}
	var ok bool
	s.Artifacts, ok = removeArtifact(s.Artifacts, artifactID)
	if !ok {
		return &api.Error{Type: v1.ErrArtifactNotFound}
	}
	return nil
}

func (f *FakeAPI) TellTrial(_ context.Context, trialID int, state v1.TrialState, values []float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TellTrial %d %s %v", trialID, state, values)

	_, t, err := f.trial(trialID)
	if err != nil {
		return err
	}
	if !state.IsFinished() || t.State.IsFinished() {
		return &api.Error{Type: v1.ErrTrialInvalid}
	}
	now := time.Now().UTC()
	t.State = state
	t.DatetimeComplete = &now
	t.Values = make([]numstr.NumberOrString, len(values))
	for i, v := range values {
		t.Values[i] = numstr.FromFloat64(v)
	}
	return nil
}

func (f *FakeAPI) SaveTrialUserAttrs(_ context.Context, trialID int, attrs v1.Attributes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SaveTrialUserAttrs %d", trialID)

	_, t, err := f.trial(trialID)
	if err != nil {
		return err
	}
	if t.UserAttrs == nil {
		t.UserAttrs = v1.Attributes{}
	}
	for k, v := range attrs.DeepCopy() {
		t.UserAttrs[k] = v
	}
	return nil
}

func (f *FakeAPI) GetParamImportances(_ context.Context, studyID int, evaluator v1.ParamImportanceEvaluator) ([][]v1.ParamImportance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetParamImportances %d %s", studyID, evaluator)

	s, err := f.study(studyID)
	if err != nil {
		return nil, err
	}

	// Spread the importance evenly over the search space
	result := make([][]v1.ParamImportance, len(s.Directions))
	for i := range result {
		result[i] = []v1.ParamImportance{}
		for _, p := range s.UnionSearchSpace {
			result[i] = append(result[i], v1.ParamImportance{Name: p.Name, Importance: 1 / float64(len(s.UnionSearchSpace))})
		}
	}
	return result, nil
}

func (f *FakeAPI) ReportPreference(_ context.Context, studyID int, candidates []int, clicked int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReportPreference %d %v %d", studyID, candidates, clicked)

	s, err := f.study(studyID)
	if err != nil {
		return err
	}

	entry := v1.PreferenceHistoryEntry{
		ID:           uuid.NewString(),
		Candidates:   append([]int{}, candidates...),
		Clicked:      clicked,
		FeedbackMode: v1.FeedbackModeChooseWorst,
		Timestamp:    time.Now().UTC(),
		Preferences:  [][2]int{},
	}
	for _, c := range candidates {
		if c != clicked {
			entry.Preferences = append(entry.Preferences, [2]int{c, clicked})
		}
	}
	s.PreferenceHistory = append(s.PreferenceHistory, entry)
	s.Preferences = append(s.Preferences, entry.Preferences...)
	return nil
}

func (f *FakeAPI) SkipPreferentialTrial(_ context.Context, studyID, trialID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SkipPreferentialTrial %d %d", studyID, trialID)

	s, t, err := f.trial(trialID)
	if err != nil {
		return err
	}
	s.SkippedTrialNumbers = append(s.SkippedTrialNumbers, t.Number)
	return nil
}

func (f *FakeAPI) RemovePreferentialHistory(_ context.Context, studyID int, id uuid.UUID) error {
	return f.setRemoved(studyID, id, true)
}

func (f *FakeAPI) RestorePreferentialHistory(_ context.Context, studyID int, id uuid.UUID) error {
	return f.setRemoved(studyID, id, false)
}

func (f *FakeAPI) setRemoved(studyID int, id uuid.UUID, removed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetPreferentialHistoryRemoved %d %s %t", studyID, id, removed)

	s, err := f.study(studyID)
	if err != nil {
		return err
	}
	for i := range s.PreferenceHistory {
		if s.PreferenceHistory[i].ID == id.String() {
			s.PreferenceHistory[i].IsRemoved = removed
			return nil
		}
	}
	return &api.Error{Type: api.ErrNotFound, Message: fmt.Sprintf("preference history %s not found", id)}
}

func (f *FakeAPI) ReportFeedbackComponent(_ context.Context, studyID int, component v1.FeedbackComponentType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReportFeedbackComponent %d %s", studyID, component.OutputType)

	s, err := f.study(studyID)
	if err != nil {
		return err
	}
	s.FeedbackComponentType = component
	return nil
}

func (f *FakeAPI) GetPlot(_ context.Context, studyID int, plotType v1.PlotType) (v1.PlotResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetPlot %d %s", studyID, plotType)

	if _, err := f.study(studyID); err != nil {
		return v1.PlotResponse{}, err
	}
	return plot(string(plotType)), nil
}

func (f *FakeAPI) GetCompareStudiesPlot(_ context.Context, studyIDs []int, plotType v1.CompareStudiesPlotType) (v1.PlotResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCompareStudiesPlot %v %s", studyIDs, plotType)

	for _, id := range studyIDs {
		if _, err := f.study(id); err != nil {
			return v1.PlotResponse{}, err
		}
	}
	return plot(string(plotType)), nil
}

func plot(title string) v1.PlotResponse {
	return v1.PlotResponse{
		Data:   json.RawMessage(`[]`),
		Layout: json.RawMessage(fmt.Sprintf(`{"title":{"text":%q}}`, title)),
	}
}

func newArtifact(filename, dataURL string) (v1.Artifact, error) {
	mediaType, _, err := v1.ParseDataURL(dataURL)
	if err != nil {
		return v1.Artifact{}, &api.Error{Type: v1.ErrArtifactInvalid, Message: err.Error()}
	}
	return v1.Artifact{ArtifactID: uuid.NewString(), Filename: filename, MimeType: mediaType}, nil
}

func removeArtifact(artifacts []v1.Artifact, id string) ([]v1.Artifact, bool) {
	for i := range artifacts {
		if artifacts[i].ArtifactID == id {
			return append(artifacts[:i], artifacts[i+1:]...), true
		}
	}
	return artifacts, false
}

func clone(s v1.StudyDetail) v1.StudyDetail {
	b, err := json.Marshal(&s)
	if err != nil {
		panic(err)
	}
	var c v1.StudyDetail
	if err := json.Unmarshal(b, &c); err != nil {
		panic(err)
	}
	return c
}
