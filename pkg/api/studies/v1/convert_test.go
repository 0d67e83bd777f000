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
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

func TestToStudyDetail_SkippedTrialNumbers(t *testing.T) {
	cases := []struct {
		desc     string
		payload  string
		expected []int
	}{
		{desc: "absent", payload: `{"name": "s"}`, expected: []int{}},
		{desc: "null", payload: `{"name": "s", "skipped_trial_numbers": null}`, expected: []int{}},
		{desc: "empty", payload: `{"name": "s", "skipped_trial_numbers": []}`, expected: []int{}},
		{desc: "present", payload: `{"name": "s", "skipped_trial_numbers": [3, 1]}`, expected: []int{3, 1}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			w := StudyDetailResponse{}
			require.NoError(t, json.Unmarshal([]byte(c.payload), &w))

			d, err := ToStudyDetail(1, &w)
			if assert.NoError(t, err) {
				assert.NotNil(t, d.SkippedTrialNumbers)
				assert.Equal(t, c.expected, d.SkippedTrialNumbers)
			}
		})
	}
}

func TestDatetimeStart(t *testing.T) {
	cases := []struct {
		desc  string
		value *string
	}{
		{desc: "absent"},
		{desc: "empty", value: strPtr("")},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			s, err := ToStudySummary(&StudySummaryResponse{DatetimeStart: c.value})
			if assert.NoError(t, err) {
				assert.Nil(t, s.DatetimeStart)
			}

			r, err := ToRenamedStudySummary(&RenameStudyResponse{DatetimeStart: c.value})
			if assert.NoError(t, err) {
				assert.Nil(t, r.DatetimeStart)
			}

			d, err := ToStudyDetail(1, &StudyDetailResponse{DatetimeStart: c.value})
			if assert.NoError(t, err) {
				assert.Nil(t, d.DatetimeStart)
			}

			tr, err := ToTrial(&TrialResponse{DatetimeStart: c.value, DatetimeComplete: c.value})
			if assert.NoError(t, err) {
				assert.Nil(t, tr.DatetimeStart)
				assert.Nil(t, tr.DatetimeComplete)
			}
		})
	}
}

func TestDatetimeStart_RoundTrip(t *testing.T) {
	for _, ts := range []string{
		"2024-01-01T00:00:00Z",
		"2023-06-15T12:34:56.789Z",
		"2023-06-15T12:34:56.123456Z",
		"2023-06-15T21:34:56+09:00",
	} {
		t.Run(ts, func(t *testing.T) {
			s, err := ToStudySummary(&StudySummaryResponse{DatetimeStart: &ts})
			require.NoError(t, err)
			require.NotNil(t, s.DatetimeStart)

			first := FormatTimestamp(*s.DatetimeStart)
			assert.Equal(t, ts, first)

			again, err := ToStudySummary(&StudySummaryResponse{DatetimeStart: &first})
			require.NoError(t, err)
			assert.Equal(t, first, FormatTimestamp(*again.DatetimeStart))
		})
	}
}

func TestToStudySummary(t *testing.T) {
	w := StudySummaryResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"study_id": 1,
		"study_name": "s",
		"directions": ["minimize"],
		"user_attrs": {},
		"is_preferential": false
	}`), &w))

	s, err := ToStudySummary(&w)
	require.NoError(t, err)
	assert.Equal(t, StudySummary{
		StudyID:        1,
		StudyName:      "s",
		Directions:     []StudyDirection{StudyDirectionMinimize},
		UserAttrs:      Attributes{},
		IsPreferential: false,
	}, s)
	assert.Nil(t, s.DatetimeStart)
}

func TestToRenamedStudySummary(t *testing.T) {
	w := RenameStudyResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"study_id": 2,
		"study_name": "s2",
		"directions": ["maximize"],
		"user_attrs": {},
		"is_prefential": true,
		"datetime_start": "2024-01-01T00:00:00Z"
	}`), &w))

	s, err := ToRenamedStudySummary(&w)
	require.NoError(t, err)
	assert.Equal(t, 2, s.StudyID)
	assert.Equal(t, "s2", s.StudyName)
	assert.Equal(t, []StudyDirection{StudyDirectionMaximize}, s.Directions)
	assert.True(t, s.IsPreferential)
	if assert.NotNil(t, s.DatetimeStart) {
		assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*s.DatetimeStart))
	}
}

func TestToRenamedStudySummary_Spelling(t *testing.T) {
	cases := []struct {
		desc     string
		payload  string
		expected bool
	}{
		{desc: "misspelled", payload: `{"is_prefential": true}`, expected: true},
		{desc: "correct spelling", payload: `{"is_preferential": true}`, expected: true},
		{desc: "correct spelling wins", payload: `{"is_prefential": true, "is_preferential": false}`, expected: false},
		{desc: "neither", payload: `{}`, expected: false},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			w := RenameStudyResponse{}
			require.NoError(t, json.Unmarshal([]byte(c.payload), &w))
			s, err := ToRenamedStudySummary(&w)
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, s.IsPreferential)
			}
		})
	}

	// The summary endpoint only knows the correct spelling
	w := StudySummaryResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{"is_prefential": true}`), &w))
	s, err := ToStudySummary(&w)
	require.NoError(t, err)
	assert.False(t, s.IsPreferential)
}

func TestConversionDoesNotAlias(t *testing.T) {
	w := StudyDetailResponse{}
	require.NoError(t, json.Unmarshal([]byte(studyDetailPayload), &w))
	original := StudyDetailResponse{}
	require.NoError(t, json.Unmarshal([]byte(studyDetailPayload), &original))

	d, err := ToStudyDetail(7, &w)
	require.NoError(t, err)

	d.Name = "changed"
	d.Directions[0] = StudyDirectionMaximize
	d.UserAttrs["owner"] = "someone else"
	d.UserAttrs["nested"].(map[string]interface{})["deep"] = "changed"
	d.UnionSearchSpace[0].Distribution.Choices[0].Value = "changed"
	*d.UnionSearchSpace[0].Distribution.Low = 99
	d.MetricNames[0] = "changed"
	d.FormWidgets.Widgets[0].Choices[0] = "changed"
	d.Preferences[0][0] = 99
	d.SkippedTrialNumbers[0] = 99
	d.PlotlyGraphObjects[0].GraphObject = "changed"
	d.Artifacts[0].Filename = "changed"
	d.Trials[0].Values[0] = numstr.FromInt64(99)
	d.Trials[0].UserAttrs["tag"] = "changed"
	d.Trials[0].Params[0].Distribution.Choices[0].Value = "changed"
	d.Trials[0].Constraints[0] = 99
	d.BestTrials[0].IntermediateValues[0].Step = 99
	d.PreferenceHistory[0].Candidates[0] = 99
	d.PreferenceHistory[0].Preferences[0][1] = 99

	assert.Equal(t, original, w)
}

func TestMalformedTimestamp(t *testing.T) {
	bad := "not-a-date"

	cases := []struct {
		desc    string
		convert func() error
		field   string
	}{
		{
			desc: "summary",
			convert: func() error {
				_, err := ToStudySummary(&StudySummaryResponse{DatetimeStart: &bad})
				return err
			},
			field: "datetime_start",
		},
		{
			desc: "rename",
			convert: func() error {
				_, err := ToRenamedStudySummary(&RenameStudyResponse{DatetimeStart: &bad})
				return err
			},
			field: "datetime_start",
		},
		{
			desc: "detail",
			convert: func() error {
				_, err := ToStudyDetail(1, &StudyDetailResponse{DatetimeStart: &bad})
				return err
			},
			field: "datetime_start",
		},
		{
			desc: "nested trial",
			convert: func() error {
				_, err := ToStudyDetail(1, &StudyDetailResponse{Trials: []TrialResponse{{}, {DatetimeComplete: &bad}}})
				return err
			},
			field: "trials[1].datetime_complete",
		},
		{
			desc: "nested best trial",
			convert: func() error {
				_, err := ToStudyDetail(1, &StudyDetailResponse{BestTrials: []TrialResponse{{DatetimeStart: &bad}}})
				return err
			},
			field: "best_trials[0].datetime_start",
		},
		{
			desc: "preference history",
			convert: func() error {
				_, err := ToStudyDetail(1, &StudyDetailResponse{
					PreferenceHistory: []PreferenceHistoryResponse{{History: PreferenceHistoryRecord{Timestamp: bad}}},
				})
				return err
			},
			field: "preference_history[0].history.timestamp",
		},
		{
			desc: "missing preference timestamp",
			convert: func() error {
				_, err := ToPreferenceHistoryEntry(&PreferenceHistoryResponse{})
				return err
			},
			field: "history.timestamp",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			err := c.convert()
			var terr *TimestampError
			if assert.True(t, errors.As(err, &terr), "expected a timestamp error, got %v", err) {
				assert.Equal(t, c.field, terr.Field)
			}
		})
	}

	// Failed conversions do not return partial values
	s, err := ToStudySummary(&StudySummaryResponse{StudyID: 1, DatetimeStart: &bad})
	assert.Error(t, err)
	assert.Equal(t, StudySummary{}, s)
}

func TestToStudyDetail_EmptyTrials(t *testing.T) {
	w := StudyDetailResponse{}
	require.NoError(t, json.Unmarshal([]byte(`{"name": "s", "trials": [], "best_trials": []}`), &w))

	d, err := ToStudyDetail(3, &w)
	require.NoError(t, err)
	assert.Equal(t, 3, d.ID)
	assert.NotNil(t, d.Trials)
	assert.Empty(t, d.Trials)
	assert.NotNil(t, d.BestTrials)
	assert.Empty(t, d.BestTrials)
}

func TestToStudyDetail(t *testing.T) {
	w := StudyDetailResponse{}
	require.NoError(t, json.Unmarshal([]byte(studyDetailPayload), &w))

	d, err := ToStudyDetail(7, &w)
	require.NoError(t, err)

	assert.Equal(t, 7, d.ID)
	assert.Equal(t, "example", d.Name)
	assert.Equal(t, []string{"loss"}, d.MetricNames)
	assert.Equal(t, FeedbackComponentType{OutputType: FeedbackOutputArtifact, ArtifactKey: "image"}, d.FeedbackComponentType)
	assert.Equal(t, [][2]int{{1, 0}}, d.Preferences)
	assert.Equal(t, Note{Version: 2, Body: "hello"}, d.Note)
	assert.True(t, d.HasIntermediateValues)
	assert.Equal(t, []AttributeSpec{{Key: "tag", Sortable: false}}, d.UnionUserAttrs)

	if assert.Len(t, d.Trials, 1) {
		tr := d.Trials[0]
		assert.Equal(t, TrialStateComplete, tr.State)
		assert.Equal(t, []numstr.NumberOrString{numstr.FromNumber("0.5")}, tr.Values)
		assert.Equal(t, 90*time.Second, tr.Duration())
		assert.Equal(t, Attributes{"tag": "a"}, tr.UserAttrs)
	}
	if assert.Len(t, d.BestTrials, 1) {
		assert.Equal(t, []numstr.NumberOrString{numstr.FromString(numstr.Inf)}, d.BestTrials[0].Values)
	}
	if assert.Len(t, d.PreferenceHistory, 1) {
		e := d.PreferenceHistory[0]
		assert.Equal(t, "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a", e.ID)
		assert.Equal(t, FeedbackModeChooseWorst, e.FeedbackMode)
		assert.Equal(t, 1, e.Clicked)
		assert.True(t, e.IsRemoved)
		assert.True(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Equal(e.Timestamp))
	}
}

func TestToStudyDetail_Defaults(t *testing.T) {
	d, err := ToStudyDetail(1, &StudyDetailResponse{})
	require.NoError(t, err)
	assert.Equal(t, FeedbackComponentType{OutputType: FeedbackOutputNote}, d.FeedbackComponentType)
	assert.Nil(t, d.FormWidgets)
	assert.NotNil(t, d.UserAttrs)
}

func TestToTrial_Values(t *testing.T) {
	cases := []struct {
		desc     string
		payload  string
		expected []numstr.NumberOrString
	}{
		{desc: "absent", payload: `{"state": "Running"}`, expected: []numstr.NumberOrString{}},
		{desc: "numbers", payload: `{"values": [1, 0.5]}`, expected: []numstr.NumberOrString{numstr.FromNumber("1"), numstr.FromNumber("0.5")}},
		{desc: "infinite", payload: `{"values": ["inf", "-inf"]}`, expected: []numstr.NumberOrString{numstr.FromString("inf"), numstr.FromString("-inf")}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			w := TrialResponse{}
			require.NoError(t, json.Unmarshal([]byte(c.payload), &w))
			tr, err := ToTrial(&w)
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, tr.Values)
			}
		})
	}
}

func TestToPreferenceHistoryEntry_ID(t *testing.T) {
	cases := []struct {
		desc     string
		id       string
		expected string
	}{
		{desc: "canonical", id: "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a", expected: "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a"},
		{desc: "upper case", id: "2B2F4A5E-8C4D-4D0B-9A47-6F6B5D2C1E3A", expected: "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a"},
		{desc: "hex", id: "2b2f4a5e8c4d4d0b9a476f6b5d2c1e3a", expected: "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a"},
		{desc: "not a uuid", id: "history-1", expected: "history-1"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			e, err := ToPreferenceHistoryEntry(&PreferenceHistoryResponse{
				History: PreferenceHistoryRecord{ID: c.id, Timestamp: "2024-01-01T00:00:00"},
			})
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, e.ID)
				assert.NotNil(t, e.Candidates)
				assert.NotNil(t, e.Preferences)
			}
		})
	}
}

// tableInfo is the table independent view of a mapping table entry.
type tableInfo struct {
	Wire, Domain string
	Policy       policy
}

func infoOf[W, D any](t mappingTable[W, D]) []tableInfo {
	var out []tableInfo
	for _, m := range t {
		out = append(out, tableInfo{Wire: m.Wire, Domain: m.Domain, Policy: m.Policy})
	}
	return out
}

func TestMappingTables(t *testing.T) {
	cases := []struct {
		desc    string
		wire    interface{}
		domain  interface{}
		entries []tableInfo
		empty   func() (interface{}, error)
		renames map[string]string
	}{
		{
			desc:    "study summary",
			wire:    StudySummaryResponse{},
			domain:  StudySummary{},
			entries: infoOf(studySummaryFields),
			empty: func() (interface{}, error) {
				return ToStudySummary(&StudySummaryResponse{})
			},
			renames: map[string]string{},
		},
		{
			desc:    "renamed study summary",
			wire:    RenameStudyResponse{},
			domain:  StudySummary{},
			entries: infoOf(renamedStudySummaryFields),
			empty: func() (interface{}, error) {
				return ToRenamedStudySummary(&RenameStudyResponse{})
			},
			renames: map[string]string{"is_prefential": "is_preferential"},
		},
		{
			desc:    "study detail",
			wire:    StudyDetailResponse{},
			domain:  StudyDetail{},
			entries: infoOf(studyDetailFields),
			empty: func() (interface{}, error) {
				return ToStudyDetail(0, &StudyDetailResponse{})
			},
			renames: map[string]string{"objective_names": "metric_names"},
		},
		{
			desc:    "trial",
			wire:    TrialResponse{},
			domain:  Trial{},
			entries: infoOf(trialFields),
			empty: func() (interface{}, error) {
				return ToTrial(&TrialResponse{})
			},
			renames: map[string]string{},
		},
		{
			desc:    "preference history",
			wire:    PreferenceHistoryResponse{},
			domain:  PreferenceHistoryEntry{},
			entries: infoOf(preferenceHistoryFields),
			empty: func() (interface{}, error) {
				return ToPreferenceHistoryEntry(&PreferenceHistoryResponse{History: PreferenceHistoryRecord{Timestamp: "2024-01-01"}})
			},
			renames: map[string]string{"history.mode": "feedback_mode"},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			domainType := reflect.TypeOf(c.domain)

			// Every domain field is produced by exactly one entry
			seen := map[string]int{}
			for _, e := range c.entries {
				seen[e.Domain]++
			}
			for i := 0; i < domainType.NumField(); i++ {
				assert.Equal(t, 1, seen[domainType.Field(i).Name], "domain field %s", domainType.Field(i).Name)
			}
			assert.Len(t, seen, domainType.NumField())

			// Every wire key exists on the wire type
			for _, e := range c.entries {
				if e.Policy == policyArgument {
					assert.Empty(t, e.Wire)
					continue
				}
				assert.True(t, hasJSONPath(reflect.TypeOf(c.wire), e.Wire), "wire key %s", e.Wire)
			}

			// Renames are exactly the entries whose wire key differs from the domain key
			actual := map[string]string{}
			for _, e := range c.entries {
				if e.Policy == policyArgument {
					continue
				}
				f, _ := domainType.FieldByName(e.Domain)
				key := strings.Split(f.Tag.Get("json"), ",")[0]
				wireKey := e.Wire[strings.LastIndex(e.Wire, ".")+1:]
				if wireKey != key {
					actual[e.Wire] = key
				}
			}
			assert.Equal(t, c.renames, actual)

			// Collections default to empty when absent from the wire
			v, err := c.empty()
			require.NoError(t, err)
			rv := reflect.ValueOf(v)
			for _, e := range c.entries {
				if e.Policy != policyDefaultEmpty && e.Policy != policyNested {
					continue
				}
				fv := rv.FieldByName(e.Domain)
				if assert.Contains(t, []reflect.Kind{reflect.Slice, reflect.Map}, fv.Kind(), e.Domain) {
					assert.False(t, fv.IsNil(), "%s must not be nil", e.Domain)
					assert.Equal(t, 0, fv.Len(), e.Domain)
				}
			}
		})
	}
}

func hasJSONPath(t reflect.Type, path string) bool {
	for _, key := range strings.Split(path, ".") {
		found := false
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if strings.Split(f.Tag.Get("json"), ",")[0] == key {
				t = f.Type
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func strPtr(s string) *string {
	return &s
}

const studyDetailPayload = `{
  "name": "example",
  "datetime_start": "2024-03-01T11:00:00.000000",
  "directions": ["minimize"],
  "user_attrs": [{"key": "owner", "value": "me"}, {"key": "nested", "value": {"deep": "value"}}],
  "trials": [
    {
      "trial_id": 10,
      "study_id": 7,
      "number": 0,
      "state": "Complete",
      "values": [0.5],
      "intermediate_values": [{"step": 0, "value": 0.7}, {"step": 1, "value": "inf"}],
      "datetime_start": "2024-03-01T11:00:00.000000",
      "datetime_complete": "2024-03-01T11:01:30.000000",
      "params": [{
        "name": "optimizer",
        "param_internal_value": 0,
        "param_external_value": "adam",
        "param_external_type": "str",
        "distribution": {"type": "CategoricalDistribution", "choices": [{"pytype": "str", "value": "adam"}]}
      }],
      "fixed_params": [],
      "user_attrs": [{"key": "tag", "value": "a"}],
      "note": {"version": 0, "body": ""},
      "artifacts": [],
      "constraints": [0.1]
    }
  ],
  "best_trials": [
    {
      "trial_id": 11,
      "study_id": 7,
      "number": 1,
      "state": "Complete",
      "values": ["inf"],
      "intermediate_values": [{"step": 0, "value": 1}],
      "params": [],
      "fixed_params": [],
      "user_attrs": [],
      "note": {"version": 0, "body": ""},
      "artifacts": [],
      "constraints": []
    }
  ],
  "union_search_space": [{"name": "optimizer", "distribution": {"type": "CategoricalDistribution", "low": 0, "choices": [{"pytype": "str", "value": "adam"}]}}],
  "intersection_search_space": [],
  "union_user_attrs": [{"key": "tag", "sortable": false}],
  "has_intermediate_values": true,
  "note": {"version": 2, "body": "hello"},
  "objective_names": ["loss"],
  "form_widgets": {"output_type": "objective", "widgets": [{"type": "choice", "description": "Good?", "choices": ["yes", "no"], "values": [1, 0]}]},
  "is_preferential": true,
  "feedback_component_type": {"output_type": "artifact", "artifact_key": "image"},
  "preferences": [[1, 0]],
  "preference_history": [
    {
      "history": {
        "id": "2b2f4a5e-8c4d-4d0b-9a47-6f6b5d2c1e3a",
        "candidates": [0, 1],
        "clicked": 1,
        "mode": "ChooseWorst",
        "timestamp": "2024-03-01T12:00:00",
        "preferences": [[1, 0]]
      },
      "is_removed": true
    }
  ],
  "plotly_graph_objects": [{"id": "custom", "graph_object": "{}"}],
  "artifacts": [{"artifact_id": "a1", "filename": "model.pt", "mimetype": "application/octet-stream", "encoding": ""}],
  "skipped_trial_numbers": [5]
}`
