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

package mockserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

func TestServer_Handler(t *testing.T) {
	s := New()
	id := s.AddStudy(v1.StudyDetailResponse{
		Name:       "csv",
		Directions: []v1.StudyDirection{v1.StudyDirectionMinimize},
		Trials: []v1.TrialResponse{
			{Number: 0, State: v1.TrialStateComplete},
			{Number: 1, State: v1.TrialStateFail},
			{Number: 2, State: v1.TrialStateRunning},
		},
	})
	require.Equal(t, 1, id)

	var h http.Handler
	require.NotPanics(t, func() { h = s.Handler("/prefix") })

	cases := []struct {
		desc           string
		method         string
		target         string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			desc:           "csv",
			method:         http.MethodGet,
			target:         "/prefix/csv/1",
			expectedStatus: http.StatusOK,
			expectedBody:   "Number,State\n0,Complete\n1,Fail\n2,Running\n",
		},
		{
			desc:           "csv selection",
			method:         http.MethodGet,
			target:         "/prefix/csv/1?trial_ids=0,2",
			expectedStatus: http.StatusOK,
			expectedBody:   "Number,State\n0,Complete\n2,Running\n",
		},
		{
			desc:           "csv bad selection",
			method:         http.MethodGet,
			target:         "/prefix/csv/1?trial_ids=a",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"reason":"trial_ids must be integers"}`,
		},
		{
			desc:           "missing prefix",
			method:         http.MethodGet,
			target:         "/api/meta",
			expectedStatus: http.StatusNotFound,
		},
		{
			desc:           "unknown study",
			method:         http.MethodGet,
			target:         "/prefix/api/studies/7",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"reason":"study_id=7 is not found"}`,
		},
		{
			desc:           "bad study id",
			method:         http.MethodGet,
			target:         "/prefix/api/studies/x",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"reason":"study_id must be an integer"}`,
		},
		{
			desc:           "unknown resource",
			method:         http.MethodGet,
			target:         "/prefix/api/studies/1/nothing",
			expectedStatus: http.StatusNotFound,
		},
		{
			desc:           "tell running",
			method:         http.MethodPost,
			target:         "/prefix/api/trials/3/tell",
			body:           `{"state": "Running"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			desc:           "tell values",
			method:         http.MethodPost,
			target:         "/prefix/api/trials/3/tell",
			body:           `{"state": "Complete", "values": [1, 2]}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"reason":"expected 1 values"}`,
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			req := httptest.NewRequest(c.method, c.target, strings.NewReader(c.body))
			if c.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, c.expectedStatus, rec.Code)
			if c.expectedBody != "" {
				assert.Equal(t, c.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestServer_AddStudy(t *testing.T) {
	s := New()
	first := s.AddStudy(v1.StudyDetailResponse{Trials: []v1.TrialResponse{{Number: 0}, {Number: 1, TrialID: 10}}})
	second := s.AddStudy(v1.StudyDetailResponse{Trials: []v1.TrialResponse{{Number: 0}}})

	st, ok := s.Study(first)
	require.True(t, ok)
	assert.Equal(t, 1, st.Trials[0].TrialID)
	assert.Equal(t, 10, st.Trials[1].TrialID)
	assert.Equal(t, first, st.Trials[1].StudyID)

	st, ok = s.Study(second)
	require.True(t, ok)
	assert.Equal(t, 11, st.Trials[0].TrialID)

	_, ok = s.Study(42)
	assert.False(t, ok)
	assert.Equal(t, 0, s.DetailCalls())
}
