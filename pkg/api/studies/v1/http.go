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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/thestormforge/optunactl/pkg/api"
	"golang.org/x/sync/singleflight"
)

// NewAPI returns a new API implementation for the specified client.
func NewAPI(c api.Client) API {
	return &httpAPI{client: c}
}

type httpAPI struct {
	client api.Client
	detail singleflight.Group
}

var _ API = &httpAPI{}

func (h *httpAPI) Meta(ctx context.Context) (APIMeta, error) {
	u := h.client.URL(endpointMeta).String()
	m := APIMeta{}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return m, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return m, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		err = json.Unmarshal(body, &m)
		return m, err
	default:
		return m, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) GetStudySummaries(ctx context.Context) ([]StudySummary, error) {
	u := h.client.URL(endpointStudies).String()

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		lst := StudySummariesResponse{}
		if err := json.Unmarshal(body, &lst); err != nil {
			return nil, err
		}
		summaries := make([]StudySummary, len(lst.StudySummaries))
		for i := range lst.StudySummaries {
			summaries[i], err = ToStudySummary(&lst.StudySummaries[i])
			if err != nil {
				return nil, within(fmt.Sprintf("study_summaries[%d]", i), err)
			}
		}
		return summaries, nil
	default:
		return nil, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) GetStudyDetail(ctx context.Context, studyID int, after int) (StudyDetail, error) {
	u := h.client.URL(studyEndpoint(studyID))
	u.RawQuery = url.Values{"after": []string{strconv.Itoa(after)}}.Encode()

	// Identical in-flight requests share the response body, every caller gets its own conversion.
	// The shared request outlives the cancellation of the caller that started it.
	shared := context.WithoutCancel(ctx)
	ch := h.detail.DoChan(u.String(), func() (interface{}, error) {
		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}

		resp, body, err := h.client.Do(shared, req)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusNotFound:
			return nil, api.NewError(ErrStudyNotFound, resp, body)
		default:
			return nil, api.NewError(api.ErrUnexpected, resp, body)
		}
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return StudyDetail{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return StudyDetail{}, res.Err
	}

	w := StudyDetailResponse{}
	if err := json.Unmarshal(res.Val.([]byte), &w); err != nil {
		return StudyDetail{}, err
	}
	return ToStudyDetail(studyID, &w)
}

func (h *httpAPI) CreateNewStudy(ctx context.Context, name string, directions []StudyDirection) (StudySummary, error) {
	u := h.client.URL(endpointStudies).String()

	req, err := httpNewJSONRequest(http.MethodPost, u, &CreateNewStudyRequest{StudyName: name, Directions: directions})
	if err != nil {
		return StudySummary{}, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return StudySummary{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		w := CreateNewStudyResponse{}
		if err := json.Unmarshal(body, &w); err != nil {
			return StudySummary{}, err
		}
		return ToStudySummary(&w.StudySummary)
	case http.StatusBadRequest:
		return StudySummary{}, api.NewError(ErrStudyInvalid, resp, body)
	default:
		return StudySummary{}, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) DeleteStudy(ctx context.Context, studyID int, removeArtifacts bool) error {
	u := h.client.URL(studyEndpoint(studyID)).String()

	req, err := httpNewJSONRequest(http.MethodDelete, u, &DeleteStudyRequest{RemoveAssociatedArtifacts: removeArtifacts})
	if err != nil {
		return err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return api.NewError(ErrStudyNotFound, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) RenameStudy(ctx context.Context, studyID int, name string) (StudySummary, error) {
	u := h.client.URL(studyEndpoint(studyID) + "/rename").String()

	req, err := httpNewJSONRequest(http.MethodPost, u, &RenameStudyRequest{StudyName: name})
	if err != nil {
		return StudySummary{}, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return StudySummary{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		w := RenameStudyResponse{}
		if err := json.Unmarshal(body, &w); err != nil {
			return StudySummary{}, err
		}
		return ToRenamedStudySummary(&w)
	case http.StatusBadRequest:
		return StudySummary{}, api.NewError(ErrStudyInvalid, resp, body)
	case http.StatusNotFound:
		return StudySummary{}, api.NewError(ErrStudyNotFound, resp, body)
	default:
		return StudySummary{}, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) SaveStudyNote(ctx context.Context, studyID int, note Note) error {
	u := h.client.URL(studyEndpoint(studyID) + "/note").String()
	return h.saveNote(ctx, u, note, ErrStudyNotFound)
}

func (h *httpAPI) SaveTrialNote(ctx context.Context, studyID, trialID int, note Note) error {
	u := h.client.URL(fmt.Sprintf("%s/%d/note", studyEndpoint(studyID), trialID)).String()
	return h.saveNote(ctx, u, note, ErrTrialNotFound)
}

func (h *httpAPI) saveNote(ctx context.Context, u string, note Note, notFound api.ErrorType) error {
	req, err := httpNewJSONRequest(http.MethodPut, u, &note)
	if err != nil {
		return err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return api.NewError(notFound, resp, body)
	case http.StatusConflict:
		return api.NewError(ErrNoteConflict, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) UploadTrialArtifact(ctx context.Context, studyID, trialID int, filename, dataURL string) (UploadArtifactResponse, error) {
	u := h.client.URL(fmt.Sprintf("%s/%d/%d", endpointArtifacts, studyID, trialID)).String()
	return h.uploadArtifact(ctx, u, filename, dataURL, ErrTrialNotFound)
}

func (h *httpAPI) UploadStudyArtifact(ctx context.Context, studyID int, filename, dataURL string) (UploadArtifactResponse, error) {
	u := h.client.URL(fmt.Sprintf("%s/%d", endpointArtifacts, studyID)).String()
	return h.uploadArtifact(ctx, u, filename, dataURL, ErrStudyNotFound)
}

func (h *httpAPI) uploadArtifact(ctx context.Context, u, filename, dataURL string, notFound api.ErrorType) (UploadArtifactResponse, error) {
	req, err := httpNewJSONRequest(http.MethodPost, u, &UploadArtifactRequest{File: dataURL, Filename: filename})
	if err != nil {
		return UploadArtifactResponse{}, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return UploadArtifactResponse{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		w := UploadArtifactAPIResponse{}
		if err := json.Unmarshal(body, &w); err != nil {
			return UploadArtifactResponse{}, err
		}
		return ToUploadArtifactResponse(&w), nil
	case http.StatusBadRequest:
		return UploadArtifactResponse{}, api.NewError(ErrArtifactInvalid, resp, body)
	case http.StatusNotFound:
		return UploadArtifactResponse{}, api.NewError(notFound, resp, body)
	default:
		return UploadArtifactResponse{}, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) DeleteTrialArtifact(ctx context.Context, studyID, trialID int, artifactID string) error {
	u := h.client.URL(fmt.Sprintf("%s/%d/%d/%s", endpointArtifacts, studyID, trialID, url.PathEscape(artifactID))).String()
	return h.deleteArtifact(ctx, u)
}

func (h *httpAPI) DeleteStudyArtifact(ctx context.Context, studyID int, artifactID string) error {
	u := h.client.URL(fmt.Sprintf("%s/%d/%s", endpointArtifacts, studyID, url.PathEscape(artifactID))).String()
	return h.deleteArtifact(ctx, u)
}

func (h *httpAPI) deleteArtifact(ctx context.Context, u string) error {
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return api.NewError(ErrArtifactNotFound, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) TellTrial(ctx context.Context, trialID int, state TrialState, values []float64) error {
	if !state.IsFinished() {
		return &api.Error{Type: ErrTrialInvalid, Message: fmt.Sprintf("trial state %q is not a finished state", state)}
	}

	u := h.client.URL(fmt.Sprintf("%s/%d/tell", endpointTrials, trialID)).String()
	req, err := httpNewJSONRequest(http.MethodPost, u, &TellTrialRequest{State: state, Values: values})
	if err != nil {
		return err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return api.NewError(ErrTrialInvalid, resp, body)
	case http.StatusNotFound:
		return api.NewError(ErrTrialNotFound, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) SaveTrialUserAttrs(ctx context.Context, trialID int, attrs Attributes) error {
	u := h.client.URL(fmt.Sprintf("%s/%d/user-attrs", endpointTrials, trialID)).String()

	req, err := httpNewJSONRequest(http.MethodPost, u, &SaveTrialUserAttrsRequest{UserAttrs: attrs})
	if err != nil {
		return err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return api.NewError(ErrTrialInvalid, resp, body)
	case http.StatusNotFound:
		return api.NewError(ErrTrialNotFound, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) GetParamImportances(ctx context.Context, studyID int, evaluator ParamImportanceEvaluator) ([][]ParamImportance, error) {
	u := h.client.URL(studyEndpoint(studyID) + "/param_importances")
	if evaluator != "" {
		u.RawQuery = url.Values{"evaluator": []string{string(evaluator)}}.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		w := ParamImportancesResponse{}
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, err
		}
		return mapSlice(w.ParamImportances, cloneSlice[ParamImportance]), nil
	case http.StatusNotFound:
		return nil, api.NewError(ErrStudyNotFound, resp, body)
	default:
		return nil, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) ReportPreference(ctx context.Context, studyID int, candidates []int, clicked int) error {
	u := h.client.URL(studyEndpoint(studyID) + "/preference").String()
	r := &ReportPreferenceRequest{Candidates: candidates, Clicked: clicked, Mode: FeedbackModeChooseWorst}
	req, err := httpNewJSONRequest(http.MethodPost, u, r)
	if err != nil {
		return err
	}
	return h.doPreference(ctx, req)
}

func (h *httpAPI) SkipPreferentialTrial(ctx context.Context, studyID, trialID int) error {
	u := h.client.URL(fmt.Sprintf("%s/%d/skip", studyEndpoint(studyID), trialID)).String()
	req, err := http.NewRequest(http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	return h.doPreference(ctx, req)
}

func (h *httpAPI) RemovePreferentialHistory(ctx context.Context, studyID int, id uuid.UUID) error {
	u := h.client.URL(fmt.Sprintf("%s/preference/%s", studyEndpoint(studyID), id)).String()
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	return h.doPreference(ctx, req)
}

func (h *httpAPI) RestorePreferentialHistory(ctx context.Context, studyID int, id uuid.UUID) error {
	u := h.client.URL(fmt.Sprintf("%s/preference/%s", studyEndpoint(studyID), id)).String()
	req, err := http.NewRequest(http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	return h.doPreference(ctx, req)
}

func (h *httpAPI) ReportFeedbackComponent(ctx context.Context, studyID int, component FeedbackComponentType) error {
	u := h.client.URL(studyEndpoint(studyID) + "/preference_feedback_component").String()
	req, err := httpNewJSONRequest(http.MethodPut, u, &component)
	if err != nil {
		return err
	}
	return h.doPreference(ctx, req)
}

// doPreference performs one of the preferential study requests, none of which return a body.
func (h *httpAPI) doPreference(ctx context.Context, req *http.Request) error {
	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return api.NewError(ErrPreferenceInvalid, resp, body)
	default:
		return api.NewError(api.ErrUnexpected, resp, body)
	}
}

func (h *httpAPI) GetPlot(ctx context.Context, studyID int, plotType PlotType) (PlotResponse, error) {
	u := h.client.URL(fmt.Sprintf("%s/plot/%s", studyEndpoint(studyID), plotType)).String()
	return h.getPlot(ctx, u)
}

func (h *httpAPI) GetCompareStudiesPlot(ctx context.Context, studyIDs []int, plotType CompareStudiesPlotType) (PlotResponse, error) {
	u := h.client.URL(fmt.Sprintf("%s/plot/%s", endpointCompareStudies, plotType))
	q := url.Values{}
	for _, id := range studyIDs {
		q.Add("study_ids", strconv.Itoa(id))
	}
	u.RawQuery = q.Encode()
	return h.getPlot(ctx, u.String())
}

func (h *httpAPI) getPlot(ctx context.Context, u string) (PlotResponse, error) {
	p := PlotResponse{}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return p, err
	}

	resp, body, err := h.client.Do(ctx, req)
	if err != nil {
		return p, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		err = json.Unmarshal(body, &p)
		return p, err
	case http.StatusNotFound:
		return p, api.NewError(ErrStudyNotFound, resp, body)
	default:
		return p, api.NewError(api.ErrUnexpected, resp, body)
	}
}

func studyEndpoint(studyID int) string {
	return fmt.Sprintf("%s/%d", endpointStudies, studyID)
}

func httpNewJSONRequest(method, u string, body interface{}) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, u, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
