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

// Package mockserver is an in-memory dashboard server speaking the dashboard wire format.
package mockserver

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

// Server holds the studies served by the mock dashboard.
type Server struct {
	// DetailDelay delays study detail responses.
	DetailDelay time.Duration

	mu          sync.Mutex
	studies     map[int]*v1.StudyDetailResponse
	nextStudyID int
	nextTrialID int
	detailCalls int64
}

// New returns an empty server.
func New() *Server {
	return &Server{
		studies:     make(map[int]*v1.StudyDetailResponse),
		nextStudyID: 1,
		nextTrialID: 1,
	}
}

// AddStudy stores a study and returns its identifier. Trials are assigned identifiers if they do not have one.
func (s *Server) AddStudy(study v1.StudyDetailResponse) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextStudyID
	s.nextStudyID++
	for i := range study.Trials {
		study.Trials[i].StudyID = id
		if study.Trials[i].TrialID == 0 {
			study.Trials[i].TrialID = s.nextTrialID
		}
		if study.Trials[i].TrialID >= s.nextTrialID {
			s.nextTrialID = study.Trials[i].TrialID + 1
		}
	}
	s.studies[id] = &study
	return id
}

// Study returns the stored wire representation of a study.
func (s *Server) Study(id int) (v1.StudyDetailResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studies[id]
	if !ok {
		return v1.StudyDetailResponse{}, false
	}
	return *st, true
}

// DetailCalls returns the number of study detail requests served.
func (s *Server) DetailCalls() int {
	return int(atomic.LoadInt64(&s.detailCalls))
}

// Handler returns the HTTP handler for a dashboard mounted at the supplied root prefix.
func (s *Server) Handler(rootPrefix string) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), reason())

	root := r.Group(rootPrefix)
	root.GET("/csv/:study_id", s.downloadCSV)

	api := root.Group("/api")
	api.GET("/meta", s.meta)

	studies := api.Group("/studies")
	studies.GET("", s.listStudies)
	studies.POST("", s.createStudy)
	studies.GET("/:study_id", s.getStudy)
	studies.DELETE("/:study_id", s.deleteStudy)
	studies.GET("/:study_id/:resource", s.getStudyResource)
	studies.GET("/:study_id/:resource/:name", s.getStudyResource)
	studies.POST("/:study_id/:resource", s.postStudyResource)
	studies.POST("/:study_id/:resource/:name", s.postStudyResource)
	studies.PUT("/:study_id/:resource", s.putStudyResource)
	studies.PUT("/:study_id/:resource/:name", s.putStudyResource)
	studies.DELETE("/:study_id/:resource/:name", s.deleteStudyResource)

	artifacts := api.Group("/artifacts")
	artifacts.POST("/:study_id", s.uploadArtifact)
	artifacts.POST("/:study_id/:trial_id", s.uploadArtifact)
	artifacts.DELETE("/:study_id/:id", s.deleteArtifact)
	artifacts.DELETE("/:study_id/:id/:artifact_id", s.deleteArtifact)

	trials := api.Group("/trials")
	trials.POST("/:trial_id/tell", s.tellTrial)
	trials.POST("/:trial_id/user-attrs", s.saveTrialUserAttrs)

	api.GET("/compare-studies/plot/:plot_type", s.compareStudiesPlot)

	return r
}

type httpError struct {
	status int
	reason string
}

func (e *httpError) Error() string { return e.reason }

func errorf(status int, format string, args ...interface{}) error {
	return &httpError{status: status, reason: fmt.Sprintf(format, args...)}
}

// reason renders handler errors the way the dashboard does.
func reason() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		err := c.Errors.Last()
		if err == nil {
			return
		}

		var herr *httpError
		if errors.As(err.Err, &herr) {
			c.JSON(herr.status, gin.H{"reason": herr.reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"reason": err.Error()})
	}
}

func intParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errorf(http.StatusBadRequest, "%s must be an integer", name)
	}
	return v, nil
}

// study must be called with the lock held.
func (s *Server) study(c *gin.Context) (int, *v1.StudyDetailResponse, error) {
	id, err := intParam(c, "study_id")
	if err != nil {
		return 0, nil, err
	}
	st, ok := s.studies[id]
	if !ok {
		return 0, nil, errorf(http.StatusNotFound, "study_id=%d is not found", id)
	}
	return id, st, nil
}

// trial must be called with the lock held.
func (s *Server) trial(id int) (*v1.StudyDetailResponse, *v1.TrialResponse, error) {
	for _, st := range s.studies {
		for i := range st.Trials {
			if st.Trials[i].TrialID == id {
				return st, &st.Trials[i], nil
			}
		}
	}
	return nil, nil, errorf(http.StatusNotFound, "trial_id=%d is not found", id)
}

func summary(id int, st *v1.StudyDetailResponse) v1.StudySummaryResponse {
	return v1.StudySummaryResponse{
		StudyID:        id,
		StudyName:      st.Name,
		Directions:     st.Directions,
		UserAttrs:      st.UserAttrs,
		IsPreferential: st.IsPreferential,
		DatetimeStart:  st.DatetimeStart,
	}
}

func (s *Server) meta(c *gin.Context) {
	c.JSON(http.StatusOK, v1.APIMeta{ArtifactIsAvailable: true})
}

func (s *Server) listStudies(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.studies))
	for id := range s.studies {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	resp := v1.StudySummariesResponse{StudySummaries: []v1.StudySummaryResponse{}}
	for _, id := range ids {
		resp.StudySummaries = append(resp.StudySummaries, summary(id, s.studies[id]))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createStudy(c *gin.Context) {
	req := v1.CreateNewStudyRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errorf(http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.StudyName == "" {
		_ = c.Error(errorf(http.StatusBadRequest, "study_name is required"))
		return
	}
	if len(req.Directions) == 0 {
		_ = c.Error(errorf(http.StatusBadRequest, "directions must be specified"))
		return
	}

	s.mu.Lock()
	for _, st := range s.studies {
		if st.Name == req.StudyName {
			s.mu.Unlock()
			_ = c.Error(errorf(http.StatusBadRequest, "study_name %q already exists", req.StudyName))
			return
		}
	}
	s.mu.Unlock()

	start := time.Now().UTC().Format("2006-01-02T15:04:05.000000")
	id := s.AddStudy(v1.StudyDetailResponse{
		Name:          req.StudyName,
		Directions:    req.Directions,
		DatetimeStart: &start,
		UserAttrs:     v1.Attributes{},
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, v1.CreateNewStudyResponse{StudySummary: summary(id, s.studies[id])})
}

func (s *Server) getStudy(c *gin.Context) {
	atomic.AddInt64(&s.detailCalls, 1)
	if s.DetailDelay > 0 {
		time.Sleep(s.DetailDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	after, _ := strconv.Atoi(c.DefaultQuery("after", "0"))

	resp := *st
	resp.Trials = []v1.TrialResponse{}
	for _, t := range st.Trials {
		if t.Number >= after {
			resp.Trials = append(resp.Trials, t)
		}
	}
	c.JSON(http.StatusOK, &resp)
}

func (s *Server) deleteStudy(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	delete(s.studies, id)
	c.Status(http.StatusNoContent)
}

func (s *Server) getStudyResource(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch c.Param("resource") {
	case "param_importances":
		importances := make([][]v1.ParamImportance, len(st.Directions))
		for i := range importances {
			importances[i] = []v1.ParamImportance{}
			for _, p := range st.UnionSearchSpace {
				importances[i] = append(importances[i], v1.ParamImportance{Name: p.Name, Importance: 1 / float64(len(st.UnionSearchSpace))})
			}
		}
		c.JSON(http.StatusOK, v1.ParamImportancesResponse{ParamImportances: importances})
	case "plot":
		c.JSON(http.StatusOK, gin.H{"data": []interface{}{}, "layout": gin.H{"title": gin.H{"text": c.Param("name")}}})
	default:
		_ = c.Error(errorf(http.StatusNotFound, "not found"))
	}
}

func (s *Server) postStudyResource(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch resource, name := c.Param("resource"), c.Param("name"); {
	case resource == "rename" && name == "":
		req := v1.RenameStudyRequest{}
		if err := c.ShouldBindJSON(&req); err != nil || req.StudyName == "" {
			_ = c.Error(errorf(http.StatusBadRequest, "study_name is required"))
			return
		}
		st.Name = req.StudyName
		sum := summary(id, st)
		// The dashboard misspells this key in rename responses
		c.JSON(http.StatusOK, v1.RenameStudyResponse{
			StudyID:       sum.StudyID,
			StudyName:     sum.StudyName,
			Directions:    sum.Directions,
			UserAttrs:     sum.UserAttrs,
			IsPrefential:  sum.IsPreferential,
			DatetimeStart: sum.DatetimeStart,
		})

	case resource == "preference" && name == "":
		req := v1.ReportPreferenceRequest{}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Candidates) < 2 {
			_ = c.Error(errorf(http.StatusBadRequest, "at least two candidates are required"))
			return
		}
		rec := v1.PreferenceHistoryRecord{
			ID:          uuid.NewString(),
			Candidates:  req.Candidates,
			Clicked:     req.Clicked,
			Mode:        req.Mode,
			Timestamp:   time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
			Preferences: [][2]int{},
		}
		for _, cand := range req.Candidates {
			if cand != req.Clicked {
				rec.Preferences = append(rec.Preferences, [2]int{cand, req.Clicked})
			}
		}
		st.PreferenceHistory = append(st.PreferenceHistory, v1.PreferenceHistoryResponse{History: rec})
		st.Preferences = append(st.Preferences, rec.Preferences...)
		c.Status(http.StatusNoContent)

	case resource == "preference":
		if !s.setRemoved(c, st, name, false) {
			return
		}
		c.Status(http.StatusNoContent)

	case name == "skip":
		trialID, err := strconv.Atoi(resource)
		if err != nil {
			_ = c.Error(errorf(http.StatusBadRequest, "trial_id must be an integer"))
			return
		}
		tst, t, err := s.trial(trialID)
		if err != nil || tst != st {
			_ = c.Error(errorf(http.StatusNotFound, "trial_id=%d is not found", trialID))
			return
		}
		st.SkippedTrialNumbers = append(st.SkippedTrialNumbers, t.Number)
		c.Status(http.StatusNoContent)

	default:
		_ = c.Error(errorf(http.StatusNotFound, "not found"))
	}
}

func (s *Server) putStudyResource(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	switch resource, name := c.Param("resource"), c.Param("name"); {
	case resource == "note" && name == "":
		note := v1.Note{}
		if err := c.ShouldBindJSON(&note); err != nil {
			_ = c.Error(errorf(http.StatusBadRequest, "invalid note"))
			return
		}
		if note.Version != st.Note.Version+1 {
			_ = c.Error(errorf(http.StatusConflict, "the text you are editing has changed"))
			return
		}
		st.Note = note
		c.Status(http.StatusNoContent)

	case resource == "preference_feedback_component" && name == "":
		fc := v1.FeedbackComponentType{}
		if err := c.ShouldBindJSON(&fc); err != nil || (fc.OutputType != v1.FeedbackOutputNote && fc.OutputType != v1.FeedbackOutputArtifact) {
			_ = c.Error(errorf(http.StatusBadRequest, "invalid feedback component"))
			return
		}
		st.FeedbackComponentType = &fc
		c.Status(http.StatusNoContent)

	case name == "note":
		trialID, err := strconv.Atoi(resource)
		if err != nil {
			_ = c.Error(errorf(http.StatusBadRequest, "trial_id must be an integer"))
			return
		}
		tst, t, err := s.trial(trialID)
		if err != nil || tst != st {
			_ = c.Error(errorf(http.StatusNotFound, "trial_id=%d is not found", trialID))
			return
		}
		note := v1.Note{}
		if err := c.ShouldBindJSON(&note); err != nil {
			_ = c.Error(errorf(http.StatusBadRequest, "invalid note"))
			return
		}
		if note.Version != t.Note.Version+1 {
			_ = c.Error(errorf(http.StatusConflict, "the text you are editing has changed"))
			return
		}
		t.Note = note
		c.Status(http.StatusNoContent)

	default:
		_ = c.Error(errorf(http.StatusNotFound, "not found"))
	}
}

func (s *Server) deleteStudyResource(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if c.Param("resource") != "preference" {
		_ = c.Error(errorf(http.StatusNotFound, "not found"))
		return
	}
	if !s.setRemoved(c, st, c.Param("name"), true) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setRemoved(c *gin.Context, st *v1.StudyDetailResponse, id string, removed bool) bool {
	for i := range st.PreferenceHistory {
		if st.PreferenceHistory[i].History.ID == id {
			st.PreferenceHistory[i].IsRemoved = removed
			return true
		}
	}
	_ = c.Error(errorf(http.StatusNotFound, "history_id=%s is not found", id))
	return false
}

func (s *Server) uploadArtifact(c *gin.Context) {
	req := v1.UploadArtifactRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errorf(http.StatusBadRequest, "invalid request body"))
		return
	}
	mediaType, _, err := v1.ParseDataURL(req.File)
	if err != nil {
		_ = c.Error(errorf(http.StatusBadRequest, "invalid file: %s", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	a := v1.Artifact{ArtifactID: uuid.NewString(), Filename: req.Filename, MimeType: mediaType}
	target := &st.Artifacts
	if c.Param("trial_id") != "" {
		trialID, err := intParam(c, "trial_id")
		if err != nil {
			_ = c.Error(err)
			return
		}
		tst, t, err := s.trial(trialID)
		if err != nil || tst != st {
			_ = c.Error(errorf(http.StatusNotFound, "trial_id=%d is not found", trialID))
			return
		}
		target = &t.Artifacts
	}
	*target = append(*target, a)
	c.JSON(http.StatusCreated, v1.UploadArtifactAPIResponse{ArtifactID: a.ArtifactID, Artifacts: *target})
}

func (s *Server) deleteArtifact(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// The identifier is the artifact for study artifacts and the trial for trial artifacts
	target, id := &st.Artifacts, c.Param("id")
	if c.Param("artifact_id") != "" {
		trialID, err := intParam(c, "id")
		if err != nil {
			_ = c.Error(err)
			return
		}
		_, t, err := s.trial(trialID)
		if err != nil {
			_ = c.Error(err)
			return
		}
		target, id = &t.Artifacts, c.Param("artifact_id")
	}

	for i := range *target {
		if (*target)[i].ArtifactID == id {
			*target = append((*target)[:i], (*target)[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	_ = c.Error(errorf(http.StatusNotFound, "artifact_id=%s is not found", id))
}

func (s *Server) tellTrial(c *gin.Context) {
	trialID, err := intParam(c, "trial_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	req := v1.TellTrialRequest{}
	if err := c.ShouldBindJSON(&req); err != nil || !req.State.IsFinished() {
		_ = c.Error(errorf(http.StatusBadRequest, "state must be either 'Complete', 'Pruned' or 'Fail'"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, t, err := s.trial(trialID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if t.State.IsFinished() {
		_ = c.Error(errorf(http.StatusBadRequest, "trial_id=%d is already finished", trialID))
		return
	}
	if req.State == v1.TrialStateComplete && len(req.Values) != len(st.Directions) {
		_ = c.Error(errorf(http.StatusBadRequest, "expected %d values", len(st.Directions)))
		return
	}

	complete := time.Now().UTC().Format("2006-01-02T15:04:05.000000")
	t.State = req.State
	t.DatetimeComplete = &complete
	t.Values = nil
	for _, v := range req.Values {
		t.Values = append(t.Values, numstr.FromFloat64(v))
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) saveTrialUserAttrs(c *gin.Context) {
	trialID, err := intParam(c, "trial_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	req := v1.SaveTrialUserAttrsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errorf(http.StatusBadRequest, "user_attrs must be an object"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, t, err := s.trial(trialID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if t.UserAttrs == nil {
		t.UserAttrs = v1.Attributes{}
	}
	for k, v := range req.UserAttrs {
		t.UserAttrs[k] = v
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) compareStudiesPlot(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range c.QueryArray("study_ids") {
		id, err := strconv.Atoi(v)
		if err != nil {
			_ = c.Error(errorf(http.StatusBadRequest, "study_ids must be integers"))
			return
		}
		if _, ok := s.studies[id]; !ok {
			_ = c.Error(errorf(http.StatusNotFound, "study_id=%d is not found", id))
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": []interface{}{}, "layout": gin.H{"title": gin.H{"text": c.Param("plot_type")}}})
}

func (s *Server) downloadCSV(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, st, err := s.study(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var selected map[int]bool
	if ids := c.Query("trial_ids"); ids != "" {
		selected = make(map[int]bool)
		for _, v := range strings.Split(ids, ",") {
			n, err := strconv.Atoi(v)
			if err != nil {
				_ = c.Error(errorf(http.StatusBadRequest, "trial_ids must be integers"))
				return
			}
			selected[n] = true
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="study-%d.csv"`, id))
	c.Status(http.StatusOK)
	c.Writer.Header().Set("Content-Type", "text/csv; charset=utf-8")

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Number", "State"})
	for _, t := range st.Trials {
		if selected != nil && !selected[t.Number] {
			continue
		}
		_ = w.Write([]string{strconv.Itoa(t.Number), string(t.State)})
	}
	w.Flush()
}
