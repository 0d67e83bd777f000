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

package api

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

func TestNewError(t *testing.T) {
	location, _ := url.Parse("http://localhost:8080/api/studies/1")

	cases := []struct {
		desc        string
		errorType   ErrorType
		status      int
		contentType string
		header      http.Header
		body        string
		expected    Error
	}{
		{
			desc:        "reason",
			errorType:   ErrUnexpected,
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"reason": "study_name is required"}`,
			expected:    Error{Type: ErrBadRequest, Message: "study_name is required"},
		},
		{
			desc:        "charset",
			errorType:   ErrUnexpected,
			status:      http.StatusBadRequest,
			contentType: "application/json; charset=UTF-8",
			body:        `{"reason": "invalid"}`,
			expected:    Error{Type: ErrBadRequest, Message: "invalid"},
		},
		{
			desc:        "not json",
			errorType:   ErrUnexpected,
			status:      http.StatusInternalServerError,
			contentType: "text/html",
			body:        `{"reason": "ignored"}`,
			expected:    Error{Type: ErrUnexpected, Message: "unexpected server response (Internal Server Error)"},
		},
		{
			desc:      "not found",
			errorType: ErrUnexpected,
			status:    http.StatusNotFound,
			expected:  Error{Type: ErrNotFound, Message: "not found: http://localhost:8080/api/studies/1"},
		},
		{
			desc:      "documented type",
			errorType: ErrorType("study-not-found"),
			status:    http.StatusNotFound,
			expected:  Error{Type: ErrorType("study-not-found"), Message: "not found: http://localhost:8080/api/studies/1"},
		},
		{
			desc:      "unauthorized",
			errorType: ErrUnexpected,
			status:    http.StatusUnauthorized,
			expected:  Error{Type: ErrUnauthorized, Message: "unauthorized"},
		},
		{
			desc:      "conflict",
			errorType: ErrUnexpected,
			status:    http.StatusConflict,
			expected:  Error{Type: ErrConflict, Message: "conflict"},
		},
		{
			desc:      "retry after",
			errorType: ErrUnexpected,
			status:    http.StatusServiceUnavailable,
			header:    http.Header{"Retry-After": []string{"300"}},
			expected:  Error{Type: ErrUnavailable, Message: "unavailable", RetryAfter: 120 * time.Second},
		},
		{
			desc:      "retry after too small",
			errorType: ErrUnexpected,
			status:    http.StatusServiceUnavailable,
			header:    http.Header{"Retry-After": []string{"0"}},
			expected:  Error{Type: ErrUnavailable, Message: "unavailable", RetryAfter: 5 * time.Second},
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: c.status,
				Header:     http.Header{},
				Request:    &http.Request{URL: location},
			}
			for k, v := range c.header {
				resp.Header[k] = v
			}
			if c.contentType != "" {
				resp.Header.Set("Content-Type", c.contentType)
			}

			err := NewError(c.errorType, resp, []byte(c.body))
			if assert.IsType(t, &Error{}, err) {
				actual := err.(*Error)
				assert.Equal(t, c.expected.Type, actual.Type)
				assert.Equal(t, c.expected.Message, actual.Message)
				assert.Equal(t, c.expected.RetryAfter, actual.RetryAfter)
				assert.Equal(t, location.String(), actual.Location)
			}
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		desc         string
		err          error
		notFound     bool
		conflict     bool
		unauthorized bool
	}{
		{desc: "nil"},
		{desc: "plain", err: fmt.Errorf("boom")},
		{desc: "not found", err: &Error{Type: ErrNotFound}, notFound: true},
		{desc: "typed not found", err: &Error{Type: "trial-not-found"}, notFound: true},
		{desc: "wrapped not found", err: fmt.Errorf("get: %w", &Error{Type: "study-not-found"}), notFound: true},
		{desc: "typed conflict", err: &Error{Type: "note-conflict"}, conflict: true},
		{desc: "unauthorized", err: &Error{Type: ErrUnauthorized}, unauthorized: true},
		{
			desc: "oauth",
			err: &url.Error{Op: "Get", URL: "http://localhost", Err: &oauth2.RetrieveError{
				Response: &http.Response{StatusCode: http.StatusUnauthorized},
			}},
			unauthorized: true,
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.notFound, IsNotFound(c.err))
			assert.Equal(t, c.conflict, IsConflict(c.err))
			assert.Equal(t, c.unauthorized, IsUnauthorized(c.err))
		})
	}
}
