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
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

var errNotAbsolute = errors.New("dashboard address must be an absolute URL")

// ErrorType is a short identifier for the kind of failure reported by the server.
type ErrorType string

const (
	ErrBadRequest   ErrorType = "bad-request"
	ErrNotFound     ErrorType = "not-found"
	ErrConflict     ErrorType = "conflict"
	ErrUnauthorized ErrorType = "unauthorized"
	ErrUnavailable  ErrorType = "unavailable"
	ErrUnexpected   ErrorType = "unexpected"
)

// Error represents an API error response. The dashboard reports failures as `{"reason": "..."}`.
type Error struct {
	Type       ErrorType     `json:"-"`
	Message    string        `json:"reason"`
	Location   string        `json:"-"`
	RetryAfter time.Duration `json:"-"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Type)
}

// NewError returns an error of the specified type using the supplied response. Responses with an
// unexpected type are refined using their status code.
func NewError(t ErrorType, resp *http.Response, body []byte) error {
	err := &Error{Type: t}

	// Unmarshal the response body into the error to get the server supplied error message
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "application/json" {
		_ = json.Unmarshal(body, err)
	}

	if resp.Request != nil && resp.Request.URL != nil {
		err.Location = resp.Request.URL.String()
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		if ra, raerr := strconv.Atoi(resp.Header.Get("Retry-After")); raerr == nil {
			if ra < 1 {
				ra = 5
			} else if ra > 120 {
				ra = 120
			}
			err.RetryAfter = time.Duration(ra) * time.Second
		}
	}

	if err.Type == ErrUnexpected {
		switch resp.StatusCode {
		case http.StatusBadRequest:
			err.Type = ErrBadRequest
		case http.StatusUnauthorized, http.StatusForbidden:
			err.Type = ErrUnauthorized
			if err.Message == "" {
				err.Message = "unauthorized"
			}
		case http.StatusNotFound:
			err.Type = ErrNotFound
		case http.StatusConflict:
			err.Type = ErrConflict
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
			err.Type = ErrUnavailable
		default:
			if err.Message == "" {
				err.Message = fmt.Sprintf("unexpected server response (%s)", http.StatusText(resp.StatusCode))
			}
		}
	}

	if err.Message == "" {
		switch resp.StatusCode {
		case http.StatusNotFound:
			err.Message = fmt.Sprintf("not found: %s", err.Location)
		default:
			err.Message = strings.ReplaceAll(string(err.Type), "-", " ")
		}
	}

	return err
}

// IsNotFound checks to see if the error is a "not found" error of any kind.
func IsNotFound(err error) bool {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Type == ErrNotFound || strings.HasSuffix(string(aerr.Type), "-"+string(ErrNotFound))
	}
	return false
}

// IsConflict checks to see if the error is a conflict of any kind.
func IsConflict(err error) bool {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Type == ErrConflict || strings.HasSuffix(string(aerr.Type), "-"+string(ErrConflict))
	}
	return false
}

// IsUnauthorized checks to see if the error is an "unauthorized" error.
func IsUnauthorized(err error) bool {
	// OAuth errors (e.g. fetching tokens) will come out of `Do` wrapped in a url.Error
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Unwrap()
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == http.StatusUnauthorized
	}

	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Type == ErrUnauthorized
	}
	return false
}
