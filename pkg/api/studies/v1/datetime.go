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
	"strings"
	"time"
)

// timestampLayouts are tried in order. Layouts without a zone are interpreted as UTC; fractional
// seconds are accepted by all of them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// TimestampError is returned when a timestamp in a response cannot be parsed.
type TimestampError struct {
	// Field is the wire path of the timestamp, e.g. "trials[2].datetime_start".
	Field string
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q for %s", e.Value, e.Field)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}

// within prefixes the field path of a timestamp error.
func within(prefix string, err error) error {
	if terr, ok := err.(*TimestampError); ok {
		c := *terr
		c.Field = prefix + "." + c.Field
		return &c
	}
	return err
}

// ParseTimestamp parses a timestamp as sent by the server.
func ParseTimestamp(field, value string) (time.Time, error) {
	var firstErr error
	s := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, &TimestampError{Field: field, Value: value, Err: firstErr}
}

// parseOptionalTimestamp returns nil for absent or empty values.
func parseOptionalTimestamp(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatTimestamp formats a timestamp the way the server accepts it.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
