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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		desc     string
		value    string
		expected time.Time
		err      bool
	}{
		{
			desc:     "utc",
			value:    "2024-01-01T00:00:00Z",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			desc:     "offset",
			value:    "2024-01-01T09:00:00+09:00",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			desc:     "no zone",
			value:    "2024-01-01T12:30:00",
			expected: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			desc:     "microseconds",
			value:    "2024-01-01T12:30:00.123456",
			expected: time.Date(2024, 1, 1, 12, 30, 0, 123456000, time.UTC),
		},
		{
			desc:     "space separated",
			value:    "2024-01-01 12:30:00.5",
			expected: time.Date(2024, 1, 1, 12, 30, 0, 500000000, time.UTC),
		},
		{
			desc:     "space separated offset",
			value:    "2024-01-01 12:30:00+00:00",
			expected: time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			desc:     "date only",
			value:    "2024-01-01",
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{desc: "garbage", value: "not-a-date", err: true},
		{desc: "empty", value: "", err: true},
		{desc: "out of range", value: "2024-13-01T00:00:00Z", err: true},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			actual, err := ParseTimestamp("datetime_start", c.value)
			if c.err {
				var terr *TimestampError
				if assert.True(t, errors.As(err, &terr)) {
					assert.Equal(t, "datetime_start", terr.Field)
					assert.Equal(t, c.value, terr.Value)
					assert.NotNil(t, errors.Unwrap(err))
				}
				assert.True(t, actual.IsZero())
				return
			}
			if assert.NoError(t, err) {
				assert.True(t, c.expected.Equal(actual), "expected %s, got %s", c.expected, actual)
			}
		})
	}
}

func TestTimestampError(t *testing.T) {
	err := within("trials[0]", &TimestampError{Field: "datetime_start", Value: "x"})
	assert.EqualError(t, err, `invalid timestamp "x" for trials[0].datetime_start`)

	other := errors.New("other")
	assert.Equal(t, other, within("trials[0]", other))
}
