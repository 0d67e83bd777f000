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
package debug

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		desc     string
		kind     string
		body     string
		contains []string
		err      string
	}{
		{
			desc: "study summaries",
			kind: "study-summaries",
			body: `{"study_summaries":[{"study_id":1,"study_name":"a","directions":["minimize"],"user_attrs":[],"is_preferential":false,"datetime_start":"2023-07-01 12:00:00"}]}`,
			contains: []string{
				"study_name: a",
				"datetime_start: \"2023-07-01T12:00:00Z\"",
			},
		},
		{
			desc:     "rename spelling",
			kind:     "rename-study",
			body:     `{"study_id":2,"study_name":"b","directions":["maximize"],"user_attrs":[],"is_prefential":true}`,
			contains: []string{"is_preferential: true"},
		},
		{
			desc: "bad timestamp",
			kind: "study-summaries",
			body: `{"study_summaries":[{"study_id":1,"study_name":"a","directions":[],"user_attrs":[],"is_preferential":false,"datetime_start":"yesterday"}]}`,
			err:  "study_summaries[0]: invalid timestamp \"yesterday\" for datetime_start",
		},
		{
			desc: "unknown kind",
			kind: "experiment",
			body: `{}`,
			err:  "unknown response kind \"experiment\"",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewTranslateCommand(&TranslateOptions{})
			cmd.SetArgs([]string{c.kind})
			cmd.SetIn(strings.NewReader(c.body))
			cmd.SetOut(&out)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			err := cmd.Execute()
			if c.err != "" {
				assert.EqualError(t, err, c.err)
				return
			}
			require.NoError(t, err)
			for _, s := range c.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestTranslateTimestampError(t *testing.T) {
	_, err := translate(kindTrial, 0, []byte(`{"trial_id":1,"study_id":1,"number":0,"state":"Running","datetime_start":"soon"}`))
	var terr *v1.TimestampError
	if assert.True(t, errors.As(err, &terr)) {
		assert.Equal(t, "datetime_start", terr.Field)
	}
}
