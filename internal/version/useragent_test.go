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

package version

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAgent(t *testing.T) {
	cases := []struct {
		desc     string
		product  string
		comment  string
		info     *Info
		expected string
	}{
		{
			desc:     "default",
			expected: "optunactl/0.0.0-source",
		},
		{
			desc:     "release",
			info:     &Info{Version: "v1.2.3"},
			expected: "optunactl/1.2.3",
		},
		{
			desc:     "product",
			product:  "dashboard-sync",
			expected: "dashboard-sync/0.0.0-source",
		},
		{
			desc:     "comment",
			product:  "optunactl",
			comment:  "ci",
			expected: "optunactl/0.0.0-source (ci)",
		},
		{
			desc:     "empty comment",
			comment:  " (  ) ",
			expected: "optunactl/0.0.0-source",
		},
		{
			desc:     "wrapped comment",
			comment:  " ( test )",
			expected: "optunactl/0.0.0-source (test)",
		},
		{
			desc:     "pre-release build metadata",
			comment:  "test",
			info:     &Info{Version: "v1.2.3-rc.1", BuildMetadata: "build.123"},
			expected: "optunactl/1.2.3-rc.1 (build.123; test)",
		},
		{
			desc:     "release build metadata",
			comment:  "(test)",
			info:     &Info{Version: "v1.2.3", BuildMetadata: "build.123"},
			expected: "optunactl/1.2.3 (test)",
		},
		{
			desc:     "invalid version",
			info:     &Info{Version: "latest"},
			expected: "optunactl/0.0.0-source",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			defer resetVersion()
			if c.info != nil {
				Version = c.info.Version
				BuildMetadata = c.info.BuildMetadata
			}

			ua := UserAgent(c.product, c.comment, nil)
			assert.Equal(t, c.expected, ua.(*Transport).UserAgent)
		})
	}
}

func TestTransport_RoundTrip(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: &Transport{}}).Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "optunactl/0.0.0-source", ua)
	assert.Empty(t, req.Header.Get("User-Agent"))
}
