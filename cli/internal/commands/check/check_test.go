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

package check

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/fake"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// unsignedToken returns a compact JWT with the supplied claims and a throwaway signature
func unsignedToken(claims string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(claims)) + "." +
		enc.EncodeToString([]byte("signature"))
}

func TestCheckConfig(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	cases := []struct {
		desc     string
		token    string
		expected string
		err      string
	}{
		{
			desc:     "no token",
			expected: "Success.\n",
		},
		{
			desc:     "opaque token",
			token:    "not-a-jwt",
			expected: "Success.\n",
		},
		{
			desc:     "subject",
			token:    unsignedToken(fmt.Sprintf(`{"sub":"alice","exp":%d}`, future)),
			expected: "Success, configuration is valid for 'alice'.\n",
		},
		{
			desc:  "expired",
			token: unsignedToken(fmt.Sprintf(`{"sub":"alice","exp":%d}`, past)),
			err:   "access token expired at " + time.Unix(past, 0).UTC().Format(time.RFC3339) + ", try running 'optunactl login'",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			cfg := &config.OptunaConfig{Filename: filepath.Join(t.TempDir(), "config")}
			cfg.Overrides.Token = c.token
			require.NoError(t, cfg.Load())

			out, err := run(t, NewConfigCommand(&ConfigOptions{Config: cfg, StudiesAPI: fake.NewFakeAPI()}))
			if c.err != "" {
				assert.EqualError(t, err, c.err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, out)
			}
		})
	}
}

const releasesFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <id>tag:github.com,2008:https://github.com/thestormforge/optunactl/releases</id>
  <title>Release notes from optunactl</title>
  <updated>2023-08-01T00:00:00Z</updated>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.3.0-rc.1</id>
    <updated>2023-08-01T00:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://github.com/thestormforge/optunactl/releases/tag/v1.3.0-rc.1"/>
    <title>v1.3.0-rc.1</title>
  </entry>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.2.0</id>
    <updated>2023-07-01T00:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://github.com/thestormforge/optunactl/releases/tag/v1.2.0"/>
    <title>Second release</title>
  </entry>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.1.0</id>
    <updated>2023-06-01T00:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://github.com/thestormforge/optunactl/releases/tag/v1.1.0"/>
    <title>v1.1.0</title>
  </entry>
</feed>
`

func TestCheckVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(releasesFeed))
	}))
	defer srv.Close()

	cases := []struct {
		desc     string
		current  string
		expected string
	}{
		{
			desc:    "newer release",
			current: "v1.1.0",
			expected: "A newer version (v1.2.0) is available (you have v1.1.0)\n\n" +
				"Download the latest version:\nhttps://github.com/thestormforge/optunactl/releases/tag/v1.2.0\n",
		},
		{
			desc:     "latest",
			current:  "v1.2.0",
			expected: "Version v1.2.0 is the latest version\n",
		},
		{
			desc:     "ahead of releases",
			current:  "v1.3.0-rc.1",
			expected: "Version v1.3.0-rc.1 is the latest version\n",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			out, err := run(t, NewVersionCommand(&VersionOptions{FeedURL: srv.URL, Current: c.current}))
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, out)
			}
		})
	}
}
