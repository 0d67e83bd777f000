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

package login

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thestormforge/optunactl/internal/config"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/fake"
	"golang.org/x/oauth2"
)

func unsignedToken(claims string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(claims)) + "." +
		enc.EncodeToString([]byte("signature"))
}

func login(t *testing.T, filename, stdin string, args ...string) (string, error) {
	t.Helper()
	cfg := &config.OptunaConfig{Filename: filename}
	cmd := NewCommand(&Options{Config: cfg, StudiesAPI: fake.NewFakeAPI()})

	// Global flags normally come from the root command
	cmd.Flags().StringVar(&cfg.Overrides.Address, "address", "", "override the dashboard server `url`")
	cmd.Flags().StringVar(&cfg.Overrides.Context, "context", "", "the `name` of the configuration context to use")

	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLogin(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := unsignedToken(fmt.Sprintf(`{"sub":"alice","exp":%d}`, exp.Unix()))

	out, err := login(t, filename, "", "--address", "https://optuna.example.com/", "--token", token)
	require.NoError(t, err)
	assert.Equal(t, "You are now logged in to https://optuna.example.com/ as 'alice'.\n", out)

	cfg := &config.OptunaConfig{Filename: filename}
	require.NoError(t, cfg.Load())
	r := cfg.Reader()
	assert.Equal(t, "optuna_example_com", r.ContextName())

	srv, err := config.CurrentServer(r)
	require.NoError(t, err)
	assert.Equal(t, "https://optuna.example.com/", srv.Address)

	az, err := config.CurrentAuthorization(r)
	require.NoError(t, err)
	if assert.NotNil(t, az.Credential.TokenCredential) {
		assert.Equal(t, token, az.Credential.AccessToken)
		assert.True(t, exp.Equal(az.Credential.Expiry))
	}

	// A second login to the same context needs --force
	_, err = login(t, filename, "", "--address", "https://optuna.example.com/", "--token", "other")
	assert.EqualError(t, err, "refusing to update, use --force")

	_, err = login(t, filename, "other\n", "--context", "optuna_example_com", "--force")
	assert.NoError(t, err)
}

func TestLoginPrompt(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config")

	out, err := login(t, filename, "  opaque-token  \n")
	require.NoError(t, err)
	assert.Equal(t, "Enter the access token for http://127.0.0.1:8080: You are now logged in to http://127.0.0.1:8080.\n", out)

	_, err = login(t, filepath.Join(t.TempDir(), "config"), "")
	assert.EqualError(t, err, "unable to read access token: EOF")
}

func TestInspectToken(t *testing.T) {
	now := time.Unix(1700000000, 0)

	cases := []struct {
		desc    string
		token   string
		subject string
		expiry  time.Time
		err     string
	}{
		{
			desc:  "opaque",
			token: "abc123",
		},
		{
			desc:    "subject only",
			token:   unsignedToken(`{"sub":"bob"}`),
			subject: "bob",
		},
		{
			desc:    "expiry",
			token:   unsignedToken(`{"sub":"bob","exp":1700003600}`),
			subject: "bob",
			expiry:  time.Unix(1700003600, 0),
		},
		{
			desc:  "expired",
			token: unsignedToken(`{"exp":1699996400}`),
			err:   "access token expired at 2023-11-14T21:13:20Z",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			tok := &oauth2.Token{AccessToken: c.token}
			subject, err := inspectToken(tok, now)
			if c.err != "" {
				assert.EqualError(t, err, c.err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, c.subject, subject)
				assert.True(t, c.expiry.Equal(tok.Expiry), "expected %s, got %s", c.expiry, tok.Expiry)
			}
		})
	}
}
