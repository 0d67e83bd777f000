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

package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// NOTE: Configuration JSON names in and below Authorization use snake_case for compatibility with OAuth 2.0 specifications

// Config is the top level configuration structure for optunactl
type Config struct {
	// Servers is a named list of server configurations
	Servers []NamedServer `json:"servers,omitempty"`
	// Authorizations is a named list of authorizations configurations
	Authorizations []NamedAuthorization `json:"authorizations,omitempty"`
	// Contexts is a named list of context configurations
	Contexts []NamedContext `json:"contexts,omitempty"`
	// CurrentContext is the name of the default context
	CurrentContext string `json:"current-context,omitempty"`
}

// Server contains information about how to communicate with a dashboard
type Server struct {
	// Address is the absolute URL of the dashboard server, e.g. "http://127.0.0.1:8080"
	Address string `json:"address"`
	// RootPrefix is the path the dashboard is mounted under, if it is not served from the root
	RootPrefix string `json:"root_prefix,omitempty"`
	// TokenEndpoint is the URL used to exchange client credentials for an access token
	TokenEndpoint string `json:"token_endpoint,omitempty"`
}

// Authorization contains information about remote server authorizations
type Authorization struct {
	// Credential is the information that must be presented to prove authorization
	Credential Credential `json:"credential"`
}

// TokenCredential represents a token based credential
type TokenCredential struct {
	// AccessToken is presented to the service being authenticated to
	AccessToken string `json:"access_token"`
	// TokenType is the type of the access token (i.e. "bearer")
	TokenType string `json:"token_type,omitempty"`
	// RefreshToken is presented to the authorization server when the access token expires
	RefreshToken string `json:"refresh_token,omitempty"`
	// Expiry is the time at which the access token expires (or 0 if the token does not expire)
	Expiry time.Time `json:"expiry,omitempty"`
}

// ClientCredential represents a machine-to-machine credential
type ClientCredential struct {
	// ClientID is the client identifier
	ClientID string `json:"client_id"`
	// ClientSecret is the client secret
	ClientSecret string `json:"client_secret"`
	// Scope is the space delimited list of allowable scopes for the client
	Scope string `json:"scope,omitempty"`
}

// Context references a dashboard server and the authorization used to access it
type Context struct {
	// Server is the name of the dashboard server to connect to
	Server string `json:"server,omitempty"`
	// Authorization is the name of authorization configuration to use
	Authorization string `json:"authorization,omitempty"`
}

// NamedServer associates a name to a server configuration
type NamedServer struct {
	// Name is the referencable name for the server
	Name string `json:"name"`
	// Server is the server configuration
	Server Server `json:"server"`
}

// NamedAuthorization associates a name to an authorization configuration
type NamedAuthorization struct {
	// Name is the referencable name for the authorization
	Name string `json:"name"`
	// Authorization is the authorization configuration
	Authorization Authorization `json:"authorization"`
}

// NamedContext associates a name to context configuration
type NamedContext struct {
	// Name is the referencable name for the context
	Name string `json:"name"`
	// Context is the context configuration
	Context Context `json:"context"`
}

// Credential is use to represent a credential
type Credential struct {
	// TokenCredential is used to prove authorization using a token that has already been obtained
	*TokenCredential
	// ClientCredential is used to obtain a new token for authorization using the credential information
	*ClientCredential
}

// UnmarshalJSON determines which type of credential is being used
func (c *Credential) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	switch {
	case len(m) == 0:
		return nil
	case m["access_token"] != nil && m["access_token"] != "":
		c.TokenCredential = &TokenCredential{}
		return json.Unmarshal(data, c.TokenCredential)
	case m["client_id"] != nil && m["client_id"] != "":
		c.ClientCredential = &ClientCredential{}
		return json.Unmarshal(data, c.ClientCredential)
	default:
		return fmt.Errorf("unknown credential")
	}
}

// MarshalJSON writes whichever credential is present
func (c Credential) MarshalJSON() ([]byte, error) {
	switch {
	case c.TokenCredential != nil:
		return c.TokenCredential.MarshalJSON()
	case c.ClientCredential != nil:
		return json.Marshal(c.ClientCredential)
	default:
		return []byte("{}"), nil
	}
}

// MarshalJSON ensures token expiry is persisted in UTC
func (tc *TokenCredential) MarshalJSON() ([]byte, error) {
	type TC TokenCredential
	if tc == nil {
		return []byte("null"), nil
	}
	var expiry string
	if !tc.Expiry.IsZero() {
		expiry = tc.Expiry.UTC().Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		*TC
		Expiry string `json:"expiry,omitempty"`
	}{TC: (*TC)(tc), Expiry: expiry})
}
