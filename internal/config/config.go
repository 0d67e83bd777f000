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
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Loader is used to initially populate a configuration
type Loader func(cfg *OptunaConfig) error

// Change is used to apply a configuration change that should be persisted
type Change func(cfg *Config) error

// OptunaConfig is the structure used to manage configuration data
type OptunaConfig struct {
	// Filename is the path to the configuration file; if left blank, it will be populated using XDG base directory conventions on the next Load
	Filename string
	// Overrides to the standard configuration
	Overrides Overrides

	data        Config
	unpersisted []Change
}

// MarshalJSON ensures only the configuration data is marshalled
func (cfg *OptunaConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(cfg.data)
}

// Load will populate the client configuration
func (cfg *OptunaConfig) Load(extra ...Loader) error {
	var loaders []Loader
	loaders = append(loaders, fileLoader)
	loaders = append(loaders, extra...)
	loaders = append(loaders, envLoader, defaultLoader)
	for i := range loaders {
		if err := loaders[i](cfg); err != nil {
			return err
		}
	}
	return nil
}

// Update will make a change to the configuration data that should be persisted on the next call to Write
func (cfg *OptunaConfig) Update(change Change) error {
	if err := change(&cfg.data); err != nil {
		return err
	}
	cfg.unpersisted = append(cfg.unpersisted, change)
	return nil
}

// Write all unpersisted changes to disk
func (cfg *OptunaConfig) Write() error {
	if cfg.Filename == "" || len(cfg.unpersisted) == 0 {
		return nil
	}

	// Replay the changes against the file contents so overrides and defaults are not persisted
	data, err := readConfigFile(cfg.Filename)
	if err != nil {
		return err
	}

	for i := range cfg.unpersisted {
		if err := cfg.unpersisted[i](data); err != nil {
			return err
		}
	}

	if err := writeConfigFile(cfg.Filename, data); err != nil {
		return err
	}

	cfg.unpersisted = nil
	return nil
}

// Merge combines the supplied data with what is already present in this client configuration; unlike Update, changes
// will not be persisted on the next write
func (cfg *OptunaConfig) Merge(data *Config) {
	mergeServers(&cfg.data, data.Servers)
	mergeAuthorizations(&cfg.data, data.Authorizations)
	mergeContexts(&cfg.data, data.Contexts)
	mergeString(&cfg.data.CurrentContext, data.CurrentContext)
}

// Reader returns a configuration reader for accessing information from the configuration
func (cfg *OptunaConfig) Reader() Reader {
	return &overrideReader{overrides: &cfg.Overrides, delegate: &defaultReader{cfg: &cfg.data}}
}

// Authorize configures the supplied transport
func (cfg *OptunaConfig) Authorize(ctx context.Context, transport http.RoundTripper) (http.RoundTripper, error) {
	src, err := cfg.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	if src != nil {
		return &oauth2.Transport{Source: src, Base: transport}, nil
	}
	return transport, nil
}

func (cfg *OptunaConfig) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	r := cfg.Reader()
	srv, err := CurrentServer(r)
	if err != nil {
		return nil, err
	}
	az, err := CurrentAuthorization(r)
	if err != nil {
		return nil, err
	}

	if az.Credential.ClientCredential != nil {
		if srv.TokenEndpoint == "" {
			return nil, fmt.Errorf("client credentials require a token endpoint")
		}
		cc := clientcredentials.Config{
			ClientID:     az.Credential.ClientID,
			ClientSecret: az.Credential.ClientSecret,
			TokenURL:     srv.TokenEndpoint,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		if az.Credential.Scope != "" {
			cc.Scopes = []string{az.Credential.Scope}
		}
		return cc.TokenSource(ctx), nil
	}

	if az.Credential.TokenCredential != nil {
		t := &oauth2.Token{
			AccessToken:  az.Credential.AccessToken,
			TokenType:    az.Credential.TokenType,
			RefreshToken: az.Credential.RefreshToken,
			Expiry:       az.Credential.Expiry,
		}

		// Without a token endpoint there is no way to refresh
		if t.RefreshToken == "" || srv.TokenEndpoint == "" {
			return oauth2.StaticTokenSource(t), nil
		}

		c := &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  srv.TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
		return c.TokenSource(ctx, t), nil
	}

	return nil, nil
}
