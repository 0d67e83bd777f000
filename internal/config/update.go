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
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// SaveServer is a configuration change that persists the supplied server configuration. If the server exists,
// it is overwritten; otherwise a new named server is created.
func SaveServer(name string, srv *Server) Change {
	return func(cfg *Config) error {
		mergeServers(cfg, []NamedServer{{Name: name, Server: *srv}})
		mergeAuthorizations(cfg, []NamedAuthorization{{Name: name}})
		defaultString(&findServer(cfg.Servers, name).Address, DefaultServerAddress)
		return nil
	}
}

// SaveToken is a configuration change that persists the supplied token as a named authorization. If the authorization
// exists, it is overwritten; otherwise a new named authorization is created.
func SaveToken(name string, t *oauth2.Token) Change {
	return func(cfg *Config) error {
		az := findAuthorization(cfg.Authorizations, name)
		if az == nil {
			cfg.Authorizations = append(cfg.Authorizations, NamedAuthorization{Name: name})
			az = &cfg.Authorizations[len(cfg.Authorizations)-1].Authorization
		}

		az.Credential.ClientCredential = nil
		az.Credential.TokenCredential = &TokenCredential{
			AccessToken:  t.AccessToken,
			TokenType:    t.TokenType,
			RefreshToken: t.RefreshToken,
			Expiry:       t.Expiry,
		}
		return nil
	}
}

// ApplyCurrentContext is a configuration change that updates the values of a context and sets that context as the
// current context. If the context exists, non-empty values will overwrite; otherwise a new named context is created.
func ApplyCurrentContext(contextName, serverName, authorizationName string) Change {
	return func(cfg *Config) error {
		ctx := findContext(cfg.Contexts, contextName)
		if ctx == nil {
			cfg.Contexts = append(cfg.Contexts, NamedContext{Name: contextName})
			ctx = &cfg.Contexts[len(cfg.Contexts)-1].Context
		}

		mergeString(&cfg.CurrentContext, contextName)
		mergeString(&ctx.Server, serverName)
		mergeString(&ctx.Authorization, authorizationName)
		return nil
	}
}

// SetProperty is a configuration change that updates a single property using a dotted name notation.
func SetProperty(name, value string) Change {
	return func(cfg *Config) error {
		path := strings.Split(name, ".")
		switch path[0] {
		case "current-context":
			if len(path) == 1 {
				if findContext(cfg.Contexts, value) == nil {
					return fmt.Errorf("unknown context: %s", value)
				}
				cfg.CurrentContext = value
				return nil
			}
		case "server":
			if len(path) == 3 {
				srv := findServer(cfg.Servers, path[1])
				if srv == nil {
					cfg.Servers = append(cfg.Servers, NamedServer{Name: path[1]})
					srv = &cfg.Servers[len(cfg.Servers)-1].Server
				}
				switch path[2] {
				case "address":
					srv.Address = value
					return nil
				case "root_prefix", "root-prefix":
					srv.RootPrefix = value
					return nil
				case "token_endpoint", "token-endpoint":
					srv.TokenEndpoint = value
					return nil
				}
			}
		case "authorization":
			if len(path) == 3 && path[2] == "token" {
				return SaveToken(path[1], &oauth2.Token{AccessToken: value, TokenType: "bearer"})(cfg)
			}
		case "context":
			if len(path) == 3 {
				switch path[2] {
				case "server":
					if findServer(cfg.Servers, value) == nil {
						return fmt.Errorf("unknown %s reference: %s", path[2], value)
					}
					mergeContexts(cfg, []NamedContext{{Name: path[1], Context: Context{Server: value}}})
					return nil
				case "authorization":
					if findAuthorization(cfg.Authorizations, value) == nil {
						return fmt.Errorf("unknown %s reference: %s", path[2], value)
					}
					mergeContexts(cfg, []NamedContext{{Name: path[1], Context: Context{Authorization: value}}})
					return nil
				}
			}
		}
		return fmt.Errorf("unknown config property: %s", name)
	}
}
