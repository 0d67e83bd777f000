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

// Merge lists

func mergeServers(data *Config, servers []NamedServer) {
	for i := range servers {
		if srv := findServer(data.Servers, servers[i].Name); srv != nil {
			mergeServer(srv, &servers[i].Server)
			continue
		}
		data.Servers = append(data.Servers, servers[i])
	}
}

func mergeAuthorizations(data *Config, authorizations []NamedAuthorization) {
	for i := range authorizations {
		if az := findAuthorization(data.Authorizations, authorizations[i].Name); az != nil {
			mergeAuthorization(az, &authorizations[i].Authorization)
			continue
		}
		data.Authorizations = append(data.Authorizations, authorizations[i])
	}
}

func mergeContexts(data *Config, contexts []NamedContext) {
	for i := range contexts {
		if ctx := findContext(data.Contexts, contexts[i].Name); ctx != nil {
			mergeContext(ctx, &contexts[i].Context)
			continue
		}
		data.Contexts = append(data.Contexts, contexts[i])
	}
}

// Merge elements

func mergeServer(s1, s2 *Server) {
	mergeString(&s1.Address, s2.Address)
	mergeString(&s1.RootPrefix, s2.RootPrefix)
	mergeString(&s1.TokenEndpoint, s2.TokenEndpoint)
}

func mergeAuthorization(a1, a2 *Authorization) {
	// Do not merge credentials, just copy them wholesale if they are present
	if a2.Credential.TokenCredential != nil && a2.Credential.AccessToken != "" {
		tc := *a2.Credential.TokenCredential
		a1.Credential.TokenCredential = &tc
		a1.Credential.ClientCredential = nil
	}
	if a2.Credential.ClientCredential != nil && a2.Credential.ClientID != "" {
		cc := *a2.Credential.ClientCredential
		a1.Credential.ClientCredential = &cc
		a1.Credential.TokenCredential = nil
	}
}

func mergeContext(c1, c2 *Context) {
	mergeString(&c1.Server, c2.Server)
	mergeString(&c1.Authorization, c2.Authorization)
}

// Merge types

// mergeString overwrites s1 with a non-empty value of s2
func mergeString(s1 *string, s2 string) {
	if s2 != "" {
		*s1 = s2
	}
}

// defaultString overwrites an empty s1 with the value of s2
func defaultString(s1 *string, s2 string) {
	if *s1 == "" {
		*s1 = s2
	}
}

// Find elements

func findServer(l []NamedServer, name string) *Server {
	for i := range l {
		if l[i].Name == name {
			return &l[i].Server
		}
	}
	return nil
}

func findAuthorization(l []NamedAuthorization, name string) *Authorization {
	for i := range l {
		if l[i].Name == name {
			return &l[i].Authorization
		}
	}
	return nil
}

func findContext(l []NamedContext, name string) *Context {
	for i := range l {
		if l[i].Name == name {
			return &l[i].Context
		}
	}
	return nil
}
