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

import "fmt"

// Reader exposes the named objects of a configuration
type Reader interface {
	// ServerName returns the server name for the specified context
	ServerName(contextName string) (string, error)
	// Server returns the named server configuration
	Server(name string) (Server, error)
	// AuthorizationName returns authorization name for the specified context
	AuthorizationName(contextName string) (string, error)
	// Authorization returns the named authorization configuration
	Authorization(name string) (Authorization, error)
	// ContextName returns current context name
	ContextName() string
	// Context returns the named context configuration
	Context(name string) (Context, error)
}

// NotFoundError is returned when a configuration object does not exist
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config: %s '%s' not found", e.Kind, e.Name)
}

// CurrentServer returns the server of the current context
func CurrentServer(r Reader) (Server, error) {
	_, srv, err := contextServer(r, r.ContextName())
	return srv, err
}

// CurrentAuthorization returns the authorization of the current context
func CurrentAuthorization(r Reader) (Authorization, error) {
	_, az, err := contextAuthorization(r, r.ContextName())
	return az, err
}

func contextServer(r Reader, contextName string) (string, Server, error) {
	name, err := r.ServerName(contextName)
	if err != nil {
		return "", Server{}, err
	}
	srv, err := r.Server(name)
	return name, srv, err
}

func contextAuthorization(r Reader, contextName string) (string, Authorization, error) {
	name, err := r.AuthorizationName(contextName)
	if err != nil {
		return "", Authorization{}, err
	}
	az, err := r.Authorization(name)
	return name, az, err
}

// Minify creates a new configuration holding only the current context and the objects it refers to,
// as seen through the reader (i.e. including overrides and defaults)
func Minify(r Reader) (*Config, error) {
	contextName := r.ContextName()
	ctx, err := r.Context(contextName)
	if err != nil {
		return nil, err
	}

	serverName, srv, err := contextServer(r, contextName)
	if err != nil {
		return nil, err
	}

	authorizationName, az, err := contextAuthorization(r, contextName)
	if err != nil {
		return nil, err
	}

	return &Config{
		Servers:        []NamedServer{{Name: serverName, Server: srv}},
		Authorizations: []NamedAuthorization{{Name: authorizationName, Authorization: az}},
		Contexts:       []NamedContext{{Name: contextName, Context: ctx}},
		CurrentContext: contextName,
	}, nil
}

// defaultReader reads the merged configuration data directly
type defaultReader struct {
	cfg *Config
}

var _ Reader = &defaultReader{}

func (d *defaultReader) ContextName() string {
	return d.cfg.CurrentContext
}

func (d *defaultReader) Context(name string) (Context, error) {
	if ctx := findContext(d.cfg.Contexts, name); ctx != nil {
		return *ctx, nil
	}
	return Context{}, &NotFoundError{Kind: "context", Name: name}
}

// reference returns one of the names a context refers to
func (d *defaultReader) reference(contextName, kind string, ref func(*Context) string) (string, error) {
	ctx, err := d.Context(contextName)
	if err != nil {
		return "", err
	}
	if name := ref(&ctx); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("config: context '%s' does not have a %s", contextName, kind)
}

func (d *defaultReader) ServerName(contextName string) (string, error) {
	return d.reference(contextName, "server", func(ctx *Context) string { return ctx.Server })
}

func (d *defaultReader) Server(name string) (Server, error) {
	if srv := findServer(d.cfg.Servers, name); srv != nil {
		return *srv, nil
	}
	return Server{}, &NotFoundError{Kind: "server", Name: name}
}

func (d *defaultReader) AuthorizationName(contextName string) (string, error) {
	return d.reference(contextName, "authorization", func(ctx *Context) string { return ctx.Authorization })
}

func (d *defaultReader) Authorization(name string) (Authorization, error) {
	if az := findAuthorization(d.cfg.Authorizations, name); az != nil {
		return *az, nil
	}
	return Authorization{}, &NotFoundError{Kind: "authorization", Name: name}
}
