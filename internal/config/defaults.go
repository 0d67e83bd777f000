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
)

// DefaultServerAddress is the address the dashboard listens on when started without options
const DefaultServerAddress = "http://127.0.0.1:8080"

// The default loader must NEVER make changes via OptunaConfig.Update or OptunaConfig.unpersisted

func defaultLoader(cfg *OptunaConfig) error {
	// NOTE: Any errors reported here are effectively fatal errors for a program that needs configuration since they will
	// not be able to load the configuration. Errors should be limited to unusable configurations.

	d := &defaults{cfg: &cfg.data}
	d.addDefaultObjects()
	d.applyServerDefaults()
	// No defaults for authorizations
	return d.applyContextDefaults()
}

type defaults struct {
	cfg *Config
}

func (d *defaults) addDefaultObjects() {
	if len(d.cfg.Servers) == 0 {
		d.cfg.Servers = append(d.cfg.Servers, NamedServer{Name: "default"})
	}

	if len(d.cfg.Authorizations) == 0 {
		d.cfg.Authorizations = append(d.cfg.Authorizations, NamedAuthorization{Name: "default"})
	}

	if len(d.cfg.Contexts) == 0 {
		d.cfg.Contexts = append(d.cfg.Contexts, NamedContext{Name: "default"})
	}
}

func (d *defaults) applyServerDefaults() {
	for i := range d.cfg.Servers {
		defaultString(&d.cfg.Servers[i].Server.Address, DefaultServerAddress)
	}
}

func (d *defaults) applyContextDefaults() error {
	for i := range d.cfg.Contexts {
		ctx := &d.cfg.Contexts[i].Context
		name := d.cfg.Contexts[i].Name

		if err := d.defaultServerName(&ctx.Server, name); err != nil {
			return err
		}

		if err := d.defaultAuthorizationName(&ctx.Authorization, name, ctx.Server); err != nil {
			return err
		}
	}

	return d.defaultContextName(&d.cfg.CurrentContext)
}

// Default name functions attempt to resolve a default name

func (d *defaults) defaultServerName(s *string, name string) error {
	if findServer(d.cfg.Servers, name) != nil {
		defaultString(s, name)
		return nil
	}
	if len(d.cfg.Servers) == 1 {
		defaultString(s, d.cfg.Servers[0].Name)
		return nil
	}
	if findServer(d.cfg.Servers, "default") != nil {
		defaultString(s, "default")
		return nil
	}
	if *s != "" {
		return nil
	}
	return fmt.Errorf("could not imply default server name for context: %s", name)
}

func (d *defaults) defaultAuthorizationName(s *string, name, server string) error {
	if findAuthorization(d.cfg.Authorizations, name) != nil {
		defaultString(s, name)
		return nil
	}
	if findAuthorization(d.cfg.Authorizations, server) != nil {
		defaultString(s, server)
		return nil
	}
	if len(d.cfg.Authorizations) == 1 {
		defaultString(s, d.cfg.Authorizations[0].Name)
		return nil
	}
	if findAuthorization(d.cfg.Authorizations, "default") != nil {
		defaultString(s, "default")
		return nil
	}
	if *s != "" {
		return nil
	}
	return fmt.Errorf("could not imply default authorization name for context: %s", name)
}

func (d *defaults) defaultContextName(s *string) error {
	if len(d.cfg.Contexts) == 1 {
		defaultString(s, d.cfg.Contexts[0].Name)
		return nil
	}
	if findContext(d.cfg.Contexts, "default") != nil {
		defaultString(s, "default")
		return nil
	}
	if *s != "" {
		return nil
	}
	return fmt.Errorf("could not imply default current context")
}
