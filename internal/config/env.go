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
	"os"
	"sort"
)

const (
	envAddress    = "OPTUNA_DASHBOARD_ADDRESS"
	envRootPrefix = "OPTUNA_DASHBOARD_ROOT_PREFIX"
	envToken      = "OPTUNA_DASHBOARD_TOKEN"
)

// envLoader adds environment variable overrides to the configuration
func envLoader(cfg *OptunaConfig) error {
	defaultString(&cfg.Overrides.Address, os.Getenv(envAddress))
	defaultString(&cfg.Overrides.RootPrefix, os.Getenv(envRootPrefix))
	defaultString(&cfg.Overrides.Token, os.Getenv(envToken))
	return nil
}

// EnvironmentMapping returns an environment variable map from the specified configuration reader
func EnvironmentMapping(r Reader) (map[string]string, error) {
	env := make(map[string]string)

	srv, err := CurrentServer(r)
	if err != nil {
		return nil, err
	}
	env[envAddress] = srv.Address
	env[envRootPrefix] = srv.RootPrefix

	az, err := CurrentAuthorization(r)
	if err != nil {
		return nil, err
	}
	if az.Credential.TokenCredential != nil {
		env[envToken] = az.Credential.AccessToken
	}

	// Strip out blanks
	for k, v := range env {
		if v == "" {
			delete(env, k)
		}
	}
	return env, nil
}

// EnvironmentNames returns the sorted names of the supported environment variables
func EnvironmentNames() []string {
	names := []string{envAddress, envRootPrefix, envToken}
	sort.Strings(names)
	return names
}
