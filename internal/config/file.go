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
	"bytes"
	"os"
	"path/filepath"

	yaml2 "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// configFilename is the location of the configuration relative to an XDG configuration directory
const configFilename = "optunactl/config"

// configSearchPath returns the XDG configuration file candidates: the user's file first, then
// the system directories in preference order.
func configSearchPath() []string {
	home := os.Getenv("XDG_CONFIG_HOME")
	if home == "" {
		userHome := os.Getenv("HOME")
		if userHome == "" {
			userHome, _ = os.UserHomeDir()
		}
		home = filepath.Join(userHome, ".config")
	}

	dirs := os.Getenv("XDG_CONFIG_DIRS")
	if dirs == "" {
		dirs = "/etc/xdg"
	}

	paths := []string{filepath.Join(home, configFilename)}
	for _, dir := range filepath.SplitList(dirs) {
		paths = append(paths, filepath.Join(dir, configFilename))
	}
	return paths
}

// fileLoader merges the configuration file. Without an explicit filename the first existing file on
// the search path is read, changes are always written back to the user's file.
func fileLoader(cfg *OptunaConfig) error {
	filename := cfg.Filename
	if filename == "" {
		paths := configSearchPath()
		cfg.Filename, filename = paths[0], paths[0]
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				filename = p
				break
			}
		}
	}

	data, err := readConfigFile(filename)
	if err != nil {
		return err
	}

	cfg.Merge(data)
	return nil
}

// readConfigFile decodes a YAML or JSON configuration; a missing file is an empty configuration
func readConfigFile(filename string) (*Config, error) {
	data := &Config{}
	b, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
		return data, nil
	case err != nil:
		return nil, err
	case len(bytes.TrimSpace(b)) == 0:
		return data, nil
	}

	if err := yaml2.NewYAMLOrJSONDecoder(bytes.NewReader(b), 4096).Decode(data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeConfigFile stores the configuration as YAML, it may contain tokens so only the owner can read it
func writeConfigFile(filename string, data *Config) error {
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0600)
}
