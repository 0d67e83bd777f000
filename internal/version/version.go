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

package version

import (
	"golang.org/x/mod/semver"
)

const defaultVersion = "v0.0.0-source"

// These variables are populated by the linker, e.g. `-X github.com/thestormforge/optunactl/internal/version.Version=v1.0.0`
var (
	// Version is the semantic version of the build
	Version = defaultVersion
	// BuildMetadata is the build metadata to append to pre-release versions
	BuildMetadata = ""
	// GitCommit is the commit the build was produced from
	GitCommit = ""
)

// Info describes the build
type Info struct {
	Version       string `json:"version"`
	GitCommit     string `json:"gitCommit,omitempty"`
	BuildMetadata string `json:"buildMetadata,omitempty"`
}

// String returns the version, including build metadata only for pre-release versions
func (i *Info) String() string {
	v := i.Version
	if !semver.IsValid(v) {
		return defaultVersion
	}
	if semver.Prerelease(v) != "" && i.BuildMetadata != "" {
		v += "+" + i.BuildMetadata
	}
	return v
}

// GetInfo returns the version information of the current build
func GetInfo() *Info {
	return &Info{
		Version:       Version,
		GitCommit:     GitCommit,
		BuildMetadata: BuildMetadata,
	}
}
