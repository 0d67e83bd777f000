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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo_String(t *testing.T) {
	cases := []struct {
		desc     string
		info     *Info
		expected string
	}{
		{
			desc:     "default version",
			expected: defaultVersion,
		},
		{
			desc:     "pre-release version",
			info:     &Info{Version: "v1.2.3-rc.1", BuildMetadata: "test"},
			expected: "v1.2.3-rc.1+test",
		},
		{
			desc:     "release version",
			info:     &Info{Version: "v1.2.3", BuildMetadata: "test"},
			expected: "v1.2.3",
		},
		{
			desc:     "missing version",
			info:     &Info{},
			expected: defaultVersion,
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			defer resetVersion()
			if c.info != nil {
				Version = c.info.Version
				BuildMetadata = c.info.BuildMetadata
			}

			assert.Equal(t, c.expected, GetInfo().String())
		})
	}
}

func resetVersion() {
	Version = defaultVersion
	BuildMetadata = ""
	GitCommit = ""
}
