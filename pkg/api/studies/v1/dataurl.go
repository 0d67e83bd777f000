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

package v1

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// NewDataURL returns the base64 encoded "data:" URL used to upload artifacts. An empty media type is
// detected from the content.
func NewDataURL(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = DetectMediaType(data)
	}
	mediaType = strings.ReplaceAll(mediaType, " ", "")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DetectMediaType returns the media type of the supplied content.
func DetectMediaType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ParseDataURL returns the media type and content of a base64 encoded "data:" URL.
func ParseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL is missing content")
	}
	mediaType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mediaType, data, nil
}
