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
	"net/http"
	"strings"

	"golang.org/x/mod/semver"
)

const defaultProduct = "optunactl"

// UserAgent wraps the (possibly nil) transport so that it will set the user agent
// using the supplied product name and current version
func UserAgent(product, comment string, transport http.RoundTripper) http.RoundTripper {
	if product == "" {
		product = defaultProduct
	}
	return &Transport{
		UserAgent: userAgentString(product, comment, GetInfo()),
		Base:      transport,
	}
}

// Transport sets the `User-Agent` header
type Transport struct {
	// UserAgent string to use, defaults to "optunactl/{version}" if unset
	UserAgent string
	// Base transport to use, uses the system default if nil
	Base http.RoundTripper
}

// RoundTrip sets the user agent on a copy of the request and delegates to the base transport
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ua := t.UserAgent
	if ua == "" {
		ua = userAgentString(defaultProduct, "", GetInfo())
	}

	// Round trippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", ua)
	return t.base().RoundTrip(req)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func userAgentString(product, comment string, info *Info) string {
	v := info.Version
	if !semver.IsValid(v) {
		v = defaultVersion
	}

	ua := strings.Builder{}
	ua.WriteString(product)
	ua.WriteRune('/')
	ua.WriteString(strings.TrimPrefix(v, "v"))

	var comments []string

	// Only include build metadata for pre-release versions
	if semver.Prerelease(v) != "" && info.BuildMetadata != "" {
		comments = append(comments, info.BuildMetadata)
	}

	// Clean white space and surrounding comment indicators
	comment = strings.TrimSpace(comment)
	comment = strings.TrimLeft(comment, "(")
	comment = strings.TrimRight(comment, ")")
	comment = strings.TrimSpace(comment)
	if comment != "" {
		comments = append(comments, comment)
	}

	if len(comments) > 0 {
		ua.WriteString(" (" + strings.Join(comments, "; ") + ")")
	}

	return ua.String()
}
