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

package routes

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/thestormforge/optunactl/pkg/api"
)

// Resolver produces absolute links into a dashboard mounted under a root prefix.
type Resolver struct {
	// Address is the absolute URL of the dashboard server
	Address string
	// RootPrefix is the path the dashboard is mounted under
	RootPrefix string
}

// PageURL returns the location of a page, the study identifier is ignored for pages that are not study scoped.
func (r *Resolver) PageURL(page Page, studyID int) (*url.URL, error) {
	route, ok := Lookup(page)
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	p, err := route.Expand(studyID)
	if err != nil {
		return nil, err
	}
	return r.url(p)
}

// TrialLink returns the location of the trial list filtered to a single trial.
func (r *Resolver) TrialLink(studyID, trialNumber int) (*url.URL, error) {
	u, err := r.PageURL(PageTrialList, studyID)
	if err != nil {
		return nil, err
	}
	u.RawQuery = url.Values{"numbers": []string{strconv.Itoa(trialNumber)}}.Encode()
	return u, nil
}

// CSVURL returns the download location of the trials of a study, limited to the supplied trial numbers if any.
func (r *Resolver) CSVURL(studyID int, trialNumbers []int) (*url.URL, error) {
	u, err := r.url("/csv/" + strconv.Itoa(studyID))
	if err != nil {
		return nil, err
	}
	if len(trialNumbers) > 0 {
		ids := make([]string, 0, len(trialNumbers))
		for _, n := range trialNumbers {
			ids = append(ids, strconv.Itoa(n))
		}
		// The server splits on literal commas
		u.RawQuery = "trial_ids=" + strings.Join(ids, ",")
	}
	return u, nil
}

// Parse resolves an absolute dashboard link back to its route.
func (r *Resolver) Parse(link string) (RouteMatch, error) {
	u, err := url.Parse(link)
	if err != nil {
		return RouteMatch{}, err
	}

	p := u.Path
	if prefix := api.NormalizeRootPrefix(r.RootPrefix); prefix != "" {
		if p != prefix && !strings.HasPrefix(p, prefix+"/") {
			return RouteMatch{}, fmt.Errorf("%s is not under %s", u.Path, prefix)
		}
		p = strings.TrimPrefix(p, prefix)
	}

	m, ok := Match(p)
	if !ok {
		return RouteMatch{}, fmt.Errorf("no dashboard page at %s", u.Path)
	}
	return m, nil
}

func (r *Resolver) url(p string) (*url.URL, error) {
	u, err := url.Parse(r.Address)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("dashboard address must be absolute: %s", r.Address)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + api.NormalizeRootPrefix(r.RootPrefix) + p
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
