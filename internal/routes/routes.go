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

// Package routes describes the pages served by the dashboard front end.
package routes

import (
	"fmt"
	"strconv"
	"strings"
)

// Page identifies a dashboard view.
type Page string

const (
	PageStudyList         Page = "studyList"
	PageCompareStudies    Page = "compareStudies"
	PageTop               Page = "top"
	PageAnalytics         Page = "analytics"
	PageTrialList         Page = "trialList"
	PageTrialTable        Page = "trialTable"
	PageTrialSelection    Page = "trialSelection"
	PageNote              Page = "note"
	PageGraph             Page = "graph"
	PagePreferenceHistory Page = "preferenceHistory"
)

const studyIDParam = ":studyId"

// Route associates a path pattern with the page it renders.
type Route struct {
	// Path is the pattern relative to the dashboard root, segments starting with ":" are parameters
	Path string
	// Page is the rendered view
	Page Page
}

// Table lists every dashboard route in match order.
var Table = []Route{
	{Path: "/dashboard/studies/:studyId/analytics", Page: PageAnalytics},
	{Path: "/dashboard/studies/:studyId/trials", Page: PageTrialList},
	{Path: "/dashboard/studies/:studyId/trialTable", Page: PageTrialTable},
	{Path: "/dashboard/studies/:studyId/trialSelection", Page: PageTrialSelection},
	{Path: "/dashboard/studies/:studyId/note", Page: PageNote},
	{Path: "/dashboard/studies/:studyId/graph", Page: PageGraph},
	{Path: "/dashboard/studies/:studyId", Page: PageTop},
	{Path: "/dashboard/studies/:studyId/preference-history", Page: PagePreferenceHistory},
	{Path: "/dashboard/compare-studies", Page: PageCompareStudies},
	{Path: "/dashboard", Page: PageStudyList},
}

// Pages returns the names of every page in table order.
func Pages() []string {
	pages := make([]string, 0, len(Table))
	for _, r := range Table {
		pages = append(pages, string(r.Page))
	}
	return pages
}

// Lookup returns the route for a page.
func Lookup(page Page) (Route, bool) {
	for _, r := range Table {
		if r.Page == page {
			return r, true
		}
	}
	return Route{}, false
}

// NeedsStudy returns true if the route is scoped to a single study.
func (r Route) NeedsStudy() bool {
	return strings.Contains(r.Path, studyIDParam)
}

// Expand fills in the route parameters.
func (r Route) Expand(studyID int) (string, error) {
	if !r.NeedsStudy() {
		return r.Path, nil
	}
	if studyID < 0 {
		return "", fmt.Errorf("page %s requires a study identifier", r.Page)
	}
	return strings.Replace(r.Path, studyIDParam, strconv.Itoa(studyID), 1), nil
}

// RouteMatch is the result of resolving a path against the route table.
type RouteMatch struct {
	Route
	// StudyID is the study the page is scoped to, or -1
	StudyID int
}

// Match finds the first route matching the supplied path.
func Match(path string) (RouteMatch, bool) {
	segments := splitPath(path)
	for _, r := range Table {
		if m, ok := r.match(segments); ok {
			return m, true
		}
	}
	return RouteMatch{}, false
}

func (r Route) match(segments []string) (RouteMatch, bool) {
	pattern := splitPath(r.Path)
	if len(pattern) != len(segments) {
		return RouteMatch{}, false
	}

	m := RouteMatch{Route: r, StudyID: -1}
	for i := range pattern {
		if pattern[i] == studyIDParam {
			id, err := strconv.Atoi(segments[i])
			if err != nil || id < 0 {
				return RouteMatch{}, false
			}
			m.StudyID = id
			continue
		}
		if pattern[i] != segments[i] {
			return RouteMatch{}, false
		}
	}
	return m, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
