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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		desc     string
		path     string
		page     Page
		studyID  int
		notFound bool
	}{
		{desc: "study list", path: "/dashboard", page: PageStudyList, studyID: -1},
		{desc: "trailing slash", path: "/dashboard/", page: PageStudyList, studyID: -1},
		{desc: "compare", path: "/dashboard/compare-studies", page: PageCompareStudies, studyID: -1},
		{desc: "top", path: "/dashboard/studies/3", page: PageTop, studyID: 3},
		{desc: "analytics", path: "/dashboard/studies/3/analytics", page: PageAnalytics, studyID: 3},
		{desc: "trials", path: "/dashboard/studies/12/trials", page: PageTrialList, studyID: 12},
		{desc: "table", path: "/dashboard/studies/1/trialTable", page: PageTrialTable, studyID: 1},
		{desc: "selection", path: "/dashboard/studies/1/trialSelection", page: PageTrialSelection, studyID: 1},
		{desc: "note", path: "/dashboard/studies/1/note", page: PageNote, studyID: 1},
		{desc: "graph", path: "/dashboard/studies/1/graph", page: PageGraph, studyID: 1},
		{desc: "preference history", path: "/dashboard/studies/1/preference-history", page: PagePreferenceHistory, studyID: 1},
		{desc: "non-numeric study", path: "/dashboard/studies/abc", notFound: true},
		{desc: "unknown page", path: "/dashboard/studies/1/unknown", notFound: true},
		{desc: "root", path: "/", notFound: true},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			m, ok := Match(c.path)
			if c.notFound {
				assert.False(t, ok)
				return
			}
			if assert.True(t, ok) {
				assert.Equal(t, c.page, m.Page)
				assert.Equal(t, c.studyID, m.StudyID)
			}
		})
	}
}

func TestTable(t *testing.T) {
	seen := make(map[Page]bool)
	for _, r := range Table {
		assert.False(t, seen[r.Page], "duplicate page %s", r.Page)
		seen[r.Page] = true

		// Every expanded route must match itself
		p, err := r.Expand(7)
		require.NoError(t, err)
		m, ok := Match(p)
		if assert.True(t, ok, p) {
			assert.Equal(t, r.Page, m.Page)
		}
	}
	assert.Len(t, Pages(), len(Table))

	_, err := Table[0].Expand(-1)
	assert.Error(t, err)
}

func TestResolver(t *testing.T) {
	cases := []struct {
		desc        string
		resolver    Resolver
		page        string
		trialLink   string
		csv         string
		csvSelected string
	}{
		{
			desc:        "no prefix",
			resolver:    Resolver{Address: "http://127.0.0.1:8080"},
			page:        "http://127.0.0.1:8080/dashboard/studies/5/note",
			trialLink:   "http://127.0.0.1:8080/dashboard/studies/5/trials?numbers=2",
			csv:         "http://127.0.0.1:8080/csv/5",
			csvSelected: "http://127.0.0.1:8080/csv/5?trial_ids=1,2,10",
		},
		{
			desc:        "prefix",
			resolver:    Resolver{Address: "https://example.com/", RootPrefix: "optuna/"},
			page:        "https://example.com/optuna/dashboard/studies/5/note",
			trialLink:   "https://example.com/optuna/dashboard/studies/5/trials?numbers=2",
			csv:         "https://example.com/optuna/csv/5",
			csvSelected: "https://example.com/optuna/csv/5?trial_ids=1,2,10",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			u, err := c.resolver.PageURL(PageNote, 5)
			if assert.NoError(t, err) {
				assert.Equal(t, c.page, u.String())
			}

			u, err = c.resolver.TrialLink(5, 2)
			if assert.NoError(t, err) {
				assert.Equal(t, c.trialLink, u.String())
			}

			u, err = c.resolver.CSVURL(5, nil)
			if assert.NoError(t, err) {
				assert.Equal(t, c.csv, u.String())
			}

			u, err = c.resolver.CSVURL(5, []int{1, 2, 10})
			if assert.NoError(t, err) {
				assert.Equal(t, c.csvSelected, u.String())
			}

			m, err := c.resolver.Parse(c.page)
			if assert.NoError(t, err) {
				assert.Equal(t, PageNote, m.Page)
				assert.Equal(t, 5, m.StudyID)
			}
		})
	}

	r := Resolver{Address: "http://127.0.0.1:8080", RootPrefix: "/optuna"}
	_, err := r.Parse("http://127.0.0.1:8080/dashboard")
	assert.Error(t, err)
	_, err = r.PageURL(Page("nope"), 0)
	assert.Error(t, err)
	_, err = (&Resolver{Address: "localhost"}).PageURL(PageStudyList, -1)
	assert.Error(t, err)
}
