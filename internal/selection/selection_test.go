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

package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thestormforge/optunactl/internal/routes"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

func TestParse(t *testing.T) {
	cases := []struct {
		desc     string
		text     string
		expected []int
		err      bool
	}{
		{desc: "empty", text: "", expected: []int{}},
		{desc: "list", text: "3,1,2", expected: []int{1, 2, 3}},
		{desc: "duplicates", text: "2, 2 ,1", expected: []int{1, 2}},
		{desc: "range", text: "1,4-6", expected: []int{1, 4, 5, 6}},
		{desc: "overlapping range", text: "5,4-6", expected: []int{4, 5, 6}},
		{desc: "backwards range", text: "6-4", err: true},
		{desc: "negative", text: "-1", err: true},
		{desc: "garbage", text: "x", err: true},
		{desc: "huge range", text: "0-2000000000", err: true},
		{desc: "widest range", text: "10-100009", expected: func() []int {
			n := make([]int, MaxRange)
			for i := range n {
				n[i] = 10 + i
			}
			return n
		}()},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			s, err := Parse(c.text)
			if c.err {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, s.Numbers())
			}
		})
	}
}

func TestSelection(t *testing.T) {
	s := New(4, 2, 2)
	assert.Equal(t, "2,4", s.String())
	assert.True(t, s.Contains(4))
	assert.False(t, s.Contains(3))

	toggled := s.Toggle(3).Toggle(4)
	assert.Equal(t, []int{2, 3}, toggled.Numbers())
	assert.Equal(t, []int{2, 4}, s.Numbers(), "selections are values")

	n := s.Numbers()
	n[0] = 99
	assert.Equal(t, []int{2, 4}, s.Numbers())

	study := &v1.StudyDetail{ID: 9, Trials: []v1.Trial{{Number: 0}, {Number: 2}, {Number: 4}}}
	assert.Len(t, New().Trials(study), 3)
	assert.Equal(t, []v1.Trial{{Number: 2}, {Number: 4}}, s.Trials(study))
	assert.Equal(t, []int{7}, New(2, 7).Missing(study))
	assert.Empty(t, s.Missing(study))

	u, err := s.CSVURL(&routes.Resolver{Address: "http://127.0.0.1:8080", RootPrefix: "/optuna"}, study.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, "http://127.0.0.1:8080/optuna/csv/9?trial_ids=2,4", u.String())
	}
	u, err = New().CSVURL(&routes.Resolver{Address: "http://127.0.0.1:8080"}, study.ID)
	if assert.NoError(t, err) {
		assert.Equal(t, "http://127.0.0.1:8080/csv/9", u.String())
	}
}

func trial(number int, state v1.TrialState, constraints []float64, values ...float64) v1.Trial {
	t := v1.Trial{Number: number, State: state, Constraints: constraints}
	for _, v := range values {
		t.Values = append(t.Values, numstr.FromFloat64(v))
	}
	return t
}

func numbers(trials []v1.Trial) []int {
	out := []int{}
	for _, t := range trials {
		out = append(out, t.Number)
	}
	return out
}

func TestCandidates(t *testing.T) {
	multi := &v1.StudyDetail{
		Directions: []v1.StudyDirection{v1.StudyDirectionMinimize, v1.StudyDirectionMaximize},
		Trials: []v1.Trial{
			trial(0, v1.TrialStateComplete, nil, 1, 1),
			trial(1, v1.TrialStateComplete, nil, 2, 2),
			trial(2, v1.TrialStateComplete, nil, 2, 1),          // dominated by 0 and 1
			trial(3, v1.TrialStateComplete, []float64{1}, 0, 5), // infeasible
			trial(4, v1.TrialStateRunning, nil),
			trial(5, v1.TrialStateComplete, nil, 1),
		},
	}
	single := &v1.StudyDetail{
		Directions: []v1.StudyDirection{v1.StudyDirectionMinimize},
		Trials: []v1.Trial{
			trial(0, v1.TrialStateComplete, nil, 3),
			trial(1, v1.TrialStateComplete, []float64{0.5}, 1),
			trial(2, v1.TrialStateFail, nil),
			trial(3, v1.TrialStateComplete, nil, 2),
		},
	}
	single.Trials[3].Values[0] = numstr.FromString(numstr.NaN)

	cases := []struct {
		desc     string
		study    *v1.StudyDetail
		opts     Options
		expected []int
	}{
		{desc: "multi defaults", study: multi, opts: DefaultOptions(), expected: []int{0, 1, 2, 3}},
		{desc: "multi feasible", study: multi, opts: Options{IncludeDominated: true}, expected: []int{0, 1, 2}},
		{desc: "multi pareto front", study: multi, opts: Options{IncludeInfeasible: true}, expected: []int{0, 1}},
		{desc: "single defaults", study: single, opts: DefaultOptions(), expected: []int{0, 1}},
		{desc: "single ignores dominance", study: single, opts: Options{IncludeInfeasible: true}, expected: []int{0, 1}},
		{desc: "single feasible", study: single, opts: Options{}, expected: []int{0}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			assert.Equal(t, c.expected, numbers(Candidates(c.study, c.opts)))
		})
	}
}

func TestDominates(t *testing.T) {
	dirs := []v1.StudyDirection{v1.StudyDirectionMinimize, v1.StudyDirectionMaximize}
	a := trial(0, v1.TrialStateComplete, nil, 1, 2)
	b := trial(1, v1.TrialStateComplete, nil, 1, 1)
	inf := trial(2, v1.TrialStateComplete, nil, 0, 0)
	inf.Values[0] = numstr.FromString(numstr.Inf)

	assert.True(t, Dominates(dirs, &a, &b))
	assert.False(t, Dominates(dirs, &b, &a))
	assert.False(t, Dominates(dirs, &a, &a))
	assert.True(t, Dominates(dirs, &b, &inf))

	// Unfinished trials have no values to compare
	running := trial(3, v1.TrialStateRunning, nil)
	assert.False(t, Dominates(dirs, &a, &running))
	assert.False(t, Dominates(dirs, &running, &a))
}
