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
	"math"

	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// Options control which completed trials are offered for selection.
type Options struct {
	// IncludeInfeasible keeps trials that violate at least one constraint
	IncludeInfeasible bool
	// IncludeDominated keeps trials that are not on the Pareto front, only meaningful for multi-objective studies
	IncludeDominated bool
}

// DefaultOptions includes every completed trial.
func DefaultOptions() Options {
	return Options{IncludeInfeasible: true, IncludeDominated: true}
}

// Candidates returns the completed trials of a study that can be selected.
func Candidates(study *v1.StudyDetail, opts Options) []v1.Trial {
	multiObjective := len(study.Directions) > 1

	// Dominance is only defined over feasible trials
	if multiObjective && !opts.IncludeDominated {
		opts.IncludeInfeasible = false
	}

	var trials []v1.Trial
	for _, t := range study.Trials {
		if t.State != v1.TrialStateComplete || !hasValues(&t, len(study.Directions)) {
			continue
		}
		if !opts.IncludeInfeasible && !Feasible(&t) {
			continue
		}
		trials = append(trials, t)
	}

	if !multiObjective || opts.IncludeDominated {
		return trials
	}

	front := make([]v1.Trial, 0, len(trials))
	for i := range trials {
		dominated := false
		for j := range trials {
			if i != j && Dominates(study.Directions, &trials[j], &trials[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, trials[i])
		}
	}
	return front
}

// Feasible checks that a trial satisfies all of its constraints.
func Feasible(t *v1.Trial) bool {
	for _, c := range t.Constraints {
		if c > 0 {
			return false
		}
	}
	return true
}

// Dominates checks if trial a is no worse than trial b in every objective and better in at least one.
// Trials without a value for every objective never dominate and are never dominated.
func Dominates(directions []v1.StudyDirection, a, b *v1.Trial) bool {
	if len(a.Values) < len(directions) || len(b.Values) < len(directions) {
		return false
	}

	better := false
	for i, d := range directions {
		av, bv := a.Values[i].Float64Value(), b.Values[i].Float64Value()
		if d == v1.StudyDirectionMaximize {
			av, bv = -av, -bv
		}
		if av > bv {
			return false
		}
		if av < bv {
			better = true
		}
	}
	return better
}

func hasValues(t *v1.Trial, objectives int) bool {
	if len(t.Values) != objectives {
		return false
	}
	for i := range t.Values {
		if math.IsNaN(t.Values[i].Float64Value()) {
			return false
		}
	}
	return true
}
