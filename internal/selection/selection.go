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

// Package selection picks trials out of a study the way the trial selection page does.
package selection

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/thestormforge/optunactl/internal/routes"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// Selection is an ordered set of unique trial numbers.
type Selection struct {
	numbers []int
}

// New returns a selection of the supplied trial numbers.
func New(numbers ...int) Selection {
	s := Selection{}
	return s.Add(numbers...)
}

// MaxRange is the largest number of trials a single range may expand to.
const MaxRange = 100000

// Parse reads a comma separated list of trial numbers and inclusive ranges, e.g. "1,4-6".
func Parse(text string) (Selection, error) {
	var numbers []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 0 {
			return Selection{}, fmt.Errorf("invalid trial number %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || last < first {
				return Selection{}, fmt.Errorf("invalid trial range %q", part)
			}
			if last-first >= MaxRange {
				return Selection{}, fmt.Errorf("trial range %q is larger than %d trials", part, MaxRange)
			}
		}
		for n := first; n <= last; n++ {
			numbers = append(numbers, n)
		}
	}
	return New(numbers...), nil
}

// Add returns a selection which also includes the supplied trial numbers.
func (s Selection) Add(numbers ...int) Selection {
	merged := make([]int, 0, len(s.numbers)+len(numbers))
	merged = append(merged, s.numbers...)
	merged = append(merged, numbers...)
	sort.Ints(merged)

	out := merged[:0]
	for i, n := range merged {
		if i > 0 && n == merged[i-1] {
			continue
		}
		out = append(out, n)
	}
	return Selection{numbers: out}
}

// Toggle returns a selection with the membership of a single trial number flipped.
func (s Selection) Toggle(number int) Selection {
	if !s.Contains(number) {
		return s.Add(number)
	}
	out := make([]int, 0, len(s.numbers)-1)
	for _, n := range s.numbers {
		if n != number {
			out = append(out, n)
		}
	}
	return Selection{numbers: out}
}

// Contains checks if a trial number is selected.
func (s Selection) Contains(number int) bool {
	i := sort.SearchInts(s.numbers, number)
	return i < len(s.numbers) && s.numbers[i] == number
}

// Len returns the number of selected trials.
func (s Selection) Len() int {
	return len(s.numbers)
}

// Numbers returns the selected trial numbers in ascending order.
func (s Selection) Numbers() []int {
	return append([]int{}, s.numbers...)
}

// String returns the comma separated trial numbers.
func (s Selection) String() string {
	parts := make([]string, 0, len(s.numbers))
	for _, n := range s.numbers {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}

// Trials returns the selected trials of the study in study order. An empty selection covers every trial.
func (s Selection) Trials(study *v1.StudyDetail) []v1.Trial {
	trials := make([]v1.Trial, 0, len(study.Trials))
	for _, t := range study.Trials {
		if s.Len() == 0 || s.Contains(t.Number) {
			trials = append(trials, t)
		}
	}
	return trials
}

// Missing returns the selected trial numbers that do not exist in the study.
func (s Selection) Missing(study *v1.StudyDetail) []int {
	present := make(map[int]bool, len(study.Trials))
	for _, t := range study.Trials {
		present[t.Number] = true
	}
	var missing []int
	for _, n := range s.numbers {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	return missing
}

// CSVURL returns the download location for the selected trials of a study.
func (s Selection) CSVURL(r *routes.Resolver, studyID int) (*url.URL, error) {
	return r.CSVURL(studyID, s.numbers)
}
