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

import "time"

// cloneSlice returns a shallow copy of s that is never nil.
func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// mapSlice applies f to every element of s; the result is never nil.
func mapSlice[T, U any](s []T, f func(T) U) []U {
	out := make([]U, len(s))
	for i := range s {
		out[i] = f(s[i])
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func cloneDistribution(d Distribution) Distribution {
	d.Low = cloneFloat(d.Low)
	d.High = cloneFloat(d.High)
	d.Step = cloneFloat(d.Step)
	if d.Choices != nil {
		d.Choices = cloneSlice(d.Choices)
	}
	return d
}

func cloneSearchSpaceItem(s SearchSpaceItem) SearchSpaceItem {
	s.Distribution = cloneDistribution(s.Distribution)
	return s
}

func cloneTrialParam(p TrialParam) TrialParam {
	p.Distribution = cloneDistribution(p.Distribution)
	return p
}

func cloneFormWidgets(fw *FormWidgets) *FormWidgets {
	if fw == nil {
		return nil
	}
	c := *fw
	c.Widgets = mapSlice(fw.Widgets, func(w FormWidget) FormWidget {
		w.Min = cloneFloat(w.Min)
		w.Max = cloneFloat(w.Max)
		w.Step = cloneFloat(w.Step)
		if w.Choices != nil {
			w.Choices = cloneSlice(w.Choices)
		}
		if w.Values != nil {
			w.Values = cloneSlice(w.Values)
		}
		if w.Labels != nil {
			w.Labels = cloneSlice(w.Labels)
		}
		return w
	})
	return &c
}

func defaultFeedbackComponentType(fc *FeedbackComponentType) FeedbackComponentType {
	if fc == nil {
		return FeedbackComponentType{OutputType: FeedbackOutputNote}
	}
	return *fc
}
