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
	"time"

	"github.com/thestormforge/optunactl/pkg/api/studies/v1/numstr"
)

// TrialState is the lifecycle state of a trial.
type TrialState string

const (
	TrialStateRunning  TrialState = "Running"
	TrialStateComplete TrialState = "Complete"
	TrialStatePruned   TrialState = "Pruned"
	TrialStateFail     TrialState = "Fail"
	TrialStateWaiting  TrialState = "Waiting"
)

// IsFinished returns true for the states a trial can be told.
func (s TrialState) IsFinished() bool {
	switch s {
	case TrialStateComplete, TrialStatePruned, TrialStateFail:
		return true
	}
	return false
}

// Trial is a single evaluation of a parameter assignment.
type Trial struct {
	TrialID            int                     `json:"trial_id"`
	StudyID            int                     `json:"study_id"`
	Number             int                     `json:"number"`
	State              TrialState              `json:"state"`
	Values             []numstr.NumberOrString `json:"values"`
	IntermediateValues []IntermediateValue     `json:"intermediate_values"`
	DatetimeStart      *time.Time              `json:"datetime_start,omitempty"`
	DatetimeComplete   *time.Time              `json:"datetime_complete,omitempty"`
	Params             []TrialParam            `json:"params"`
	FixedParams        []FixedParam            `json:"fixed_params"`
	UserAttrs          Attributes              `json:"user_attrs"`
	Note               Note                    `json:"note"`
	Artifacts          []Artifact              `json:"artifacts"`
	Constraints        []float64               `json:"constraints"`
}

// Duration returns how long a finished trial ran, or zero if the trial has not finished.
func (t *Trial) Duration() time.Duration {
	if t.DatetimeStart == nil || t.DatetimeComplete == nil {
		return 0
	}
	return t.DatetimeComplete.Sub(*t.DatetimeStart)
}

// IntermediateValue is an objective value reported at a step of a trial.
type IntermediateValue struct {
	Step  int                   `json:"step"`
	Value numstr.NumberOrString `json:"value"`
}

// TrialParam is a sampled parameter value.
type TrialParam struct {
	Name               string       `json:"name"`
	ParamInternalValue float64      `json:"param_internal_value"`
	ParamExternalValue string       `json:"param_external_value"`
	ParamExternalType  string       `json:"param_external_type"`
	Distribution       Distribution `json:"distribution"`
}

// FixedParam is a parameter value that was enqueued rather than sampled.
type FixedParam struct {
	Name               string `json:"name"`
	ParamExternalValue string `json:"param_external_value"`
}
