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

package studies

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"sigs.k8s.io/yaml"
)

// TellOptions includes the configuration for finishing trials
type TellOptions struct {
	Options

	State  string
	Values []float64
}

// NewTellCommand creates a new command for finishing trials
func NewTellCommand(o *TellOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tell TRIAL_ID",
		Short: "Finish a running trial",
		Long:  "Finish a running trial by reporting its final state and objective values",

		Args: cobra.ExactArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.tell(cmd.Context(), args[0])
		},
	}

	cmd.Flags().StringVar(&o.State, "state", string(v1.TrialStateComplete), "final `state` of the trial")
	cmd.Flags().Float64SliceVar(&o.Values, "value", nil, "objective `value`, repeat for each objective")

	commander.SetFlagValues(cmd, "state",
		string(v1.TrialStateComplete),
		string(v1.TrialStatePruned),
		string(v1.TrialStateFail))

	o.Printer = &verbPrinter{verb: "finished"}

	return cmd
}

func (o *TellOptions) tell(ctx context.Context, arg string) error {
	trialID, err := parseID("trial ID", arg)
	if err != nil {
		return err
	}

	state, err := parseFinishedState(o.State)
	if err != nil {
		return err
	}

	// Only complete trials report values
	if state == v1.TrialStateComplete && len(o.Values) == 0 {
		return fmt.Errorf("at least one value is required to complete a trial")
	} else if state != v1.TrialStateComplete && len(o.Values) > 0 {
		return fmt.Errorf("values can only be reported for complete trials")
	}

	if err := o.StudiesAPI.TellTrial(ctx, trialID, state, o.Values); err != nil {
		return err
	}

	return o.Printer.PrintObj(&v1.Trial{TrialID: trialID, State: state}, o.Out)
}

func parseFinishedState(s string) (v1.TrialState, error) {
	for _, state := range []v1.TrialState{v1.TrialStateComplete, v1.TrialStatePruned, v1.TrialStateFail} {
		if strings.EqualFold(s, string(state)) {
			return state, nil
		}
	}
	return "", fmt.Errorf("invalid trial state \"%s\"", s)
}

// SetUserAttrsOptions includes the configuration for updating trial user attributes
type SetUserAttrsOptions struct {
	Options

	Filename string
}

// NewSetUserAttrsCommand creates a new command for updating trial user attributes
func NewSetUserAttrsCommand(o *SetUserAttrsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-user-attrs TRIAL_ID [KEY=VALUE...]",
		Short: "Set trial user attributes",
		Long: "Set the user attributes of a trial.\n\n" +
			"Values are parsed as JSON when possible (numbers, booleans, lists and objects),\n" +
			"anything else is stored as a string.",

		Args: cobra.MinimumNArgs(1),

		PreRunE: func(cmd *cobra.Command, args []string) error { return o.setStudiesAPI(cmd) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.setUserAttrs(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVarP(&o.Filename, "filename", "f", o.Filename, "file that contains the user attributes")

	_ = cmd.MarkFlagFilename("filename", "yml", "yaml", "json")

	o.Printer = &verbPrinter{verb: "updated"}

	return cmd
}

func (o *SetUserAttrsOptions) setUserAttrs(ctx context.Context, args []string) error {
	trialID, err := parseID("trial ID", args[0])
	if err != nil {
		return err
	}

	attrs := v1.Attributes{}
	if o.Filename != "" {
		r, err := o.IOStreams.OpenFile(o.Filename)
		if err != nil {
			return err
		}
		if err := commander.NewResourceReader().ReadInto(r, &attrs); err != nil {
			return err
		}
	}

	for _, arg := range args[1:] {
		k, v, err := parseAttribute(arg)
		if err != nil {
			return err
		}
		attrs[k] = v
	}

	if len(attrs) == 0 {
		return fmt.Errorf("at least one user attribute is required")
	}

	if err := o.StudiesAPI.SaveTrialUserAttrs(ctx, trialID, attrs); err != nil {
		return err
	}

	return o.Printer.PrintObj(&v1.Trial{TrialID: trialID}, o.Out)
}

// parseAttribute splits a KEY=VALUE argument
func parseAttribute(arg string) (string, interface{}, error) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok || k == "" {
		return "", nil, fmt.Errorf("invalid user attribute \"%s\", expected KEY=VALUE", arg)
	}

	var value interface{}
	if err := yaml.Unmarshal([]byte(v), &value); err != nil || !isJSONLiteral(v) {
		return k, v, nil
	}
	return k, value, nil
}

// isJSONLiteral restricts the YAML parse to values that would also be valid JSON
func isJSONLiteral(v string) bool {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return false
	case v == "true", v == "false", v == "null":
		return true
	case strings.HasPrefix(v, "{"), strings.HasPrefix(v, "["), strings.HasPrefix(v, `"`):
		return true
	case strings.ContainsAny(v[:1], "-0123456789"):
		return strings.Trim(v, "-+.eE0123456789") == "" && strings.ContainsAny(v, "0123456789")
	}
	return false
}
