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
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
)

// Completion implements argument completion for the type/ID arguments.
func Completion(ctx context.Context, studiesAPI v1.API, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Start by suggesting a type
	if len(args) == 0 {
		var s []string
		for _, t := range []resourceType{typeStudy, typeTrial, typePreferenceHistory} {
			if strings.HasPrefix(string(t), toComplete) {
				s = append(s, string(t))
			}
		}
		return s, cobra.ShellCompDirectiveNoFileComp
	}

	t, err := normalizeType(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Every type is keyed by a study ID first
	if t == typeStudy || len(args) == 1 {
		return studyIDs(ctx, studiesAPI, args[1:], toComplete)
	}

	if t == typeTrial {
		studyID, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return trialNumbers(ctx, studiesAPI, studyID, args[2:], toComplete)
	}

	return nil, cobra.ShellCompDirectiveNoFileComp
}

func studyIDs(ctx context.Context, studiesAPI v1.API, used []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	summaries, err := studiesAPI.GetStudySummaries(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	completions := make([]string, 0, len(summaries))
	for i := range summaries {
		id := strconv.Itoa(summaries[i].StudyID)
		if suggest(id, used, toComplete) {
			// The description is shown by shells that support it
			completions = append(completions, id+"\t"+summaries[i].StudyName)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func trialNumbers(ctx context.Context, studiesAPI v1.API, studyID int, used []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	study, err := studiesAPI.GetStudyDetail(ctx, studyID, 0)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	completions := make([]string, 0, len(study.Trials))
	for i := range study.Trials {
		n := strconv.Itoa(study.Trials[i].Number)
		if suggest(n, used, toComplete) {
			completions = append(completions, n+"\t"+string(study.Trials[i].State))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func suggest(value string, used []string, toComplete string) bool {
	for _, u := range used {
		if u == value {
			return false
		}
	}
	return strings.HasPrefix(value, toComplete)
}

// validArgs is the completion function used by the get command
func (o *Options) validArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// The persistent pre-run does not load the configuration when we are getting completions
	if o.StudiesAPI == nil {
		if err := o.Config.Load(); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		if err := commander.SetStudiesAPI(&o.StudiesAPI, o.Config, cmd); err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	}
	return Completion(cmd.Context(), o.StudiesAPI, args, toComplete)
}
