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
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/cli/internal/commander"
	"github.com/thestormforge/optunactl/internal/config"
	v1 "github.com/thestormforge/optunactl/pkg/api/studies/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/client-go/util/jsonpath"
)

type resourceType string

const (
	// typeStudy is the type argument to use for studies
	typeStudy resourceType = "study"
	// typeTrial is the type argument to use for trials
	typeTrial resourceType = "trial"
	// typePreferenceHistory is the type argument to use for preference history entries
	typePreferenceHistory resourceType = "preference-history"
	// typeArtifact is the type argument to use for artifacts
	typeArtifact resourceType = "artifact"
)

// normalizeType returns a consistent value based on a user entered type.
func normalizeType(t string) (resourceType, error) {
	switch strings.ToLower(t) {
	case "study", "studies", "st":
		return typeStudy, nil
	case "trial", "trials", "tr":
		return typeTrial, nil
	case "preference-history", "preference-histories", "history", "ph":
		return typePreferenceHistory, nil
	case "artifact", "artifacts", "art":
		return typeArtifact, nil
	}
	return "", fmt.Errorf("unknown resource type \"%s\"", t)
}

// trimType removes a leading type argument if it matches the expected type.
func trimType(args []string, expected resourceType) []string {
	if len(args) > 0 {
		if t, err := normalizeType(args[0]); err == nil && t == expected {
			return args[1:]
		}
	}
	return args
}

// Options are the common options for interacting with the dashboard studies API
type Options struct {
	// Config is the optunactl configuration
	Config *config.OptunaConfig
	// StudiesAPI is used to interact with the dashboard; it is created from the configuration if not set
	StudiesAPI v1.API
	// Printer is the resource printer used to render objects from the dashboard
	Printer commander.ResourcePrinter
	// IOStreams are used to access the standard process streams
	commander.IOStreams
}

// setStudiesAPI is the common pre-run of every studies command
func (o *Options) setStudiesAPI(cmd *cobra.Command) error {
	commander.SetStreams(&o.IOStreams, cmd)
	if o.StudiesAPI != nil {
		return nil
	}
	return commander.SetStudiesAPI(&o.StudiesAPI, o.Config, cmd)
}

// parseID parses a non-negative integer identifier.
func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s \"%s\"", kind, arg)
	}
	return id, nil
}

// parseIDs parses a list of non-negative integer identifiers.
func parseIDs(kind string, args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(kind, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// findTrialByNumber returns the trial of the study with the supplied number.
func findTrialByNumber(study *v1.StudyDetail, number int) (*v1.Trial, error) {
	for i := range study.Trials {
		if study.Trials[i].Number == number {
			return &study.Trials[i], nil
		}
	}
	return nil, fmt.Errorf("trial %d not found in study \"%s\"", number, study.Name)
}

// StudyList is a printable list of study summaries
type StudyList struct {
	Studies []v1.StudySummary `json:"studies"`
}

// TrialList is a printable list of trials belonging to a single study
type TrialList struct {
	// Study is the study the trials belong to, it is not included in the output
	Study  *v1.StudyDetail `json:"-"`
	Trials []v1.Trial      `json:"trials"`
}

// PreferenceHistoryList is a printable list of preference history entries
type PreferenceHistoryList struct {
	StudyID int                         `json:"study_id"`
	Entries []v1.PreferenceHistoryEntry `json:"preference_history"`
}

// ImportanceList is a printable list of parameter importances, one group per objective
type ImportanceList struct {
	StudyID          int                     `json:"study_id"`
	MetricNames      []string                `json:"metric_names,omitempty"`
	ParamImportances [][]v1.ParamImportance `json:"param_importances"`
}

// importanceItem is a single row of an importance list
type importanceItem struct {
	Objective string
	v1.ParamImportance
}

// trialItem is a single row of a trial list
type trialItem struct {
	Study *v1.StudyDetail
	*v1.Trial
}

// verbPrinter prints a short confirmation of an action
type verbPrinter struct {
	verb string
}

func (v *verbPrinter) PrintObj(obj interface{}, w io.Writer) error {
	switch o := obj.(type) {
	case *v1.StudySummary:
		_, _ = fmt.Fprintf(w, "study \"%s\" (%d) %s\n", o.StudyName, o.StudyID, v.verb)
	case *v1.Trial:
		_, _ = fmt.Fprintf(w, "trial %d %s\n", o.TrialID, v.verb)
	case *v1.Artifact:
		if o.Filename == "" {
			_, _ = fmt.Fprintf(w, "artifact \"%s\" %s\n", o.ArtifactID, v.verb)
			break
		}
		_, _ = fmt.Fprintf(w, "artifact \"%s\" (%s) %s\n", o.Filename, o.ArtifactID, v.verb)
	case *v1.PreferenceHistoryEntry:
		_, _ = fmt.Fprintf(w, "preference history \"%s\" %s\n", o.ID, v.verb)
	default:
		return fmt.Errorf("could not print \"%s\" for: %T", v.verb, obj)
	}
	return nil
}

// studiesMeta is the metadata extraction necessary for printing dashboard objects
type studiesMeta struct{}

// ExtractList returns the items from a list object
func (m *studiesMeta) ExtractList(obj interface{}) ([]interface{}, error) {
	switch o := obj.(type) {
	case *StudyList:
		list := make([]interface{}, len(o.Studies))
		for i := range o.Studies {
			list[i] = &o.Studies[i]
		}
		return list, nil

	case *TrialList:
		list := make([]interface{}, len(o.Trials))
		for i := range o.Trials {
			list[i] = &trialItem{Study: o.Study, Trial: &o.Trials[i]}
		}
		return list, nil

	case *PreferenceHistoryList:
		list := make([]interface{}, len(o.Entries))
		for i := range o.Entries {
			list[i] = &o.Entries[i]
		}
		return list, nil

	case *ImportanceList:
		var list []interface{}
		for i := range o.ParamImportances {
			objective := strconv.Itoa(i)
			if i < len(o.MetricNames) && o.MetricNames[i] != "" {
				objective = o.MetricNames[i]
			}
			for _, pi := range o.ParamImportances[i] {
				list = append(list, &importanceItem{Objective: objective, ParamImportance: pi})
			}
		}
		return list, nil

	case *v1.Trial:
		return []interface{}{&trialItem{Trial: o}}, nil
	}

	if obj != nil {
		return []interface{}{obj}, nil
	}

	return nil, nil
}

// Columns returns the column names to use
func (m *studiesMeta) Columns(obj interface{}, outputFormat string, showAttrs bool) []string {
	// Special case for trial list CSV to include everything as columns
	if tl, ok := obj.(*TrialList); ok && outputFormat == "csv" {
		columns := []string{"study", "number", "trialId", "state"}

		// CSV column names should correspond to the objective and parameter names
		if tl.Study != nil {
			for i := range tl.Study.Directions {
				columns = append(columns, "value_"+objectiveName(tl.Study, i))
			}
			for i := range tl.Study.UnionSearchSpace {
				columns = append(columns, "param_"+tl.Study.UnionSearchSpace[i].Name)
			}
		}

		columns = append(columns, "datetimeStart", "datetimeComplete")

		// CSV user attributes need to be split out into individual columns
		if showAttrs {
			keys := make(map[string]bool)
			for i := range tl.Trials {
				for k := range tl.Trials[i].UserAttrs {
					keys[k] = true
				}
			}
			sorted := make([]string, 0, len(keys))
			for k := range keys {
				sorted = append(sorted, k)
			}
			sort.Strings(sorted)
			for _, k := range sorted {
				columns = append(columns, "attr_"+k)
			}
		}

		return columns
	}

	var columns []string
	switch obj.(type) {

	case *StudyList, *v1.StudySummary:
		columns = []string{"id", "name", "directions", "age"}
		if outputFormat == "wide" || outputFormat == "csv" {
			columns = append(columns, "preferential")
		}

	case *TrialList, *v1.Trial:
		columns = []string{"number", "State", "values", "duration"} // Title case the state
		if outputFormat == "wide" || outputFormat == "csv" {
			columns = append(columns, "trialId", "params")
		}

	case *PreferenceHistoryList, *v1.PreferenceHistoryEntry:
		columns = []string{"id", "candidates", "clicked", "age"}
		if outputFormat == "wide" || outputFormat == "csv" {
			columns = append(columns, "feedbackMode", "removed")
		}

	case *ImportanceList:
		return []string{"objective", "name", "importance"}

	default:
		columns = []string{"name"}
	}

	if showAttrs {
		columns = append(columns, commander.AttrsColumn)
	}

	return columns
}

// ExtractValue returns a cell value
func (m *studiesMeta) ExtractValue(obj interface{}, column string) (string, error) {
	switch o := obj.(type) {
	case *v1.StudySummary:
		switch column {
		case "name":
			return o.StudyName, nil
		case "id":
			return strconv.Itoa(o.StudyID), nil
		case "directions":
			d := make([]string, len(o.Directions))
			for i := range o.Directions {
				d[i] = string(o.Directions[i])
			}
			return strings.Join(d, ","), nil
		case "age":
			return age(o.DatetimeStart), nil
		case "preferential":
			return strconv.FormatBool(o.IsPreferential), nil
		case commander.AttrsColumn:
			return formatAttrs(o.UserAttrs), nil
		}

	case *trialItem:
		switch column {
		case "name":
			if o.Study != nil {
				return fmt.Sprintf("%s/%d", o.Study.Name, o.Number), nil
			}
			return strconv.Itoa(o.Number), nil
		case "study":
			if o.Study != nil {
				return o.Study.Name, nil
			}
			return "", nil
		case "number":
			return strconv.Itoa(o.Number), nil
		case "trialId":
			return strconv.Itoa(o.TrialID), nil
		case "state":
			return string(o.State), nil
		case "State":
			if o.State == "" {
				return "", nil
			}
			return strings.ToUpper(string(o.State)[:1]) + strings.ToLower(string(o.State)[1:]), nil
		case "values":
			v := make([]string, len(o.Values))
			for i := range o.Values {
				v[i] = o.Values[i].String()
			}
			return strings.Join(v, ","), nil
		case "duration":
			if o.DatetimeStart == nil || o.DatetimeComplete == nil {
				return "", nil
			}
			return duration.HumanDuration(o.Duration()), nil
		case "params":
			p := make([]string, len(o.Params))
			for i := range o.Params {
				p[i] = fmt.Sprintf("%s=%s", o.Params[i].Name, o.Params[i].ParamExternalValue)
			}
			return strings.Join(p, ","), nil
		case "datetimeStart":
			return formatTime(o.DatetimeStart), nil
		case "datetimeComplete":
			return formatTime(o.DatetimeComplete), nil
		case commander.AttrsColumn:
			return formatAttrs(o.UserAttrs), nil
		default:
			// This could be a name pattern (e.g. objective value, parameter value, user attribute)
			if vn := strings.TrimPrefix(column, "value_"); vn != column && o.Study != nil {
				for i := range o.Study.Directions {
					if vn == objectiveName(o.Study, i) {
						if i < len(o.Values) {
							return o.Values[i].String(), nil
						}
						return "", nil // Unfinished trials do not have values
					}
				}
			}
			if pn := strings.TrimPrefix(column, "param_"); pn != column {
				for i := range o.Params {
					if pn == o.Params[i].Name {
						return o.Params[i].ParamExternalValue, nil
					}
				}
				return "", nil // Parameters are not sampled on every trial
			}
			if an := strings.TrimPrefix(column, "attr_"); an != column {
				return o.UserAttrs.Strings()[an], nil
			}
		}

	case *v1.PreferenceHistoryEntry:
		switch column {
		case "id", "name":
			return o.ID, nil
		case "candidates":
			c := make([]string, len(o.Candidates))
			for i := range o.Candidates {
				c[i] = strconv.Itoa(o.Candidates[i])
			}
			return strings.Join(c, ","), nil
		case "clicked":
			return strconv.Itoa(o.Clicked), nil
		case "age":
			return age(&o.Timestamp), nil
		case "feedbackMode":
			return string(o.FeedbackMode), nil
		case "removed":
			return strconv.FormatBool(o.IsRemoved), nil
		case commander.AttrsColumn:
			return "", nil
		}

	case *importanceItem:
		switch column {
		case "objective":
			return o.Objective, nil
		case "name":
			return o.Name, nil
		case "importance":
			return strconv.FormatFloat(o.Importance, 'f', 4, 64), nil
		}
	}
	return "", fmt.Errorf("unable to get value for column %s", column)
}

// Header returns the header name to use for a column
func (m *studiesMeta) Header(outputFormat string, column string) string {
	if strings.ToLower(outputFormat) == "csv" {
		return column
	}
	column = regexp.MustCompile("(.)([A-Z])").ReplaceAllString(column, "$1 $2")
	return strings.ToUpper(column)
}

// objectiveName returns the metric name of an objective, falling back to its index
func objectiveName(study *v1.StudyDetail, i int) string {
	if i < len(study.MetricNames) && study.MetricNames[i] != "" {
		return study.MetricNames[i]
	}
	return strconv.Itoa(i)
}

func age(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(time.Since(*t))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatAttrs(attrs v1.Attributes) string {
	s := attrs.Strings()
	l := make([]string, 0, len(s))
	for _, k := range attrs.Keys() {
		l = append(l, fmt.Sprintf("%s=%s", k, s[k]))
	}
	return strings.Join(l, ",")
}

// matchesSelector checks user attributes against a label selector
func matchesSelector(sel labels.Selector, attrs v1.Attributes) bool {
	return sel.Matches(labels.Set(attrs.Strings()))
}

// sortByField sorts using a JSONPath expression
func sortByField(sortBy string, item func(int) interface{}) func(int, int) bool {
	parser := jsonpath.New("sorting").AllowMissingKeys(true)
	if err := parser.Parse(relaxedJSONPathExpression(sortBy)); err != nil {
		return func(i int, j int) bool { return i < j }
	}

	return func(i, j int) bool {
		ir, ierr := parser.FindResults(item(i))
		iok := ierr == nil && len(ir) > 0 && len(ir[0]) > 0 && ir[0][0].CanInterface()

		jr, jerr := parser.FindResults(item(j))
		jok := jerr == nil && len(jr) > 0 && len(jr[0]) > 0 && jr[0][0].CanInterface()

		if iok && jok {
			iv, jv := ir[0][0].Interface(), jr[0][0].Interface()
			switch iv := iv.(type) {
			case int64:
				if jv, ok := jv.(int64); ok {
					return iv < jv
				}
			case float64:
				if jv, ok := jv.(float64); ok {
					return iv < jv
				}
			case string:
				if jv, ok := jv.(string); ok {
					return iv < jv
				}
			}
		}

		return i < j
	}
}

func relaxedJSONPathExpression(expr string) string {
	// Roughly the same as RelaxedJSONPathExpression in kubectl
	if strings.HasPrefix(expr, "{") && strings.HasSuffix(expr, "}") {
		expr = strings.TrimPrefix(strings.TrimSuffix(expr, "}"), "{")
	}
	expr = strings.TrimPrefix(expr, ".")
	if expr == "" {
		return "{$}"
	}
	return fmt.Sprintf("{.%s}", expr)
}

// sortableStudyData slightly modifies the schema of the study summary to make it easier to specify sort orders
func sortableStudyData(s *v1.StudySummary) map[string]interface{} {
	d := make(map[string]interface{}, 4)
	d["id"] = int64(s.StudyID)
	d["name"] = s.StudyName
	d["userAttrs"] = s.UserAttrs.Strings()
	if s.DatetimeStart != nil {
		d["datetimeStart"] = s.DatetimeStart.UTC().Format(time.RFC3339Nano)
	}
	return d
}

// sortableTrialData slightly modifies the schema of the trial to make it easier to specify sort orders
func sortableTrialData(study *v1.StudyDetail, t *v1.Trial) map[string]interface{} {
	values := make(map[string]interface{}, len(t.Values))
	for i := range t.Values {
		name := strconv.Itoa(i)
		if study != nil {
			name = objectiveName(study, i)
		}
		values[name] = t.Values[i].Float64Value()
	}

	params := make(map[string]interface{}, len(t.Params))
	for i := range t.Params {
		params[t.Params[i].Name] = t.Params[i].ParamInternalValue
	}

	d := make(map[string]interface{}, 7)
	d["number"] = int64(t.Number)
	d["trialId"] = int64(t.TrialID)
	d["state"] = string(t.State)
	d["values"] = values
	d["params"] = params
	d["userAttrs"] = t.UserAttrs.Strings()
	d["duration"] = t.Duration().Seconds()
	return d
}
