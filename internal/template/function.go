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

package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"k8s.io/apimachinery/pkg/util/duration"
)

// FuncMap returns the functions used for template evaluation
func FuncMap() template.FuncMap {
	f := sprig.TxtFuncMap()
	delete(f, "env")
	delete(f, "expandenv")

	extra := template.FuncMap{
		"duration": durationSeconds,
		"age":      age,
		"percent":  percent,
		"value":    value,
	}

	for k, v := range extra {
		f[k] = v
	}

	return f
}

// durationSeconds returns the number of seconds between two timestamps, zero if either is missing
func durationSeconds(start, completion interface{}) float64 {
	s, ok1 := parseTime(start)
	c, ok2 := parseTime(completion)
	if ok1 && ok2 && s.Before(c) {
		return c.Sub(s).Seconds()
	}
	return 0
}

// age returns the human readable time elapsed since the timestamp
func age(ts interface{}) string {
	t, ok := parseTime(ts)
	if !ok {
		return "<unknown>"
	}
	return duration.HumanDuration(time.Since(t))
}

// percent formats a fraction (e.g. a parameter importance) as a percentage
func percent(v interface{}) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f*100, 'f', 1, 64) + "%", nil
}

// value formats an objective value which may be a number or one of the non-finite strings
func value(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case json.Number:
		return vv.String()
	}
	return fmt.Sprint(v)
}

func parseTime(v interface{}) (time.Time, bool) {
	switch vv := v.(type) {
	case time.Time:
		return vv, !vv.IsZero()
	case *time.Time:
		if vv != nil {
			return *vv, !vv.IsZero()
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, vv); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(v interface{}) (float64, error) {
	switch vv := v.(type) {
	case float64:
		return vv, nil
	case int:
		return float64(vv), nil
	case json.Number:
		return vv.Float64()
	case string:
		return strconv.ParseFloat(vv, 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
