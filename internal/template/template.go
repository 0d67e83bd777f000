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

// Package template renders Go templates against dashboard API objects.
package template

import (
	"bytes"
	"encoding/json"
	"text/template"
)

// Engine renders templates using a common set of functions
type Engine struct {
	FuncMap template.FuncMap
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		FuncMap: FuncMap(),
	}
}

// Parse compiles the template text so it can be rendered repeatedly
func (e *Engine) Parse(name, text string) (*template.Template, error) {
	return template.New(name).Funcs(e.FuncMap).Option("missingkey=zero").Parse(text)
}

// Render evaluates the template text against the JSON form of the supplied object, so field references
// use the same names as the API (e.g. `{{ .study_name }}`)
func (e *Engine) Render(name, text string, obj interface{}) ([]byte, error) {
	tmpl, err := e.Parse(name, text)
	if err != nil {
		return nil, err
	}
	return Execute(tmpl, obj)
}

// Execute evaluates a parsed template against the JSON form of the supplied object
func Execute(tmpl *template.Template, obj interface{}) ([]byte, error) {
	data, err := jsonData(obj)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	if err := tmpl.Execute(b, data); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func jsonData(obj interface{}) (interface{}, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}

	var data interface{}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}
