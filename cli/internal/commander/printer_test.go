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

package commander

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

type row struct {
	Name  string            `json:"name"`
	Size  int               `json:"size"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

type rowMeta struct{}

func (rowMeta) ExtractList(obj interface{}) ([]interface{}, error) {
	rows := obj.([]row)
	list := make([]interface{}, len(rows))
	for i := range rows {
		list[i] = &rows[i]
	}
	return list, nil
}

func (rowMeta) Columns(_ interface{}, outputFormat string, showAttrs bool) []string {
	columns := []string{"name"}
	if outputFormat == "wide" {
		columns = append(columns, "size")
	}
	if showAttrs {
		columns = append(columns, AttrsColumn)
	}
	return columns
}

func (rowMeta) ExtractValue(obj interface{}, column string) (string, error) {
	r := obj.(*row)
	switch column {
	case "name":
		return r.Name, nil
	case "size":
		return fmt.Sprint(r.Size), nil
	case AttrsColumn:
		var l []string
		for k, v := range r.Attrs {
			l = append(l, k+"="+v)
		}
		return strings.Join(l, ","), nil
	}
	return "", fmt.Errorf("unable to get value for column %s", column)
}

func (rowMeta) Header(_ string, column string) string { return strings.ToUpper(column) }

func TestPrinter(t *testing.T) {
	rows := []row{
		{Name: "a", Size: 1, Attrs: map[string]string{"team": "x"}},
		{Name: "b", Size: 22},
	}

	cases := []struct {
		desc        string
		meta        TableMeta
		annotations map[string]string
		args        []string
		obj         interface{}
		expected    string
		err         string
	}{
		{
			desc:     "default table",
			meta:     rowMeta{},
			obj:      rows,
			expected: "NAME\na\nb\n",
		},
		{
			desc:     "wide without headers",
			meta:     rowMeta{},
			args:     []string{"-o", "wide", "--no-headers"},
			obj:      rows,
			expected: "a   1    \nb   22   \n",
		},
		{
			desc:     "custom columns with attributes",
			meta:     rowMeta{},
			args:     []string{"--columns", "size", "--show-attrs"},
			obj:      rows,
			expected: "SIZE   ATTRS    \n1      team=x   \n22              \n",
		},
		{
			desc:     "csv",
			meta:     rowMeta{},
			args:     []string{"-o", "csv", "--show-attrs"},
			obj:      rows,
			expected: "NAME,ATTRS\na,team=x\nb,\n",
		},
		{
			desc:     "name",
			meta:     rowMeta{},
			args:     []string{"-o", "name"},
			obj:      rows,
			expected: "a\nb\n",
		},
		{
			desc:     "empty table",
			meta:     rowMeta{},
			obj:      []row{},
			expected: "No resources found.\n",
		},
		{
			desc:        "restricted to a single format",
			annotations: map[string]string{PrinterAllowedFormats: "yaml"},
			obj:         row{Name: "a", Size: 1},
			expected:    "name: a\nsize: 1\n",
		},
		{
			desc:        "table without metadata",
			annotations: map[string]string{PrinterAllowedFormats: "json,yaml,wide", PrinterOutputFormat: "json"},
			args:        []string{"-o", "wide"},
			obj:         rows,
			err:         "no printer for wide, allowed formats are: json,yaml",
		},
		{
			desc:     "go template",
			meta:     rowMeta{},
			args:     []string{"-o", "go-template", "--template", "{{ .name }}={{ .size }}"},
			obj:      row{Name: "a", Size: 1},
			expected: "a=1",
		},
		{
			desc: "go template without text",
			meta: rowMeta{},
			args: []string{"-o", "go-template"},
			obj:  rows,
			err:  "a template is required for the go-template output format",
		},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			var printer ResourcePrinter
			var out bytes.Buffer
			cmd := &cobra.Command{
				Use:         "test",
				Annotations: c.annotations,
				RunE: func(cmd *cobra.Command, args []string) error {
					return printer.PrintObj(c.obj, &out)
				},
			}
			SetPrinter(c.meta, &printer, cmd)
			cmd.SetArgs(c.args)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			err := cmd.Execute()
			if c.err != "" {
				assert.EqualError(t, err, c.err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, c.expected, out.String())
			}
		})
	}
}
