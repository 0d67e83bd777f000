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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	gotemplate "text/template"

	"github.com/spf13/cobra"
	"github.com/thestormforge/optunactl/internal/template"
	"sigs.k8s.io/yaml"
)

const (
	// PrinterAllowedFormats is the annotation key restricting the output formats of a command
	// to a comma-delimited list (e.g. "json,yaml").
	PrinterAllowedFormats = "allowedFormats"
	// PrinterOutputFormat is the annotation key for the default output format of a command; it
	// is ignored unless it is one of the allowed formats.
	PrinterOutputFormat = "outputFormat"

	// AttrsColumn is the column holding the user attributes of a row
	AttrsColumn = "attrs"
)

// ResourcePrinter formats an object to a byte stream
type ResourcePrinter interface {
	// PrintObj formats the specified object to the specified writer
	PrintObj(interface{}, io.Writer) error
}

// ResourcePrinterFunc allows a simple function to be used as resource printer
type ResourcePrinterFunc func(interface{}, io.Writer) error

func (rpf ResourcePrinterFunc) PrintObj(obj interface{}, w io.Writer) error {
	return rpf(obj, w)
}

// TableMeta is used to inspect objects for formatting
type TableMeta interface {
	// ExtractList accepts a single object (which possibly represents a list) and returns a slice to iterate over; this
	// should include a single element slice from the input object if it does not represent a list
	ExtractList(obj interface{}) ([]interface{}, error)
	// Columns returns the default list of columns to render for a given object; when showAttrs is set the
	// user attributes must be included, either as the AttrsColumn or split into individual columns
	Columns(obj interface{}, outputFormat string, showAttrs bool) []string
	// ExtractValue returns the column string value for a given object from the extract list result
	ExtractValue(obj interface{}, column string) (string, error)
	// Header returns the header value to use for a column
	Header(outputFormat string, column string) string
}

// NoPrinterError is an error occurring when no suitable printer is available
type NoPrinterError struct {
	// OutputFormat is the requested output format
	OutputFormat string
	// AllowedFormats are the available output formats
	AllowedFormats []string
}

// Error returns a useful message for a "no printer" error
func (e NoPrinterError) Error() string {
	allowed := append([]string(nil), e.AllowedFormats...)
	sort.Strings(allowed)
	return fmt.Sprintf("no printer for %s, allowed formats are: %s", e.OutputFormat, strings.Join(allowed, ","))
}

// defaultFormats are available to commands that do not restrict their output
var defaultFormats = []string{"", "wide", "name", "csv", "json", "yaml", "go-template"}

// tabular returns true for the formats rendered from a TableMeta
func tabular(outputFormat string) bool {
	switch outputFormat {
	case "", "wide", "name", "csv":
		return true
	}
	return false
}

// printFlags are the command line options used to create a printer
type printFlags struct {
	meta           TableMeta
	allowedFormats []string

	outputFormat string
	columns      []string
	noHeaders    bool
	showAttrs    bool
	templateText string
}

// newPrintFlags returns print flags restricted by the command annotations
func newPrintFlags(meta TableMeta, annotations map[string]string) *printFlags {
	pf := &printFlags{meta: meta}

	allowed := splitList(annotations[PrinterAllowedFormats])
	if len(allowed) == 0 {
		allowed = defaultFormats
	}

	want := strings.ToLower(annotations[PrinterOutputFormat])
	for _, f := range allowed {
		// Tables cannot be produced without a way to inspect the objects
		if tabular(f) && meta == nil {
			continue
		}
		pf.allowedFormats = append(pf.allowedFormats, f)
		if f == want {
			pf.outputFormat = f
		}
	}

	if len(pf.allowedFormats) == 1 {
		pf.outputFormat = pf.allowedFormats[0]
	}
	return pf
}

// splitList parses a comma-delimited annotation value
func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func (f *printFlags) allows(outputFormat string) bool {
	for _, allowed := range f.allowedFormats {
		if allowed == outputFormat {
			return true
		}
	}
	return false
}

// addFlags adds command line flags for configuring the printer
func (f *printFlags) addFlags(cmd *cobra.Command) {
	if len(f.allowedFormats) > 1 {
		cmd.Flags().StringVarP(&f.outputFormat, "output", "o", f.outputFormat, "output `format`")
		SetFlagValues(cmd, "output", f.allowedFormats...)
	}

	if f.allows("") || f.allows("wide") || f.allows("csv") {
		cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "comma separated list of `columns` to print")
		cmd.Flags().BoolVar(&f.noHeaders, "no-headers", false, "don't print headers")
		cmd.Flags().BoolVar(&f.showAttrs, "show-attrs", false, "include the user attributes when printing")
	}

	if f.allows("go-template") {
		cmd.Flags().StringVar(&f.templateText, "template", "", "template `string` to use with the go-template output format")
	}
}

// toPrinter generates a new printer
func (f *printFlags) toPrinter(printer *ResourcePrinter) error {
	outputFormat := strings.ToLower(f.outputFormat)
	if !f.allows(outputFormat) {
		return NoPrinterError{OutputFormat: f.outputFormat, AllowedFormats: f.allowedFormats}
	}

	switch outputFormat {
	case "json":
		*printer = ResourcePrinterFunc(printJSON)
	case "yaml":
		*printer = ResourcePrinterFunc(printYAML)
	case "go-template":
		if f.templateText == "" {
			return fmt.Errorf("a template is required for the go-template output format")
		}
		tmpl, err := template.New().Parse("output", f.templateText)
		if err != nil {
			return err
		}
		*printer = &templatePrinter{tmpl: tmpl}
	case "name":
		*printer = &rowPrinter{meta: f.meta, outputFormat: outputFormat, columns: []string{"name"}, newWriter: newTabRowWriter}
	case "csv":
		*printer = &rowPrinter{meta: f.meta, outputFormat: outputFormat, columns: f.columns, headers: !f.noHeaders, showAttrs: f.showAttrs, newWriter: newCSVRowWriter}
	default:
		*printer = &rowPrinter{meta: f.meta, outputFormat: outputFormat, columns: f.columns, headers: !f.noHeaders, showAttrs: f.showAttrs, newWriter: newTabRowWriter, emptyMessage: "No resources found."}
	}
	return nil
}

func printJSON(obj interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(obj)
}

func printYAML(obj interface{}, w io.Writer) error {
	output, err := yaml.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = w.Write(output)
	return err
}

// templatePrinter is a printer that renders objects using a Go template
type templatePrinter struct {
	tmpl *gotemplate.Template
}

// PrintObj executes the template against the object
func (p *templatePrinter) PrintObj(obj interface{}, w io.Writer) error {
	out, err := template.Execute(p.tmpl, obj)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// rowWriter emits the records of a tabular format
type rowWriter interface {
	WriteRow(row []string) error
	Flush() error
}

// rowPrinter generates the tabular formats, one row per item of the extracted list
type rowPrinter struct {
	meta         TableMeta
	outputFormat string
	columns      []string
	headers      bool
	showAttrs    bool
	newWriter    func(io.Writer) rowWriter
	emptyMessage string
}

// PrintObj generates the rows
func (p *rowPrinter) PrintObj(obj interface{}, w io.Writer) error {
	items, err := p.meta.ExtractList(obj)
	if err != nil {
		return err
	}
	if len(items) == 0 && p.emptyMessage != "" {
		_, err = fmt.Fprintln(w, p.emptyMessage)
		return err
	}

	columns := p.columns
	switch {
	case len(columns) == 0:
		columns = p.meta.Columns(obj, p.outputFormat, p.showAttrs)
	case p.showAttrs:
		columns = append(append([]string(nil), columns...), AttrsColumn)
	}

	rw := p.newWriter(w)
	row := make([]string, len(columns))

	if p.headers {
		for i := range columns {
			row[i] = p.meta.Header(p.outputFormat, columns[i])
		}
		if err := rw.WriteRow(row); err != nil {
			return err
		}
	}

	for _, item := range items {
		for i := range columns {
			if row[i], err = p.meta.ExtractValue(item, columns[i]); err != nil {
				return err
			}
		}
		if err := rw.WriteRow(row); err != nil {
			return err
		}
	}

	return rw.Flush()
}

// tabRowWriter aligns columns with a tab writer
type tabRowWriter struct {
	w  io.Writer
	tw *tabwriter.Writer
}

func newTabRowWriter(w io.Writer) rowWriter {
	return &tabRowWriter{w: w, tw: tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)}
}

func (t *tabRowWriter) WriteRow(row []string) error {
	// Single columns are not padded
	if len(row) == 1 {
		_, err := fmt.Fprintln(t.tw, row[0])
		return err
	}
	_, err := fmt.Fprintf(t.tw, "%s\t\n", strings.Join(row, "\t"))
	return err
}

func (t *tabRowWriter) Flush() error { return t.tw.Flush() }

// csvRowWriter emits Comma Separated Values
type csvRowWriter struct {
	cw *csv.Writer
}

func newCSVRowWriter(w io.Writer) rowWriter {
	return &csvRowWriter{cw: csv.NewWriter(w)}
}

func (c *csvRowWriter) WriteRow(row []string) error { return c.cw.Write(row) }

func (c *csvRowWriter) Flush() error {
	c.cw.Flush()
	return c.cw.Error()
}
