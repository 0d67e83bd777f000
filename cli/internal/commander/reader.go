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
	"fmt"
	"io"

	"k8s.io/apimachinery/pkg/util/yaml"
)

// ResourceReader decodes request bodies supplied on the CLI as either YAML or JSON.
type ResourceReader struct {
	// BufferSize is the number of bytes inspected to decide between YAML and JSON
	BufferSize int
}

// NewResourceReader returns a new resource reader.
func NewResourceReader() *ResourceReader {
	return &ResourceReader{BufferSize: 4096}
}

// ReadInto decodes the supplied byte stream into the target value. Only the first document of a
// YAML stream is read.
func (r *ResourceReader) ReadInto(reader io.ReadCloser, target interface{}) error {
	defer func() { _ = reader.Close() }()

	if err := yaml.NewYAMLOrJSONDecoder(reader, r.BufferSize).Decode(target); err != nil {
		if err == io.EOF {
			return fmt.Errorf("no input was supplied")
		}
		return err
	}
	return nil
}
