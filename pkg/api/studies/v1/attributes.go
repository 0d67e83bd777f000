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
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Attributes are the user defined attributes of a study or trial. The server may send them either as
// an object or as a list of key/value pairs.
type Attributes map[string]interface{}

// Attribute is a single key/value pair of the list form.
type Attribute struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// UnmarshalJSON accepts either the object or list form.
func (a *Attributes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = nil
		return nil
	}

	if len(b) > 0 && b[0] == '[' {
		var l []Attribute
		if err := json.Unmarshal(b, &l); err != nil {
			return err
		}
		m := make(Attributes, len(l))
		for _, attr := range l {
			m[attr.Key] = attr.Value
		}
		*a = m
		return nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*a = m
	return nil
}

// Keys returns the sorted attribute keys.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns the attributes as key/value pairs sorted by key.
func (a Attributes) List() []Attribute {
	l := make([]Attribute, 0, len(a))
	for _, k := range a.Keys() {
		l = append(l, Attribute{Key: k, Value: a[k]})
	}
	return l
}

// Strings returns the attribute values formatted as strings, suitable for label matching.
func (a Attributes) Strings() map[string]string {
	m := make(map[string]string, len(a))
	for k, v := range a {
		switch vv := v.(type) {
		case string:
			m[k] = vv
		case nil:
			m[k] = ""
		default:
			if b, err := json.Marshal(vv); err == nil {
				m[k] = string(b)
			} else {
				m[k] = fmt.Sprint(vv)
			}
		}
	}
	return m
}

// DeepCopy returns a copy of the attributes sharing no memory with the receiver. The result is never nil.
func (a Attributes) DeepCopy() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = deepCopyJSONValue(v)
	}
	return out
}

func deepCopyJSONValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, e := range vv {
			m[k] = deepCopyJSONValue(e)
		}
		return m
	case []interface{}:
		l := make([]interface{}, len(vv))
		for i, e := range vv {
			l[i] = deepCopyJSONValue(e)
		}
		return l
	default:
		return v
	}
}
