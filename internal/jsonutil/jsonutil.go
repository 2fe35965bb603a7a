// Package jsonutil provides JSON decoding helpers shared by the envelope
// parser and the payload resolver: strict decoding, shallow object
// inspection, and required-field discovery for Go struct schemas.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Decode unmarshals data into v. With strict set, fields in data that v
// does not declare are an error.
func Decode(data []byte, v any, strict bool) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

// UnknownField extracts the field name from the error encoding/json returns
// when DisallowUnknownFields rejects input.
func UnknownField(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	const marker = "json: unknown field "
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return "", false
	}
	return strings.Trim(msg[i+len(marker):], `"`), true
}

// Object decodes data as a JSON object and returns its members undecoded.
func Object(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("not a JSON object")
	}
	return m, nil
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// MissingFields returns the names in required that obj lacks.
func MissingFields(obj map[string]json.RawMessage, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := obj[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// RequiredFields lists the JSON names of the fields of struct type t that a
// document must carry: exported, not tagged omitempty and not pointers.
// Fields of embedded structs are promoted, as encoding/json does.
func RequiredFields(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("jsonutil: RequiredFields on non-struct %s", t))
	}

	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				out = append(out, RequiredFields(ft)...)
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if strings.Contains(opts, "omitempty") || strings.Contains(opts, "omitzero") {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Pointer, reflect.Interface:
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// UnknownFields lists every member of data, at any depth, that decoding
// into a value of type t would drop. Nested members are reported as dotted
// paths and array elements as "[]", in key order. Types with their own
// UnmarshalJSON are not looked into.
func UnknownFields(data []byte, t reflect.Type) []string {
	var out []string
	collectUnknown(data, t, "", &out)
	return out
}

func collectUnknown(data json.RawMessage, t reflect.Type, path string, out *[]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return
	}

	switch t.Kind() {
	case reflect.Struct:
		var obj map[string]json.RawMessage
		if json.Unmarshal(data, &obj) != nil {
			return
		}
		fields := structFields(t)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			ft, ok := lookupField(fields, k)
			if !ok {
				*out = append(*out, join(path, k))
				continue
			}
			collectUnknown(obj[k], ft, join(path, k), out)
		}

	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return
		}
		var arr []json.RawMessage
		if json.Unmarshal(data, &arr) != nil {
			return
		}
		for _, el := range arr {
			collectUnknown(el, t.Elem(), path+"[]", out)
		}

	case reflect.Map:
		var obj map[string]json.RawMessage
		if json.Unmarshal(data, &obj) != nil {
			return
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			collectUnknown(obj[k], t.Elem(), join(path, k), out)
		}
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// structFields maps the JSON member names of struct type t to their types,
// promoting the fields of embedded structs.
func structFields(t reflect.Type) map[string]reflect.Type {
	fields := map[string]reflect.Type{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				for k, v := range structFields(ft) {
					if _, ok := fields[k]; !ok {
						fields[k] = v
					}
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[name] = f.Type
	}
	return fields
}

// lookupField matches like encoding/json: exact name first, then any case.
func lookupField(fields map[string]reflect.Type, key string) (reflect.Type, bool) {
	if ft, ok := fields[key]; ok {
		return ft, true
	}
	for name, ft := range fields {
		if strings.EqualFold(name, key) {
			return ft, true
		}
	}
	return nil, false
}
