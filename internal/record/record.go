// Package record reads and writes BDAT table dumps without disturbing key
// order or number formatting, so a rewritten file differs from the original
// only in the fields that were changed.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// Object is a JSON object that remembers the order of its keys.
type Object struct {
	keys   []string
	values map[string]any
}

func newObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Keys returns the keys in document order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set replaces the value under key, or appends key when it is new.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Document is one decoded table file.
type Document struct {
	root    any
	rowsKey string
}

// Row is one element of the document's rows array.
type Row struct {
	obj *Object
}

// String returns the value under key when it is a JSON string.
func (r *Row) String(key string) (string, bool) {
	v, ok := r.obj.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores a string value under key.
func (r *Row) Set(key, value string) {
	r.obj.Set(key, value)
}

// ID renders the row identifier for logs, "?" when the row has none.
func (r *Row) ID(idKey string) string {
	v, ok := r.obj.values[idKey]
	if !ok || v == nil {
		return "?"
	}
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// Load reads and decodes the file at path.
func Load(path, rowsKey string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	doc, err := Parse(data, rowsKey)
	if err != nil {
		return nil, fmt.Errorf("parse record file %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a single JSON value from data.
func Parse(data []byte, rowsKey string) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return &Document{root: root, rowsKey: rowsKey}, nil
}

// Rows returns the object elements of the rows array. A document without
// one has no rows.
func (d *Document) Rows() []*Row {
	obj, ok := d.root.(*Object)
	if !ok {
		return nil
	}
	v, ok := obj.Get(d.rowsKey)
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	rows := make([]*Row, 0, len(list))
	for _, item := range list {
		if o, ok := item.(*Object); ok {
			rows = append(rows, &Row{obj: o})
		}
	}
	return rows
}

// Root returns the decoded top-level value: *Object, []any, string,
// json.Number, bool or nil.
func (d *Document) Root() any {
	return d.root
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := newObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, want string", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		obj.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	list := make([]any, 0)
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		list = append(list, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}
