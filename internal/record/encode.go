package record

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

const indentUnit = "  "

// Marshal encodes the document the way Python's json.dump(indent=2,
// ensure_ascii=False) does: two-space indentation, non-ASCII text written
// as-is, HTML characters not escaped.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, d.root, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document to path through a temporary file in the same
// directory, replacing the original only once the new content is on disk.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("encode record file: %w", err)
	}
	return WriteAtomic(path, data)
}

// WriteAtomic replaces the file at path with data, keeping its permissions.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".rebalance-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	_ = os.Chmod(tmpPath, perm)
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v any, depth int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case json.Number:
		buf.WriteString(val.String())
	case float64:
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case string:
		return encodeString(buf, val)
	case *Object:
		return encodeObject(buf, val, depth)
	case []any:
		return encodeArray(buf, val, depth)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return err
	}
	writeUnescaped(buf, b)
	return nil
}

// writeUnescaped copies an encoded JSON string, writing U+2028 and U+2029
// raw and using the short forms \b and \f, as Python's json.dump does with
// ensure_ascii off. Escapes are stepped over whole so an escaped backslash
// never starts a new sequence.
func writeUnescaped(buf *bytes.Buffer, b []byte) {
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			buf.WriteByte(b[i])
			continue
		}
		if b[i+1] != 'u' || i+6 > len(b) {
			buf.Write(b[i : i+2])
			i++
			continue
		}
		switch strings.ToLower(string(b[i+2 : i+6])) {
		case "2028":
			buf.WriteRune('\u2028')
		case "2029":
			buf.WriteRune('\u2029')
		case "0008":
			buf.WriteString(`\b`)
		case "000c":
			buf.WriteString(`\f`)
		default:
			buf.Write(b[i : i+6])
		}
		i += 5
	}
}

func encodeObject(buf *bytes.Buffer, obj *Object, depth int) error {
	if len(obj.keys) == 0 {
		buf.WriteString("{}")
		return nil
	}
	inner := strings.Repeat(indentUnit, depth+1)
	buf.WriteString("{\n")
	for i, key := range obj.keys {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString(inner)
		if err := encodeString(buf, key); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := encodeValue(buf, obj.values[key], depth+1); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	buf.WriteString("\n")
	buf.WriteString(strings.Repeat(indentUnit, depth))
	buf.WriteString("}")
	return nil
}

func encodeArray(buf *bytes.Buffer, list []any, depth int) error {
	if len(list) == 0 {
		buf.WriteString("[]")
		return nil
	}
	inner := strings.Repeat(indentUnit, depth+1)
	buf.WriteString("[\n")
	for i, item := range list {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString(inner)
		if err := encodeValue(buf, item, depth+1); err != nil {
			return err
		}
	}
	buf.WriteString("\n")
	buf.WriteString(strings.Repeat(indentUnit, depth))
	buf.WriteString("]")
	return nil
}
