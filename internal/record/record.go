package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one row returned by the dashboard API. Field order follows the
// JSON document so that table columns match what the API sent.
type Record struct {
	keys   []string
	values map[string]any
}

func New() Record {
	return Record{values: map[string]any{}}
}

// Get returns the value stored under key. Numbers are json.Number.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns the field names in document order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)

	return out
}

func (r Record) Len() int {
	return len(r.keys)
}

// Set stores v under key, appending key when it is new.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = map[string]any{}
	}

	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = v
}

// String renders a field for display and filtering. Missing and null fields
// render as the empty string.
func (r Record) String(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}

	s, _ := Stringify(v)

	return s
}

// Stringify renders v the way it is compared against a filter value. The
// boolean result is false for null.
func Stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t), true
		}

		return string(b), true
	}
}

func (r *Record) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected object, got %v", tok)
	}

	*r = New()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected key, got %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("record: field %q: %w", key, err)
		}

		r.Set(key, v)
	}

	_, err = dec.Token()

	return err
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", k, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
