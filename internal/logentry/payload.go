// Package logentry parses log write payloads and checks them against a dictionary.
package logentry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

var (
	// ErrNotObject is returned when the payload is not a JSON object.
	ErrNotObject = errors.New("payload must be a JSON object")
	// ErrEmpty is returned for an object with no keys.
	ErrEmpty = errors.New("payload must contain at least one type")
	// ErrUnstorable is returned for values holding text a jsonb column rejects:
	// invalid UTF-8, a \u0000 escape or an unpaired surrogate.
	ErrUnstorable = errors.New("payload contains text that cannot be stored")
)

// Field is one top-level key of a payload and its raw value.
type Field struct {
	Type string
	Data json.RawMessage
}

// Parse decodes a JSON object into its fields, keeping document order.
// A repeated key keeps its first position and its last value.
func Parse(r io.Reader) ([]Field, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	var fields []Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
		}
		if !storable(raw) {
			return nil, fmt.Errorf("%w: %q", ErrUnstorable, key)
		}
		if i, dup := index[key]; dup {
			fields[i].Data = raw
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Type: key, Data: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}
	if dec.More() {
		return nil, ErrNotObject
	}
	if len(fields) == 0 {
		return nil, ErrEmpty
	}
	return fields, nil
}

// storable reports whether raw can be cast to jsonb. Backslashes only occur
// inside JSON strings, so escapes are checked without tracking string state.
func storable(raw []byte) bool {
	if !utf8.Valid(raw) {
		return false
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			continue
		}
		if i+1 >= len(raw) || raw[i+1] != 'u' {
			i++
			continue
		}
		r, ok := unicodeEscape(raw, i)
		if !ok || r == 0 {
			return false
		}
		i += 5
		if r < 0xD800 || r > 0xDFFF {
			continue
		}
		// A high surrogate must be followed by a low one.
		if r >= 0xDC00 {
			return false
		}
		lo, ok := unicodeEscape(raw, i+1)
		if !ok || lo < 0xDC00 || lo > 0xDFFF {
			return false
		}
		i += 6
	}
	return true
}

// unicodeEscape decodes the \uXXXX escape starting at raw[i].
func unicodeEscape(raw []byte, i int) (rune, bool) {
	if i+6 > len(raw) || raw[i] != '\\' || raw[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(raw[i+2:i+6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) ([]Field, error) {
	return Parse(bytes.NewReader(b))
}
