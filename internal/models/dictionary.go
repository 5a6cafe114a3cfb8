package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// MaxTypeNameLen bounds a single dictionary type name.
const MaxTypeNameLen = 64

// MaxDictionaryNameLen matches the width of dictionaries.name.
const MaxDictionaryNameLen = 128

var typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// DictionaryData maps each permitted log type to its (informational) field names.
type DictionaryData map[string][]string

// DictionaryDataFromActions builds a definition from a flat list of type names,
// the shape older clients send. Blank entries are dropped.
func DictionaryDataFromActions(actions []string) DictionaryData {
	d := make(DictionaryData, len(actions))
	for _, a := range actions {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		d[a] = []string{}
	}
	return d
}

// Validate checks the definition and returns per-type problems keyed by type name.
func (d DictionaryData) Validate() map[string]string {
	problems := make(map[string]string)
	if len(d) == 0 {
		problems["data"] = "at least one type is required"
		return problems
	}
	for name, fields := range d {
		switch {
		case strings.TrimSpace(name) == "":
			problems["data"] = "type names must not be blank"
		case len(name) > MaxTypeNameLen:
			problems[name] = fmt.Sprintf("must be at most %d characters", MaxTypeNameLen)
		case !typeNamePattern.MatchString(name):
			problems[name] = "may only contain letters, digits, '_', '-', '.', ':'"
		}
		seen := make(map[string]bool, len(fields))
		for _, f := range fields {
			if strings.TrimSpace(f) == "" {
				problems[name] = "field names must not be blank"
				break
			}
			if seen[f] {
				problems[name] = "duplicate field " + f
				break
			}
			seen[f] = true
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Has reports whether typ is a permitted type.
func (d DictionaryData) Has(typ string) bool {
	_, ok := d[typ]
	return ok
}

// Types returns the permitted type names, sorted.
func (d DictionaryData) Types() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Value stores the definition as JSONB.
func (d DictionaryData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSONB definition.
func (d *DictionaryData) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = DictionaryData{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("dictionary data: unsupported source type")
	}
	out := DictionaryData{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("dictionary data: %w", err)
	}
	*d = out
	return nil
}

// UnmarshalJSON accepts both {"type": ["field", ...]} and {"type": null|[]}.
func (d *DictionaryData) UnmarshalJSON(b []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(DictionaryData, len(raw))
	for k, v := range raw {
		if v == nil {
			v = []string{}
		}
		out[k] = v
	}
	*d = out
	return nil
}

// Dictionary is a named set of permitted log types.
type Dictionary struct {
	ID        int            `json:"dictionary_id"`
	Name      string         `json:"name"`
	Data      DictionaryData `json:"data"`
	CreatedBy *int           `json:"created_by,omitempty"`
	CreatedOn time.Time      `json:"created_on"`
	UpdatedOn time.Time      `json:"updated_on"`
}
