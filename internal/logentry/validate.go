package logentry

import (
	"encoding/json"
	"fmt"

	"github.com/crucial707/applog/internal/models"
)

// InvalidTypeError names the first payload key the dictionary does not permit.
type InvalidTypeError struct {
	Dictionary string
	Type       string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type: %s", e.Type)
}

// Validate checks every field against the dictionary, in order, and stops at the first miss.
func Validate(dict *models.Dictionary, fields []Field) error {
	for _, f := range fields {
		if !dict.Data.Has(f.Type) {
			return &InvalidTypeError{Dictionary: dict.Name, Type: f.Type}
		}
	}
	return nil
}

// GroupByType folds entries into {type: [data, ...]}, keeping row order within a type.
func GroupByType(entries []models.LogEntry) map[string][]json.RawMessage {
	out := make(map[string][]json.RawMessage)
	for _, e := range entries {
		typ := e.Type
		if typ == "" {
			typ = "undefined"
		}
		out[typ] = append(out[typ], e.Data)
	}
	return out
}
