package models

import (
	"encoding/json"
	"time"
)

// LogEntry is one immutable event row.
type LogEntry struct {
	ID               int64           `json:"log_id"`
	DictName         string          `json:"dict_name"`
	Type             string          `json:"type"`
	Data             json.RawMessage `json:"data"`
	Path             string          `json:"path,omitempty"`
	ApplicationName  string          `json:"application_name,omitempty"`
	OrganisationName string          `json:"organisation_name,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}
