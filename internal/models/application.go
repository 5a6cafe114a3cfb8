package models

import "time"

// Application is a log-producing client. Secret authenticates writes.
type Application struct {
	ID             int       `json:"application_id"`
	Name           string    `json:"name"`
	Secret         string    `json:"secret"`
	Organisation   string    `json:"organisation,omitempty"`
	DictionaryName string    `json:"dictionary_name,omitempty"`
	UserID         int       `json:"user_id"`
	CreatedOn      time.Time `json:"created_on"`
}
