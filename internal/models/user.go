package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// ValidRole reports whether role is one of user, admin, owner.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

type User struct {
	ID           int       `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Organisation string    `json:"organisation,omitempty"`
	Application  string    `json:"application,omitempty"`
	CreatedOn    time.Time `json:"created_on"`
}
