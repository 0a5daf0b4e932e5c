package models

import "time"

// User is the identity-provider view of an account. ID is the
// provider-assigned subject and never changes once issued.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
