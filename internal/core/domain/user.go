package domain

import "time"

// User models a registered account. Users are never updated or deleted by
// the service once created.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	PasswordMinLen = 6
)
