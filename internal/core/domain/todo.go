package domain

import (
	"strings"
	"time"
)

const (
	TitleMaxLen       = 500
	DescriptionMaxLen = 2000
)

// Todo is a task owned by exactly one user.
type Todo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoPatch carries the fields of an update. Nil fields are left untouched.
type TodoPatch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Empty reports whether the patch changes no user-visible field.
func (p TodoPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// CleanText trims surrounding whitespace and cuts s to at most max characters.
func CleanText(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > max {
		return strings.TrimSpace(string(r[:max]))
	}
	return s
}
