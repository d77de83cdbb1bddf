package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	// Create inserts a user whose ID is already set. A username collision
	// returns domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Ping runs a trivial query against the users table.
	Ping(ctx context.Context) error
}
