package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	SessionToken string
	User         *domain.User
}

// BootstrapResult reports the outcome of ensuring the default account.
type BootstrapResult struct {
	Username string
	Created  bool
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	EnsureDefaultUser(ctx context.Context) (*BootstrapResult, error)
}
