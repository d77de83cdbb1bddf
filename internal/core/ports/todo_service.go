package ports

import (
	"context"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// CreateTodoInput carries the data needed to create a todo.
type CreateTodoInput struct {
	UserID         string
	Title          string
	Description    string
	IdempotencyKey string // optional
}

// UpdateTodoInput carries a partial update. Nil fields are not changed.
type UpdateTodoInput struct {
	UserID      string
	ID          string
	Title       *string
	Description *string
	Completed   *bool
}

// TodoService defines the per-user todo use cases.
type TodoService interface {
	List(ctx context.Context, userID string) ([]domain.Todo, error)
	Get(ctx context.Context, userID, id string) (*domain.Todo, error)
	Create(ctx context.Context, input CreateTodoInput) (*domain.Todo, error)
	Update(ctx context.Context, input UpdateTodoInput) (*domain.Todo, error)
	Delete(ctx context.Context, userID, id string) error
}
