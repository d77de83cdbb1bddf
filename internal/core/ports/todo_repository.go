package ports

import (
	"context"
	"time"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// TodoRepository defines persistence for todos. Every method that reads or
// mutates a single todo filters on both the todo id and the owner's user id.
type TodoRepository interface {
	// ListByUser returns the user's todos, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Todo, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Todo, error)
	Create(ctx context.Context, todo *domain.Todo) error
	// Update applies patch and stamps updatedAt. Zero matching rows returns
	// domain.ErrTodoNotFound.
	Update(ctx context.Context, id, userID string, patch domain.TodoPatch, updatedAt time.Time) (*domain.Todo, error)
	// Delete removes the todo. Zero matching rows returns domain.ErrTodoNotFound.
	Delete(ctx context.Context, id, userID string) error
}
