package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// TodoRepository implements ports.TodoRepository with bun.
type TodoRepository struct {
	db *bun.DB
}

func NewTodoRepository(db *bun.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID string) ([]domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []todoModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", mapError(err))
	}

	out := make([]domain.Todo, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id, userID string) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m todoModel
	err := r.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", mapError(err))
	}
	t := m.toDomain()
	return &t, nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.NewInsert().Model(todoToModel(todo)).Exec(ctx); err != nil {
		err = mapError(err)
		// The bearer token named no registered user.
		if errors.Is(err, errMissingParent) {
			return fmt.Errorf("insert todo: %w: %w", domain.ErrUnauthorized, err)
		}
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TodoRepository) Update(ctx context.Context, id, userID string, patch domain.TodoPatch, updatedAt time.Time) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := r.db.NewUpdate().
		Model((*todoModel)(nil)).
		Set("updated_at = ?", updatedAt.UTC()).
		Where("id = ?", id).
		Where("user_id = ?", userID)
	if patch.Title != nil {
		q = q.Set("title = ?", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	if patch.Completed != nil {
		q = q.Set("completed = ?", *patch.Completed)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("update todo: %w", mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, domain.ErrTodoNotFound
	}

	return r.FindByID(ctx, id, userID)
}

func (r *TodoRepository) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*todoModel)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete todo: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}
