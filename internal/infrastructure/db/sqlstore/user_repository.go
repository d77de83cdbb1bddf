package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// UserRepository implements ports.UserRepository with bun.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.db.NewInsert().Model(userToModel(user)).Exec(ctx); err != nil {
		err = mapError(err)
		if errors.Is(err, errDuplicate) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m userModel
	err := r.db.NewSelect().Model(&m).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", mapError(err))
	}
	return m.toDomain(), nil
}

// Ping selects at most one user id, which also proves the schema exists.
func (r *UserRepository) Ping(ctx context.Context) error {
	var ids []string
	err := r.db.NewSelect().Model((*userModel)(nil)).Column("id").Limit(1).Scan(ctx, &ids)
	if err != nil {
		return fmt.Errorf("ping users: %w", mapError(err))
	}
	return nil
}
