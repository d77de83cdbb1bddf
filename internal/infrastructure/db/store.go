// Package db builds the repositories for the configured backend.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/infrastructure/db/mongo"
	"github.com/taskdesk/todo-service/internal/infrastructure/db/sqlstore"
)

const DriverMongo = "mongo"

type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MongoURI     string
	MongoDB      string
}

// Store bundles the repositories of one backend with its lifecycle hooks.
type Store struct {
	Driver string
	Users  ports.UserRepository
	Todos  ports.TodoRepository
	Pinger ports.Pinger
	close  func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Supported reports whether driver names a backend Open can build.
func Supported(driver string) bool {
	return driver == DriverMongo || sqlstore.Supported(driver)
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch {
	case cfg.Driver == DriverMongo:
		return openMongo(ctx, cfg)
	case sqlstore.Supported(cfg.Driver):
		return openSQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, cfg Config) (*Store, error) {
	st, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}

	users := st.Users()
	return &Store{
		Driver: cfg.Driver,
		Users:  users,
		Todos:  st.Todos(),
		Pinger: users,
		close:  func(context.Context) error { return st.Close() },
	}, nil
}

func openMongo(ctx context.Context, cfg Config) (*Store, error) {
	client, database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
	if err != nil {
		return nil, err
	}
	if err := mongo.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	users := mongo.NewUserRepository(database)
	return &Store{
		Driver: DriverMongo,
		Users:  users,
		Todos:  mongo.NewTodoRepository(database),
		Pinger: users,
		close: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}, nil
}
