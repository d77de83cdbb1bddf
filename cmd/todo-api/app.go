package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/core/service"
	"github.com/taskdesk/todo-service/internal/infrastructure/db"
	"github.com/taskdesk/todo-service/internal/infrastructure/db/redis"
	"github.com/taskdesk/todo-service/internal/pkg/config"
	"github.com/taskdesk/todo-service/pkg/logger"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *db.Store
	redis ports.Pinger

	auth  *service.AuthService
	todos *service.TodoService

	closers []func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "todo-api",
	})

	store, err := db.Open(ctx, db.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MongoURI:     cfg.Mongo.URI,
		MongoDB:      cfg.Mongo.Database,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", store.Driver).Msg("database ready")

	a := &app{cfg: cfg, log: log, store: store, closers: []func(context.Context) error{store.Close}}

	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			_ = a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.redis = redis.NewPinger(client)
		idem = redis.NewIdempotencyStore(client, cfg.Redis.IdempotencyTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis idempotency enabled")
	}

	a.auth = service.NewAuthService(store.Users, service.DefaultAccount{
		Username: cfg.Bootstrap.Username,
		Password: cfg.Bootstrap.Password,
	}, logger.Component("auth"))
	a.todos = service.NewTodoService(store.Todos, idem, logger.Component("todos"))

	return a, nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// shutdown runs close and logs, rather than returns, any failure.
func (a *app) shutdown() {
	if err := a.close(context.Background()); err != nil {
		a.log.Warn().Err(err).Msg("close dependencies")
	}
}
