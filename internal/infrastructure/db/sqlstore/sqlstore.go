// Package sqlstore implements the user and todo repositories on top of bun,
// supporting PostgreSQL, MySQL and SQLite through one code path.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	// Drivers registered with database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	defaultMaxOpenConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = time.Minute
	defaultTimeout         = 10 * time.Second
)

// Config captures the settings needed to open a relational store.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store owns the bun handle shared by the repositories.
type Store struct {
	db     *bun.DB
	driver string
}

// Supported reports whether driver is handled by this package.
func Supported(driver string) bool {
	switch driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		return true
	}
	return false
}

// Open connects to the database, verifies it with a ping and applies the
// embedded migrations for the driver's dialect.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if !Supported(cfg.Driver) {
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	driverName, dsn, err := driverDSN(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}
	configurePool(sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", cfg.Driver, mapError(err))
	}

	db := newBunDB(sqlDB, cfg.Driver)
	if err := Migrate(ctx, db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, driver: cfg.Driver}, nil
}

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.driver }

// Users returns the user repository backed by this store.
func (s *Store) Users() *UserRepository { return &UserRepository{db: s.db} }

// Todos returns the todo repository backed by this store.
func (s *Store) Todos() *TodoRepository { return &TodoRepository{db: s.db} }

// Ping checks connectivity of the underlying pool.
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

func (s *Store) Close() error { return s.db.Close() }

func newBunDB(sqlDB *sql.DB, driver string) *bun.DB {
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case DriverMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// driverDSN maps a configured driver to its database/sql driver name and
// normalises the DSN where the driver needs extra options.
func driverDSN(driver, dsn string) (string, string, error) {
	switch driver {
	case DriverPostgres:
		// pgx's stdlib adapter registers itself as "pgx".
		return "pgx", dsn, nil
	case DriverMySQL:
		mc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", "", fmt.Errorf("sqlstore: parse mysql dsn: %w", err)
		}
		mc.ParseTime = true
		mc.Loc = time.UTC
		// Report matched rather than changed rows so owner-filtered updates
		// that leave values untouched are not mistaken for misses.
		mc.ClientFoundRows = true
		return "mysql", mc.FormatDSN(), nil
	default:
		if dsn == "" {
			dsn = "file:todo.db?cache=shared"
		}
		return "sqlite", withForeignKeys(dsn), nil
	}
}

// withForeignKeys turns on SQLite's foreign key enforcement, which is off by
// default, for every connection opened from dsn.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func configurePool(sqlDB *sql.DB, cfg Config) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	idle := defaultConnMaxIdleTime

	// An in-memory SQLite database lives only as long as its connection.
	if cfg.Driver == DriverSQLite && isMemoryDSN(cfg.DSN) {
		maxOpen, lifetime, idle = 1, 0, 0
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)
	sqlDB.SetConnMaxIdleTime(idle)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
