package sqlstore

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/taskdesk/todo-service/internal/core/domain"
)

// errDuplicate marks a unique-constraint violation. Repositories translate it
// to the matching domain error.
var errDuplicate = errors.New("duplicate record")

// errMissingParent marks a foreign-key violation.
var errMissingParent = errors.New("referenced record does not exist")

// mapError classifies driver errors from any of the supported backends.
// Unrecognised errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %w", errDuplicate, err)
		case "23503":
			return fmt.Errorf("%w: %w", errMissingParent, err)
		case "42P01":
			return fmt.Errorf("%w: %w", domain.ErrSchemaMissing, err)
		case "42501":
			return fmt.Errorf("%w: %w", domain.ErrStorePermission, err)
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return fmt.Errorf("%w: %w", errDuplicate, err)
		case 1452:
			return fmt.Errorf("%w: %w", errMissingParent, err)
		case 1146:
			return fmt.Errorf("%w: %w", domain.ErrSchemaMissing, err)
		case 1044, 1045, 1142:
			return fmt.Errorf("%w: %w", domain.ErrStorePermission, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", errDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", errMissingParent, err)
		case sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY:
			return fmt.Errorf("%w: %w", domain.ErrStorePermission, err)
		}
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "does not exist"):
		return fmt.Errorf("%w: %w", domain.ErrSchemaMissing, err)
	case strings.Contains(msg, "foreign key constraint"):
		return fmt.Errorf("%w: %w", errMissingParent, err)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate"):
		return fmt.Errorf("%w: %w", errDuplicate, err)
	case strings.Contains(msg, "connection refused"):
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}
