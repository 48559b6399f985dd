// Package postgres opens the shared database handle and classifies driver errors into
// sentinel facts for the stores.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"cockpit/internal/platform/config"
	"cockpit/pkg/platform/sentinel"
)

// Open connects to postgres through the lib/pq driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)
	return db, nil
}

// Classify maps driver errors onto sentinel errors, keeping the original in the chain.
//   - sql.ErrNoRows -> sentinel.ErrNotFound
//   - unique violation -> sentinel.ErrConflict
//   - connection, shutdown and serialization failures -> sentinel.ErrUnavailable
//
// Anything else is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrUnavailable) || errors.Is(err, sentinel.ErrConflict) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57", pqErr.Code == "40001", pqErr.Code == "40P01":
			return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
	}
	return err
}
