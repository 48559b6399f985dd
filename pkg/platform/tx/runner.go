package tx

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	dErrors "cockpit/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// Runner opens a SQL transaction, exposes it through the context and commits when fn
// returns nil. Nested calls reuse the outer transaction.
type Runner struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewRunner(db *sqlx.DB, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &Runner{db: db, timeout: timeout}
}

func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
