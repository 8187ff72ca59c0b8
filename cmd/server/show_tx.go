package main

import (
	"context"
	"database/sql"
	"time"

	"artshow/internal/scan"
	showstore "artshow/internal/show/store"
	dErrors "artshow/pkg/domain-errors"
)

const defaultShowTxTimeout = 30 * time.Second

// showPostgresTx gives the dispatcher its unit of work: every scan run gets
// one transaction, committed only when the machine reports success.
type showPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newShowPostgresTx(db *sql.DB) *showPostgresTx {
	return &showPostgresTx{db: db}
}

func (t *showPostgresTx) RunInTx(ctx context.Context, fn func(store scan.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultShowTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(showstore.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
