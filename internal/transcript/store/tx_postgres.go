package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"transcript/internal/transcript/eventlog"
	"transcript/internal/transcript/service"
	dErrors "transcript/pkg/domain-errors"
	txcontext "transcript/pkg/platform/tx"
)

const defaultRegistryTxTimeout = 5 * time.Second

// PostgresTx is the registry's transactional host on PostgreSQL. Every
// mutating transaction locks the singleton registry_state row first, so
// writers are serialized across processes and the event chain stays linear.
type PostgresTx struct {
	db      *sql.DB
	stores  service.Stores
	events  *eventlog.PostgresLog
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	events := eventlog.NewPostgresLog(db)
	return &PostgresTx{
		db: db,
		stores: service.Stores{
			Bindings: NewPostgresBindings(db),
			Owners:   NewPostgresOwners(db),
			Events:   events,
		},
		events:  events,
		timeout: defaultRegistryTxTimeout,
	}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked int
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM registry_state WHERE id = 1 FOR UPDATE`,
	).Scan(&locked); err != nil {
		return fmt.Errorf("lock registry state: %w", err)
	}

	if err := fn(txcontext.WithTx(ctx, tx), t.stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry transaction: %w", err)
	}
	return nil
}

// View runs fn outside a transaction. Each single-statement read sees a
// committed state.
func (t *PostgresTx) View(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	return fn(ctx, t.stores)
}

// Events exposes the event log for the relay and chain verification.
func (t *PostgresTx) Events() *eventlog.PostgresLog {
	return t.events
}
