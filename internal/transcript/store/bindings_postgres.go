package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	"transcript/pkg/platform/sentinel"
	txcontext "transcript/pkg/platform/tx"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresBindings persists bindings in transcript_bindings. The primary key
// on token_id and the unique index on pdf_hash are the forward and reverse
// lookups; the active count lives on the registry_state row. Put and Delete
// issue two statements and must run inside a registry transaction.
type PostgresBindings struct {
	db *sql.DB
}

func NewPostgresBindings(db *sql.DB) *PostgresBindings {
	return &PostgresBindings{db: db}
}

func (s *PostgresBindings) HashOf(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, error) {
	var raw []byte
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT pdf_hash FROM transcript_bindings WHERE token_id = $1`,
		tokenID.String(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PDFHash{}, sentinel.ErrNotFound
		}
		return domain.PDFHash{}, fmt.Errorf("find binding by token: %w", err)
	}
	return domain.PDFHashFromBytes(raw)
}

func (s *PostgresBindings) TokenIDOf(ctx context.Context, hash domain.PDFHash) (domain.TokenID, error) {
	var raw string
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT token_id::text FROM transcript_bindings WHERE pdf_hash = $1`,
		hash.Bytes(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("find binding by hash: %w", err)
	}
	return domain.ParseTokenID(raw)
}

func (s *PostgresBindings) IsRegistered(ctx context.Context, hash domain.PDFHash) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transcript_bindings WHERE pdf_hash = $1)`,
		hash.Bytes(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hash registration: %w", err)
	}
	return exists, nil
}

func (s *PostgresBindings) Count(ctx context.Context) (uint64, error) {
	var count int64
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT minted_count FROM registry_state WHERE id = 1`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("load minted count: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresBindings) Put(ctx context.Context, b models.Binding) error {
	if b.TokenID.IsZero() || b.PDFHash.IsZero() {
		return fmt.Errorf("binding keys must be non-zero")
	}
	exec := txcontext.ExecutorFrom(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO transcript_bindings (token_id, pdf_hash, owner, minted_at)
		VALUES ($1, $2, $3, $4)
	`, b.TokenID.String(), b.PDFHash.Bytes(), b.Owner.Bytes(), b.MintedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert binding %s: %w", b.TokenID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert binding: %w", err)
	}
	if _, err := exec.ExecContext(ctx,
		`UPDATE registry_state SET minted_count = minted_count + 1 WHERE id = 1`,
	); err != nil {
		return fmt.Errorf("increment minted count: %w", err)
	}
	return nil
}

func (s *PostgresBindings) Delete(ctx context.Context, tokenID domain.TokenID) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`DELETE FROM transcript_bindings WHERE token_id = $1`,
		tokenID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete binding: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	if _, err := exec.ExecContext(ctx,
		`UPDATE registry_state SET minted_count = minted_count - 1 WHERE id = 1`,
	); err != nil {
		return fmt.Errorf("decrement minted count: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
