package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"transcript/pkg/domain"
	"transcript/pkg/platform/sentinel"
	txcontext "transcript/pkg/platform/tx"
)

// PostgresOwners is the ownership substrate backed by token_owners.
type PostgresOwners struct {
	db *sql.DB
}

func NewPostgresOwners(db *sql.DB) *PostgresOwners {
	return &PostgresOwners{db: db}
}

func (s *PostgresOwners) OwnerOf(ctx context.Context, tokenID domain.TokenID) (domain.Address, error) {
	var raw []byte
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT owner FROM token_owners WHERE token_id = $1`,
		tokenID.String(),
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Address{}, sentinel.ErrNotFound
		}
		return domain.Address{}, fmt.Errorf("find token owner: %w", err)
	}
	return domain.AddressFromBytes(raw)
}

func (s *PostgresOwners) Create(ctx context.Context, tokenID domain.TokenID, owner domain.Address) error {
	if tokenID.IsZero() || owner.IsZero() {
		return fmt.Errorf("ownership requires a token and an owner")
	}
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`INSERT INTO token_owners (token_id, owner) VALUES ($1, $2)`,
		tokenID.String(), owner.Bytes(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert token owner: %w", err)
	}
	return nil
}

func (s *PostgresOwners) Destroy(ctx context.Context, tokenID domain.TokenID) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM token_owners WHERE token_id = $1`,
		tokenID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete token owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete token owner: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
