package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	txcontext "transcript/pkg/platform/tx"
)

// PostgresLog persists the event chain in the registry_events table, which
// doubles as the transactional outbox for the broker relay. Append must run
// inside a registry transaction: the registry_state row lock is what keeps
// sequence numbers gap-free.
type PostgresLog struct {
	db *sql.DB
}

func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

const eventColumns = `seq, id, kind, token_id, pdf_hash, occurred_at, prev_digest, digest`

func (l *PostgresLog) Append(ctx context.Context, ev models.Event) (models.Event, error) {
	exec := txcontext.ExecutorFrom(ctx, l.db)

	var prevSeq int64
	var prevDigest []byte
	err := exec.QueryRowContext(ctx,
		`SELECT seq, digest FROM registry_events ORDER BY seq DESC LIMIT 1`,
	).Scan(&prevSeq, &prevDigest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fmt.Errorf("load chain head: %w", err)
	}
	var prev models.Digest
	copy(prev[:], prevDigest)

	sealed, err := Seal(ev, uint64(prevSeq), prev)
	if err != nil {
		return models.Event{}, err
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO registry_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		int64(sealed.Seq),
		sealed.ID,
		string(sealed.Kind),
		sealed.TokenID.String(),
		sealed.PDFHash.Bytes(),
		sealed.Timestamp,
		sealed.PrevDigest[:],
		sealed.Digest[:],
	)
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return sealed, nil
}

func (l *PostgresLog) Unpublished(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return l.query(ctx, `
		SELECT `+eventColumns+` FROM registry_events
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`, limit)
}

func (l *PostgresLog) MarkPublished(ctx context.Context, seqs []uint64, at time.Time) error {
	if len(seqs) == 0 {
		return nil
	}
	ids := make([]int64, len(seqs))
	for i, seq := range seqs {
		ids[i] = int64(seq)
	}
	_, err := txcontext.ExecutorFrom(ctx, l.db).ExecContext(ctx, `
		UPDATE registry_events SET published_at = $2
		WHERE seq = ANY($1) AND published_at IS NULL
	`, pq.Array(ids), at)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

func (l *PostgresLog) All(ctx context.Context) ([]models.Event, error) {
	return l.query(ctx, `SELECT `+eventColumns+` FROM registry_events ORDER BY seq`)
}

func (l *PostgresLog) query(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := txcontext.ExecutorFrom(ctx, l.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (models.Event, error) {
	var (
		seq        int64
		id         uuid.UUID
		kind       string
		tokenID    string
		pdfHash    []byte
		occurredAt time.Time
		prevDigest []byte
		digest     []byte
	)
	if err := rows.Scan(&seq, &id, &kind, &tokenID, &pdfHash, &occurredAt, &prevDigest, &digest); err != nil {
		return models.Event{}, fmt.Errorf("scan event: %w", err)
	}
	tid, err := domain.ParseTokenID(tokenID)
	if err != nil {
		return models.Event{}, fmt.Errorf("scan event %d token id: %w", seq, err)
	}
	hash, err := domain.PDFHashFromBytes(pdfHash)
	if err != nil {
		return models.Event{}, fmt.Errorf("scan event %d pdf hash: %w", seq, err)
	}
	ev := models.Event{
		Seq:       uint64(seq),
		ID:        id,
		Kind:      models.EventKind(kind),
		TokenID:   tid,
		PDFHash:   hash,
		Timestamp: occurredAt.UTC(),
	}
	copy(ev.PrevDigest[:], prevDigest)
	copy(ev.Digest[:], digest)
	return ev, nil
}
