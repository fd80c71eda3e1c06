package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"transcript/internal/transcript/metrics"
	"transcript/internal/transcript/models"
)

// Source is the outbox side of the log.
type Source interface {
	Unpublished(ctx context.Context, limit int) ([]models.Event, error)
	MarkPublished(ctx context.Context, seqs []uint64, at time.Time) error
}

//go:generate mockgen -source=relay.go -destination=mocks/relay-mocks.go -package=mocks Publisher

// Publisher delivers events, in order, to external observers.
type Publisher interface {
	Publish(ctx context.Context, events []models.Event) error
}

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
)

// Relay moves unpublished events from the log to a Publisher. A failed
// publish leaves the batch unpublished; it is retried on the next tick, so
// delivery is at-least-once and in sequence order.
type Relay struct {
	source    Source
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m *metrics.Metrics) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func NewRelay(source Source, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "event relay started",
		"interval", r.interval.String(),
		"batch_size", r.batchSize,
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "event relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "event relay pass failed", "error", err)
			}
		}
	}
}

// Flush publishes pending events in batches until the log is drained or a
// batch fails, and returns the number of events published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	published := 0
	for {
		batch, err := r.source.Unpublished(ctx, r.batchSize)
		if err != nil {
			return published, fmt.Errorf("load unpublished events: %w", err)
		}
		if r.metrics != nil {
			r.metrics.SetPending(len(batch))
		}
		if len(batch) == 0 {
			return published, nil
		}

		if err := r.publisher.Publish(ctx, batch); err != nil {
			if r.metrics != nil {
				r.metrics.IncPublishFailures()
			}
			return published, fmt.Errorf("publish events %d..%d: %w", batch[0].Seq, batch[len(batch)-1].Seq, err)
		}

		seqs := make([]uint64, len(batch))
		for i, ev := range batch {
			seqs[i] = ev.Seq
		}
		if err := r.source.MarkPublished(ctx, seqs, r.now()); err != nil {
			return published, fmt.Errorf("mark events published: %w", err)
		}
		published += len(batch)
		if r.metrics != nil {
			r.metrics.AddPublished(len(batch))
		}
		if len(batch) < r.batchSize {
			return published, nil
		}
	}
}
