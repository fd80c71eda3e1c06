package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"transcript/internal/transcript/metrics"
	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	dErrors "transcript/pkg/domain-errors"
	"transcript/pkg/requestcontext"
)

// Bindings holds the three lookup structures of the registry plus the
// active count. Put applies every write of a new binding and Delete clears
// every entry of an existing one; there are no partial mutators.
// Absent keys surface as sentinel.ErrNotFound; taken keys on Put as
// sentinel.ErrConflict.
type Bindings interface {
	HashOf(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, error)
	TokenIDOf(ctx context.Context, hash domain.PDFHash) (domain.TokenID, error)
	IsRegistered(ctx context.Context, hash domain.PDFHash) (bool, error)
	Count(ctx context.Context) (uint64, error)
	Put(ctx context.Context, binding models.Binding) error
	Delete(ctx context.Context, tokenID domain.TokenID) error
}

// Owners is the ownership substrate: who owns which token.
type Owners interface {
	OwnerOf(ctx context.Context, tokenID domain.TokenID) (domain.Address, error)
	Create(ctx context.Context, tokenID domain.TokenID, owner domain.Address) error
	Destroy(ctx context.Context, tokenID domain.TokenID) error
}

// EventLog is the append-only notification channel. Append assigns the
// sequence number and chain digests and returns the sealed event.
type EventLog interface {
	Append(ctx context.Context, event models.Event) (models.Event, error)
}

// Stores is the set of stores visible inside one registry transaction.
type Stores struct {
	Bindings Bindings
	Owners   Owners
	Events   EventLog
}

// RegistryTx is the transactional host. RunInTx applies every write made by
// fn or none of them, and serializes against other RunInTx calls. View runs
// fn against a consistent read scope.
type RegistryTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	View(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// HashCache is an optional read cache for token fingerprints. Minted events
// are remembered after commit and may be lost. Burned events are remembered
// inside the burn transaction and must be, so Remember has to ignore events
// older than the entry it holds. Lookup reports only live bindings.
type HashCache interface {
	Lookup(ctx context.Context, tokenID domain.TokenID) (domain.PDFHash, bool, error)
	Remember(ctx context.Context, event models.Event) error
}

// Service is the transcript registry. It owns the mint/burn rules and the
// public read operations; persistence and atomicity come from RegistryTx.
type Service struct {
	tx        RegistryTx
	authority domain.Address
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cache     HashCache
	tracer    trace.Tracer
	now       func(ctx context.Context) time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithCache(cache HashCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithClock overrides the transaction timestamp source. The default is the
// request-scoped time from requestcontext.
func WithClock(now func(ctx context.Context) time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a registry bound to a fixed authority.
func New(tx RegistryTx, authority domain.Address, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registry transaction host is required")
	}
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registry authority must not be the zero address")
	}
	s := &Service{
		tx:        tx,
		authority: authority,
		logger:    slog.Default(),
		tracer:    otel.Tracer("transcript/registry"),
		now:       requestcontext.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authority returns the address permitted to mint and burn.
func (s *Service) Authority() domain.Address {
	return s.authority
}
