package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"transcript/internal/transcript/eventlog"
	"transcript/internal/transcript/metrics"
	"transcript/internal/transcript/models"
	"transcript/internal/transcript/service"
	"transcript/internal/transcript/store"
	"transcript/pkg/domain"
	"transcript/pkg/requestcontext"
	"transcript/pkg/testutil"
)

var (
	authority = domain.Address{0xa1, 0x1c, 0xe0}
	stranger  = domain.Address{0x5e}
	h1        = mustHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	h2        = mustHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	fixedNow  = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

func mustHash(s string) domain.PDFHash {
	h, err := domain.ParsePDFHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

type RegistrySuite struct {
	suite.Suite
	ctx     context.Context
	mem     *store.InMemory
	svc     *service.Service
	metrics *metrics.Metrics
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), fixedNow)
	s.mem = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	svc, err := service.New(s.mem.Tx, authority,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *RegistrySuite) mint(id domain.TokenID, h domain.PDFHash) models.Event {
	ev, err := s.svc.Mint(s.ctx, authority, id, h)
	s.Require().NoError(err)
	return ev
}

// assertConsistent checks that the forward map, registered set, reverse map,
// ownership and count agree with the expected live bindings.
func (s *RegistrySuite) assertConsistent(live map[domain.TokenID]domain.PDFHash) {
	count, err := s.svc.GetTokenMintedCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(len(live)), count)

	for id, h := range live {
		got, err := s.svc.GetTranscriptHash(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(h, got)

		back, err := s.svc.GetTokenIDByHash(s.ctx, h)
		s.Require().NoError(err)
		s.Equal(id, back)

		registered, err := s.svc.GetStoredHashValue(s.ctx, h)
		s.Require().NoError(err)
		s.True(registered)

		owner, err := s.svc.OwnerOf(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(authority, owner)
	}
}

func (s *RegistrySuite) TestNewRejectsZeroAuthority() {
	_, err := service.New(s.mem.Tx, domain.Address{})
	s.Error(err)
	_, err = service.New(nil, authority)
	s.Error(err)
}

func (s *RegistrySuite) TestScenarioA_MintAssignsOwnership() {
	ev := s.mint(1234, h1)

	owner, err := s.svc.OwnerOf(s.ctx, 1234)
	s.Require().NoError(err)
	s.Equal(authority, owner)

	count, err := s.svc.GetTokenMintedCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)

	s.Equal(models.EventMinted, ev.Kind)
	s.Equal(domain.TokenID(1234), ev.TokenID)
	s.Equal(h1, ev.PDFHash)
	s.Equal(fixedNow, ev.Timestamp)
	s.Equal(uint64(1), ev.Seq)
	s.Equal(1.0, promtest.ToFloat64(s.metrics.MintedTokens))
}

func (s *RegistrySuite) TestScenarioB_RemintSameIdentifier() {
	s.mint(1234, h1)

	_, err := s.svc.Mint(s.ctx, authority, 1234, h2)
	s.Require().ErrorIs(err, models.ErrIdentifierAlreadyMinted)
	var regErr *models.Error
	s.Require().True(errors.As(err, &regErr))
	s.Equal(domain.TokenID(1234), regErr.TokenID)
	s.Equal(h2, regErr.PDFHash)

	got, err := s.svc.GetTranscriptHash(s.ctx, 1234)
	s.Require().NoError(err)
	s.Equal(h1, got)

	registered, err := s.svc.GetStoredHashValue(s.ctx, h2)
	s.Require().NoError(err)
	s.False(registered)
	s.assertConsistent(map[domain.TokenID]domain.PDFHash{1234: h1})
}

func (s *RegistrySuite) TestScenarioB_RemintSameIdentifierSameHash() {
	s.mint(1234, h1)

	// The fingerprint check precedes the identifier check.
	_, err := s.svc.Mint(s.ctx, authority, 1234, h1)
	s.ErrorIs(err, models.ErrFingerprintAlreadyRegistered)
	s.assertConsistent(map[domain.TokenID]domain.PDFHash{1234: h1})
}

func (s *RegistrySuite) TestScenarioC_DuplicateFingerprint() {
	s.mint(1234, h1)

	_, err := s.svc.Mint(s.ctx, authority, 100, h1)
	s.Require().ErrorIs(err, models.ErrFingerprintAlreadyRegistered)
	s.Equal("FingerprintAlreadyRegistered(100, "+h1.Hex()+")", err.Error())

	_, err = s.svc.GetTranscriptHash(s.ctx, 100)
	s.ErrorIs(err, models.ErrNotMinted)
	s.assertConsistent(map[domain.TokenID]domain.PDFHash{1234: h1})
}

func (s *RegistrySuite) TestScenarioD_BurnClearsEverything() {
	s.mint(1234, h1)

	ev, err := s.svc.Burn(s.ctx, authority, 1234)
	s.Require().NoError(err)
	s.Equal(models.EventBurned, ev.Kind)
	s.Equal(h1, ev.PDFHash)
	s.Equal(uint64(2), ev.Seq)

	_, err = s.svc.GetTranscriptHash(s.ctx, 1234)
	s.ErrorIs(err, models.ErrNotMinted)

	registered, err := s.svc.GetStoredHashValue(s.ctx, h1)
	s.Require().NoError(err)
	s.False(registered)

	id, err := s.svc.GetTokenIDByHash(s.ctx, h1)
	s.Require().NoError(err)
	s.Zero(id)

	_, err = s.svc.OwnerOf(s.ctx, 1234)
	s.ErrorIs(err, models.ErrNotMinted)

	s.assertConsistent(nil)
	s.Equal(0.0, promtest.ToFloat64(s.metrics.MintedTokens))
}

func (s *RegistrySuite) TestScenarioE_ZeroValues() {
	_, err := s.svc.Mint(s.ctx, authority, 0, h1)
	s.Require().ErrorIs(err, models.ErrInvalidIdentifier)
	s.Equal("InvalidIdentifier(0)", err.Error())

	_, err = s.svc.Mint(s.ctx, authority, 1234, domain.PDFHash{})
	s.Require().ErrorIs(err, models.ErrInvalidFingerprint)

	s.assertConsistent(nil)
}

func (s *RegistrySuite) TestScenarioF_NonAuthorityMint() {
	_, err := s.svc.Mint(s.ctx, stranger, 1234, h1)
	s.Require().ErrorIs(err, models.ErrNotAuthorized)
	var regErr *models.Error
	s.Require().True(errors.As(err, &regErr))
	s.Equal(stranger, regErr.Caller)

	s.assertConsistent(nil)
	events, err := s.mem.Events.All(s.ctx)
	s.Require().NoError(err)
	s.Empty(events, "rejected operations emit no event")
}

func (s *RegistrySuite) TestMintCheckOrder() {
	s.mint(1234, h1)

	tests := []struct {
		name   string
		caller domain.Address
		id     domain.TokenID
		hash   domain.PDFHash
		want   error
	}{
		{"authorization beats everything", stranger, 0, domain.PDFHash{}, models.ErrNotAuthorized},
		{"identifier before fingerprint", authority, 0, domain.PDFHash{}, models.ErrInvalidIdentifier},
		{"zero fingerprint before registration", authority, 1234, domain.PDFHash{}, models.ErrInvalidFingerprint},
		{"registration before minted", authority, 1234, h1, models.ErrFingerprintAlreadyRegistered},
		{"minted last", authority, 1234, h2, models.ErrIdentifierAlreadyMinted},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Mint(s.ctx, tt.caller, tt.id, tt.hash)
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *RegistrySuite) TestBurnCheckOrder() {
	s.mint(1234, h1)

	tests := []struct {
		name   string
		caller domain.Address
		id     domain.TokenID
		want   error
	}{
		{"zero identifier first", stranger, 0, models.ErrInvalidIdentifier},
		{"unauthorized on a minted token", stranger, 1234, models.ErrNotAuthorized},
		{"unauthorized on an unknown token", stranger, 999, models.ErrNotAuthorized},
		{"authority on an unknown token", authority, 999, models.ErrNotMinted},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.Burn(s.ctx, tt.caller, tt.id)
			s.ErrorIs(err, tt.want)
		})
	}
	s.assertConsistent(map[domain.TokenID]domain.PDFHash{1234: h1})
}

func (s *RegistrySuite) TestRemintAfterBurn() {
	s.mint(1234, h1)
	_, err := s.svc.Burn(s.ctx, authority, 1234)
	s.Require().NoError(err)

	s.mint(1234, h2)
	s.mint(55, h1)

	s.assertConsistent(map[domain.TokenID]domain.PDFHash{1234: h2, 55: h1})
}

func (s *RegistrySuite) TestVerifyTranscriptHash() {
	s.mint(1234, h1)

	ok, err := s.svc.VerifyTranscriptHash(s.ctx, 1234, h1)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.svc.VerifyTranscriptHash(s.ctx, 1234, h2)
	s.Require().NoError(err)
	s.False(ok)

	_, err = s.svc.VerifyTranscriptHash(s.ctx, 1234, domain.PDFHash{})
	s.ErrorIs(err, models.ErrInvalidFingerprint)

	_, err = s.svc.VerifyTranscriptHash(s.ctx, 77, h1)
	s.ErrorIs(err, models.ErrNotMinted)

	// Zero fingerprint is reported before a missing token.
	_, err = s.svc.VerifyTranscriptHash(s.ctx, 77, domain.PDFHash{})
	s.ErrorIs(err, models.ErrInvalidFingerprint)
}

func (s *RegistrySuite) TestHashLookupsRejectZeroFingerprint() {
	_, err := s.svc.GetStoredHashValue(s.ctx, domain.PDFHash{})
	s.ErrorIs(err, models.ErrInvalidFingerprint)

	_, err = s.svc.GetTokenIDByHash(s.ctx, domain.PDFHash{})
	s.ErrorIs(err, models.ErrInvalidFingerprint)
}

func (s *RegistrySuite) TestGetTranscriptHashOfZeroIdentifier() {
	_, err := s.svc.GetTranscriptHash(s.ctx, 0)
	s.ErrorIs(err, models.ErrNotMinted)
}

func (s *RegistrySuite) TestEventsFormAVerifiableChain() {
	s.mint(1, h1)
	s.mint(2, h2)
	_, err := s.svc.Burn(s.ctx, authority, 1)
	s.Require().NoError(err)
	_, err = s.svc.Mint(s.ctx, stranger, 3, h1)
	s.Require().Error(err)

	events, err := s.mem.Events.All(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal([]models.EventKind{models.EventMinted, models.EventMinted, models.EventBurned},
		[]models.EventKind{events[0].Kind, events[1].Kind, events[2].Kind})
	s.NoError(eventlog.VerifyChain(events))
}

func (s *RegistrySuite) TestOperationMetrics() {
	s.mint(1, h1)
	_, _ = s.svc.Mint(s.ctx, stranger, 2, h2)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.Operations.WithLabelValues("mint", "ok")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Operations.WithLabelValues("mint", "not_authorized")))
}

// TestRandomizedOperationsKeepInvariants drives a random mix of mints and
// burns and checks uniqueness, consistency and count accuracy after each step.
func (s *RegistrySuite) TestRandomizedOperationsKeepInvariants() {
	rng := rand.New(rand.NewPCG(42, 7))
	hashes := []domain.PDFHash{h1, h2, {3}, {4}, {5}}
	live := map[domain.TokenID]domain.PDFHash{}
	owner := map[domain.PDFHash]domain.TokenID{}

	for range 300 {
		id := domain.TokenID(rng.IntN(6) + 1)
		h := hashes[rng.IntN(len(hashes))]
		if rng.IntN(3) == 0 {
			_, err := s.svc.Burn(s.ctx, authority, id)
			if bound, ok := live[id]; ok {
				s.Require().NoError(err)
				delete(live, id)
				delete(owner, bound)
			} else {
				s.Require().ErrorIs(err, models.ErrNotMinted)
			}
		} else {
			_, err := s.svc.Mint(s.ctx, authority, id, h)
			_, hashTaken := owner[h]
			_, idTaken := live[id]
			switch {
			case hashTaken:
				s.Require().ErrorIs(err, models.ErrFingerprintAlreadyRegistered)
			case idTaken:
				s.Require().ErrorIs(err, models.ErrIdentifierAlreadyMinted)
			default:
				s.Require().NoError(err)
				live[id] = h
				owner[h] = id
			}
		}
		s.assertConsistent(live)
	}
}

// failingLog rejects every append, forcing the host to roll back writes
// already applied by the transaction.
type failingLog struct{}

func (failingLog) Append(context.Context, models.Event) (models.Event, error) {
	return models.Event{}, errors.New("disk full")
}

func TestMintRollsBackOnLateFailure(t *testing.T) {
	ctx := context.Background()
	bindings := store.NewInMemoryBindings()
	owners := store.NewInMemoryOwners()
	tx := service.NewInMemoryTx(service.Stores{Bindings: bindings, Owners: owners, Events: failingLog{}})
	svc, err := service.New(tx, authority, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	testutil.Given(t, "an event log that fails on append", func(t *testing.T) {
		testutil.When(t, "the authority mints", func(t *testing.T) {
			_, err := svc.Mint(ctx, authority, 1234, h1)

			testutil.Then(t, "the mint fails and leaves no partial state", func(t *testing.T) {
				require.Error(t, err)
				var regErr *models.Error
				assert.False(t, errors.As(err, &regErr), "infrastructure failures are not registry rejections")

				_, err = owners.OwnerOf(ctx, 1234)
				assert.Error(t, err)
				registered, _ := bindings.IsRegistered(ctx, h1)
				assert.False(t, registered)
				count, _ := bindings.Count(ctx)
				assert.Zero(t, count)
			})
		})
	})
}

func TestCancelledContextAbortsMint(t *testing.T) {
	mem := store.NewInMemory()
	svc, err := service.New(mem.Tx, authority, service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Mint(ctx, authority, 1, h1)
	require.Error(t, err)

	count, err := svc.GetTokenMintedCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMintedGaugeFollowsSharedStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metricsA := metrics.New(prometheus.NewRegistry())
	metricsB := metrics.New(prometheus.NewRegistry())
	replicaA, err := service.New(mem.Tx, authority, service.WithLogger(logger), service.WithMetrics(metricsA))
	require.NoError(t, err)
	replicaB, err := service.New(mem.Tx, authority, service.WithLogger(logger), service.WithMetrics(metricsB))
	require.NoError(t, err)

	testutil.Given(t, "two replicas over one store", func(t *testing.T) {
		_, err := replicaA.Mint(ctx, authority, 1, h1)
		require.NoError(t, err)
		_, err = replicaA.Mint(ctx, authority, 2, h2)
		require.NoError(t, err)

		testutil.When(t, "a token minted by one is burned by the other", func(t *testing.T) {
			_, err := replicaB.Burn(ctx, authority, 1)
			require.NoError(t, err)

			testutil.Then(t, "the burning replica reports the committed count", func(t *testing.T) {
				assert.Equal(t, 1.0, promtest.ToFloat64(metricsB.MintedTokens))
			})
			testutil.And(t, "the other replica catches up on its next count", func(t *testing.T) {
				assert.Equal(t, 2.0, promtest.ToFloat64(metricsA.MintedTokens))
				count, err := replicaA.GetTokenMintedCount(ctx)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), count)
				assert.Equal(t, 1.0, promtest.ToFloat64(metricsA.MintedTokens))
			})
		})
	})
}

type recordingSpan struct {
	noop.Span
	attrs map[attribute.Key]attribute.Value
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

type recordingTracer struct {
	noop.Tracer
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	span := &recordingSpan{attrs: map[attribute.Key]attribute.Value{}}
	r.spans = append(r.spans, span)
	return ctx, span
}

func TestSpansCarryRequestID(t *testing.T) {
	tracer := &recordingTracer{}
	svc, err := service.New(store.NewInMemory().Tx, authority,
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithTracer(tracer))
	require.NoError(t, err)

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	_, err = svc.Mint(ctx, authority, 1, h1)
	require.NoError(t, err)
	_, err = svc.GetTokenMintedCount(context.Background())
	require.NoError(t, err)

	require.Len(t, tracer.spans, 2)
	assert.Equal(t, "req-42", tracer.spans[0].attrs["request_id"].AsString())
	assert.Equal(t, "ok", tracer.spans[0].attrs["outcome"].AsString())
	_, tagged := tracer.spans[1].attrs["request_id"]
	assert.False(t, tagged, "no request id, no attribute")
}
