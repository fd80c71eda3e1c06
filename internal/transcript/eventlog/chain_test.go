package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
)

var chainTime = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

func appendEvents(t *testing.T, log *InMemoryLog, n int) []models.Event {
	t.Helper()
	var out []models.Event
	for i := range n {
		kind := models.EventMinted
		if i%2 == 1 {
			kind = models.EventBurned
		}
		ev, err := log.Append(context.Background(),
			models.NewEvent(kind, domain.TokenID(1000+i/2), domain.PDFHash{byte(i/2 + 1)}, chainTime.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func TestSealLinksEvents(t *testing.T) {
	log := NewInMemoryLog()
	events := appendEvents(t, log, 3)

	assert.Equal(t, uint64(1), events[0].Seq)
	assert.True(t, events[0].PrevDigest.IsZero())
	assert.Equal(t, events[0].Digest, events[1].PrevDigest)
	assert.Equal(t, events[1].Digest, events[2].PrevDigest)
	assert.NotEqual(t, events[1].Digest, events[2].Digest)

	require.NoError(t, VerifyChain(events))
}

func TestDigestIsDeterministic(t *testing.T) {
	ev := models.NewEvent(models.EventMinted, 1234, domain.PDFHash{9}, chainTime)
	a, err := DigestOf(ev)
	require.NoError(t, err)
	b, err := DigestOf(ev)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	ev.TokenID = 1235
	c, err := DigestOf(ev)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDigestHandlesLargeTokenIDs(t *testing.T) {
	// Adjacent ids above 2^53 must not collapse to the same canonical number.
	a := models.NewEvent(models.EventMinted, domain.TokenID(1<<60), domain.PDFHash{1}, chainTime)
	b := a
	b.TokenID++

	da, err := DigestOf(a)
	require.NoError(t, err)
	db, err := DigestOf(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestSealRejectsUnknownKind(t *testing.T) {
	_, err := Seal(models.Event{Kind: "transferred"}, 0, models.Digest{})
	require.Error(t, err)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(events []models.Event) []models.Event
		seq    uint64
	}{
		{"rewritten fingerprint", func(e []models.Event) []models.Event {
			e[1].PDFHash = domain.PDFHash{0xff}
			return e
		}, 2},
		{"dropped event", func(e []models.Event) []models.Event {
			return append(e[:1], e[2:]...)
		}, 3},
		{"reordered events", func(e []models.Event) []models.Event {
			e[0], e[1] = e[1], e[0]
			return e
		}, 2},
		{"relinked digest", func(e []models.Event) []models.Event {
			e[2].PrevDigest = models.Digest{}
			return e
		}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := appendEvents(t, NewInMemoryLog(), 4)
			err := VerifyChain(tt.tamper(events))

			var broken *BrokenLinkError
			require.True(t, errors.As(err, &broken), "expected broken link, got %v", err)
			assert.Equal(t, tt.seq, broken.Seq)
		})
	}
}

func TestInMemoryLogRollback(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryLog()
	appendEvents(t, log, 1)

	log.Begin()
	_, err := log.Append(ctx, models.NewEvent(models.EventMinted, 5, domain.PDFHash{5}, chainTime))
	require.NoError(t, err)

	pending, err := log.Unpublished(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "events of an open transaction are not relayed")

	log.Rollback()

	all, err := log.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	next, err := log.Append(ctx, models.NewEvent(models.EventMinted, 6, domain.PDFHash{6}, chainTime))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Seq)
}

func TestInMemoryLogPublishing(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryLog()
	appendEvents(t, log, 5)

	batch, err := log.Unpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(1), batch[0].Seq)

	require.NoError(t, log.MarkPublished(ctx, []uint64{1, 2, 99}, chainTime))

	rest, err := log.Unpublished(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Equal(t, uint64(3), rest[0].Seq)
}
