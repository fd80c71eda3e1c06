package eventlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"transcript/internal/transcript/eventlog/mocks"
	"transcript/internal/transcript/metrics"
	"transcript/internal/transcript/models"
)

func newTestRelay(t *testing.T, source Source, batchSize int) (*Relay, *mocks.MockPublisher, *metrics.Metrics) {
	t.Helper()
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockPublisher(ctrl)
	m := metrics.New(prometheus.NewRegistry())
	relay := NewRelay(source, publisher,
		WithBatchSize(batchSize),
		WithRelayLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRelayMetrics(m),
	)
	return relay, publisher, m
}

func TestRelayFlushPublishesInOrder(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryLog()
	events := appendEvents(t, log, 5)
	relay, publisher, m := newTestRelay(t, log, 2)

	gomock.InOrder(
		publisher.EXPECT().Publish(gomock.Any(), events[0:2]).Return(nil),
		publisher.EXPECT().Publish(gomock.Any(), events[2:4]).Return(nil),
		publisher.EXPECT().Publish(gomock.Any(), events[4:5]).Return(nil),
	)

	n, err := relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5.0, promtest.ToFloat64(m.EventsPublished))

	pending, err := log.Unpublished(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelayFlushRetriesFailedBatch(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryLog()
	events := appendEvents(t, log, 2)
	relay, publisher, m := newTestRelay(t, log, 10)

	publisher.EXPECT().Publish(gomock.Any(), events).Return(errors.New("broker unavailable"))

	n, err := relay.Flush(ctx)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.PublishFailures))

	pending, err := log.Unpublished(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "failed events stay pending")

	publisher.EXPECT().Publish(gomock.Any(), events).Return(nil)
	n, err = relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelayFlushStopsWhenMarkFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSource(ctrl)
	relay, publisher, _ := newTestRelay(t, source, 10)

	batch := []models.Event{{Seq: 1, Kind: models.EventMinted}}
	source.EXPECT().Unpublished(gomock.Any(), 10).Return(batch, nil)
	publisher.EXPECT().Publish(gomock.Any(), batch).Return(nil)
	source.EXPECT().MarkPublished(gomock.Any(), []uint64{1}, gomock.Any()).Return(errors.New("db down"))

	_, err := relay.Flush(context.Background())
	require.Error(t, err)
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	relay, _, _ := newTestRelay(t, NewInMemoryLog(), 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, relay.Run(ctx))
}
