package eventlog

import (
	"context"
	"sync"
	"time"

	"transcript/internal/transcript/models"
)

type storedEvent struct {
	event       models.Event
	publishedAt *time.Time
}

// InMemoryLog keeps the event chain in process memory.
type InMemoryLog struct {
	mu     sync.RWMutex
	events []storedEvent

	inTx    bool
	txStart int
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

func (l *InMemoryLog) Append(_ context.Context, ev models.Event) (models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prevSeq uint64
	var prevDigest models.Digest
	if n := len(l.events); n > 0 {
		last := l.events[n-1].event
		prevSeq, prevDigest = last.Seq, last.Digest
	}
	sealed, err := Seal(ev, prevSeq, prevDigest)
	if err != nil {
		return models.Event{}, err
	}
	l.events = append(l.events, storedEvent{event: sealed})
	return sealed, nil
}

func (l *InMemoryLog) Unpublished(_ context.Context, limit int) ([]models.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	visible := l.events
	if l.inTx {
		visible = visible[:l.txStart]
	}
	var out []models.Event
	for _, se := range visible {
		if se.publishedAt != nil {
			continue
		}
		out = append(out, se.event)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (l *InMemoryLog) MarkPublished(_ context.Context, seqs []uint64, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, seq := range seqs {
		if seq == 0 || seq > uint64(len(l.events)) {
			continue
		}
		se := &l.events[seq-1]
		if se.publishedAt == nil {
			published := at
			se.publishedAt = &published
		}
	}
	return nil
}

func (l *InMemoryLog) All(_ context.Context) ([]models.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Event, len(l.events))
	for i, se := range l.events {
		out[i] = se.event
	}
	return out, nil
}

// Begin, Commit and Rollback let the in-memory registry host discard
// events appended by a failed transaction.
func (l *InMemoryLog) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inTx = true
	l.txStart = len(l.events)
}

func (l *InMemoryLog) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inTx = false
}

func (l *InMemoryLog) Rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inTx {
		l.events = l.events[:l.txStart]
	}
	l.inTx = false
}
