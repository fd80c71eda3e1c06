package service

import (
	"context"
	"sync"
	"time"

	dErrors "transcript/pkg/domain-errors"
)

// Journal is implemented by in-memory stores that can undo every write
// applied since Begin. The in-memory host calls these under its writer lock.
type Journal interface {
	Begin()
	Commit()
	Rollback()
}

// defaultRegistryTxTimeout bounds one registry transaction.
const defaultRegistryTxTimeout = 5 * time.Second

// inMemoryRegistryTx serializes writers behind one lock and rolls back
// journaled stores when the callback fails. Readers share the read lock so
// they never observe a half-applied transaction.
type inMemoryRegistryTx struct {
	mu       sync.RWMutex
	stores   Stores
	journals []Journal
	timeout  time.Duration
}

// NewInMemoryTx wraps in-memory stores in a transactional host. Stores that
// implement Journal are rolled back on failure.
func NewInMemoryTx(stores Stores) RegistryTx {
	t := &inMemoryRegistryTx{stores: stores, timeout: defaultRegistryTxTimeout}
	for _, s := range []any{stores.Bindings, stores.Owners, stores.Events} {
		if j, ok := s.(Journal); ok {
			t.journals = append(t.journals, j)
		}
	}
	return t
}

func (t *inMemoryRegistryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	for _, j := range t.journals {
		j.Begin()
	}
	defer func() {
		if r := recover(); r != nil {
			t.rollback()
			panic(r)
		}
		if err != nil {
			t.rollback()
			return
		}
		for _, j := range t.journals {
			j.Commit()
		}
	}()
	return fn(ctx, t.stores)
}

func (t *inMemoryRegistryTx) rollback() {
	for i := len(t.journals) - 1; i >= 0; i-- {
		t.journals[i].Rollback()
	}
}

func (t *inMemoryRegistryTx) View(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(ctx, t.stores)
}
