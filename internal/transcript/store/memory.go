package store

import (
	"transcript/internal/transcript/eventlog"
	"transcript/internal/transcript/service"
)

// InMemory bundles the in-memory stores behind one transactional host.
type InMemory struct {
	Bindings *InMemoryBindings
	Owners   *InMemoryOwners
	Events   *eventlog.InMemoryLog
	Tx       service.RegistryTx
}

func NewInMemory() *InMemory {
	m := &InMemory{
		Bindings: NewInMemoryBindings(),
		Owners:   NewInMemoryOwners(),
		Events:   eventlog.NewInMemoryLog(),
	}
	m.Tx = service.NewInMemoryTx(service.Stores{
		Bindings: m.Bindings,
		Owners:   m.Owners,
		Events:   m.Events,
	})
	return m
}
