package cache

import (
	"context"
	"fmt"
)

// Store persists fetch outcomes between runs. Get returns (nil, nil)
// when the key is not cached. Freshness decisions belong to the Policy,
// not the store.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	Put(ctx context.Context, key Key, entry *Entry) error
	Delete(ctx context.Context, key Key) error
	Close() error
}

// Cache backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendNATS   = "nats"
)

// Open creates the store for a configured backend. An empty backend
// selects the in-memory store.
func Open(backend, path, natsURL, bucket string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendNATS:
		return NewNATSStore(natsURL, bucket)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected memory, sqlite or nats)", backend)
	}
}
