package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const bucketInitTimeout = 10 * time.Second

// NATSStore implements Store on a JetStream key-value bucket, letting
// several builders share one fetch cache.
type NATSStore struct {
	conn   *nats.Conn
	kv     jetstream.KeyValue
	bucket string
}

// NewNATSStore connects to NATS and binds the cache bucket, creating it
// when missing.
func NewNATSStore(natsURL, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store := &NATSStore{conn: conn, bucket: bucket}
	if err := store.initBucket(js); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS cache store initialized", "url", natsURL, "bucket", bucket)
	return store, nil
}

func (s *NATSStore) initBucket(js jetstream.JetStream) error {
	ctx, cancel := context.WithTimeout(context.Background(), bucketInitTimeout)
	defer cancel()

	// Bind to the existing bucket when one is already provisioned
	kv, err := js.KeyValue(ctx, s.bucket)
	if err == nil {
		s.kv = kv
		return nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      s.bucket,
		Description: "Shared resource fetch cache",
		MaxBytes:    256 * 1024 * 1024,
		History:     1, // Keep only the latest outcome per key
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}

	s.kv = kv
	slog.Info("Created KV bucket for fetch cache", "bucket", s.bucket)
	return nil
}

// Get returns the cached entry for the key, or (nil, nil) when not cached.
func (s *NATSStore) Get(ctx context.Context, key Key) (*Entry, error) {
	kvEntry, err := s.kv.Get(ctx, key.ID())
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil // Not cached
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(kvEntry.Value(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

// Put stores the entry, replacing any previous outcome for the key.
func (s *NATSStore) Put(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if _, err := s.kv.Put(ctx, key.ID(), data); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes the cached entry for the key.
func (s *NATSStore) Delete(ctx context.Context, key Key) error {
	if err := s.kv.Delete(ctx, key.ID()); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (s *NATSStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
