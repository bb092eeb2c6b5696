package cache

import (
	"context"
	"time"
)

// Entry is a persisted cache row.
type Entry struct {
	Key       string
	Payload   []byte
	FetchedAt time.Time
}

// Store is a persistent cache tier.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// NopStore persists nothing.
type NopStore struct{}

var _ Store = NopStore{}

func (NopStore) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (NopStore) Set(context.Context, Entry) error                 { return nil }
func (NopStore) Delete(context.Context, string) error             { return nil }
func (NopStore) Clear(context.Context) error                      { return nil }
func (NopStore) Close() error                                     { return nil }
