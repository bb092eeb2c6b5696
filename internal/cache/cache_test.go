package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	failGet bool
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]Entry)}
}

func (s *memStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return Entry{}, false, errors.New("store offline")
	}
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *memStore) Set(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("disk full")
	}
	s.entries[e.Key] = e
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) payload(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return string(e.Payload), ok
}

func constFetch(value []string, calls *atomic.Int32) Fetcher[[]string] {
	return func(context.Context) ([]string, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestGet_MissFetchesAndPopulatesBothTiers(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, Options{})
	var calls atomic.Int32

	got, err := Get(context.Background(), m, "k", false, constFetch([]string{"a"}, &calls))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("Get = %v, want [a]", got)
	}
	if payload, ok := store.payload("k"); !ok || payload != `["a"]` {
		t.Fatalf("persisted payload = %q (ok=%v), want [\"a\"]", payload, ok)
	}
	if v, ok := Peek[[]string](m, "k"); !ok || v[0] != "a" {
		t.Fatalf("memory tier = %v (ok=%v), want [a]", v, ok)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestGet_MemoryHitSkipsFetch(t *testing.T) {
	m := NewManager(newMemStore(), Options{})
	var calls atomic.Int32
	ctx := context.Background()

	if _, err := Get(ctx, m, "k", false, constFetch([]string{"a"}, &calls)); err != nil {
		t.Fatalf("first Get returned error: %v", err)
	}
	got, err := Get(ctx, m, "k", false, constFetch([]string{"b"}, &calls))
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
	m.Wait()
	if got[0] != "a" {
		t.Fatalf("Get = %v, want cached [a]", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch calls = %d, want 1 (no revalidation on memory hit)", calls.Load())
	}
}

func TestGet_PersistentHitReturnsStaleThenRevalidates(t *testing.T) {
	store := newMemStore()
	store.entries["k"] = Entry{Key: "k", Payload: []byte(`["stale"]`), FetchedAt: time.Now().Add(-time.Hour)}
	m := NewManager(store, Options{})

	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		close(started)
		select {
		case <-release:
			return []string{"fresh"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	got, err := Get(context.Background(), m, "k", false, fetch)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got[0] != "stale" {
		t.Fatalf("Get = %v, want persisted [stale] without waiting", got)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("background revalidation never started")
	}
	close(release)
	m.Wait()

	var calls atomic.Int32
	got, err = Get(context.Background(), m, "k", false, constFetch([]string{"unused"}, &calls))
	if err != nil {
		t.Fatalf("Get after revalidation returned error: %v", err)
	}
	if got[0] != "fresh" {
		t.Fatalf("Get after revalidation = %v, want [fresh]", got)
	}
	if payload, _ := store.payload("k"); payload != `["fresh"]` {
		t.Fatalf("persisted payload = %q, want fresh value", payload)
	}
	if calls.Load() != 0 {
		t.Fatalf("fetch calls = %d, want 0", calls.Load())
	}
}

func TestGet_RevalidationFailureKeepsStaleValue(t *testing.T) {
	store := newMemStore()
	store.entries["k"] = Entry{Key: "k", Payload: []byte(`["stale"]`)}
	m := NewManager(store, Options{})

	failing := func(context.Context) ([]string, error) {
		return nil, errors.New("network down")
	}
	got, err := Get(context.Background(), m, "k", false, failing)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	m.Wait()
	if got[0] != "stale" {
		t.Fatalf("Get = %v, want [stale]", got)
	}
	if v, ok := Peek[[]string](m, "k"); !ok || v[0] != "stale" {
		t.Fatalf("memory = %v (ok=%v), want stale value kept", v, ok)
	}
}

func TestGet_ForceRefreshBypassesTiers(t *testing.T) {
	m := NewManager(newMemStore(), Options{})
	var calls atomic.Int32
	ctx := context.Background()

	_, _ = Get(ctx, m, "k", false, constFetch([]string{"a"}, &calls))
	got, err := Get(ctx, m, "k", true, constFetch([]string{"b"}, &calls))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got[0] != "b" {
		t.Fatalf("Get = %v, want [b]", got)
	}
	if v, _ := Peek[[]string](m, "k"); v[0] != "b" {
		t.Fatalf("memory = %v, want [b]", v)
	}
}

func TestGet_FetchErrorPropagatesOnMiss(t *testing.T) {
	m := NewManager(newMemStore(), Options{})
	want := errors.New("boom")
	_, err := Get(context.Background(), m, "k", false, func(context.Context) (int, error) {
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

func TestGet_StoreFailuresDegradeToMemory(t *testing.T) {
	store := newMemStore()
	store.failGet = true
	store.failSet = true
	m := NewManager(store, Options{})
	var calls atomic.Int32
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := Get(ctx, m, "k", false, constFetch([]string{"a"}, &calls))
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if got[0] != "a" {
			t.Fatalf("Get = %v, want [a]", got)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("fetch calls = %d, want 1 (memory tier still serves)", calls.Load())
	}
}

func TestGet_CorruptPayloadIsAMiss(t *testing.T) {
	store := newMemStore()
	store.entries["k"] = Entry{Key: "k", Payload: []byte(`{not json`)}
	m := NewManager(store, Options{})
	var calls atomic.Int32

	got, err := Get(context.Background(), m, "k", false, constFetch([]string{"a"}, &calls))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got[0] != "a" || calls.Load() != 1 {
		t.Fatalf("Get = %v calls=%d, want synchronous fetch", got, calls.Load())
	}
}

func TestClear_DropsEntriesAndDiscardsInflightRevalidation(t *testing.T) {
	store := newMemStore()
	store.entries["k"] = Entry{Key: "k", Payload: []byte(`["stale"]`)}
	m := NewManager(store, Options{})

	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"fresh"}, nil
	}
	if _, err := Get(context.Background(), m, "k", false, fetch); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if err := m.Clear(context.Background()); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	close(release)
	m.Wait()

	if _, ok := Peek[[]string](m, "k"); ok {
		t.Fatal("memory repopulated after Clear")
	}
	if _, ok := store.payload("k"); ok {
		t.Fatal("store repopulated after Clear")
	}
}

func TestInvalidate_DiscardsInflightRevalidation(t *testing.T) {
	store := newMemStore()
	store.entries["k"] = Entry{Key: "k", Payload: []byte(`["before toggle"]`)}
	m := NewManager(store, Options{})
	ctx := context.Background()

	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"before toggle"}, nil
	}
	if _, err := Get(ctx, m, "k", false, fetch); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	m.Invalidate(ctx, "k")
	close(release)
	m.Wait()

	if got, ok := Peek[[]string](m, "k"); ok {
		t.Fatalf("memory holds %v after Invalidate, want nothing", got)
	}
	if _, ok := store.payload("k"); ok {
		t.Fatal("store repopulated after Invalidate")
	}

	var calls atomic.Int32
	got, err := Get(ctx, m, "k", false, constFetch([]string{"after toggle"}, &calls))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 1 || got[0] != "after toggle" || calls.Load() != 1 {
		t.Fatalf("Get = %v (fetches %d), want [after toggle] from one fetch", got, calls.Load())
	}
}

func TestInvalidate_LeavesOtherKeysRevalidating(t *testing.T) {
	store := newMemStore()
	store.entries["a"] = Entry{Key: "a", Payload: []byte(`["old"]`)}
	m := NewManager(store, Options{})
	ctx := context.Background()

	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"new"}, nil
	}
	if _, err := Get(ctx, m, "a", false, fetch); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	m.Invalidate(ctx, "b")
	close(release)
	m.Wait()

	got, ok := Peek[[]string](m, "a")
	if !ok || len(got) != 1 || got[0] != "new" {
		t.Fatalf("Peek(a) = %v, %v; want [new]", got, ok)
	}
}

func TestInvalidate_RemovesKey(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, Options{})
	var calls atomic.Int32
	ctx := context.Background()

	_, _ = Get(ctx, m, ContentKey(4), false, constFetch([]string{"a"}, &calls))
	m.Invalidate(ctx, ContentKey(4))
	_, _ = Get(ctx, m, ContentKey(4), false, constFetch([]string{"b"}, &calls))
	if calls.Load() != 2 {
		t.Fatalf("fetch calls = %d, want 2 after Invalidate", calls.Load())
	}
}

func TestKeys(t *testing.T) {
	if got := ContentKey(12); got != "course_content:12" {
		t.Fatalf("ContentKey = %q", got)
	}
	if got := CoursesKey("inprogress"); got != "courses:inprogress" {
		t.Fatalf("CoursesKey = %q", got)
	}
}
