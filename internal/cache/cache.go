package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/five82/lectern/internal/metrics"
)

// Keys per resource class.
const (
	KeyCategories = "categories"
	KeyAllCourses = "all_courses"
)

// CoursesKey is the key for a course listing by classification.
func CoursesKey(classification string) string {
	return "courses:" + strings.TrimSpace(classification)
}

// ContentKey is the key for one course's contents.
func ContentKey(courseID int) string {
	return fmt.Sprintf("course_content:%d", courseID)
}

const defaultRevalidateTimeout = 20 * time.Second

// Options configure a Manager.
type Options struct {
	Logger *slog.Logger
	// RevalidateTimeout bounds background fetches, which run detached from
	// the caller's context.
	RevalidateTimeout time.Duration
}

// Manager coordinates the memory tier, the persistent tier and background
// revalidation.
type Manager struct {
	mu         sync.RWMutex
	memory     map[string]any
	generation uint64
	// versions counts Invalidate calls per key.
	versions map[string]uint64

	store             Store
	group             singleflight.Group
	inflight          sync.WaitGroup
	logger            *slog.Logger
	revalidateTimeout time.Duration
}

// NewManager builds a Manager over store. A nil store keeps memory only.
func NewManager(store Store, opts Options) *Manager {
	if store == nil {
		store = NopStore{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RevalidateTimeout
	if timeout <= 0 {
		timeout = defaultRevalidateTimeout
	}
	return &Manager{
		memory:            make(map[string]any),
		versions:          make(map[string]uint64),
		store:             store,
		logger:            logger.With("component", "cache"),
		revalidateTimeout: timeout,
	}
}

// Fetcher produces a fresh value.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Get returns the value for key following the stale-while-revalidate rules
// described in the package documentation.
func Get[T any](ctx context.Context, m *Manager, key string, forceRefresh bool, fetch Fetcher[T]) (T, error) {
	if !forceRefresh {
		if value, ok := memoryValue[T](m, key); ok {
			metrics.CacheHitsTotal.WithLabelValues("memory").Inc()
			return value, nil
		}
		if value, ok := persistedValue[T](ctx, m, key); ok {
			metrics.CacheHitsTotal.WithLabelValues("persistent").Inc()
			st := m.stampFor(key)
			m.setMemory(key, value, st)
			m.revalidate(key, st, func(ctx context.Context) (any, error) {
				return fetch(ctx)
			})
			return value, nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	st := m.stampFor(key)
	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	m.put(ctx, key, value, st)
	return value, nil
}

// Peek returns the memory-tier value without fetching.
func Peek[T any](m *Manager, key string) (T, bool) {
	return memoryValue[T](m, key)
}

func memoryValue[T any](m *Manager, key string) (T, bool) {
	m.mu.RLock()
	raw, ok := m.memory[key]
	m.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	value, ok := raw.(T)
	return value, ok
}

func persistedValue[T any](ctx context.Context, m *Manager, key string) (T, bool) {
	var zero T
	entry, ok, err := m.store.Get(ctx, key)
	if err != nil {
		metrics.CacheStoreErrorsTotal.WithLabelValues("get").Inc()
		m.logger.Warn("persistent cache read failed", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(entry.Payload, &value); err != nil {
		metrics.CacheStoreErrorsTotal.WithLabelValues("decode").Inc()
		m.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("persistent cache delete failed", "key", key, "error", err)
		}
		return zero, false
	}
	return value, true
}

func (m *Manager) revalidate(key string, st stamp, fetch func(context.Context) (any, error)) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.revalidateTimeout)
		defer cancel()

		_, err, _ := m.group.Do(key, func() (any, error) {
			value, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			m.put(ctx, key, value, st)
			return value, nil
		})
		if err != nil {
			metrics.CacheRevalidationsTotal.WithLabelValues("error").Inc()
			m.logger.Warn("background revalidation failed", "key", key, "error", err)
			return
		}
		metrics.CacheRevalidationsTotal.WithLabelValues("ok").Inc()
	}()
}

// stamp identifies the cache state a fetch started from. A Clear or an
// Invalidate of the same key makes it stale.
type stamp struct {
	generation uint64
	version    uint64
}

// put writes both tiers unless the cache was cleared or key was invalidated
// since st was taken.
func (m *Manager) put(ctx context.Context, key string, value any, st stamp) {
	if !m.setMemory(key, value, st) {
		metrics.CacheRevalidationsTotal.WithLabelValues("discarded").Inc()
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("cache payload not serializable", "key", key, "error", err)
		return
	}
	if err := m.store.Set(ctx, Entry{Key: key, Payload: payload, FetchedAt: time.Now()}); err != nil {
		metrics.CacheStoreErrorsTotal.WithLabelValues("set").Inc()
		m.logger.Warn("persistent cache write failed", "key", key, "error", err)
		return
	}
	// A Clear or Invalidate that ran between setMemory and Set has already
	// deleted the row; undo the write so it does not outlive them.
	if m.stampFor(key) != st {
		metrics.CacheRevalidationsTotal.WithLabelValues("discarded").Inc()
		if err := m.store.Delete(ctx, key); err != nil {
			metrics.CacheStoreErrorsTotal.WithLabelValues("delete").Inc()
			m.logger.Warn("persistent cache delete failed", "key", key, "error", err)
		}
	}
}

func (m *Manager) setMemory(key string, value any, st stamp) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st != m.stampLocked(key) {
		return false
	}
	m.memory[key] = value
	return true
}

func (m *Manager) stampFor(key string) stamp {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stampLocked(key)
}

func (m *Manager) stampLocked(key string) stamp {
	return stamp{generation: m.generation, version: m.versions[key]}
}

// Invalidate drops key from both tiers. Fetches for key that started
// earlier are discarded when they land.
func (m *Manager) Invalidate(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.memory, key)
	m.versions[key]++
	m.mu.Unlock()
	if err := m.store.Delete(ctx, key); err != nil {
		metrics.CacheStoreErrorsTotal.WithLabelValues("delete").Inc()
		m.logger.Warn("persistent cache delete failed", "key", key, "error", err)
	}
}

// Clear drops every entry from both tiers.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.memory = make(map[string]any)
	m.versions = make(map[string]uint64)
	m.generation++
	m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		metrics.CacheStoreErrorsTotal.WithLabelValues("clear").Inc()
		return fmt.Errorf("clear persistent cache: %w", err)
	}
	return nil
}

// Wait blocks until in-flight background revalidations finish.
func (m *Manager) Wait() {
	m.inflight.Wait()
}

// Close waits for revalidations and closes the persistent tier.
func (m *Manager) Close() error {
	m.Wait()
	return m.store.Close()
}
