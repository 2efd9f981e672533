// Package cache provides the in-memory, TTL- and size-bounded stores that
// sit in front of provider search and metadata lookups. Two independent
// stores exist because search results and metadata records churn at very
// different rates and sizes; episode lookups are never cached, matching
// the aggregator's contract that episode data is too volatile to warrant a
// slot next to search and metadata results.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

// Config bounds one store's size and entry lifetime. Defaults mirror the
// upstream split between a small, short-lived search cache and a larger,
// longer-lived metadata cache.
type Config struct {
	SearchCapacity   int
	SearchTTL        time.Duration
	MetadataCapacity int
	MetadataTTL      time.Duration
}

// DefaultConfig matches the values the original aggregator shipped with.
func DefaultConfig() Config {
	return Config{
		SearchCapacity:   1000,
		SearchTTL:        time.Hour,
		MetadataCapacity: 500,
		MetadataTTL:      24 * time.Hour,
	}
}

// Stats reports point-in-time occupancy for a single store.
type Stats struct {
	Entries  int
	Capacity int
}

// Cache holds the search-result store and the metadata store behind
// independent locks, so a metadata fetch never blocks a search lookup.
type Cache struct {
	logger hclog.Logger

	search   *store[[]types.MediaInfo]
	metadata *store[types.MediaMetadata]
}

// New builds a Cache from cfg, logging evictions and expiries at debug
// level through logger.
func New(cfg Config, logger hclog.Logger) *Cache {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Cache{
		logger:   logger,
		search:   newStore[[]types.MediaInfo](cfg.SearchCapacity, cfg.SearchTTL, logger.Named("search")),
		metadata: newStore[types.MediaMetadata](cfg.MetadataCapacity, cfg.MetadataTTL, logger.Named("metadata")),
	}
}

// GetSearch returns a cached search-result snapshot, if present and
// unexpired.
func (c *Cache) GetSearch(key string) ([]types.MediaInfo, bool) {
	return c.search.get(key)
}

// SetSearch stores a search-result snapshot; results is copied so later
// mutation by the caller can never corrupt the cached slice.
func (c *Cache) SetSearch(key string, results []types.MediaInfo) {
	snapshot := append([]types.MediaInfo(nil), results...)
	c.search.set(key, snapshot)
}

// GetMetadata returns a cached metadata record, if present and unexpired.
func (c *Cache) GetMetadata(key string) (types.MediaMetadata, bool) {
	return c.metadata.get(key)
}

// SetMetadata stores a metadata record under key.
func (c *Cache) SetMetadata(key string, metadata types.MediaMetadata) {
	c.metadata.set(key, metadata)
}

// Clear empties both stores.
func (c *Cache) Clear() {
	c.search.clear()
	c.metadata.clear()
}

// SearchStats reports the search store's current occupancy.
func (c *Cache) SearchStats() Stats {
	return c.search.stats()
}

// MetadataStats reports the metadata store's current occupancy.
func (c *Cache) MetadataStats() Stats {
	return c.metadata.stats()
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	elem      *list.Element
}

// store is a single TTL + capacity-bounded map. Eviction is least-recently-
// used: every get promotes the entry to the front of order; when capacity
// is exceeded on insert, the back of order is evicted.
type store[V any] struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	logger   hclog.Logger

	entries map[string]*entry[V]
	order   *list.List
}

func newStore[V any](capacity int, ttl time.Duration, logger hclog.Logger) *store[V] {
	return &store[V]{
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
		entries:  make(map[string]*entry[V]),
		order:    list.New(),
	}
}

func (s *store[V]) get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		s.logger.Debug("entry expired", "key", key)
		s.removeLocked(e)
		var zero V
		return zero, false
	}
	s.order.MoveToFront(e.elem)
	return e.value, true
}

func (s *store[V]) set(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.value = value
		existing.expiresAt = time.Now().Add(s.ttl)
		s.order.MoveToFront(existing.elem)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: time.Now().Add(s.ttl)}
	e.elem = s.order.PushFront(e)
	s.entries[key] = e

	if s.capacity > 0 && len(s.entries) > s.capacity {
		s.evictOldestLocked()
	}
}

func (s *store[V]) evictOldestLocked() {
	back := s.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry[V])
	s.logger.Debug("evicting entry at capacity", "key", e.key)
	s.removeLocked(e)
}

func (s *store[V]) removeLocked(e *entry[V]) {
	s.order.Remove(e.elem)
	delete(s.entries, e.key)
}

func (s *store[V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V])
	s.order.Init()
}

func (s *store[V]) stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Entries: len(s.entries), Capacity: s.capacity}
}
