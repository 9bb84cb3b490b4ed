package store

import (
	"context"
	"sync"
	"time"

	"github.com/Simplici0/auditdays/internal/mandays"
)

// ConfigSource loads and saves configuration snapshots.
type ConfigSource interface {
	Load(ctx context.Context) (mandays.Configuration, error)
	Save(ctx context.Context, cfg mandays.Configuration, updatedBy string) (mandays.Configuration, error)
}

// ConfigCache keeps the active configuration snapshot in memory.
// A zero ttl keeps the snapshot until Save or Invalidate.
type ConfigCache struct {
	source ConfigSource
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	snapshot *mandays.Configuration
	loadedAt time.Time
}

// NewConfigCache wraps source with an in-process snapshot cache.
func NewConfigCache(source ConfigSource, ttl time.Duration) *ConfigCache {
	return &ConfigCache{source: source, ttl: ttl, now: time.Now}
}

// Get returns the cached snapshot, loading it from the source when missing or expired.
// Callers must treat the returned value as read-only; use Clone before editing it.
func (c *ConfigCache) Get(ctx context.Context) (mandays.Configuration, error) {
	c.mu.RLock()
	if c.fresh() {
		cfg := *c.snapshot
		c.mu.RUnlock()
		return cfg, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return *c.snapshot, nil
	}

	cfg, err := c.source.Load(ctx)
	if err != nil {
		return mandays.Configuration{}, err
	}
	c.snapshot = &cfg
	c.loadedAt = c.now()
	return cfg, nil
}

// Save stores cfg through the source and replaces the cached snapshot with the saved one.
func (c *ConfigCache) Save(ctx context.Context, cfg mandays.Configuration, updatedBy string) (mandays.Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved, err := c.source.Save(ctx, cfg, updatedBy)
	if err != nil {
		return mandays.Configuration{}, err
	}
	c.snapshot = &saved
	c.loadedAt = c.now()
	return saved, nil
}

// Load satisfies ConfigSource so the cache can stand in for the store.
func (c *ConfigCache) Load(ctx context.Context) (mandays.Configuration, error) {
	return c.Get(ctx)
}

// Invalidate drops the cached snapshot.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

// fresh must be called with c.mu held.
func (c *ConfigCache) fresh() bool {
	if c.snapshot == nil {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl
}
