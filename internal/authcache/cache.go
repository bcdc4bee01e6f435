// Package authcache keeps a short-lived copy of each user's plan and admin flag
// so the request middleware does not hit the database on every request.
//
// Entries expire after a fixed TTL checked lazily on read. Any write that changes
// a user's role or plan must call Delete before the next read.
package authcache

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Minute

// Entry is the cached authorization state of one user.
type Entry struct {
	PlanID    *uint     `json:"plan_id"`
	IsAdmin   bool      `json:"is_admin"`
	Timestamp time.Time `json:"timestamp"`
}

// HasPlan reports whether the user has any plan assigned.
func (e Entry) HasPlan() bool {
	return e.PlanID != nil
}

// Invalidator is the narrow view handed to services that change roles or plans.
type Invalidator interface {
	Delete(userID string)
}

type Store interface {
	Invalidator
	Get(userID string) (Entry, bool)
	Set(userID string, planID *uint, isAdmin bool) Entry
	Clear()
	Stats() Stats
}

type EntryStats struct {
	UserID  string  `json:"user_id"`
	AgeSecs float64 `json:"age_seconds"`
	Expired bool    `json:"expired"`
	PlanID  *uint   `json:"plan_id"`
	IsAdmin bool    `json:"is_admin"`
}

type Stats struct {
	Size    int          `json:"size"`
	TTLSecs float64      `json:"ttl_seconds"`
	Entries []EntryStats `json:"entries"`
}

// Cache is an in-process Store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Cache)

// WithClock replaces time.Now, used by tests to move time forward.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(userID string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	if c.expired(entry) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed the entry.
		if current, ok := c.entries[userID]; ok && c.expired(current) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return Entry{}, false
	}

	return entry, true
}

// Set stores the tuple stamped with the cache clock and returns the stored entry.
func (c *Cache) Set(userID string, planID *uint, isAdmin bool) Entry {
	var plan *uint
	if planID != nil {
		p := *planID
		plan = &p
	}

	c.mu.Lock()
	entry := Entry{PlanID: plan, IsAdmin: isAdmin, Timestamp: c.now()}
	c.entries[userID] = entry
	c.mu.Unlock()
	return entry
}

func (c *Cache) Delete(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	stats := Stats{
		Size:    len(c.entries),
		TTLSecs: c.ttl.Seconds(),
		Entries: make([]EntryStats, 0, len(c.entries)),
	}
	for id, entry := range c.entries {
		stats.Entries = append(stats.Entries, EntryStats{
			UserID:  id,
			AgeSecs: now.Sub(entry.Timestamp).Seconds(),
			Expired: c.expired(entry),
			PlanID:  entry.PlanID,
			IsAdmin: entry.IsAdmin,
		})
	}
	return stats
}

func (c *Cache) expired(e Entry) bool {
	return c.now().Sub(e.Timestamp) >= c.ttl
}
