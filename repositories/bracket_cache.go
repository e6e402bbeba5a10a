package repositories

import (
	"sync"
	"time"

	"github.com/Dosada05/bracket-engine/models"
)

// BracketSnapshot is the cached read model of one tournament's schedule.
type BracketSnapshot struct {
	Tournament       *models.Tournament
	Matches          []*models.Match
	ParticipantCount int
}

func (s *BracketSnapshot) clone() *BracketSnapshot {
	c := &BracketSnapshot{
		Matches:          make([]*models.Match, len(s.Matches)),
		ParticipantCount: s.ParticipantCount,
	}
	if s.Tournament != nil {
		c.Tournament = cloneTournament(s.Tournament)
	}
	for i, m := range s.Matches {
		c.Matches[i] = m.Clone()
	}
	return c
}

type cacheEntry struct {
	snapshot  *BracketSnapshot
	expiresAt time.Time
}

// BracketCache provides a thread-safe, size-bounded TTL cache of bracket
// snapshots keyed by tournament ID. Every tournament has a generation that
// Invalidate bumps; a snapshot is only stored if its generation is still
// current, so a read that raced with a write cannot resurrect old data.
type BracketCache struct {
	mu          sync.RWMutex
	entries     map[int]cacheEntry
	generations map[int]uint64
	ttl         time.Duration
	maxSize     int
	now         func() time.Time
}

// NewBracketCache creates a cache. A non-positive ttl or maxSize disables caching.
func NewBracketCache(ttl time.Duration, maxSize int) *BracketCache {
	return &BracketCache{
		entries:     make(map[int]cacheEntry),
		generations: make(map[int]uint64),
		ttl:         ttl,
		maxSize:     maxSize,
		now:         time.Now,
	}
}

func (c *BracketCache) enabled() bool {
	return c != nil && c.ttl > 0 && c.maxSize > 0
}

// Get returns a copy of the cached snapshot if present and not expired.
func (c *BracketCache) Get(tournamentID int) (*BracketSnapshot, bool) {
	if !c.enabled() {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[tournamentID]
	if !found || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.snapshot.clone(), true
}

// Generation returns the tournament's current generation. Callers take it
// before loading a snapshot and hand it back to Set.
func (c *BracketCache) Generation(tournamentID int) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[tournamentID]
}

// Set stores a copy of snapshot loaded at generation. It reports false and
// stores nothing when the tournament was invalidated since. When full,
// expired entries are dropped first, then the entry closest to expiry.
func (c *BracketCache) Set(tournamentID int, generation uint64, snapshot *BracketSnapshot) bool {
	if !c.enabled() || snapshot == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[tournamentID] != generation {
		return false
	}

	now := c.now()
	if _, exists := c.entries[tournamentID]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}
	c.entries[tournamentID] = cacheEntry{snapshot: snapshot.clone(), expiresAt: now.Add(c.ttl)}
	return true
}

func (c *BracketCache) evictLocked(now time.Time) {
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}
	oldestID, oldest := 0, time.Time{}
	for id, e := range c.entries {
		if oldest.IsZero() || e.expiresAt.Before(oldest) {
			oldestID, oldest = id, e.expiresAt
		}
	}
	delete(c.entries, oldestID)
}

// Invalidate removes a tournament's snapshot and bumps its generation.
// Generations are never dropped, otherwise a counter could return to a value
// an in-flight reader still holds.
func (c *BracketCache) Invalidate(tournamentID int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tournamentID)
	c.generations[tournamentID]++
}

// Size returns the number of cached entries, expired ones included.
func (c *BracketCache) Size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
