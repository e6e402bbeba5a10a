package repositories

import (
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration, size int) (*BracketCache, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewBracketCache(ttl, size)
	c.now = func() time.Time { return now }
	return c, &now
}

func snapshotFor(id int) *BracketSnapshot {
	return &BracketSnapshot{
		Tournament: &models.Tournament{ID: id, Format: models.FormatKnockout},
		Matches:    []*models.Match{{ID: id * 10, TournamentID: id, RoundNumber: 1, MatchNumber: 1}},
	}
}

func TestBracketCache_GetSet(t *testing.T) {
	c, _ := newTestCache(time.Minute, 4)

	_, found := c.Get(1)
	assert.False(t, found)

	c.Set(1, 0, snapshotFor(1))
	got, found := c.Get(1)
	require.True(t, found)
	assert.Equal(t, 1, got.Tournament.ID)
	require.Len(t, got.Matches, 1)

	// callers get copies
	got.Matches[0].MatchNumber = 42
	again, _ := c.Get(1)
	assert.Equal(t, 1, again.Matches[0].MatchNumber)
}

func TestBracketCache_Expiry(t *testing.T) {
	c, now := newTestCache(30*time.Second, 4)
	c.Set(1, 0, snapshotFor(1))

	*now = now.Add(29 * time.Second)
	_, found := c.Get(1)
	assert.True(t, found)

	*now = now.Add(time.Second)
	_, found = c.Get(1)
	assert.False(t, found)
}

func TestBracketCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(time.Minute, 4)
	c.Set(1, 0, snapshotFor(1))
	c.Invalidate(1)

	_, found := c.Get(1)
	assert.False(t, found)
	assert.Equal(t, 0, c.Size())
}

func TestBracketCache_Bounded(t *testing.T) {
	c, now := newTestCache(time.Minute, 2)

	c.Set(1, 0, snapshotFor(1))
	*now = now.Add(time.Second)
	c.Set(2, 0, snapshotFor(2))
	*now = now.Add(time.Second)
	c.Set(3, 0, snapshotFor(3))

	assert.Equal(t, 2, c.Size())
	_, found := c.Get(1)
	assert.False(t, found, "entry closest to expiry is evicted")
	_, found = c.Get(3)
	assert.True(t, found)
}

func TestBracketCache_Disabled(t *testing.T) {
	c := NewBracketCache(0, 10)
	c.Set(1, 0, snapshotFor(1))
	_, found := c.Get(1)
	assert.False(t, found)

	var nilCache *BracketCache
	nilCache.Invalidate(1)
	assert.Zero(t, nilCache.Generation(1))
	_, found = nilCache.Get(1)
	assert.False(t, found)
}

func TestBracketCache_StaleGenerationNotStored(t *testing.T) {
	c, _ := newTestCache(time.Minute, 4)

	// a reader takes the generation, a write commits and invalidates, then the
	// reader tries to store what it loaded before the write
	gen := c.Generation(1)
	c.Invalidate(1)
	assert.False(t, c.Set(1, gen, snapshotFor(1)))
	_, found := c.Get(1)
	assert.False(t, found)

	// a reader that started after the invalidation stores normally
	assert.True(t, c.Set(1, c.Generation(1), snapshotFor(1)))
	_, found = c.Get(1)
	assert.True(t, found)

	// other tournaments are unaffected
	assert.True(t, c.Set(2, gen, snapshotFor(2)))
}
