package proxy

import (
	"sync"
	"time"

	"github.com/sells-group/healthmap/internal/model"
)

// SheetCache holds the last fetched rows per sheet. Every write to the
// backend starts a new generation; rows fetched under an older generation
// are refused so a read racing a write never repopulates stale data.
type SheetCache struct {
	mu       sync.Mutex
	sheets   map[string]*cachedSheet
	capacity int
	ttl      time.Duration
	now      func() time.Time

	generation uint64
	clock      uint64
	hits       int64
	misses     int64
	rejected   int64
}

type cachedSheet struct {
	rows      []model.RawRow
	fetchedAt time.Time
	lastRead  uint64
}

// CacheStats reports the state of a SheetCache.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	TTLSeconds float64 `json:"ttl_seconds"`
	Generation uint64  `json:"generation"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Rejected   int64   `json:"rejected"`
	HitRate    float64 `json:"hit_rate"`
}

// NewSheetCache creates a cache holding up to capacity sheets for ttl each.
func NewSheetCache(capacity int, ttl time.Duration) *SheetCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &SheetCache{
		sheets:   make(map[string]*cachedSheet, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *SheetCache) fresh(s *cachedSheet, now time.Time) bool {
	return now.Sub(s.fetchedAt) <= c.ttl
}

// Get returns the rows of sheet when cached and not older than the TTL.
func (c *SheetCache) Get(sheet string) ([]model.RawRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s, ok := c.sheets[sheet]
	if ok && !c.fresh(s, now) {
		delete(c.sheets, sheet)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.clock++
	s.lastRead = c.clock
	c.hits++
	return s.rows, true
}

// Generation returns the current write generation. Pass it to Put once the
// fetch it guards has finished.
func (c *SheetCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Put stores rows fetched during generation gen. It reports false and stores
// nothing when a write has happened since.
func (c *SheetCache) Put(sheet string, gen uint64, rows []model.RawRow) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.rejected++
		return false
	}
	now := c.now()
	if _, ok := c.sheets[sheet]; !ok && len(c.sheets) >= c.capacity {
		c.makeRoom(now)
	}
	c.clock++
	c.sheets[sheet] = &cachedSheet{rows: rows, fetchedAt: now, lastRead: c.clock}
	return true
}

// makeRoom drops expired sheets, or the least recently read one if none
// expired. Caller holds c.mu.
func (c *SheetCache) makeRoom(now time.Time) {
	var victim string
	var oldest uint64
	for name, s := range c.sheets {
		if !c.fresh(s, now) {
			delete(c.sheets, name)
			continue
		}
		if victim == "" || s.lastRead < oldest {
			victim, oldest = name, s.lastRead
		}
	}
	if len(c.sheets) >= c.capacity && victim != "" {
		delete(c.sheets, victim)
	}
}

// Invalidate drops every sheet and starts a new generation.
func (c *SheetCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sheets = make(map[string]*cachedSheet, c.capacity)
	c.generation++
}

// Stats returns a snapshot of the cache counters.
func (c *SheetCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Entries:    len(c.sheets),
		MaxEntries: c.capacity,
		TTLSeconds: c.ttl.Seconds(),
		Generation: c.generation,
		Hits:       c.hits,
		Misses:     c.misses,
		Rejected:   c.rejected,
		HitRate:    rate,
	}
}
