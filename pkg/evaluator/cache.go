package evaluator

import (
	"container/list"
	"sync"
)

// windowKey identifies a window by its bounds
type windowKey struct {
	start, end int
}

// ScoreCache implements an LRU cache of window predictions. With a frozen
// model and dataset the scores of a window depend only on its bounds.
type ScoreCache struct {
	capacity int
	mu       sync.Mutex
	cache    map[windowKey]*cacheEntry
	lru      *list.List
	hits     uint64
	misses   uint64
}

// cacheEntry represents cached window scores
type cacheEntry struct {
	key     windowKey
	scores  []float64
	element *list.Element
}

// CacheStats contains cache statistics
type CacheStats struct {
	Size     int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// NewScoreCache creates a new score cache. A capacity below 1 returns nil,
// which is a valid always-miss cache.
func NewScoreCache(capacity int) *ScoreCache {
	if capacity < 1 {
		return nil
	}
	return &ScoreCache{
		capacity: capacity,
		cache:    make(map[windowKey]*cacheEntry),
		lru:      list.New(),
	}
}

// Get retrieves the cached scores of a window
func (sc *ScoreCache) Get(start, end int) ([]float64, bool) {
	if sc == nil {
		return nil, false
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, exists := sc.cache[windowKey{start, end}]
	if !exists {
		sc.misses++
		return nil, false
	}

	// Move to front of LRU list (most recently used)
	sc.lru.MoveToFront(entry.element)
	sc.hits++

	return entry.scores, true
}

// Put stores the scores of a window
func (sc *ScoreCache) Put(start, end int, scores []float64) {
	if sc == nil {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	key := windowKey{start, end}

	if entry, exists := sc.cache[key]; exists {
		entry.scores = scores
		sc.lru.MoveToFront(entry.element)
		return
	}

	entry := &cacheEntry{
		key:    key,
		scores: scores,
	}
	entry.element = sc.lru.PushFront(entry)
	sc.cache[key] = entry

	// Evict oldest entry if cache is full
	if sc.lru.Len() > sc.capacity {
		oldest := sc.lru.Back()
		if oldest != nil {
			oldestEntry := oldest.Value.(*cacheEntry)
			sc.lru.Remove(oldest)
			delete(sc.cache, oldestEntry.key)
		}
	}
}

// Stats returns cache statistics
func (sc *ScoreCache) Stats() CacheStats {
	if sc == nil {
		return CacheStats{}
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	return CacheStats{
		Size:     len(sc.cache),
		Capacity: sc.capacity,
		Hits:     sc.hits,
		Misses:   sc.misses,
	}
}

// HitRate returns the cache hit rate as a percentage
func (sc *ScoreCache) HitRate() float64 {
	s := sc.Stats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}
