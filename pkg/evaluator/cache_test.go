package evaluator

import (
	"testing"
)

func TestScoreCacheBasic(t *testing.T) {
	cache := NewScoreCache(10)

	scores := []float64{0.9, 0.8}
	cache.Put(0, 10, scores)

	got, ok := cache.Get(0, 10)
	if !ok {
		t.Fatal("Expected cache hit")
	}
	if len(got) != 2 || got[0] != 0.9 {
		t.Errorf("Unexpected scores %v", got)
	}

	// Same start, different end is a different window
	if _, ok := cache.Get(0, 5); ok {
		t.Error("Expected cache miss for different bounds")
	}
}

func TestScoreCacheEviction(t *testing.T) {
	cache := NewScoreCache(2)

	cache.Put(0, 10, []float64{1})
	cache.Put(10, 20, []float64{2})

	// Touch the first window so the second is least recently used
	cache.Get(0, 10)
	cache.Put(20, 30, []float64{3})

	if _, ok := cache.Get(10, 20); ok {
		t.Error("Expected [10,20) to be evicted")
	}
	if _, ok := cache.Get(0, 10); !ok {
		t.Error("Expected [0,10) to survive")
	}
	if _, ok := cache.Get(20, 30); !ok {
		t.Error("Expected [20,30) to be present")
	}

	stats := cache.Stats()
	if stats.Size != 2 {
		t.Errorf("Expected size 2, got %d", stats.Size)
	}
}

func TestScoreCacheStats(t *testing.T) {
	cache := NewScoreCache(4)

	cache.Put(0, 10, []float64{1})
	cache.Get(0, 10)
	cache.Get(0, 10)
	cache.Get(10, 20)

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.Capacity != 4 {
		t.Errorf("Expected capacity 4, got %d", stats.Capacity)
	}

	rate := cache.HitRate()
	if rate < 66.6 || rate > 66.7 {
		t.Errorf("Expected hit rate ~66.67%%, got %.2f%%", rate)
	}
}

func TestScoreCacheNil(t *testing.T) {
	cache := NewScoreCache(0)
	if cache != nil {
		t.Fatal("Expected nil cache for zero capacity")
	}

	// A nil cache always misses
	cache.Put(0, 10, []float64{1})
	if _, ok := cache.Get(0, 10); ok {
		t.Error("Expected miss from nil cache")
	}
	if cache.HitRate() != 0 {
		t.Error("Expected zero hit rate")
	}
}

func BenchmarkScoreCacheGet(b *testing.B) {
	cache := NewScoreCache(500)
	for i := 0; i < 500; i++ {
		cache.Put(i*10, i*10+10, []float64{0.9})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := (i % 500) * 10
		cache.Get(k, k+10)
	}
}
