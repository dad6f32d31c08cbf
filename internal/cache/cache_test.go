package cache

import (
	"sync"
	"testing"
	"time"

	"ceassist/internal/clock"
	"ceassist/internal/models"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	cache := New[string](nil)
	assert.NotNil(t, cache)
	assert.NotNil(t, cache.items)
	assert.NotNil(t, cache.clock)
	assert.Empty(t, cache.items)
}

func TestCache_SetAndGet(t *testing.T) {
	cache := New[string](clock.NewFake(epoch))

	cache.Set("key1", "value1", 10*time.Second)
	val, exists := cache.Get("key1")
	assert.True(t, exists)
	assert.Equal(t, "value1", val)

	val, exists = cache.Get("nonexistent")
	assert.False(t, exists)
	assert.Equal(t, "", val)
}

func TestCache_StoresSnapshots(t *testing.T) {
	cache := New[models.ExportSnapshot](clock.NewFake(epoch))

	snapshot := models.ExportSnapshot{
		GeneratedAt: epoch,
		Records:     []models.ExportRecord{{ThreadID: models.Ptr("T-1"), CustomerTier: "Gold"}},
	}
	cache.Set("latest", snapshot, time.Minute)

	val, exists := cache.Get("latest")
	assert.True(t, exists)
	assert.Equal(t, snapshot, val)
}

func TestCache_Expiration(t *testing.T) {
	clk := clock.NewFake(epoch)
	cache := New[string](clk)

	cache.Set("expiring", "value", 100*time.Millisecond)

	val, exists := cache.Get("expiring")
	assert.True(t, exists)
	assert.Equal(t, "value", val)

	clk.Advance(150 * time.Millisecond)

	val, exists = cache.Get("expiring")
	assert.False(t, exists)
	assert.Equal(t, "", val)

	// Expired items are removed on read
	cache.mutex.RLock()
	_, itemExists := cache.items["expiring"]
	cache.mutex.RUnlock()
	assert.False(t, itemExists)
}

func TestCache_UpdateValue(t *testing.T) {
	cache := New[string](clock.NewFake(epoch))

	cache.Set("key", "value1", 10*time.Second)
	cache.Set("key", "value2", 10*time.Second)

	val, exists := cache.Get("key")
	assert.True(t, exists)
	assert.Equal(t, "value2", val)
	assert.Len(t, cache.items, 1)
}

func TestCache_Delete(t *testing.T) {
	cache := New[string](clock.NewFake(epoch))

	cache.Set("key", "value", 10*time.Second)
	cache.Delete("key")
	_, exists := cache.Get("key")
	assert.False(t, exists)

	// Delete non-existent key (should not panic)
	cache.Delete("nonexistent")
}

func TestCache_TTLVariations(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		advance  time.Duration
		expected bool
	}{
		{"long ttl", time.Hour, time.Minute, true},
		{"just before expiry", time.Minute, time.Minute - time.Nanosecond, true},
		{"at expiry", time.Minute, time.Minute, true},
		{"after expiry", time.Minute, time.Minute + time.Nanosecond, false},
		{"zero ttl after any time", 0, time.Nanosecond, false},
		{"negative ttl", -time.Second, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewFake(epoch)
			cache := New[string](clk)

			cache.Set("key", "value", tt.ttl)
			clk.Advance(tt.advance)

			_, exists := cache.Get("key")
			assert.Equal(t, tt.expected, exists)
		})
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := New[int](nil)
	iterations := 100
	var wg sync.WaitGroup

	wg.Add(iterations * 3)
	for i := 0; i < iterations; i++ {
		go func(n int) {
			defer wg.Done()
			cache.Set("key", n, 10*time.Second)
		}(i)

		go func() {
			defer wg.Done()
			cache.Get("key")
		}()

		go func(n int) {
			defer wg.Done()
			if n%10 == 0 {
				cache.Delete("key")
			}
		}(i)

	}
	wg.Wait()

	cache.Set("final", 1, 10*time.Second)
	val, exists := cache.Get("final")
	assert.True(t, exists)
	assert.Equal(t, 1, val)
}

func BenchmarkCache_Set(b *testing.B) {
	cache := New[string](nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Set("key", "value", 10*time.Second)
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := New[string](nil)
	cache.Set("key", "value", 10*time.Second)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get("key")
	}
}

func BenchmarkCache_ConcurrentSetGet(b *testing.B) {
	cache := New[int](nil)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				cache.Set("key", i, 10*time.Second)
			} else {
				cache.Get("key")
			}
			i++
		}
	})
}
