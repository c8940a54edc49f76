package cache

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache[string, string]()

	t.Run("Set and Get", func(t *testing.T) {
		cache.Set("k", "v")

		got, exists := cache.Get("k")
		if !exists {
			t.Error("Expected key to exist")
		}
		if got != "v" {
			t.Errorf("Expected %q, got %q", "v", got)
		}
	})

	t.Run("Get non-existent key", func(t *testing.T) {
		if _, exists := cache.Get("non-existent"); exists {
			t.Error("Expected key to not exist")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache.Set("gone", "v")
		cache.Delete("gone")
		cache.Delete("never-there")

		if _, exists := cache.Get("gone"); exists {
			t.Error("Expected key to be deleted")
		}
	})

	t.Run("Keys and Len", func(t *testing.T) {
		cache.Clear()
		cache.Set("b", "2")
		cache.Set("a", "1")

		keys := cache.Keys()
		slices.Sort(keys)
		if !slices.Equal(keys, []string{"a", "b"}) {
			t.Errorf("Expected keys [a b], got %v", keys)
		}
		if cache.Len() != 2 {
			t.Errorf("Expected length 2, got %d", cache.Len())
		}
	})

	t.Run("SetTo replaces everything", func(t *testing.T) {
		cache.SetTo(map[string]string{"only": "one"})

		if cache.Len() != 1 {
			t.Errorf("Expected length 1, got %d", cache.Len())
		}
		if _, exists := cache.Get("a"); exists {
			t.Error("Expected old keys to be gone")
		}
	})
}

func TestCache_Concurrency(t *testing.T) {
	cache := NewCache[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				cache.Set(key, j)
				cache.Get(key)
				cache.Keys()
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() != 1000 {
		t.Errorf("Expected 1000 entries, got %d", cache.Len())
	}
}

func BenchmarkCache_Get(b *testing.B) {
	cache := NewCache[string, string]()
	for i := 0; i < 1000; i++ {
		cache.Set(fmt.Sprintf("key-%d", i), "value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get(fmt.Sprintf("key-%d", i%1000))
	}
}
