package cache

import (
	"path/filepath"
	"testing"

	"sio-go/internal/config"
	"sio-go/internal/organize"
)

// newTestStores returns one instance of every cache implementation.
func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryCache(),
		"sqlite": sqlite,
	}
}

func sampleEntry() *organize.CacheEntry {
	return &organize.CacheEntry{
		Location: &organize.Location{
			City:      "New York",
			Country:   "USA",
			Latitude:  40.7128,
			Longitude: -74.006,
		},
		HasTags: true,
		Tags:    []string{"urban", "night"},
	}
}

func TestCache_LookupAbsent(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			entry, err := store.Lookup("nope")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if entry != nil {
				t.Errorf("Lookup() = %+v, want nil", entry)
			}
		})
	}
}

func TestCache_StoreLookup_RoundTrip(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleEntry()
			if err := store.Store("fp-1", want); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := store.Lookup("fp-1")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got == nil {
				t.Fatal("Lookup() = nil after Store()")
			}
			if got.Location == nil || got.Location.City != "New York" || got.Location.Country != "USA" {
				t.Errorf("Location = %+v, want New York, USA", got.Location)
			}
			if !got.HasTags || len(got.Tags) != 2 || got.Tags[0] != "urban" {
				t.Errorf("Tags = %v (HasTags=%v), want [urban night]", got.Tags, got.HasTags)
			}
		})
	}
}

func TestCache_StoreSingleFacet(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			// Tags resolved, location never attempted.
			if err := store.Store("fp-tags", &organize.CacheEntry{HasTags: true, Tags: []string{"beach"}}); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := store.Lookup("fp-tags")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.Location != nil {
				t.Errorf("Location = %+v, want nil", got.Location)
			}
			if !got.HasTags || len(got.Tags) != 1 {
				t.Errorf("Tags = %v, want [beach]", got.Tags)
			}

			// Tagging attempted but produced nothing: still a hit.
			if err := store.Store("fp-empty", &organize.CacheEntry{HasTags: true}); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			got, err = store.Lookup("fp-empty")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if !got.HasTags {
				t.Error("HasTags = false, want true for cached empty tags")
			}
			if len(got.Tags) != 0 {
				t.Errorf("Tags = %v, want empty", got.Tags)
			}
		})
	}
}

func TestCache_StoreOverwrites(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Store("fp", &organize.CacheEntry{HasTags: true, Tags: []string{"old"}}); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			if err := store.Store("fp", sampleEntry()); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			got, err := store.Lookup("fp")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.Location == nil {
				t.Error("Location = nil after overwrite")
			}
			if len(got.Tags) != 2 {
				t.Errorf("Tags = %v, want 2 tags", got.Tags)
			}
		})
	}
}

func TestCache_ClearAndStats(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			store.Lookup("miss-1")
			store.Store("fp", sampleEntry())
			store.Lookup("fp")

			stats, err := store.Stats()
			if err != nil {
				t.Fatalf("Stats() error = %v", err)
			}
			if stats.Size != 1 {
				t.Errorf("Size = %d, want 1", stats.Size)
			}
			if stats.Hits != 1 {
				t.Errorf("Hits = %d, want 1", stats.Hits)
			}
			if stats.Misses != 1 {
				t.Errorf("Misses = %d, want 1", stats.Misses)
			}

			if err := store.Clear(); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			stats, err = store.Stats()
			if err != nil {
				t.Fatalf("Stats() error = %v", err)
			}
			if stats.Size != 0 {
				t.Errorf("Size after Clear() = %d, want 0", stats.Size)
			}

			entry, err := store.Lookup("fp")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if entry != nil {
				t.Error("Lookup() after Clear() returned an entry")
			}
		})
	}
}

func TestSQLiteCache_PersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "metadata.db")

	first, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("NewSQLiteCache() error = %v", err)
	}
	if err := first.Store("fp", sampleEntry()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatalf("NewSQLiteCache() reopen error = %v", err)
	}
	defer second.Close()

	got, err := second.Lookup("fp")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil || got.Location == nil || got.Location.City != "New York" {
		t.Errorf("entry did not survive reopen: %+v", got)
	}
}

func TestNewCacheFromConfig(t *testing.T) {
	store, err := NewCacheFromConfig(config.CacheConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewCacheFromConfig(memory) error = %v", err)
	}
	if _, ok := store.(*MemoryCache); !ok {
		t.Errorf("got %T, want *MemoryCache", store)
	}

	if _, err := NewCacheFromConfig(config.CacheConfig{Type: "sqlite"}); err == nil {
		t.Error("sqlite without path expected error, got nil")
	}

	if _, err := NewCacheFromConfig(config.CacheConfig{Type: "redis"}); err == nil {
		t.Error("unknown type expected error, got nil")
	}
}
