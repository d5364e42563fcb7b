package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sio-go/internal/cache/migrations"
	"sio-go/internal/organize"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCache is a durable metadata cache backed by SQLite, so repeated
// runs across processes still avoid redundant geocoding and tagging calls.
// Hit/miss counters are per-handle, not persisted.
type SQLiteCache struct {
	db *sql.DB

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewSQLiteCache opens (creating if needed) the cache database at path and
// applies pending schema migrations. path can be ":memory:" for tests.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Lookup(fingerprint string) (*organize.CacheEntry, error) {
	var (
		city, country sql.NullString
		lat, lon      sql.NullFloat64
		hasLocation   bool
		tagsJSON      sql.NullString
		hasTags       bool
	)

	err := c.db.QueryRow(`
		SELECT city, country, latitude, longitude, has_location, tags, has_tags
		FROM metadata_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&city, &country, &lat, &lon, &hasLocation, &tagsJSON, &hasTags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.count(false)
			return nil, nil
		}
		return nil, fmt.Errorf("looking up fingerprint: %w", err)
	}

	entry := &organize.CacheEntry{HasTags: hasTags}
	if hasLocation {
		entry.Location = &organize.Location{
			City:      city.String,
			Country:   country.String,
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
		}
	}
	if hasTags && tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &entry.Tags); err != nil {
			return nil, fmt.Errorf("decoding cached tags: %w", err)
		}
	}

	c.count(true)
	return entry, nil
}

func (c *SQLiteCache) Store(fingerprint string, entry *organize.CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("nil cache entry")
	}

	var (
		city, country sql.NullString
		lat, lon      sql.NullFloat64
		hasLocation   bool
		tagsJSON      sql.NullString
	)
	if entry.Location != nil {
		hasLocation = true
		city = sql.NullString{String: entry.Location.City, Valid: true}
		country = sql.NullString{String: entry.Location.Country, Valid: true}
		lat = sql.NullFloat64{Float64: entry.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: entry.Location.Longitude, Valid: true}
	}
	if entry.HasTags {
		data, err := json.Marshal(entry.Tags)
		if err != nil {
			return fmt.Errorf("encoding tags: %w", err)
		}
		tagsJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := c.db.Exec(`
		INSERT INTO metadata_cache
			(fingerprint, city, country, latitude, longitude, has_location, tags, has_tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			city = excluded.city,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			has_location = excluded.has_location,
			tags = excluded.tags,
			has_tags = excluded.has_tags`,
		fingerprint, city, country, lat, lon, hasLocation, tagsJSON, entry.HasTags,
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM metadata_cache"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Stats() (organize.CacheStats, error) {
	var size int64
	if err := c.db.QueryRow("SELECT COUNT(*) FROM metadata_cache").Scan(&size); err != nil {
		return organize.CacheStats{}, fmt.Errorf("counting cache entries: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return organize.CacheStats{Size: size, Hits: c.hits, Misses: c.misses}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

var _ organize.Cache = (*SQLiteCache)(nil)
