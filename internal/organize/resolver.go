package organize

import (
	"context"
	"fmt"
	"time"
)

// FileMetadata is what a MetadataSource extracts from one file.
type FileMetadata struct {
	CapturedAt  *time.Time
	Latitude    float64
	Longitude   float64
	HasGPS      bool
	Fingerprint string
}

// MetadataSource extracts capture metadata and a content fingerprint from an
// image file. Implementations wrap EXIF readers.
type MetadataSource interface {
	Extract(path string) (*FileMetadata, error)
}

// Geocoder resolves GPS coordinates to a place name. Implementations wrap
// external reverse-geocoding services; "no answer" is valid input and is
// reported as an error by the implementation, which the resolver degrades
// to a nil location.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
}

// Tagger derives descriptive tags for an image.
type Tagger interface {
	TagImage(ctx context.Context, path string) ([]string, error)
}

// Resolver produces one MetadataRecord per file, memoizing geocoding and
// tagging results in the cache keyed by content fingerprint. Each facet hits
// independently: a cached location still allows a fresh tagging call and
// vice versa.
type Resolver struct {
	source MetadataSource
	geo    Geocoder
	tagger Tagger // nil disables tagging
	cache  Cache
	logger Logger
}

func NewResolver(source MetadataSource, geo Geocoder, tagger Tagger, cache Cache, logger Logger) *Resolver {
	return &Resolver{
		source: source,
		geo:    geo,
		tagger: tagger,
		cache:  cache,
		logger: logger,
	}
}

// ResolveAll resolves metadata for every path, preserving input order.
// It returns early only on context cancellation; per-file problems degrade
// to Unsorted-routable records instead of failing the batch.
func (r *Resolver) ResolveAll(ctx context.Context, paths []string) ([]Record, error) {
	records := make([]Record, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return records, fmt.Errorf("resolution cancelled: %w", err)
		}
		records = append(records, Record{
			SourcePath: path,
			Metadata:   r.resolve(ctx, path),
		})
	}
	return records, nil
}

// resolve builds the metadata record for one file.
func (r *Resolver) resolve(ctx context.Context, path string) MetadataRecord {
	meta, err := r.source.Extract(path)
	if err != nil {
		r.logger.Warn("source unreadable", "path", path, "error", err)
		return MetadataRecord{Unreadable: true}
	}

	record := MetadataRecord{
		CapturedAt:  meta.CapturedAt,
		Fingerprint: meta.Fingerprint,
	}

	cached, err := r.cache.Lookup(meta.Fingerprint)
	if err != nil {
		r.logger.Warn("cache lookup failed", "fingerprint", meta.Fingerprint, "error", err)
		cached = nil
	}

	record.Location = r.resolveLocation(ctx, meta, cached)
	var tagsResolved bool
	record.Tags, tagsResolved = r.resolveTags(ctx, path, cached)

	r.storeResolved(meta.Fingerprint, cached, record, tagsResolved)
	return record
}

func (r *Resolver) resolveLocation(ctx context.Context, meta *FileMetadata, cached *CacheEntry) *Location {
	if cached != nil && cached.Location != nil {
		return cached.Location
	}
	if !meta.HasGPS {
		return nil
	}
	if !validCoordinates(meta.Latitude, meta.Longitude) {
		r.logger.Warn("invalid coordinates",
			"latitude", meta.Latitude, "longitude", meta.Longitude)
		return nil
	}

	loc, err := r.geo.ReverseGeocode(ctx, meta.Latitude, meta.Longitude)
	if err != nil {
		r.logger.Warn("reverse geocoding failed",
			"latitude", meta.Latitude, "longitude", meta.Longitude, "error", err)
		return nil
	}
	return loc
}

// resolveTags returns the tags for path and whether they were actually
// resolved. A tagger failure returns ok=false so it is never cached;
// an empty tag list from a successful call is still a resolution.
func (r *Resolver) resolveTags(ctx context.Context, path string, cached *CacheEntry) ([]string, bool) {
	if r.tagger == nil {
		return nil, false
	}
	if cached != nil && cached.HasTags {
		return cached.Tags, true
	}

	tags, err := r.tagger.TagImage(ctx, path)
	if err != nil {
		r.logger.Warn("tagging failed", "path", path, "error", err)
		return nil, false
	}
	return tags, true
}

// storeResolved writes back any facet that was freshly resolved, merging
// with whatever was already cached. Failed lookups are not resolutions and
// never land in the cache, so a later run retries them.
func (r *Resolver) storeResolved(fingerprint string, cached *CacheEntry, record MetadataRecord, tagsResolved bool) {
	locationFresh := record.Location != nil && (cached == nil || cached.Location == nil)
	tagsFresh := tagsResolved && (cached == nil || !cached.HasTags)
	if !locationFresh && !tagsFresh {
		return
	}

	entry := &CacheEntry{Location: record.Location}
	if cached != nil && entry.Location == nil {
		entry.Location = cached.Location
	}
	if tagsResolved {
		entry.HasTags = true
		entry.Tags = record.Tags
	} else if cached != nil {
		entry.HasTags = cached.HasTags
		entry.Tags = cached.Tags
	}

	if err := r.cache.Store(fingerprint, entry); err != nil {
		r.logger.Warn("cache store failed", "fingerprint", fingerprint, "error", err)
	}
}

func validCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
