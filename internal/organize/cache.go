package organize

// CacheEntry holds previously resolved metadata facets for one content
// fingerprint. Location and tags hit independently: an entry may carry one
// without the other, and the resolver only calls the collaborator whose
// facet is missing.
type CacheEntry struct {
	Location *Location
	// HasTags distinguishes "tagging produced no tags" from "tagging was
	// never attempted". Cached empty tags are still a hit.
	HasTags bool
	Tags    []string
}

// CacheStats reports cache effectiveness for the current handle.
type CacheStats struct {
	Size   int64
	Hits   int64
	Misses int64
}

// Cache memoizes geocoding and tagging results keyed by content fingerprint.
// The underlying lookups are deterministic functions of file content, so
// entries never expire; they are removed only by an explicit Clear.
//
// The cache is an explicit, injectable handle: constructed per run or shared
// across runs by the caller, never a hidden process-wide singleton.
type Cache interface {
	// Lookup returns the entry for fingerprint, or nil when absent.
	Lookup(fingerprint string) (*CacheEntry, error)

	// Store creates or replaces the entry for fingerprint.
	Store(fingerprint string, entry *CacheEntry) error

	// Clear removes all entries.
	Clear() error

	// Stats returns current size plus hit/miss counters.
	Stats() (CacheStats, error)
}
