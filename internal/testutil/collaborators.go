package testutil

import (
	"context"
	"sync"

	"sio-go/internal/organize"
)

// StubGeocoder is an organize.Geocoder that counts calls and returns a
// canned location, so tests can assert cache effectiveness.
type StubGeocoder struct {
	mu       sync.Mutex
	calls    int
	Location *organize.Location
	Err      error
}

func NewStubGeocoder() *StubGeocoder {
	return &StubGeocoder{
		Location: &organize.Location{City: "Testville", Country: "Testland"},
	}
}

func (g *StubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*organize.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.Err != nil {
		return nil, g.Err
	}
	loc := *g.Location
	loc.Latitude = lat
	loc.Longitude = lon
	return &loc, nil
}

func (g *StubGeocoder) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// StubTagger is an organize.Tagger that counts calls and returns canned tags.
type StubTagger struct {
	mu    sync.Mutex
	calls int
	Tags  []string
	Err   error
}

func NewStubTagger(tags ...string) *StubTagger {
	return &StubTagger{Tags: tags}
}

func (t *StubTagger) TagImage(ctx context.Context, path string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.Err != nil {
		return nil, t.Err
	}
	return append([]string(nil), t.Tags...), nil
}

func (t *StubTagger) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// StubMetadataSource maps source paths to canned metadata.
// Paths without an entry are reported as unreadable.
type StubMetadataSource struct {
	Metadata map[string]*organize.FileMetadata
	Err      error
}

func NewStubMetadataSource() *StubMetadataSource {
	return &StubMetadataSource{Metadata: make(map[string]*organize.FileMetadata)}
}

func (s *StubMetadataSource) Extract(path string) (*organize.FileMetadata, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	meta, ok := s.Metadata[path]
	if !ok {
		return nil, errUnreadable(path)
	}
	return meta, nil
}

type errUnreadable string

func (e errUnreadable) Error() string { return "unreadable source: " + string(e) }

// MemoryLogStore is an organize.LogStore that keeps saved logs in memory.
type MemoryLogStore struct {
	mu    sync.Mutex
	Saved []*organize.RunLog
	Err   error
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

func (s *MemoryLogStore) Save(log *organize.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Saved = append(s.Saved, log)
	return nil
}

var (
	_ organize.Geocoder       = (*StubGeocoder)(nil)
	_ organize.Tagger         = (*StubTagger)(nil)
	_ organize.MetadataSource = (*StubMetadataSource)(nil)
	_ organize.LogStore       = (*MemoryLogStore)(nil)
)
