// Package exif extracts capture metadata and content fingerprints from
// image files. EXIF is authoritative for dates; filename patterns are the
// fallback for cameras and drones that encode the date in the name.
package exif

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"sio-go/internal/organize"
)

// datePatterns are tried in order against the base filename; first match wins.
// The layout string uses Go's reference time.
var datePatterns = []struct {
	regex  *regexp.Regexp
	layout string
}{
	// DJI drone: DJI_20250619224111_0001_D.JPG
	{regexp.MustCompile(`DJI_(\d{8})`), "20060102"},

	// Generic timestamp: IMG_20250619_123456.jpg
	{regexp.MustCompile(`(\d{8})_\d{6}`), "20060102"},

	// ISO date: 2025-06-19_photo.jpg
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},

	// Compact date, last resort: 20250619_photo.jpg
	{regexp.MustCompile(`(\d{8})`), "20060102"},
}

// Reader implements organize.MetadataSource against real image files.
type Reader struct {
	logger organize.Logger
}

func NewReader(logger organize.Logger) *Reader {
	return &Reader{logger: logger}
}

// Extract fingerprints the file and pulls capture date and GPS coordinates
// from its EXIF block. A file without EXIF is still valid input: the date
// falls back to filename patterns, and GPS is simply absent. Only an
// unreadable file returns an error.
func (r *Reader) Extract(path string) (*organize.FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	fingerprint, err := fingerprintFile(f)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding file: %w", err)
	}

	meta := &organize.FileMetadata{Fingerprint: fingerprint}

	x, err := exif.Decode(f)
	if err != nil {
		r.logger.Debug("no exif data", "path", path, "error", err)
	} else {
		if dt, err := x.DateTime(); err == nil {
			meta.CapturedAt = &dt
		}
		if lat, lon, err := x.LatLong(); err == nil {
			meta.Latitude = lat
			meta.Longitude = lon
			meta.HasGPS = true
		}
	}

	if meta.CapturedAt == nil {
		if dt, ok := dateFromFilename(filepath.Base(path)); ok {
			meta.CapturedAt = &dt
		}
	}

	return meta, nil
}

// fingerprintFile hashes the full file content.
func fingerprintFile(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// dateFromFilename attempts to extract a date from the filename.
func dateFromFilename(name string) (time.Time, bool) {
	for _, p := range datePatterns {
		matches := p.regex.FindStringSubmatch(name)
		if len(matches) >= 2 {
			t, err := time.Parse(p.layout, matches[1])
			if err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var _ organize.MetadataSource = (*Reader)(nil)
