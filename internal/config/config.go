package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for sio.
type Config struct {
	SourceDir string         `toml:"source_dir"`
	DestDir   string         `toml:"dest_dir"`
	LogDir    string         `toml:"log_dir"`
	Cache     CacheConfig    `toml:"cache"`
	Geocode   GeocodeConfig  `toml:"geocode"`
	Tagger    TaggerConfig   `toml:"tagger"`
	Organize  OrganizeConfig `toml:"organize"`
}

// CacheConfig represents configuration for the metadata cache.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CacheConfig struct {
	Type string `toml:"type"`           // "sqlite" or "memory"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
}

// GeocodeConfig holds the reverse-geocoding service endpoint.
type GeocodeConfig struct {
	BaseURL string `toml:"base_url"`
}

// TaggerConfig holds the image tagging service settings.
// Tagging is opt-in; when disabled the engine never calls the service.
type TaggerConfig struct {
	Enabled   bool    `toml:"enabled"`
	BaseURL   string  `toml:"base_url,omitempty"`
	APIKey    string  `toml:"api_key,omitempty"`
	Threshold float64 `toml:"threshold"` // minimum tag confidence, 0..1
}

// OrganizeConfig holds run behavior defaults, overridable per command.
type OrganizeConfig struct {
	CopyMode       bool   `toml:"copy_mode"`       // copy instead of move
	ConflictPolicy string `toml:"conflict_policy"` // "rename" or "fail"
}

// NewConfig creates a new Config with the provided directories and defaults.
func NewConfig(sourceDir, destDir, baseDir string) *Config {
	return &Config{
		SourceDir: sourceDir,
		DestDir:   destDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Cache: CacheConfig{
			Type: "sqlite",
			Path: filepath.Join(baseDir, "cache", "metadata.db"),
		},
		Geocode: GeocodeConfig{
			BaseURL: "https://nominatim.openstreetmap.org",
		},
		Tagger: TaggerConfig{
			Enabled:   false,
			Threshold: 0.5,
		},
		Organize: OrganizeConfig{
			CopyMode:       false,
			ConflictPolicy: "rename",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
