package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sio-go/internal/cache"
	"sio-go/internal/config"
	"sio-go/internal/exif"
	"sio-go/internal/fs"
	"sio-go/internal/geocode"
	"sio-go/internal/organize"
	"sio-go/internal/tagger"
)

// App is the application layer between the CLI and the organize service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the cache lifecycle on Close.
type App struct {
	cfg     *config.Config
	cache   cache.Store
	store   *organize.JSONLogStore
	service *organize.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Organize", "Undo").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	if cfg.DestDir == "" {
		return nil, fmt.Errorf("no destination directory configured")
	}

	// Fail fast on a bad policy instead of at apply time.
	if _, err := conflictPolicy(cfg.Organize.ConflictPolicy); err != nil {
		return nil, err
	}

	store, err := cache.NewCacheFromConfig(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating metadata cache: %w", err)
	}

	runTag := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	logger, logFile, err := newLogger(cfg.LogDir, runTag)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	fsops := fs.NewOSFileOps()
	geo := geocode.NewClient(cfg.Geocode.BaseURL)

	var tg organize.Tagger
	if cfg.Tagger.Enabled {
		if cfg.Tagger.BaseURL == "" {
			logFile.Close()
			store.Close()
			return nil, fmt.Errorf("tagger enabled but no base_url configured")
		}
		tg = tagger.NewClient(cfg.Tagger.BaseURL, cfg.Tagger.APIKey, cfg.Tagger.Threshold)
	}

	resolver := organize.NewResolver(exif.NewReader(log), geo, tg, store, log)
	planner := organize.NewPlanner(cfg.DestDir, fsops, log, cfg.Organize.CopyMode)
	logStore := organize.NewJSONLogStore(filepath.Join(cfg.LogDir, "runs"))
	executor := organize.NewExecutor(fsops, logStore, log, organize.RealClock{}, organize.UUIDGenerator{})
	undoer := organize.NewUndoEngine(fsops, log)
	svc := organize.NewService(fsops, resolver, planner, executor, undoer, log)

	return &App{
		cfg:     cfg,
		cache:   store,
		store:   logStore,
		service: svc,
		logFile: logFile,
	}, nil
}

// Organize runs a planning/execution pass over sourceDir. An empty sourceDir
// falls back to the configured one. Returns the run result and, for applied
// runs, the path of the persisted run log.
func (a *App) Organize(ctx context.Context, sourceDir string, apply bool) (*organize.RunResult, string, error) {
	if sourceDir == "" {
		sourceDir = a.cfg.SourceDir
	}
	if sourceDir == "" {
		return nil, "", fmt.Errorf("no source directory given or configured")
	}

	mode := organize.DryRun
	if apply {
		mode = organize.Apply
	}
	policy, err := conflictPolicy(a.cfg.Organize.ConflictPolicy)
	if err != nil {
		return nil, "", err
	}

	result, err := a.service.Organize(ctx, sourceDir, organize.RunOptions{
		Mode:           mode,
		ConflictPolicy: policy,
	})
	if err != nil {
		return nil, "", err
	}
	return result, a.store.LastPath(), nil
}

// Undo reverses a previously applied run from its persisted log.
func (a *App) Undo(ctx context.Context, logPath string) (organize.UndoSummary, error) {
	return a.service.Undo(ctx, logPath)
}

// CacheStats reports the metadata cache size and hit/miss counters.
func (a *App) CacheStats() (organize.CacheStats, error) {
	return a.cache.Stats()
}

// CacheClear empties the metadata cache.
func (a *App) CacheClear() error {
	return a.cache.Clear()
}

// Close releases the cache and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.cache.Close(); err != nil {
		firstErr = fmt.Errorf("closing cache: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// conflictPolicy maps the config value onto the engine's policy type.
func conflictPolicy(s string) (organize.ConflictPolicy, error) {
	switch s {
	case "", "rename":
		return organize.ConflictRename, nil
	case "fail":
		return organize.ConflictFail, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q (want rename or fail)", s)
	}
}
