package organize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LogStore persists run logs durably so a later process can undo the run.
type LogStore interface {
	Save(log *RunLog) error
}

// JSONLogStore writes one JSON file per run under a directory.
// The files are self-contained: undo needs nothing but the file.
type JSONLogStore struct {
	dir string
	// lastPath remembers where the most recent log landed, for reporting.
	lastPath string
}

func NewJSONLogStore(dir string) *JSONLogStore {
	return &JSONLogStore{dir: dir}
}

func (s *JSONLogStore) Save(log *RunLog) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run log: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("run-%s.json", log.RunID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run log: %w", err)
	}

	s.lastPath = path
	return nil
}

// LastPath returns the path of the most recently saved log, or "" if none.
func (s *JSONLogStore) LastPath() string { return s.lastPath }

// LoadRunLog reads and validates a persisted run log.
// A missing, corrupt or structurally invalid file is a fatal input error.
func LoadRunLog(path string) (*RunLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fatalInputf("reading run log %s: %v", path, err)
	}

	var log RunLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fatalInputf("corrupt run log %s: %v", path, err)
	}

	if err := validateRunLog(&log); err != nil {
		return nil, err
	}
	return &log, nil
}

func validateRunLog(log *RunLog) error {
	if log.Mode != DryRun && log.Mode != Apply {
		return fatalInputf("run log has unknown mode %q", log.Mode)
	}
	for i, en := range log.Entries {
		if en.SourcePath == "" || en.DestinationPath == "" {
			return fatalInputf("run log entry %d is missing a path", i)
		}
		switch en.Action {
		case ActionMove, ActionCopy, ActionSkipUnsorted:
		default:
			return fatalInputf("run log entry %d has unknown action %q", i, en.Action)
		}
		switch en.Status {
		case StatusSuccess, StatusFailed:
		default:
			return fatalInputf("run log entry %d has unknown status %q", i, en.Status)
		}
	}
	return nil
}

var _ LogStore = (*JSONLogStore)(nil)
