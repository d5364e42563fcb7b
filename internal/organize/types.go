package organize

import "time"

// Destination layout constants.
const (
	// UnsortedBucket is the top-level fallback directory for files that
	// lack a capture date or could not be read at all.
	UnsortedBucket = "Unsorted"

	// UnknownLocation is the directory segment used when a dated file has
	// no resolvable location.
	UnknownLocation = "Unknown Location"
)

// Action describes what the executor does with a planned file.
type Action string

const (
	ActionMove         Action = "MOVE"
	ActionCopy         Action = "COPY"
	ActionSkipUnsorted Action = "SKIP_UNSORTED"
)

// Mode selects between simulating a run and applying it.
// Both modes share one code path; the mode gates only the filesystem calls.
type Mode string

const (
	DryRun Mode = "DRY_RUN"
	Apply  Mode = "APPLY"
)

// ConflictPolicy controls how the executor reacts when a destination file
// appeared on disk between planning and execution.
type ConflictPolicy string

const (
	// ConflictRename picks the next free numbered destination.
	ConflictRename ConflictPolicy = "RENAME"
	// ConflictFail marks the entry as failed and moves on.
	ConflictFail ConflictPolicy = "FAIL"
)

// Status is the outcome of one executed operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Location is a resolved place name for a set of GPS coordinates.
type Location struct {
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String formats the location as "City, Country". A partially resolved
// location degrades to UnknownLocation as a whole; the layout has exactly
// two location segment forms, never a bare city or country.
func (l Location) String() string {
	if l.City != "" && l.Country != "" {
		return l.City + ", " + l.Country
	}
	return UnknownLocation
}

// MetadataRecord carries everything the planner needs to know about one
// source file. Records are produced by the resolver (or supplied directly
// by a caller) and are never mutated downstream.
type MetadataRecord struct {
	CapturedAt  *time.Time
	Location    *Location
	Tags        []string
	Fingerprint string
	// Unreadable marks a source that could not be opened or identified.
	// The planner routes such files to the Unsorted bucket as SKIP_UNSORTED
	// instead of dropping them.
	Unreadable bool
}

// Record pairs a source path with its resolved metadata.
type Record struct {
	SourcePath string
	Metadata   MetadataRecord
}

// PlannedOperation is one intended file operation. Created by the planner,
// consumed (never mutated) by the executor.
type PlannedOperation struct {
	SourcePath      string
	DestinationPath string
	Action          Action
	// Reason records why this action and destination were chosen,
	// e.g. "missing capture date".
	Reason string
	// Location and Tags are secondary annotations carried into the run log.
	// They never influence path placement beyond what DestinationPath
	// already encodes.
	Location string
	Tags     []string
}

// Plan is the full ordered set of intended operations before any filesystem
// mutation occurs. Entry order matches input order, and destination paths
// are pairwise unique.
type Plan struct {
	Operations []PlannedOperation
}

// LogEntry records one executed (or simulated) operation.
// Entries are appended in execution order and immutable once written.
type LogEntry struct {
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path"`
	Action          Action    `json:"action"`
	Timestamp       time.Time `json:"timestamp"`
	Status          Status    `json:"status"`
	ErrorDetail     string    `json:"error_detail,omitempty"`
	Location        string    `json:"location,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
}

// RunLog is the durable record of a single run, sufficient to undo it.
type RunLog struct {
	RunID     string     `json:"run_id"`
	Mode      Mode       `json:"mode"`
	CreatedAt time.Time  `json:"created_at"`
	Entries   []LogEntry `json:"entries"`
}

// Summary is the per-run outcome surfaced to any front end.
type Summary struct {
	Planned   int
	Succeeded int
	Failed    int
	Skipped   int
}

// Outcome classifies the run for user-facing reporting.
func (s Summary) Outcome() string {
	switch {
	case s.Failed == 0:
		return "fully succeeded"
	case s.Succeeded > 0:
		return "partially succeeded"
	default:
		return "failed"
	}
}

// UndoSummary reports the outcome of reversing a run log.
type UndoSummary struct {
	Restored  int // MOVE entries moved back to their source
	Removed   int // COPY destinations deleted
	Conflicts int // entries that could not be reversed
	Skipped   int // FAILED and SKIP_UNSORTED entries
}
