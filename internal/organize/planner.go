package organize

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Planner turns per-file metadata into a conflict-free destination layout.
//
// Layout: <dest>/<YEAR>/<MM>/<City, Country>/<filename> for dated files,
// <dest>/Unsorted/<filename> for everything else. Tags never influence
// placement; they ride along as log annotations.
type Planner struct {
	destDir  string
	fsops    FileOps
	logger   Logger
	copyMode bool
}

// NewPlanner creates a Planner writing under destDir. When copyMode is set,
// planned operations copy instead of move, leaving sources untouched.
func NewPlanner(destDir string, fsops FileOps, logger Logger, copyMode bool) *Planner {
	return &Planner{
		destDir:  destDir,
		fsops:    fsops,
		logger:   logger,
		copyMode: copyMode,
	}
}

// Plan computes one PlannedOperation per record, in input order.
// Destination paths in the returned Plan are pairwise unique.
//
// A single bad file never fails the call: it degrades to the Unsorted
// bucket and planning continues. Plan fails only on structurally invalid
// input (nil record list, empty source path).
func (p *Planner) Plan(records []Record) (*Plan, error) {
	if records == nil {
		return nil, fatalInputf("nil record list")
	}

	taken := make(map[string]struct{}, len(records))
	ops := make([]PlannedOperation, 0, len(records))

	for i, r := range records {
		if r.SourcePath == "" {
			return nil, fatalInputf("record %d has an empty source path", i)
		}

		op := p.planOne(r)
		op.DestinationPath = p.disambiguate(op.DestinationPath, taken)
		taken[op.DestinationPath] = struct{}{}
		ops = append(ops, op)

		p.logger.Debug("planned",
			"source", op.SourcePath,
			"destination", op.DestinationPath,
			"action", op.Action,
		)
	}

	return &Plan{Operations: ops}, nil
}

// planOne computes the canonical destination for a single record, before
// collision resolution.
func (p *Planner) planOne(r Record) PlannedOperation {
	name := filepath.Base(r.SourcePath)

	if r.Metadata.Unreadable {
		return PlannedOperation{
			SourcePath:      r.SourcePath,
			DestinationPath: filepath.Join(p.destDir, UnsortedBucket, name),
			Action:          ActionSkipUnsorted,
			Reason:          "source unreadable",
		}
	}

	action := ActionMove
	if p.copyMode {
		action = ActionCopy
	}

	op := PlannedOperation{
		SourcePath: r.SourcePath,
		Action:     action,
		Tags:       r.Metadata.Tags,
	}

	if r.Metadata.CapturedAt == nil {
		op.DestinationPath = filepath.Join(p.destDir, UnsortedBucket, name)
		op.Reason = "missing capture date"
		return op
	}

	segment := UnknownLocation
	if loc := r.Metadata.Location; loc != nil && loc.String() != UnknownLocation {
		segment = sanitizeSegment(loc.String())
		op.Location = loc.String()
	} else {
		op.Reason = "location unresolved"
	}

	op.DestinationPath = filepath.Join(
		p.destDir,
		r.Metadata.CapturedAt.Format("2006"),
		r.Metadata.CapturedAt.Format("01"),
		segment,
		name,
	)
	return op
}

// disambiguate returns dest, or the first numbered variant of it that is
// neither assigned within this plan nor already present on disk.
// The disk check is best effort; the executor re-checks at apply time.
func (p *Planner) disambiguate(dest string, taken map[string]struct{}) string {
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)

	candidate := dest
	for counter := 1; ; counter++ {
		if _, dup := taken[candidate]; !dup {
			exists, err := p.fsops.Exists(candidate)
			if err != nil {
				p.logger.Warn("existence check failed during planning",
					"path", candidate, "error", err)
				exists = false
			}
			if !exists {
				return candidate
			}
		}
		candidate = fmt.Sprintf("%s_%d%s", base, counter, ext)
	}
}

// sanitizeSegment keeps resolved place names from injecting path separators
// into the layout.
func sanitizeSegment(s string) string {
	return strings.ReplaceAll(s, string(filepath.Separator), "-")
}
