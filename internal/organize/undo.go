package organize

import (
	"context"
	"fmt"
	"path/filepath"
)

// UndoEngine replays a run log in reverse to restore the pre-run state.
// Each committed entry carries enough data to construct its own inverse:
// a MOVE is reversed by moving back, a COPY by deleting the destination.
type UndoEngine struct {
	fsops  FileOps
	logger Logger
}

func NewUndoEngine(fsops FileOps, logger Logger) *UndoEngine {
	return &UndoEngine{fsops: fsops, logger: logger}
}

// Undo processes log entries newest-first. FAILED and SKIP_UNSORTED entries
// are skipped (nothing happened). An entry whose reversal is blocked by
// changed filesystem state is counted as a conflict and reported; the
// remaining entries are still attempted.
//
// Undo is not idempotent: re-running it on an already-undone log reports a
// conflict per entry rather than a fatal error.
func (u *UndoEngine) Undo(ctx context.Context, log *RunLog) (UndoSummary, error) {
	if log == nil {
		return UndoSummary{}, fatalInputf("nil run log")
	}
	if log.Mode == DryRun {
		return UndoSummary{}, fatalInputf("dry-run log has nothing to undo")
	}

	var summary UndoSummary
	for i := len(log.Entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			u.logger.Warn("undo cancelled", "remaining", i+1)
			break
		}

		en := log.Entries[i]
		if en.Status != StatusSuccess || en.Action == ActionSkipUnsorted {
			summary.Skipped++
			continue
		}

		var err error
		switch en.Action {
		case ActionMove:
			err = u.undoMove(en)
		case ActionCopy:
			err = u.undoCopy(en)
		}

		if err != nil {
			summary.Conflicts++
			u.logger.Warn("undo conflict",
				"source", en.SourcePath,
				"destination", en.DestinationPath,
				"error", err,
			)
			continue
		}

		if en.Action == ActionMove {
			summary.Restored++
		} else {
			summary.Removed++
		}
	}

	u.logger.Info("undo complete",
		"run_id", log.RunID,
		"restored", summary.Restored,
		"removed", summary.Removed,
		"conflicts", summary.Conflicts,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// undoMove moves the file back from its destination to its original source.
func (u *UndoEngine) undoMove(en LogEntry) error {
	exists, err := u.fsops.Exists(en.DestinationPath)
	if err != nil {
		return fmt.Errorf("checking destination: %w", err)
	}
	if !exists {
		return fmt.Errorf("destination no longer exists: %s", en.DestinationPath)
	}

	occupied, err := u.fsops.Exists(en.SourcePath)
	if err != nil {
		return fmt.Errorf("checking source: %w", err)
	}
	if occupied {
		return fmt.Errorf("source path is already occupied: %s", en.SourcePath)
	}

	// A deleted source directory is a conflict, not something undo
	// silently recreates.
	parentOK, err := u.fsops.Exists(filepath.Dir(en.SourcePath))
	if err != nil {
		return fmt.Errorf("checking source directory: %w", err)
	}
	if !parentOK {
		return fmt.Errorf("source directory no longer exists: %s", filepath.Dir(en.SourcePath))
	}

	if err := u.fsops.Move(en.DestinationPath, en.SourcePath); err != nil {
		return fmt.Errorf("moving back: %w", err)
	}

	u.removeSidecar(en.DestinationPath)
	return nil
}

// undoCopy deletes the copied destination; the source was never touched.
func (u *UndoEngine) undoCopy(en LogEntry) error {
	exists, err := u.fsops.Exists(en.DestinationPath)
	if err != nil {
		return fmt.Errorf("checking destination: %w", err)
	}
	if !exists {
		return fmt.Errorf("destination no longer exists: %s", en.DestinationPath)
	}

	if err := u.fsops.Remove(en.DestinationPath); err != nil {
		return fmt.Errorf("removing copy: %w", err)
	}

	u.removeSidecar(en.DestinationPath)
	return nil
}

// removeSidecar deletes the tag annotation file, if one was written.
func (u *UndoEngine) removeSidecar(dest string) {
	sc := sidecarPath(dest)
	exists, err := u.fsops.Exists(sc)
	if err != nil || !exists {
		return
	}
	if err := u.fsops.Remove(sc); err != nil {
		u.logger.Warn("removing tag sidecar failed", "path", sc, "error", err)
	}
}
