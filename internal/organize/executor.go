package organize

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Executor applies a Plan to the filesystem. One code path serves both
// modes: DryRun gates the filesystem calls and synthesizes SUCCESS entries,
// so previews and real runs cannot diverge in logic.
type Executor struct {
	fsops  FileOps
	store  LogStore
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewExecutor creates an Executor. The store receives the run log when a
// run completes in Apply mode; DryRun logs are returned but never persisted.
func NewExecutor(fsops FileOps, store LogStore, logger Logger, clock Clock, idgen IDGenerator) *Executor {
	return &Executor{
		fsops:  fsops,
		store:  store,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Execute processes the plan in order, producing one log entry per planned
// operation. A per-file failure marks that entry FAILED and the batch
// continues; only a nil plan or a log persistence failure returns an error.
//
// Cancellation is advisory between files: the in-flight operation completes,
// remaining operations are not attempted, and the partial log is still
// persisted in Apply mode so the completed portion stays undoable.
func (e *Executor) Execute(ctx context.Context, plan *Plan, mode Mode, policy ConflictPolicy) (*RunLog, Summary, error) {
	if plan == nil {
		return nil, Summary{}, fatalInputf("nil plan")
	}

	log := &RunLog{
		RunID:     e.idgen.New(),
		Mode:      mode,
		CreatedAt: e.clock.Now(),
	}
	summary := Summary{Planned: len(plan.Operations)}

	for _, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("run cancelled",
				"run_id", log.RunID,
				"completed", len(log.Entries),
				"remaining", len(plan.Operations)-len(log.Entries),
			)
			break
		}

		entry := e.executeOne(op, mode, policy)
		log.Entries = append(log.Entries, entry)

		switch {
		case op.Action == ActionSkipUnsorted:
			summary.Skipped++
		case entry.Status == StatusSuccess:
			summary.Succeeded++
		default:
			summary.Failed++
		}
	}

	if mode == Apply {
		if err := e.store.Save(log); err != nil {
			return log, summary, fmt.Errorf("persisting run log: %w", err)
		}
	}

	e.logger.Info("run complete",
		"run_id", log.RunID,
		"mode", mode,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
	)
	return log, summary, nil
}

// executeOne processes a single planned operation and returns its log entry.
func (e *Executor) executeOne(op PlannedOperation, mode Mode, policy ConflictPolicy) LogEntry {
	entry := LogEntry{
		SourcePath:      op.SourcePath,
		DestinationPath: op.DestinationPath,
		Action:          op.Action,
		Timestamp:       e.clock.Now(),
		Status:          StatusSuccess,
		Location:        op.Location,
		Tags:            op.Tags,
	}

	// Nothing to do for unreadable sources; the entry records where the
	// file would have been routed.
	if op.Action == ActionSkipUnsorted {
		return entry
	}

	if mode == Apply {
		dest, err := e.applyOne(op, policy)
		entry.DestinationPath = dest
		if err != nil {
			entry.Status = StatusFailed
			entry.ErrorDetail = err.Error()
			e.logger.Error("operation failed",
				"source", op.SourcePath,
				"destination", dest,
				"error", err,
			)
			return entry
		}
		e.logger.Debug("operation applied", "source", op.SourcePath, "destination", dest)
	}

	return entry
}

// applyOne performs the filesystem mutation for one operation, re-verifying
// the destination against the real filesystem first. Returns the final
// destination, which may differ from the planned one under ConflictRename.
func (e *Executor) applyOne(op PlannedOperation, policy ConflictPolicy) (string, error) {
	dest := op.DestinationPath

	if err := e.fsops.MkdirAll(filepath.Dir(dest)); err != nil {
		return dest, fmt.Errorf("creating destination directory: %w", err)
	}

	// A file may have appeared here since planning.
	exists, err := e.fsops.Exists(dest)
	if err != nil {
		return dest, fmt.Errorf("checking destination: %w", err)
	}
	if exists {
		if policy == ConflictFail {
			return dest, fmt.Errorf("destination already exists: %s", dest)
		}
		dest, err = e.nextFree(dest)
		if err != nil {
			return dest, err
		}
	}

	switch op.Action {
	case ActionMove:
		err = e.fsops.Move(op.SourcePath, dest)
	case ActionCopy:
		err = e.fsops.Copy(op.SourcePath, dest)
	default:
		err = fmt.Errorf("unsupported action %q", op.Action)
	}
	if err != nil {
		return dest, err
	}

	if len(op.Tags) > 0 {
		if err := e.writeSidecar(dest, op); err != nil {
			// Annotation only; the file itself arrived.
			e.logger.Warn("writing tag sidecar failed", "path", dest, "error", err)
		}
	}

	return dest, nil
}

// nextFree scans numbered variants of dest until one is free on disk.
func (e *Executor) nextFree(dest string) (string, error) {
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", base, counter, ext)
		exists, err := e.fsops.Exists(candidate)
		if err != nil {
			return candidate, fmt.Errorf("checking destination: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// sidecarPath is the tag annotation file written next to a destination.
func sidecarPath(dest string) string {
	return dest + ".tags.json"
}

type sidecarData struct {
	ImagePath string    `json:"image_path"`
	Tags      []string  `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *Executor) writeSidecar(dest string, op PlannedOperation) error {
	data, err := json.MarshalIndent(sidecarData{
		ImagePath: dest,
		Tags:      op.Tags,
		Timestamp: e.clock.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return e.fsops.WriteFile(sidecarPath(dest), data)
}
