package organize

import (
	"context"
	"fmt"
)

// Service is the orchestration layer that coordinates scanning, metadata
// resolution, planning and execution for a run, and undo for a past run.
type Service struct {
	fsops    FileOps
	resolver *Resolver
	planner  *Planner
	executor *Executor
	undoer   *UndoEngine
	logger   Logger
}

func NewService(fsops FileOps, resolver *Resolver, planner *Planner, executor *Executor, undoer *UndoEngine, logger Logger) *Service {
	return &Service{
		fsops:    fsops,
		resolver: resolver,
		planner:  planner,
		executor: executor,
		undoer:   undoer,
		logger:   logger,
	}
}

// RunOptions selects the execution behavior for one run.
type RunOptions struct {
	Mode           Mode
	ConflictPolicy ConflictPolicy
}

// RunResult is everything a front end needs to report on a run.
type RunResult struct {
	Plan    *Plan
	Log     *RunLog
	Summary Summary
	// Tagged counts files that carried at least one tag into the run.
	Tagged int
}

// Organize scans sourceDir for images, resolves their metadata, plans a
// conflict-free layout and executes it in the requested mode.
func (s *Service) Organize(ctx context.Context, sourceDir string, opts RunOptions) (*RunResult, error) {
	if sourceDir == "" {
		return nil, fatalInputf("empty source directory")
	}

	paths, err := s.fsops.FindImages(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", sourceDir, err)
	}
	s.logger.Info("scan complete", "source", sourceDir, "files", len(paths))

	records, err := s.resolver.ResolveAll(ctx, paths)
	if err != nil {
		return nil, err
	}

	plan, err := s.planner.Plan(records)
	if err != nil {
		return nil, err
	}

	log, summary, err := s.executor.Execute(ctx, plan, opts.Mode, opts.ConflictPolicy)
	if err != nil {
		return nil, err
	}

	result := &RunResult{Plan: plan, Log: log, Summary: summary}
	for _, op := range plan.Operations {
		if len(op.Tags) > 0 {
			result.Tagged++
		}
	}
	return result, nil
}

// Undo loads a persisted run log and reverses it.
func (s *Service) Undo(ctx context.Context, logPath string) (UndoSummary, error) {
	log, err := LoadRunLog(logPath)
	if err != nil {
		return UndoSummary{}, err
	}
	s.logger.Info("undo started", "run_id", log.RunID, "entries", len(log.Entries))
	return s.undoer.Undo(ctx, log)
}
