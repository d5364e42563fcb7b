package organize_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sio-go/internal/organize"
	"sio-go/internal/testutil"
)

func newExecutor(fsops *testutil.MockFileOps, store organize.LogStore) *organize.Executor {
	return organize.NewExecutor(fsops, store, organize.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())
}

func moveOp(src, dst string) organize.PlannedOperation {
	return organize.PlannedOperation{
		SourcePath:      src,
		DestinationPath: dst,
		Action:          organize.ActionMove,
	}
}

func TestExecutor_Execute_DryRun(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("a"))
	fsops.AddFile("/src/b.jpg", []byte("b"))
	store := testutil.NewMemoryLogStore()
	ex := newExecutor(fsops, store)

	plan := &organize.Plan{Operations: []organize.PlannedOperation{
		moveOp("/src/a.jpg", "/dest/2023/01/Unknown Location/a.jpg"),
		moveOp("/src/b.jpg", "/dest/2023/01/Unknown Location/b.jpg"),
	}}

	log, summary, err := ex.Execute(context.Background(), plan, organize.DryRun, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := fsops.Mutations(); len(got) != 0 {
		t.Errorf("dry run touched the filesystem: %v", got)
	}
	if len(store.Saved) != 0 {
		t.Errorf("dry run persisted %d logs, want 0", len(store.Saved))
	}
	if log.Mode != organize.DryRun {
		t.Errorf("log.Mode = %q, want DRY_RUN", log.Mode)
	}
	if len(log.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(log.Entries))
	}
	for i, en := range log.Entries {
		if en.Status != organize.StatusSuccess {
			t.Errorf("Entries[%d].Status = %q, want SUCCESS", i, en.Status)
		}
		if en.DestinationPath != plan.Operations[i].DestinationPath {
			t.Errorf("Entries[%d].DestinationPath = %q, want planned path", i, en.DestinationPath)
		}
	}
	if summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 succeeded", summary)
	}
}

func TestExecutor_Execute_ApplyMove(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("payload"))
	store := testutil.NewMemoryLogStore()
	ex := newExecutor(fsops, store)

	dest := "/dest/2023/01/Unknown Location/a.jpg"
	plan := &organize.Plan{Operations: []organize.PlannedOperation{moveOp("/src/a.jpg", dest)}}

	log, summary, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, still := fsops.Content("/src/a.jpg"); still {
		t.Error("source still present after MOVE")
	}
	data, ok := fsops.Content(dest)
	if !ok || string(data) != "payload" {
		t.Errorf("destination content = %q, %v", data, ok)
	}
	if len(store.Saved) != 1 {
		t.Fatalf("persisted %d logs, want 1", len(store.Saved))
	}
	if store.Saved[0] != log {
		t.Error("persisted log is not the returned log")
	}
	if summary.Succeeded != 1 {
		t.Errorf("summary = %+v, want 1 succeeded", summary)
	}
	if log.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", log.RunID)
	}
}

func TestExecutor_Execute_ApplyCopyKeepsSource(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("payload"))
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{{
		SourcePath:      "/src/a.jpg",
		DestinationPath: "/dest/2023/01/Unknown Location/a.jpg",
		Action:          organize.ActionCopy,
	}}}

	if _, _, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, ok := fsops.Content("/src/a.jpg"); !ok {
		t.Error("source removed by COPY")
	}
	if _, ok := fsops.Content("/dest/2023/01/Unknown Location/a.jpg"); !ok {
		t.Error("destination missing after COPY")
	}
}

func TestExecutor_Execute_PerFileFailureContinues(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("a"))
	fsops.AddFile("/src/b.jpg", []byte("b"))
	fsops.AddFile("/src/c.jpg", []byte("c"))
	fsops.FailMove["/src/b.jpg"] = errors.New("disk full")
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{
		moveOp("/src/a.jpg", "/dest/x/a.jpg"),
		moveOp("/src/b.jpg", "/dest/x/b.jpg"),
		moveOp("/src/c.jpg", "/dest/x/c.jpg"),
	}}

	log, summary, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v (per-file failures must not abort the batch)", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 succeeded / 1 failed", summary)
	}
	if len(log.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(log.Entries))
	}

	failed := log.Entries[1]
	if failed.Status != organize.StatusFailed {
		t.Errorf("Entries[1].Status = %q, want FAILED", failed.Status)
	}
	if !strings.Contains(failed.ErrorDetail, "disk full") {
		t.Errorf("ErrorDetail = %q, want cause recorded", failed.ErrorDetail)
	}
	if _, ok := fsops.Content("/dest/x/c.jpg"); !ok {
		t.Error("file after the failure was not processed")
	}
}

func TestExecutor_Execute_SkipUnsortedIsNoOp(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/broken.jpg", []byte("???"))
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{{
		SourcePath:      "/src/broken.jpg",
		DestinationPath: "/dest/Unsorted/broken.jpg",
		Action:          organize.ActionSkipUnsorted,
		Reason:          "source unreadable",
	}}}

	log, summary, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := fsops.Mutations(); len(got) != 0 {
		t.Errorf("SKIP_UNSORTED touched the filesystem: %v", got)
	}
	if summary.Skipped != 1 || summary.Succeeded != 0 {
		t.Errorf("summary = %+v, want 1 skipped", summary)
	}
	if log.Entries[0].Status != organize.StatusSuccess {
		t.Errorf("skip entry status = %q, want SUCCESS", log.Entries[0].Status)
	}
}

func TestExecutor_Execute_ConflictRename(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("new"))
	fsops.AddFile("/dest/x/a.jpg", []byte("old")) // appeared after planning
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{moveOp("/src/a.jpg", "/dest/x/a.jpg")}}

	log, _, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := log.Entries[0].DestinationPath; got != "/dest/x/a_1.jpg" {
		t.Errorf("final destination = %q, want /dest/x/a_1.jpg", got)
	}
	if data, _ := fsops.Content("/dest/x/a.jpg"); string(data) != "old" {
		t.Error("existing file was clobbered")
	}
	if data, _ := fsops.Content("/dest/x/a_1.jpg"); string(data) != "new" {
		t.Error("renamed destination missing")
	}
}

func TestExecutor_Execute_ConflictFail(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("new"))
	fsops.AddFile("/dest/x/a.jpg", []byte("old"))
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{moveOp("/src/a.jpg", "/dest/x/a.jpg")}}

	log, summary, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictFail)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 failed", summary)
	}
	if log.Entries[0].Status != organize.StatusFailed {
		t.Errorf("entry status = %q, want FAILED", log.Entries[0].Status)
	}
	if _, ok := fsops.Content("/src/a.jpg"); !ok {
		t.Error("source removed despite conflict failure")
	}
}

func TestExecutor_Execute_WritesTagSidecar(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("a"))
	ex := newExecutor(fsops, testutil.NewMemoryLogStore())

	plan := &organize.Plan{Operations: []organize.PlannedOperation{{
		SourcePath:      "/src/a.jpg",
		DestinationPath: "/dest/x/a.jpg",
		Action:          organize.ActionMove,
		Tags:            []string{"beach", "sunset"},
	}}}

	if _, _, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	data, ok := fsops.Content("/dest/x/a.jpg.tags.json")
	if !ok {
		t.Fatal("tag sidecar not written")
	}
	for _, want := range []string{"beach", "sunset", "/dest/x/a.jpg"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("sidecar missing %q: %s", want, data)
		}
	}
}

func TestExecutor_Execute_CancelledContext(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("a"))
	store := testutil.NewMemoryLogStore()
	ex := newExecutor(fsops, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := &organize.Plan{Operations: []organize.PlannedOperation{moveOp("/src/a.jpg", "/dest/x/a.jpg")}}
	log, _, err := ex.Execute(ctx, plan, organize.Apply, organize.ConflictRename)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(log.Entries) != 0 {
		t.Errorf("got %d entries after pre-run cancellation, want 0", len(log.Entries))
	}
	// The partial log is still persisted so completed work stays undoable.
	if len(store.Saved) != 1 {
		t.Errorf("persisted %d logs, want 1", len(store.Saved))
	}
}

func TestExecutor_Execute_NilPlan(t *testing.T) {
	ex := newExecutor(testutil.NewMockFileOps(), testutil.NewMemoryLogStore())
	if _, _, err := ex.Execute(context.Background(), nil, organize.Apply, organize.ConflictRename); !errors.Is(err, organize.ErrFatalInput) {
		t.Errorf("Execute(nil) error = %v, want ErrFatalInput", err)
	}
}

func TestExecutor_Execute_StoreFailure(t *testing.T) {
	fsops := testutil.NewMockFileOps()
	fsops.AddFile("/src/a.jpg", []byte("a"))
	store := testutil.NewMemoryLogStore()
	store.Err = errors.New("disk full")
	ex := newExecutor(fsops, store)

	plan := &organize.Plan{Operations: []organize.PlannedOperation{moveOp("/src/a.jpg", "/dest/x/a.jpg")}}
	if _, _, err := ex.Execute(context.Background(), plan, organize.Apply, organize.ConflictRename); err == nil {
		t.Fatal("expected error when run log cannot be persisted")
	}
}
