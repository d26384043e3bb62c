package state

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), ".specflow-state.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func sampleState() *WorkflowState {
	st := NewState("001-add-auth", "staged")
	st.CurrentPhase = "tasks"
	st.RecordCheckpoint("principles", &Checkpoint{Status: StatusCompleted})
	st.RecordCheckpoint("specify", &Checkpoint{Status: StatusCompleted})
	st.RecordCheckpoint("clarify", &Checkpoint{Status: StatusSkipped})
	st.RecordCheckpoint("plan", &Checkpoint{
		Status:         StatusCompleted,
		TasksCompleted: 3,
		TasksTotal:     10,
		CurrentTaskRef: "T004",
	})
	return st
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFileStore_SaveLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	st := sampleState()

	if err := store.Save(st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Errorf("round-trip mismatch:\nsaved:  %+v\nloaded: %+v", st, loaded)
	}
}

func TestFileStore_Load_Absent(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st != nil {
		t.Errorf("Load = %+v, want nil for absent state", st)
	}
}

func TestFileStore_Load_Corrupted(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	if !errors.Is(err, ErrStateCorrupted) {
		t.Errorf("Load error = %v, want ErrStateCorrupted", err)
	}
}

func TestFileStore_Load_UnsupportedVersion(t *testing.T) {
	store := newTestStore(t)
	doc := `{"schema_version": 99, "feature_id": "001-x"}`
	if err := os.WriteFile(store.Path(), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	if !errors.Is(err, ErrStateCorrupted) {
		t.Errorf("Load error = %v, want ErrStateCorrupted", err)
	}
}

func TestFileStore_Load_MigratesV1(t *testing.T) {
	store := newTestStore(t)
	doc := `{
  "schema_version": 1,
  "run_id": "run_abc",
  "feature_id": "001-legacy",
  "current_phase": "plan",
  "completed_phases": ["principles", "specify"],
  "started_at": "2025-11-02T10:00:00Z",
  "last_updated": "2025-11-02T11:00:00Z"
}`
	if err := os.WriteFile(store.Path(), []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if st.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", st.SchemaVersion, SchemaVersion)
	}
	if st.Mode != "interactive" {
		t.Errorf("Mode = %q, want backfilled interactive", st.Mode)
	}
	if st.SkippedPhases == nil {
		t.Error("SkippedPhases must be backfilled")
	}
	if !st.IsCompleted("specify") {
		t.Error("completed phases must survive migration")
	}
}

func TestFileStore_InterruptedSaveLeavesStateIntact(t *testing.T) {
	store := newTestStore(t)
	st := sampleState()
	if err := store.Save(st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Simulate a save that died after writing the temporary file but
	// before the rename.
	if err := os.WriteFile(store.Path()+".tmp", []byte("{partial"), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Error("previously saved state must remain fully intact")
	}

	// The next save overwrites the stale temporary file.
	st.CurrentPhase = "analyze"
	if err := store.Save(st); err != nil {
		t.Fatalf("Save after interruption failed: %v", err)
	}
	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CurrentPhase != "analyze" {
		t.Errorf("CurrentPhase = %q, want analyze", loaded.CurrentPhase)
	}
}

func TestFileStore_Checkpoint_Persists(t *testing.T) {
	store := newTestStore(t)
	st := NewState("001-add-auth", "unattended")

	err := store.Checkpoint(st, "specify", &Checkpoint{Status: StatusCompleted})
	if err != nil {
		t.Fatalf("Checkpoint failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.IsCompleted("specify") {
		t.Error("checkpoint must be persisted")
	}
	if loaded.Checkpoints["specify"].Status != StatusCompleted {
		t.Errorf("Status = %q", loaded.Checkpoints["specify"].Status)
	}
}

func TestFileStore_Delete_Idempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(sampleState()); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("state file should be gone")
	}

	// Deleting again is a no-op.
	if err := store.Delete(); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}

func TestFileStore_Archive(t *testing.T) {
	store := newTestStore(t)
	st := sampleState()
	if err := store.Save(st); err != nil {
		t.Fatal(err)
	}

	dest, err := store.Archive("001-add-auth")
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	want := store.Path() + ".done-001-add-auth"
	if dest != want {
		t.Errorf("Archive dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("original state file should be gone")
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("archived file missing: %v", err)
	}

	// Archiving again without state is a no-op.
	dest, err = store.Archive("001-add-auth")
	if err != nil {
		t.Fatalf("second Archive failed: %v", err)
	}
	if dest != "" {
		t.Errorf("second Archive dest = %q, want empty", dest)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	st := sampleState()

	if err := store.Save(st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(st, loaded) {
		t.Error("round-trip mismatch")
	}
}

func TestMemoryStore_Load_Absent(t *testing.T) {
	store := NewMemoryStore()
	st, err := store.Load()
	if err != nil || st != nil {
		t.Errorf("Load = (%+v, %v), want (nil, nil)", st, err)
	}
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(sampleState()); err != nil {
		t.Fatal(err)
	}

	first, _ := store.Load()
	first.CurrentPhase = "mutated"
	first.RecordCheckpoint("tasks", &Checkpoint{Status: StatusCompleted})

	second, _ := store.Load()
	if second.CurrentPhase == "mutated" {
		t.Error("mutating a loaded copy must not affect the store")
	}
	if second.IsCompleted("tasks") {
		t.Error("mutating a loaded copy must not affect the store")
	}
}

func TestMemoryStore_Archive(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(sampleState()); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Archive("001-add-auth"); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	st, err := store.Load()
	if err != nil || st != nil {
		t.Error("archived state must no longer load")
	}
	if store.Archived("001-add-auth") == nil {
		t.Error("archived state must be retrievable by feature")
	}
}
