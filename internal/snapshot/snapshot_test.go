// ABOUTME: Tests for snapshot save/load round trips and corruption detection
// ABOUTME: Verifies atomic replace semantics and search-result equivalence after reload
package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/store"
)

func seedState(t *testing.T) (*store.Store, *index.Index) {
	t.Helper()
	st := store.New()
	ix := index.New()

	records := []struct {
		id        string
		component string
		model     string
		vector    []float64
	}{
		{"rec-1", "pump", "x1", []float64{1, 0, 0}},
		{"rec-2", "motor", "", []float64{0, 1, 0}},
		{"rec-3", "pump", "", []float64{0.7, 0.7, 0}},
	}
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, r := range records {
		rec := models.FaultRecord{
			ID:               r.id,
			Component:        r.component,
			Model:            r.model,
			FaultDescription: "fault " + r.id,
			RootCause:        "cause",
			CorrectiveAction: "action",
			CreatedAt:        createdAt.Add(time.Duration(i) * time.Minute),
		}
		if err := st.Insert(rec); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
		if err := ix.Insert(rec.ID, r.vector, rec.Component, rec.Model, rec.CreatedAt); err != nil {
			t.Fatalf("seeding index: %v", err)
		}
	}
	return st, ix
}

func TestSaveLoad_RoundTripPreservesSearchResults(t *testing.T) {
	st, ix := seedState(t)
	path := filepath.Join(t.TempDir(), "snapshot.json")

	if err := Save(path, st, ix); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	st2 := store.New()
	ix2 := index.New()
	if err := Load(path, st2, ix2); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if st2.Len() != st.Len() || ix2.Len() != ix.Len() {
		t.Fatalf("counts differ after reload: %d/%d vs %d/%d", st2.Len(), ix2.Len(), st.Len(), ix.Len())
	}
	if ix2.Dimension() != ix.Dimension() {
		t.Errorf("dimension differs after reload: %d vs %d", ix2.Dimension(), ix.Dimension())
	}

	query := []float64{0.9, 0.1, 0}
	before, err := ix.Search(query, 3, index.Filter{})
	if err != nil {
		t.Fatalf("search before save: %v", err)
	}
	after, err := ix2.Search(query, 3, index.Filter{})
	if err != nil {
		t.Fatalf("search after load: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("result counts differ: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].RecordID != after[i].RecordID || before[i].Score != after[i].Score {
			t.Errorf("result %d differs: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestSave_AtomicReplaceKeepsOldSnapshotOnExistingPath(t *testing.T) {
	st, ix := seedState(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	if err := Save(path, st, ix); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := Save(path, st, ix); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	// No temp files left behind after a successful rename.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.json"), store.New(), index.New())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"version":99,"dimension":3,"entries":[]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Load(path, store.New(), index.New())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestLoad_RejectsMixedDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"version":1,"dimension":3,"entries":[
		{"record":{"id":"a","component":"pump","fault_description":"x","root_cause":"y","corrective_action":"z","created_at":"2025-06-01T12:00:00Z"},"vector":[1,0,0]},
		{"record":{"id":"b","component":"pump","fault_description":"x2","root_cause":"y","corrective_action":"z","created_at":"2025-06-01T12:01:00Z"},"vector":[1,0]}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Load(path, store.New(), index.New())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot for mixed dimensions, got %v", err)
	}
}

func TestLoad_RejectsRecordWithoutVector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"version":1,"dimension":3,"entries":[
		{"record":{"id":"a","component":"pump","fault_description":"x","root_cause":"y","corrective_action":"z","created_at":"2025-06-01T12:00:00Z"},"vector":[]}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Load(path, store.New(), index.New())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot for missing vector, got %v", err)
	}
}

func TestLoad_RejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"version":1,"dimension":2,"entries":[
		{"record":{"id":"a","component":"pump","fault_description":"x","root_cause":"y","corrective_action":"z","created_at":"2025-06-01T12:00:00Z"},"vector":[1,0]},
		{"record":{"id":"a","component":"pump","fault_description":"x2","root_cause":"y","corrective_action":"z","created_at":"2025-06-01T12:01:00Z"},"vector":[0,1]}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Load(path, store.New(), index.New())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot for duplicate ids, got %v", err)
	}
}

func TestLoad_RejectsTruncatedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"version":1,"dim`), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	err := Load(path, store.New(), index.New())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot for truncated file, got %v", err)
	}
}
