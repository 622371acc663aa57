// ABOUTME: Unit tests for the append-only record store
// ABOUTME: Covers duplicate ids, dedup keys, and component/model listings
package store

import (
	"errors"
	"testing"
	"time"

	"github.com/harper/faultfinder/internal/models"
)

func testRecord(id, component, model, description string) models.FaultRecord {
	return models.FaultRecord{
		ID:               id,
		Component:        component,
		Model:            model,
		FaultDescription: description,
		RootCause:        "worn bearing",
		CorrectiveAction: "replace bearing",
		CreatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndGet(t *testing.T) {
	s := New()
	rec := testRecord("id-1", "pump", "x1", "bearing overheating")

	if err := s.Insert(rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, ok := s.Get("id-1")
	if !ok {
		t.Fatal("expected record to be found")
	}
	if got.FaultDescription != rec.FaultDescription {
		t.Errorf("got description %q, want %q", got.FaultDescription, rec.FaultDescription)
	}

	if err := s.Insert(rec); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestHasRow(t *testing.T) {
	s := New()
	if err := s.Insert(testRecord("id-1", "pump", "x1", "bearing overheating")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if !s.HasRow("pump", "x1", "bearing overheating") {
		t.Error("expected HasRow true for identical row")
	}
	if s.HasRow("pump", "", "bearing overheating") {
		t.Error("expected HasRow false for different model")
	}
	if s.HasRow("motor", "x1", "bearing overheating") {
		t.Error("expected HasRow false for different component")
	}
}

func TestRemove(t *testing.T) {
	s := New()
	if err := s.Remove("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.Insert(testRecord("id-1", "pump", "", "seal leak")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Remove("id-1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d records", s.Len())
	}
	if s.HasRow("pump", "", "seal leak") {
		t.Error("expected dedup key cleared after remove")
	}
}

func TestComponentsAndModels(t *testing.T) {
	s := New()
	rows := []models.FaultRecord{
		testRecord("1", "pump", "x1", "a"),
		testRecord("2", "pump", "x2", "b"),
		testRecord("3", "pump", "", "c"),
		testRecord("4", "motor", "m7", "d"),
	}
	for _, rec := range rows {
		if err := s.Insert(rec); err != nil {
			t.Fatalf("insert %s failed: %v", rec.ID, err)
		}
	}

	comps := s.Components()
	if len(comps) != 2 || comps[0] != "motor" || comps[1] != "pump" {
		t.Errorf("unexpected components: %v", comps)
	}

	pumpModels := s.Models("pump")
	if len(pumpModels) != 2 || pumpModels[0] != "x1" || pumpModels[1] != "x2" {
		t.Errorf("unexpected pump models: %v", pumpModels)
	}
	if got := s.Models("valve"); len(got) != 0 {
		t.Errorf("expected no models for unknown component, got %v", got)
	}
}

func TestAllOrderedByCreatedAt(t *testing.T) {
	s := New()
	older := testRecord("b-older", "pump", "", "first fault")
	younger := testRecord("a-younger", "pump", "", "second fault")
	younger.CreatedAt = older.CreatedAt.Add(time.Minute)

	if err := s.Insert(younger); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Insert(older); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	all := s.All()
	if len(all) != 2 || all[0].ID != "b-older" || all[1].ID != "a-younger" {
		t.Errorf("unexpected ordering: %v", []string{all[0].ID, all[1].ID})
	}
}

func TestReset(t *testing.T) {
	s := New()
	if err := s.Insert(testRecord("1", "pump", "", "x")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	s.Reset()
	if s.Len() != 0 || s.HasRow("pump", "", "x") {
		t.Error("expected empty store after reset")
	}
}
