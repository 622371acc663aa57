// ABOUTME: Durable snapshot of record store + vector index as one atomic unit
// ABOUTME: Versioned JSON written to a temp file and renamed over the target
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/store"
)

// FormatVersion tags the snapshot layout for forward-compatible evolution.
const FormatVersion = 1

// ErrCorruptSnapshot marks integrity violations in a persisted snapshot:
// inconsistent dimensionality, orphan vectors or records, duplicate ids, or
// an unknown format version. These require a rebuild, never silent repair.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

type snapshotEntry struct {
	Record models.FaultRecord `json:"record"`
	Vector []float64          `json:"vector"`
}

type snapshotFile struct {
	Version   int             `json:"version"`
	Dimension int             `json:"dimension"`
	Entries   []snapshotEntry `json:"entries"`
}

// Save serializes all records and their vectors to path, writing to a
// temporary file in the same directory and atomically renaming it, so a
// crash mid-write never corrupts the previously valid snapshot.
//
// The vector set is read atomically from the index first; records are
// inserted before vectors during ingestion, so every indexed id has its
// record. A missing record is a genuine integrity violation.
func Save(path string, st *store.Store, ix *index.Index) error {
	vectors := ix.Entries()

	file := snapshotFile{
		Version:   FormatVersion,
		Dimension: ix.Dimension(),
		Entries:   make([]snapshotEntry, 0, len(vectors)),
	}
	for _, ve := range vectors {
		rec, ok := st.Get(ve.RecordID)
		if !ok {
			return fmt.Errorf("vector %s has no matching record: %w", ve.RecordID, ErrCorruptSnapshot)
		}
		file.Entries = append(file.Entries, snapshotEntry{Record: rec, Vector: ve.Values})
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(file); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot and populates st and ix, which must be empty.
// Returns an error wrapping os.ErrNotExist when no snapshot exists, so the
// caller can fall back to building from the seed source.
func Load(path string, st *store.Store, ix *index.Index) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var file snapshotFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return fmt.Errorf("decoding snapshot: %w: %v", ErrCorruptSnapshot, err)
	}
	if file.Version != FormatVersion {
		return fmt.Errorf("unsupported snapshot version %d: %w", file.Version, ErrCorruptSnapshot)
	}

	for _, entry := range file.Entries {
		rec := entry.Record
		if rec.ID == "" {
			return fmt.Errorf("entry without record id: %w", ErrCorruptSnapshot)
		}
		if len(entry.Vector) == 0 {
			return fmt.Errorf("record %s has no vector: %w", rec.ID, ErrCorruptSnapshot)
		}
		if file.Dimension != 0 && len(entry.Vector) != file.Dimension {
			return fmt.Errorf("record %s: vector dimension %d does not match snapshot dimension %d: %w",
				rec.ID, len(entry.Vector), file.Dimension, ErrCorruptSnapshot)
		}
		if err := st.Insert(rec); err != nil {
			return fmt.Errorf("record %s: %v: %w", rec.ID, err, ErrCorruptSnapshot)
		}
		if err := ix.Insert(rec.ID, entry.Vector, rec.Component, rec.Model, rec.CreatedAt); err != nil {
			return fmt.Errorf("vector %s: %v: %w", rec.ID, err, ErrCorruptSnapshot)
		}
	}
	return nil
}
