// ABOUTME: In-memory vector index with exact cosine-similarity scan
// ABOUTME: Filter pushdown via component/model id sets, single-writer multi-reader locking
package index

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Filter restricts a search to one component and optionally one model
// within it. Empty fields mean no restriction. Labels are expected to be
// normalized by the caller.
type Filter struct {
	Component string
	Model     string
}

// Result is one ranked match from Search. The caller joins RecordID back
// to the record store; the index never owns record payloads.
type Result struct {
	RecordID string
	Score    float64
}

// VectorEntry is an atomic read of one stored vector, used by the
// persistence layer to snapshot the index without observing partial state.
type VectorEntry struct {
	RecordID string
	Values   []float64
}

type entry struct {
	values    []float64
	norm      float64
	component string
	model     string
	createdAt time.Time
}

// Index stores one embedding per record and answers exact top-k cosine
// similarity queries. It supports many concurrent readers overlapping with
// one writer; the write lock is held per insertion, never across provider
// calls.
type Index struct {
	mu        sync.RWMutex
	dim       int // 0 until the first insertion fixes it
	entries   map[string]*entry
	byComp    map[string]map[string]struct{}
	byCompMod map[string]map[string]struct{}
}

// New creates an empty index. The dimensionality is fixed by the first
// insertion.
func New() *Index {
	return &Index{
		entries:   make(map[string]*entry),
		byComp:    make(map[string]map[string]struct{}),
		byCompMod: make(map[string]map[string]struct{}),
	}
}

func compModKey(component, model string) string {
	return component + "\x00" + model
}

// Insert adds the embedding for a record along with its filter metadata.
// The first insertion into an empty index fixes the dimensionality.
func (ix *Index) Insert(recordID string, values []float64, component, model string, createdAt time.Time) error {
	norm := euclideanNorm(values)
	if norm == 0 {
		return ErrDegenerateVector
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.entries[recordID]; exists {
		return ErrDuplicateID
	}
	if ix.dim == 0 {
		ix.dim = len(values)
	} else if len(values) != ix.dim {
		return &DimensionError{Want: ix.dim, Got: len(values)}
	}

	ix.entries[recordID] = &entry{
		values:    values,
		norm:      norm,
		component: component,
		model:     model,
		createdAt: createdAt,
	}
	addToSet(ix.byComp, component, recordID)
	addToSet(ix.byCompMod, compModKey(component, model), recordID)
	return nil
}

// Remove deletes the embedding for a record. Only rebuild/replace flows
// remove vectors; normal ingestion is append-only.
func (ix *Index) Remove(recordID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, ok := ix.entries[recordID]
	if !ok {
		return ErrNotFound
	}
	delete(ix.entries, recordID)
	removeFromSet(ix.byComp, e.component, recordID)
	removeFromSet(ix.byCompMod, compModKey(e.component, e.model), recordID)
	if len(ix.entries) == 0 {
		ix.dim = 0
	}
	return nil
}

// Search returns the k highest-scoring records for the query vector,
// optionally restricted by filter. The scan is exact: every vector in the
// filtered candidate set is scored. Results are sorted by descending score,
// ties broken by earlier creation time then record id. Fewer than k results
// are returned when the filtered set is smaller; an empty filtered set
// yields an empty result, not an error.
func (ix *Index) Search(query []float64, k int, filter Filter) ([]Result, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	queryNorm := euclideanNorm(query)
	if queryNorm == 0 {
		return nil, ErrDegenerateVector
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.dim != 0 && len(query) != ix.dim {
		return nil, &DimensionError{Want: ix.dim, Got: len(query)}
	}

	type scored struct {
		id        string
		score     float64
		createdAt time.Time
	}

	var candidates []scored
	for id := range ix.candidateSet(filter) {
		e := ix.entries[id]
		var dot float64
		for i, v := range e.values {
			dot += v * query[i]
		}
		candidates = append(candidates, scored{
			id:        id,
			score:     dot / (queryNorm * e.norm),
			createdAt: e.createdAt,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].createdAt.Equal(candidates[j].createdAt) {
			return candidates[i].createdAt.Before(candidates[j].createdAt)
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{RecordID: c.id, Score: c.score}
	}
	return results, nil
}

// candidateSet resolves the filter to a set of record ids using the
// secondary mappings, so the scan never scores vectors it would discard.
// Caller must hold at least a read lock.
func (ix *Index) candidateSet(filter Filter) map[string]struct{} {
	if filter.Component == "" {
		all := make(map[string]struct{}, len(ix.entries))
		for id := range ix.entries {
			all[id] = struct{}{}
		}
		return all
	}
	if filter.Model == "" {
		return ix.byComp[filter.Component]
	}
	return ix.byCompMod[compModKey(filter.Component, filter.Model)]
}

// Vector returns the stored values for a record id.
func (ix *Index) Vector(recordID string) ([]float64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[recordID]
	if !ok {
		return nil, false
	}
	return e.values, true
}

// Entries returns an atomic snapshot of every stored vector, for the
// persistence layer. A save is a long read: it sees either the pre- or
// post-insertion state of any record, never a half-inserted one.
func (ix *Index) Entries() []VectorEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]VectorEntry, 0, len(ix.entries))
	for id, e := range ix.entries {
		out = append(out, VectorEntry{RecordID: id, Values: e.values})
	}
	return out
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Dimension returns the embedding dimensionality, or 0 while empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Reset discards all vectors and unfixes the dimensionality. Used by
// rebuild flows only.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = 0
	ix.entries = make(map[string]*entry)
	ix.byComp = make(map[string]map[string]struct{})
	ix.byCompMod = make(map[string]map[string]struct{})
}

func euclideanNorm(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func addToSet(sets map[string]map[string]struct{}, key, id string) {
	set, ok := sets[key]
	if !ok {
		set = make(map[string]struct{})
		sets[key] = set
	}
	set[id] = struct{}{}
}

func removeFromSet(sets map[string]map[string]struct{}, key, id string) {
	if set, ok := sets[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(sets, key)
		}
	}
}
