// ABOUTME: Query engine translating free-text fault queries into ranked records
// ABOUTME: Embeds the query, delegates ranking to the index, joins records from the store
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/llm"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/store"
)

// ErrInvalidQuery is returned for empty query text or a non-positive k.
var ErrInvalidQuery = errors.New("invalid query")

// Engine answers diagnose queries and listing requests. It never mutates
// the store or index; ranking stays single-sourced in the index and the
// engine performs no secondary re-ordering.
type Engine struct {
	store    *store.Store
	index    *index.Index
	embedder llm.Embedder
}

// New creates a query engine over the given store and index.
func New(st *store.Store, ix *index.Index, embedder llm.Embedder) *Engine {
	return &Engine{store: st, index: ix, embedder: embedder}
}

// Diagnose embeds queryText and returns the top-k most similar fault
// records, optionally filtered by component and model. A provider failure
// is reported immediately; there is no degraded fallback ranking.
func (e *Engine) Diagnose(ctx context.Context, queryText, component, model string, k int) ([]models.QueryResult, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return nil, fmt.Errorf("%w: query text must not be empty", ErrInvalidQuery)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidQuery, k)
	}

	queryVector, err := e.embedder.EmbedText(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	filter := index.Filter{
		Component: models.NormalizeComponent(component),
		Model:     models.NormalizeModel(model),
	}
	matches, err := e.index.Search(queryVector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	results := make([]models.QueryResult, 0, len(matches))
	for _, m := range matches {
		rec, ok := e.store.Get(m.RecordID)
		if !ok {
			// A vector without its record violates the no-orphan invariant.
			return nil, fmt.Errorf("vector %s has no matching record", m.RecordID)
		}
		results = append(results, models.QueryResult{Record: rec, Score: m.Score})
	}
	return results, nil
}

// ListComponents returns the sorted component labels present in the store.
func (e *Engine) ListComponents() []string {
	return e.store.Components()
}

// ListModels returns the sorted model labels under a component.
func (e *Engine) ListModels(component string) []string {
	return e.store.Models(models.NormalizeComponent(component))
}

// Health reports the record count and embedding dimensionality.
func (e *Engine) Health() models.HealthStatus {
	return models.HealthStatus{
		Status:             "ok",
		RecordCount:        e.store.Len(),
		EmbeddingDimension: e.index.Dimension(),
	}
}
