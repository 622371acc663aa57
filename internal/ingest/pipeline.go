// ABOUTME: Ingestion pipeline turning raw rows into indexed fault records
// ABOUTME: Validates, dedups, embeds outside locks, and merges store+index as one unit
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/llm"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/store"
	"go.uber.org/zap"
)

// Mode selects between appending new rows and rebuilding from scratch.
type Mode string

const (
	// Incremental appends rows not already present; duplicates are skipped
	// without re-embedding.
	Incremental Mode = "incremental"

	// Rebuild discards the store and index first and treats the full row
	// set as the source of truth.
	Rebuild Mode = "rebuild"
)

// ParseMode parses a mode string, defaulting empty to Incremental.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return Incremental, nil
	case Incremental, Rebuild:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown ingestion mode %q", s)
	}
}

// Pipeline merges validated rows into the record store and vector index.
// At most one ingestion run should be active at a time; runs overlap freely
// with concurrent queries.
type Pipeline struct {
	store    *store.Store
	index    *index.Index
	embedder llm.Embedder
	logger   *zap.Logger
	now      func() time.Time
}

// New creates an ingestion pipeline.
func New(st *store.Store, ix *index.Index, embedder llm.Embedder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:    st,
		index:    ix,
		embedder: embedder,
		logger:   logger,
		now:      time.Now,
	}
}

// pendingRow is a validated row awaiting embedding, remembering its
// position in the submitted batch for error reporting.
type pendingRow struct {
	pos int
	row models.IngestRow
}

// IngestRows validates, dedups, embeds, and merges rows. Malformed rows
// and rows whose embedding fails after the retry ceiling are collected in
// the summary and never abort the batch. Structural failures (cancelled
// context, consistency violations) abort the run with an error.
func (p *Pipeline) IngestRows(ctx context.Context, rows []models.IngestRow, mode Mode) (*models.IngestSummary, error) {
	if mode == Rebuild {
		p.logger.Info("rebuild requested, clearing store and index",
			zap.Int("previous_records", p.store.Len()))
		p.store.Reset()
		p.index.Reset()
	}

	summary := &models.IngestSummary{}
	var pending []pendingRow
	pendingKeys := make(map[string]struct{})

	for i, raw := range rows {
		row, err := validateRow(raw)
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, models.RowError{Row: i, Reason: err.Error()})
			continue
		}
		if mode == Incremental {
			if p.store.HasRow(row.Component, row.Model, row.FaultDescription) {
				summary.Skipped++
				continue
			}
			// Dedup also applies within the batch itself, so identical rows
			// in one submission cost a single embedding call.
			key := row.Component + "\x00" + row.Model + "\x00" + row.FaultDescription
			if _, dup := pendingKeys[key]; dup {
				summary.Skipped++
				continue
			}
			pendingKeys[key] = struct{}{}
		}
		pending = append(pending, pendingRow{pos: i, row: row})
	}

	for _, pr := range pending {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ingestion aborted: %w", err)
		}

		// Embedding happens before any write lock is taken; a provider
		// call must never stall concurrent queries.
		vector, err := p.embedder.EmbedText(ctx, pr.row.FaultDescription)
		if err != nil {
			// Only cancellation of the run's own context aborts the batch.
			// A provider that hangs past its per-call timeout surfaces as a
			// ProviderError and fails the row like any other provider error.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("ingestion aborted: %w", ctx.Err())
			}
			p.logger.Warn("embedding failed for row",
				zap.Int("row", pr.pos),
				zap.String("component", pr.row.Component),
				zap.Error(err))
			summary.Failed++
			summary.Errors = append(summary.Errors, models.RowError{Row: pr.pos, Reason: err.Error()})
			continue
		}

		if err := p.merge(pr.row, vector); err != nil {
			// A dimension mismatch or duplicate here means the in-memory
			// state is inconsistent with the provider contract. Never
			// repaired silently.
			return nil, fmt.Errorf("row %d: %w", pr.pos, err)
		}
		summary.Accepted++
	}

	p.logger.Info("ingestion run finished",
		zap.String("mode", string(mode)),
		zap.Int("accepted", summary.Accepted),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// merge inserts the record and its vector as one unit: a vector insertion
// failure rolls the record back so no orphan record survives.
func (p *Pipeline) merge(row models.IngestRow, vector []float64) error {
	rec := models.FaultRecord{
		ID:               uuid.NewString(),
		Component:        row.Component,
		Model:            row.Model,
		FaultDescription: row.FaultDescription,
		RootCause:        row.RootCause,
		CorrectiveAction: row.CorrectiveAction,
		CreatedAt:        p.now().UTC(),
	}

	if err := p.store.Insert(rec); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	if err := p.index.Insert(rec.ID, vector, rec.Component, rec.Model, rec.CreatedAt); err != nil {
		if rbErr := p.store.Remove(rec.ID); rbErr != nil {
			return fmt.Errorf("inserting vector: %w (rollback also failed: %v)", err, rbErr)
		}
		return fmt.Errorf("inserting vector: %w", err)
	}
	return nil
}

// validateRow checks required fields and normalizes labels, returning the
// strict internal row. Model stays optional.
func validateRow(raw models.IngestRow) (models.IngestRow, error) {
	component := models.NormalizeComponent(raw.Component)
	if component == "" {
		return models.IngestRow{}, errors.New("component must not be empty")
	}
	if !models.IsReasonableComponent(component) {
		return models.IngestRow{}, fmt.Errorf("component %q is not a valid label", raw.Component)
	}

	row := models.IngestRow{
		Component:        component,
		Model:            models.NormalizeModel(raw.Model),
		FaultDescription: strings.TrimSpace(raw.FaultDescription),
		RootCause:        strings.TrimSpace(raw.RootCause),
		CorrectiveAction: strings.TrimSpace(raw.CorrectiveAction),
	}
	if row.FaultDescription == "" {
		return models.IngestRow{}, errors.New("fault_description must not be empty")
	}
	if row.RootCause == "" {
		return models.IngestRow{}, errors.New("root_cause must not be empty")
	}
	if row.CorrectiveAction == "" {
		return models.IngestRow{}, errors.New("corrective_action must not be empty")
	}
	return row, nil
}
