// ABOUTME: Core data model for fault records, embeddings, and query results
// ABOUTME: Defines the strict internal types built from loosely-typed ingestion rows
package models

import "time"

// FaultRecord is one canonical fault case. Textual fields are immutable once
// persisted; corrections create a new record with a new ID so the cached
// embedding never goes stale.
type FaultRecord struct {
	ID               string    `json:"id"`
	Component        string    `json:"component"`
	Model            string    `json:"model,omitempty"`
	FaultDescription string    `json:"fault_description"`
	RootCause        string    `json:"root_cause"`
	CorrectiveAction string    `json:"corrective_action"`
	CreatedAt        time.Time `json:"created_at"`
}

// QueryResult pairs a matched record with its cosine similarity in [-1, 1].
type QueryResult struct {
	Record FaultRecord `json:"record"`
	Score  float64     `json:"score"`
}

// IngestRow is one raw input row from CSV or the API, validated at the
// ingestion boundary before it becomes a FaultRecord.
type IngestRow struct {
	Component        string `json:"component"`
	Model            string `json:"model,omitempty"`
	FaultDescription string `json:"fault_description"`
	RootCause        string `json:"root_cause"`
	CorrectiveAction string `json:"corrective_action"`
}

// RowError reports why a single row was rejected or failed. Row is the
// zero-based position in the submitted batch.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// IngestSummary reports the outcome of one ingestion run. Partial success
// is normal: rejected and failed rows never abort the batch.
type IngestSummary struct {
	Accepted int        `json:"accepted"`
	Skipped  int        `json:"skipped"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors"`
}

// HealthStatus is the health snapshot exposed to the HTTP/MCP layer.
type HealthStatus struct {
	Status             string `json:"status"`
	RecordCount        int    `json:"record_count"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}
