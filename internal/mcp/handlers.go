// ABOUTME: MCP tool handler implementations for the fault diagnosis server
// ABOUTME: Maps tool calls onto the query engine and ingestion pipeline
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/models"
	"github.com/harper/faultfinder/internal/query"
	"github.com/harper/faultfinder/internal/snapshot"
	"github.com/harper/faultfinder/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers contains the handler functions for all MCP tools.
type Handlers struct {
	engine       *query.Engine
	pipeline     *ingest.Pipeline
	store        *store.Store
	index        *index.Index
	snapshotPath string
	ingestMu     sync.Mutex // single ingestion run at a time
}

// DiagnoseFault handles the diagnose_fault tool.
func (h *Handlers) DiagnoseFault(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	component := request.GetString("component", "")
	model := request.GetString("model", "")
	topK := request.GetInt("top_k", 5)

	results, err := h.engine.Diagnose(ctx, queryText, component, model, topK)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagnose failed: %v", err)), nil
	}

	matches := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		matches = append(matches, map[string]interface{}{
			"component":                 r.Record.Component,
			"model":                     r.Record.Model,
			"matched_fault_description": r.Record.FaultDescription,
			"root_cause":                r.Record.RootCause,
			"corrective_action":         r.Record.CorrectiveAction,
			"similarity":                r.Score,
		})
	}

	responseJSON, err := json.Marshal(map[string]interface{}{"results": matches})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// IngestFaultRecords handles the ingest_fault_records tool. A successful
// run flushes a fresh snapshot to disk.
func (h *Handlers) IngestFaultRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return mcp.NewToolResultError("rows argument is required"), nil
	}
	rowsRaw, exists := args["rows"]
	if !exists {
		return mcp.NewToolResultError("rows argument is required"), nil
	}

	// Round-trip through JSON to turn the loosely-typed argument into rows.
	rowsJSON, err := json.Marshal(rowsRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rows argument: %v", err)), nil
	}
	var rows []models.IngestRow
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rows argument: %v", err)), nil
	}

	mode, err := ingest.ParseMode(request.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.ingestMu.Lock()
	defer h.ingestMu.Unlock()

	summary, err := h.pipeline.IngestRows(ctx, rows, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingestion aborted: %v", err)), nil
	}
	if err := snapshot.Save(h.snapshotPath, h.store, h.index); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("persisting snapshot: %v", err)), nil
	}

	responseJSON, err := json.Marshal(summary)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ListComponents handles the list_components tool.
func (h *Handlers) ListComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(map[string]interface{}{
		"components": h.engine.ListComponents(),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// ListModels handles the list_models tool.
func (h *Handlers) ListModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	component, err := request.RequireString("component")
	if err != nil {
		return mcp.NewToolResultError("component argument is required and must be a string"), nil
	}
	responseJSON, err := json.Marshal(map[string]interface{}{
		"models": h.engine.ListModels(component),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// IndexHealth handles the index_health tool.
func (h *Handlers) IndexHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(h.engine.Health())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
