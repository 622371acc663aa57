// ABOUTME: MCP tool definitions and registration for the fault diagnosis server
// ABOUTME: Defines JSON schemas for the five diagnosis tools
package mcp

import (
	"github.com/harper/faultfinder/internal/index"
	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/query"
	"github.com/harper/faultfinder/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(server *mcpserver.MCPServer, engine *query.Engine, pipeline *ingest.Pipeline, st *store.Store, ix *index.Index, snapshotPath string) *Handlers {
	handlers := &Handlers{
		engine:       engine,
		pipeline:     pipeline,
		store:        st,
		index:        ix,
		snapshotPath: snapshotPath,
	}

	// 1. diagnose_fault - rank prior fault records against a free-text description
	server.AddTool(mcp.Tool{
		Name:        "diagnose_fault",
		Description: "Find the most similar prior fault records for a free-text fault description and return their root causes and corrective actions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text fault description",
				},
				"component": map[string]interface{}{
					"type":        "string",
					"description": "Optional component filter (e.g. motor, pump, compressor)",
				},
				"model": map[string]interface{}{
					"type":        "string",
					"description": "Optional model filter within the component",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of matches to return (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.DiagnoseFault)

	// 2. ingest_fault_records - append fault records to the index
	server.AddTool(mcp.Tool{
		Name:        "ingest_fault_records",
		Description: "Ingest fault records into the index. Incremental mode skips rows already present; rebuild mode reprocesses the given rows as the full source of truth.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rows": map[string]interface{}{
					"type":        "array",
					"description": "Fault rows with component, fault_description, root_cause, corrective_action, and optional model",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"component":         map[string]interface{}{"type": "string"},
							"model":             map[string]interface{}{"type": "string"},
							"fault_description": map[string]interface{}{"type": "string"},
							"root_cause":        map[string]interface{}{"type": "string"},
							"corrective_action": map[string]interface{}{"type": "string"},
						},
						"required": []string{"component", "fault_description", "root_cause", "corrective_action"},
					},
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Ingestion mode: incremental (default) or rebuild",
					"enum":        []string{"incremental", "rebuild"},
				},
			},
			Required: []string{"rows"},
		},
	}, handlers.IngestFaultRecords)

	// 3. list_components - component labels present in the store
	server.AddTool(mcp.Tool{
		Name:        "list_components",
		Description: "List the component labels present in the fault record store.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListComponents)

	// 4. list_models - model labels under one component
	server.AddTool(mcp.Tool{
		Name:        "list_models",
		Description: "List the model labels recorded under a component.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"component": map[string]interface{}{
					"type":        "string",
					"description": "Component to list models for",
				},
			},
			Required: []string{"component"},
		},
	}, handlers.ListModels)

	// 5. index_health - record count and embedding dimension
	server.AddTool(mcp.Tool{
		Name:        "index_health",
		Description: "Report index health: record count and embedding dimensionality.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexHealth)

	return handlers
}
