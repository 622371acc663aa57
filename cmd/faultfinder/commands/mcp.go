// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to diagnose faults and ingest records via stdio
package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/mcp"
	"github.com/harper/faultfinder/internal/query"
	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents.

Runs faultfinder as an MCP (Model Context Protocol) server over stdio,
exposing diagnose, ingest, and listing tools.`,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !quiet {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Println("Warning: OPENAI_API_KEY not set - embedding-backed tools will not work")
	}

	stk, err := openStack()
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(stk.cfg)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}

	engine := query.New(stk.store, stk.index, embedder)
	pipeline := ingest.New(stk.store, stk.index, embedder, nil)

	server := mcpserver.NewMCPServer(
		"Fault Diagnosis Engine",
		"0.1.0",
	)
	mcp.RegisterTools(server, engine, pipeline, stk.store, stk.index, stk.cfg.SnapshotPath)

	log.Println("faultfinder MCP server starting on stdio...")
	return mcpserver.ServeStdio(server)
}
