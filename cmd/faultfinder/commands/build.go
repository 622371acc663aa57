// ABOUTME: CLI command to build or update the index from a CSV source
// ABOUTME: Supports incremental append and full rebuild with snapshot flush
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/faultfinder/internal/ingest"
	"github.com/harper/faultfinder/internal/snapshot"
	"github.com/joho/godotenv"
)

var (
	buildCSVPath string
	buildRebuild bool
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or update the index from CSV",
		Long: `Build or update the fault index from a CSV source.

Incremental mode (the default) embeds and appends only rows not already
present. With --rebuild, the existing index is discarded and the CSV is
treated as the full source of truth.

Examples:
  faultfinder build
  faultfinder build --csv data/faults.csv
  faultfinder build --rebuild`,
		RunE: runBuild,
	}

	cmd.Flags().StringVar(&buildCSVPath, "csv", "", "CSV source path (defaults to FAULTS_CSV)")
	cmd.Flags().BoolVar(&buildRebuild, "rebuild", false, "Rebuild index from scratch")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	stk, err := openStack()
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(stk.cfg)
	if err != nil {
		return err
	}

	csvPath := buildCSVPath
	if csvPath == "" {
		csvPath = stk.cfg.CSVPath
	}
	rows, err := ingest.ReadCSVRows(csvPath)
	if err != nil {
		return err
	}

	mode := ingest.Incremental
	if buildRebuild {
		mode = ingest.Rebuild
	}

	pipeline := ingest.New(stk.store, stk.index, embedder, nil)
	summary, err := pipeline.IngestRows(cmd.Context(), rows, mode)
	if err != nil {
		return fmt.Errorf("ingesting rows: %w", err)
	}

	if err := snapshot.Save(stk.cfg.SnapshotPath, stk.store, stk.index); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Accepted: %d  Skipped: %d  Failed: %d\n",
			summary.Accepted, summary.Skipped, summary.Failed)
		for _, re := range summary.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  row %d: %s\n", re.Row, re.Reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Index now holds %d records\n", stk.store.Len())
	}
	return nil
}
