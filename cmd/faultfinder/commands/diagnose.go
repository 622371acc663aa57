// ABOUTME: CLI command to diagnose a fault description against the index
// ABOUTME: Prints ranked matches with root causes and corrective actions
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/faultfinder/internal/query"
	"github.com/joho/godotenv"
)

var (
	diagnoseComponent string
	diagnoseModel     string
	diagnoseTopK      int
)

// NewDiagnoseCmd creates the diagnose command.
func NewDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose <query>",
		Short: "Find similar prior faults",
		Long: `Diagnose a free-text fault description against the index.

Returns the most similar prior fault records with their root causes
and corrective actions, ranked by cosine similarity.

Examples:
  faultfinder diagnose "bearing overheating under load"
  faultfinder diagnose --component pump "pressure dropping"
  faultfinder diagnose --top-k 10 --format json "vibration at high rpm"`,
		Args: cobra.ExactArgs(1),
		RunE: runDiagnose,
	}

	cmd.Flags().StringVar(&diagnoseComponent, "component", "", "Filter by component")
	cmd.Flags().StringVar(&diagnoseModel, "model", "", "Filter by model within the component")
	cmd.Flags().IntVar(&diagnoseTopK, "top-k", 5, "Maximum results to return")

	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	if err := validatePositiveInt(diagnoseTopK, "top-k"); err != nil {
		return err
	}

	stk, err := openStack()
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(stk.cfg)
	if err != nil {
		return err
	}

	engine := query.New(stk.store, stk.index, embedder)
	results, err := engine.Diagnose(cmd.Context(), args[0], diagnoseComponent, diagnoseModel, diagnoseTopK)
	if err != nil {
		return fmt.Errorf("diagnosing: %w", err)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching fault records found")
		}
		return nil
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tCOMPONENT\tMODEL\tFAULT\tCORRECTIVE ACTION\n")
	fmt.Fprintf(w, "-----\t---------\t-----\t-----\t-----------------\n")
	for _, r := range results {
		model := r.Record.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\t%s\n",
			r.Score,
			r.Record.Component,
			model,
			truncate(r.Record.FaultDescription, 40),
			truncate(r.Record.CorrectiveAction, 40))
	}
	return w.Flush()
}
