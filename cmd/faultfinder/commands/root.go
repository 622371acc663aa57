// ABOUTME: Root CLI command with global flags
// ABOUTME: Wires build, diagnose, listing, mcp, and version subcommands
package commands

import (
	"github.com/spf13/cobra"
)

var (
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faultfinder",
		Short: "Fault diagnosis retrieval engine",
		Long: `faultfinder indexes prior fault records and finds the most similar
cases for a free-text fault description, returning their root causes
and corrective actions.

Records are embedded with OpenAI text embeddings and ranked by cosine
similarity with exact scan over the corpus.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table or json")

	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewDiagnoseCmd())
	cmd.AddCommand(NewComponentsCmd())
	cmd.AddCommand(NewModelsCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
