// ABOUTME: CLI commands to list components and models present in the index
// ABOUTME: Reads the persisted snapshot without touching the embedding provider
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/faultfinder/internal/models"
)

// NewComponentsCmd creates the components command.
func NewComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List component labels in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := openStack()
			if err != nil {
				return err
			}
			return printLabels(cmd, "components", stk.store.Components())
		},
	}
}

// NewModelsCmd creates the models command.
func NewModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models <component>",
		Short: "List model labels under a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stk, err := openStack()
			if err != nil {
				return err
			}
			return printLabels(cmd, "models", stk.store.Models(models.NormalizeComponent(args[0])))
		},
	}
}

func printLabels(cmd *cobra.Command, key string, labels []string) error {
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(map[string][]string{key: labels}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}
	if len(labels) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s found\n", key)
		}
		return nil
	}
	for _, label := range labels {
		fmt.Fprintln(cmd.OutOrStdout(), label)
	}
	return nil
}
