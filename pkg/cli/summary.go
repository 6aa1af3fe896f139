package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olaservo/skilljack-evals/pkg/results"
)

// NewSummaryCmd creates the summary command
func NewSummaryCmd() *cobra.Command {
	var filter string
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "summary [results-file]",
		Short: "Summarize a scored results file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := results.Load(args[0])
			if err != nil {
				return err
			}

			filtered := results.Filter(loaded, filter)
			stats := results.CalculateStats(args[0], filtered)

			switch outputFormat {
			case "json":
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(stats)

			case "text":
				displayStats(stats)
				for _, r := range filtered {
					fmt.Printf("\n%s: %.2f (%s)\n", r.TaskName, r.Score.WeightedScore, r.Score.FailureCategory)
					fmt.Printf("  %s\n", r.Score.Reasoning)
				}
				return nil

			default:
				return fmt.Errorf("unknown output format: %s", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only include tasks whose name contains this substring")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")

	return cmd
}
