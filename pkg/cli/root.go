package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root skilljack command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skilljack",
		Short: "Skill evaluation scoring",
		Long: `skilljack scores recorded agent trials against skill tasks.
It combines deterministic evidence checks with an LLM judge and aggregates
repeated trials of the same task into one representative result.`,
	}

	rootCmd.AddCommand(NewScoreCmd())
	rootCmd.AddCommand(NewSummaryCmd())
	rootCmd.AddCommand(NewValidateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
