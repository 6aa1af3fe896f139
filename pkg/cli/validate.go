package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/olaservo/skilljack-evals/pkg/task"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [task-file...]",
		Short: "Validate task definition files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)

			failures := 0
			for _, path := range args {
				t, err := task.FromFile(path)
				if err != nil {
					red.Printf("✗ %s: %v\n", path, err)
					failures++
					continue
				}
				green.Printf("✓ %s (%s)\n", path, t.Metadata.Name)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d task file(s) failed validation", failures, len(args))
			}

			return nil
		},
	}

	return cmd
}
