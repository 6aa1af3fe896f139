package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/results"
	"github.com/olaservo/skilljack-evals/pkg/runner"
	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
	"github.com/olaservo/skilljack-evals/pkg/util"
)

// Judge credentials come through the environment, keyed by these names.
const (
	envJudgeBaseURL = "SKILLJACK_JUDGE_BASE_URL"
	envJudgeAPIKey  = "SKILLJACK_JUDGE_API_KEY"
	envJudgeModel   = "SKILLJACK_JUDGE_MODEL"
)

// NewScoreCmd creates the score command
func NewScoreCmd() *cobra.Command {
	var tasksGlob string
	var trialsFile string
	var outputFile string
	var noJudge bool
	var concurrency int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score recorded trials against skill tasks",
		Long: `Score loads task definitions and the trial records produced by the
execution harness, runs the deterministic and judge evaluators over every
trial, and writes one aggregated score per task.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(tasksGlob)
			if err != nil {
				return err
			}

			trials, err := trial.FromFile(trialsFile)
			if err != nil {
				return fmt.Errorf("failed to load trials: %w", err)
			}

			var j judge.Judge
			if !noJudge {
				j, err = judge.New(&judge.Config{
					Env: &judge.EnvConfig{
						BaseUrlKey:   envJudgeBaseURL,
						ApiKeyKey:    envJudgeAPIKey,
						ModelNameKey: envJudgeModel,
					},
				})
				if err != nil {
					return fmt.Errorf("failed to create judge (use --no-judge to score deterministically only): %w", err)
				}
			}

			display := newProgressDisplay(verbose)

			ctx := util.WithVerbose(context.Background(), verbose)
			scored, err := runner.NewRunner(j, concurrency).
				ScoreAll(ctx, tasks, trial.GroupByTask(trials), display.handleProgress)
			if err != nil {
				return fmt.Errorf("scoring failed: %w", err)
			}

			if err := saveResultsToFile(scored, outputFile); err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}
			fmt.Printf("\nResults saved to: %s\n", outputFile)

			displayStats(results.CalculateStats(outputFile, scored))

			return nil
		},
	}

	cmd.Flags().StringVar(&tasksGlob, "tasks", "tasks/*.yaml", "Glob of task definition files")
	cmd.Flags().StringVar(&trialsFile, "trials", "", "JSON file of recorded trials (required)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "skilljack-scores.json", "Output file for scored results")
	cmd.Flags().BoolVar(&noJudge, "no-judge", false, "Skip the LLM judge and score deterministically only")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum concurrent judge calls")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	_ = cmd.MarkFlagRequired("trials")

	return cmd
}

func loadTasks(glob string) ([]*task.Task, error) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", glob, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no task files match %s", glob)
	}

	tasks := make([]*task.Task, 0, len(paths))
	for _, path := range paths {
		t, err := task.FromFile(path)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// progressDisplay handles interactive progress display
type progressDisplay struct {
	verbose bool
	green   *color.Color
	red     *color.Color
	yellow  *color.Color
	cyan    *color.Color
	bold    *color.Color
}

func newProgressDisplay(verbose bool) *progressDisplay {
	return &progressDisplay{
		verbose: verbose,
		green:   color.New(color.FgGreen),
		red:     color.New(color.FgRed),
		yellow:  color.New(color.FgYellow),
		cyan:    color.New(color.FgCyan),
		bold:    color.New(color.Bold),
	}
}

func (d *progressDisplay) handleProgress(event runner.ProgressEvent) {
	switch event.Type {
	case runner.EventScoringStart:
		d.bold.Println("\n=== Scoring Trials ===")

	case runner.EventTaskStart:
		if d.verbose {
			fmt.Println()
			d.cyan.Printf("%s\n", event.Message)
		}

	case runner.EventTaskScored:
		s := event.Result.Score
		line := fmt.Sprintf("  %s: %.2f over %d trial(s)", event.Result.TaskName, s.WeightedScore, s.Trials)
		switch {
		case s.WeightedScore >= 0.8:
			d.green.Println(line)
		case s.WeightedScore >= 0.5:
			d.yellow.Println(line)
		default:
			d.red.Println(line)
			fmt.Printf("    category: %s\n", s.FailureCategory)
		}

	case runner.EventTaskError:
		d.red.Printf("  ✗ %s\n", event.Message)

	case runner.EventScoringComplete:
		fmt.Println()
		d.bold.Println("=== Scoring Complete ===")
	}
}

func displayStats(stats results.Stats) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Println("=== Overall Statistics ===")
	fmt.Printf("Tasks: %d (%d trials)\n", stats.TasksTotal, stats.TrialsTotal)
	fmt.Printf("Mean weighted score: %.3f\n", stats.MeanWeightedScore)
	fmt.Printf("Discovery rate: %.0f%%\n", stats.DiscoveryRate*100)
	fmt.Printf("Mean adherence: %.2f/5, mean output quality: %.2f/5\n",
		stats.MeanAdherence, stats.MeanOutputQuality)

	for category, count := range stats.FailureCategories {
		if category != "none" && count > 0 {
			fmt.Printf("  %s: %d task(s)\n", category, count)
		}
	}
}

func saveResultsToFile(scored []*runner.TaskResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(scored); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	return nil
}
