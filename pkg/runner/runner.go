// Package runner drives the scoring pipeline: each trial of a task is
// checked deterministically and assessed by the judge, the two are merged,
// and repeated trials are aggregated into one result per task.
package runner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/olaservo/skilljack-evals/pkg/deterministic"
	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/score"
	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
	"github.com/olaservo/skilljack-evals/pkg/util"
)

const defaultConcurrency = 4

// TaskResult is the scored outcome for one task across all of its trials.
type TaskResult struct {
	TaskName       string                 `json:"taskName"`
	Representative *trial.Trial           `json:"representative"`
	Score          *score.AggregatedScore `json:"score"`
	TrialScores    []*score.CombinedScore `json:"trialScores"`
}

type Runner interface {
	// ScoreTask scores all trials of one task and aggregates them.
	ScoreTask(ctx context.Context, t *task.Task, trials []*trial.Trial) (*TaskResult, error)

	// ScoreAll scores every task against its recorded trials. Tasks with
	// no trials are reported as errors but do not abort the batch.
	ScoreAll(ctx context.Context, tasks []*task.Task, trialsByTask map[string][]*trial.Trial, callback ProgressCallback) ([]*TaskResult, error)
}

type scoreRunner struct {
	judge       judge.Judge
	concurrency int
}

var _ Runner = &scoreRunner{}

// NewRunner creates a Runner. j may be nil to score deterministically
// only. concurrency bounds how many judge calls run at once; values < 1
// use a default.
func NewRunner(j judge.Judge, concurrency int) Runner {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return &scoreRunner{
		judge:       j,
		concurrency: concurrency,
	}
}

func (r *scoreRunner) ScoreTask(ctx context.Context, t *task.Task, trials []*trial.Trial) (*TaskResult, error) {
	if len(trials) == 0 {
		return nil, fmt.Errorf("no trials recorded for task '%s'", t.Metadata.Name)
	}

	weights := score.WeightsFor(t)
	negative := t.IsNegative()

	combined := make([]*score.CombinedScore, len(trials))

	// The deterministic pass is pure; only judge calls suspend, so they
	// are the only work worth bounding.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, tr := range trials {
		i, tr := i, tr
		g.Go(func() error {
			det := deterministic.Evaluate(t, tr)

			var assessment *judge.Assessment
			if r.judge != nil {
				assessment = r.judge.Assess(gctx, t, tr)
			}

			combined[i] = score.Merge(t.Metadata.Name, det, assessment, weights, negative)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	representative, aggregated, err := score.Aggregate(t, trials, combined)
	if err != nil {
		return nil, err
	}

	return &TaskResult{
		TaskName:       t.Metadata.Name,
		Representative: representative,
		Score:          aggregated,
		TrialScores:    combined,
	}, nil
}

func (r *scoreRunner) ScoreAll(ctx context.Context, tasks []*task.Task, trialsByTask map[string][]*trial.Trial, callback ProgressCallback) ([]*TaskResult, error) {
	if callback == nil {
		callback = NoopProgressCallback
	}

	callback(ProgressEvent{
		Type:    EventScoringStart,
		Message: "Starting scoring",
	})

	results := make([]*TaskResult, 0, len(tasks))
	var runErr error

	for _, t := range tasks {
		callback(ProgressEvent{
			Type:    EventTaskStart,
			Message: fmt.Sprintf("Scoring task: %s", t.Metadata.Name),
		})

		if util.IsVerbose(ctx) && r.judge != nil {
			fmt.Printf("  → Judge '%s' is evaluating %d trial(s)…\n",
				r.judge.ModelName(), len(trialsByTask[t.Metadata.Name]))
		}

		result, err := r.ScoreTask(ctx, t, trialsByTask[t.Metadata.Name])
		if err != nil {
			runErr = errors.Join(runErr, err)
			callback(ProgressEvent{
				Type:    EventTaskError,
				Message: fmt.Sprintf("Task %s: %v", t.Metadata.Name, err),
			})
			continue
		}

		results = append(results, result)
		callback(ProgressEvent{
			Type:    EventTaskScored,
			Message: fmt.Sprintf("Scored task: %s", t.Metadata.Name),
			Result:  result,
		})
	}

	callback(ProgressEvent{
		Type:    EventScoringComplete,
		Message: "Scoring complete",
	})

	return results, runErr
}
