package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
)

// AggregatedScore is the statistical reduction of N combined scores for
// one task. Its score fields are arithmetic means of the per-trial values.
type AggregatedScore struct {
	CombinedScore
	Trials int `json:"trials"`
}

// Aggregate reduces the N trials of a task and their combined scores to a
// representative trial plus an aggregated score. The returned trial is the
// one whose weighted score lies closest to the mean, with its resource
// metrics replaced by cumulative totals across all trials.
func Aggregate(t *task.Task, trials []*trial.Trial, scores []*CombinedScore) (*trial.Trial, *AggregatedScore, error) {
	if len(trials) == 0 {
		return nil, nil, fmt.Errorf("cannot aggregate zero trials for task '%s'", t.Metadata.Name)
	}

	if len(trials) != len(scores) {
		return nil, nil, fmt.Errorf("trial/score count mismatch for task '%s': %d vs %d",
			t.Metadata.Name, len(trials), len(scores))
	}

	if len(trials) == 1 {
		return trials[0], &AggregatedScore{CombinedScore: *scores[0], Trials: 1}, nil
	}

	n := len(scores)
	meanWeighted := 0.0
	for _, s := range scores {
		meanWeighted += s.WeightedScore
	}
	meanWeighted /= float64(n)

	// Representative trial: minimum distance to the mean, first index on
	// ties.
	best := 0
	bestDist := math.Abs(scores[0].WeightedScore - meanWeighted)
	for i := 1; i < n; i++ {
		if d := math.Abs(scores[i].WeightedScore - meanWeighted); d < bestDist {
			best = i
			bestDist = d
		}
	}

	representative := synthesizeRepresentative(trials, best)

	agg := &AggregatedScore{
		CombinedScore: CombinedScore{
			TaskName:      t.Metadata.Name,
			Deterministic: scores[best].Deterministic,
			Judge:         scores[best].Judge,
			WeightedScore: meanWeighted,
		},
		Trials: n,
	}

	discovered := 0
	for _, s := range scores {
		agg.Discovery += s.Discovery
		agg.Adherence += s.Adherence
		agg.OutputQuality += s.OutputQuality
		if s.Discovery >= 1 {
			discovered++
		}
	}
	agg.Discovery /= float64(n)
	agg.Adherence /= float64(n)
	agg.OutputQuality /= float64(n)

	agg.FailureCategory = modalCategory(scores)
	agg.Reasoning = fmt.Sprintf("skill discovered in %d/%d trials; mean adherence %.2f/5; mean output quality %.2f/5",
		discovered, n, agg.Adherence, agg.OutputQuality)

	return representative, agg, nil
}

// synthesizeRepresentative copies the chosen trial, substituting summed
// resource metrics (they are cumulative spend, not a quality signal), the
// union of all activations, and any execution errors.
func synthesizeRepresentative(trials []*trial.Trial, best int) *trial.Trial {
	rep := *trials[best]

	rep.DurationSeconds = 0
	rep.CostUSD = 0
	rep.Turns = 0
	rep.IsError = false

	seen := make(map[string]bool)
	activations := make([]string, 0)
	var errMsgs []string

	for _, tr := range trials {
		rep.DurationSeconds += tr.DurationSeconds
		rep.CostUSD += tr.CostUSD
		rep.Turns += tr.Turns

		for _, s := range tr.SkillActivations {
			if !seen[s] {
				seen[s] = true
				activations = append(activations, s)
			}
		}

		if tr.IsError {
			rep.IsError = true
			if tr.ErrorMessage != "" {
				errMsgs = append(errMsgs, tr.ErrorMessage)
			}
		}
	}

	rep.SkillActivations = activations
	rep.ErrorMessage = strings.Join(errMsgs, "; ")

	return &rep
}

// modalCategory returns the most frequent failure category, breaking ties
// by first appearance in trial order.
func modalCategory(scores []*CombinedScore) judge.FailureCategory {
	counts := make(map[judge.FailureCategory]int)
	order := make([]judge.FailureCategory, 0)

	for _, s := range scores {
		if counts[s.FailureCategory] == 0 {
			order = append(order, s.FailureCategory)
		}
		counts[s.FailureCategory]++
	}

	mode := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[mode] {
			mode = c
		}
	}

	return mode
}
