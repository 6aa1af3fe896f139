// Package score reconciles the deterministic and judge evaluations of a
// trial into one canonical score, and statistically reduces repeated
// trials of a task into one aggregated score.
package score

import (
	"fmt"
	"strings"

	"github.com/olaservo/skilljack-evals/pkg/deterministic"
	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/task"
)

// Weights are the caller-supplied dimension weights. The merger does not
// renormalize them; they must sum to 1.
type Weights struct {
	Discovery float64 `json:"discovery"`
	Adherence float64 `json:"adherence"`
	Output    float64 `json:"output"`
}

// WeightsFor extracts the dimension weights from a task's criteria.
func WeightsFor(t *task.Task) Weights {
	return Weights{
		Discovery: t.Weight(task.DimensionDiscovery),
		Adherence: t.Weight(task.DimensionAdherence),
		Output:    t.Weight(task.DimensionOutput),
	}
}

// CombinedScore is the canonical per-trial verdict. Discovery is 0 or 1;
// adherence and output quality are on a 1-5 scale; WeightedScore is their
// weighted composite in [0,1].
type CombinedScore struct {
	TaskName string `json:"taskName"`

	Deterministic *deterministic.Result `json:"deterministic,omitempty"`
	Judge         *judge.Assessment     `json:"judge,omitempty"`

	Discovery       float64               `json:"discovery"`
	Adherence       float64               `json:"adherence"`
	OutputQuality   float64               `json:"outputQuality"`
	WeightedScore   float64               `json:"weightedScore"`
	FailureCategory judge.FailureCategory `json:"failureCategory"`
	Reasoning       string                `json:"reasoning"`
}

// Merge combines the evaluator outputs for one trial. Either evaluator may
// be absent; a task with neither still receives a valid sentinel score.
// negative selects the inverted discovery semantics of no-skill tasks.
func Merge(taskName string, det *deterministic.Result, assessment *judge.Assessment, w Weights, negative bool) *CombinedScore {
	if det == nil && assessment == nil {
		return &CombinedScore{
			TaskName:        taskName,
			Discovery:       0,
			Adherence:       1,
			OutputQuality:   1,
			WeightedScore:   0,
			FailureCategory: judge.CategoryAgentError,
			Reasoning:       "no scoring method available",
		}
	}

	// A trial that errored during execution always gets the minimal
	// score, whatever the evaluators would otherwise say.
	if det != nil && det.TrialErrored {
		return &CombinedScore{
			TaskName:        taskName,
			Deterministic:   det,
			Judge:           assessment,
			Discovery:       0,
			Adherence:       1,
			OutputQuality:   1,
			WeightedScore:   0,
			FailureCategory: judge.CategoryAgentError,
			Reasoning:       mergeReasoning(det, assessment),
		}
	}

	score := &CombinedScore{
		TaskName:      taskName,
		Deterministic: det,
		Judge:         assessment,
	}

	// Discovery: deterministic evidence is authoritative when present.
	if det != nil {
		activated := det.SkillActivated
		if negative {
			activated = !activated
		}
		if activated {
			score.Discovery = 1
		}
	} else if assessment.Discovery > 0 {
		score.Discovery = 1
	}

	// Quality dimensions come from the judge; deterministic checks are
	// binary and can only map pass/fail to the scale extremes.
	if assessment != nil {
		score.Adherence = float64(assessment.Adherence)
		score.OutputQuality = float64(assessment.OutputQuality)
	} else if det.Passed {
		score.Adherence = 5
		score.OutputQuality = 5
	} else {
		score.Adherence = 1
		score.OutputQuality = 1
	}

	score.WeightedScore = Weighted(score.Discovery, score.Adherence, score.OutputQuality, w)

	score.FailureCategory = judge.CategoryNone
	if assessment != nil {
		score.FailureCategory = assessment.FailureCategory
	}
	if det != nil {
		if !negative && !det.SkillActivated {
			score.FailureCategory = judge.CategoryDiscoveryFailure
		}
		if negative && det.UnexpectedActivation {
			score.FailureCategory = judge.CategoryFalsePositive
		}
	}

	score.Reasoning = mergeReasoning(det, assessment)

	return score
}

// Weighted computes the [0,1] composite of the three dimensions.
func Weighted(discovery, adherence, outputQuality float64, w Weights) float64 {
	return w.Discovery*discovery +
		w.Adherence*(adherence-1)/4 +
		w.Output*(outputQuality-1)/4
}

func mergeReasoning(det *deterministic.Result, assessment *judge.Assessment) string {
	var parts []string

	if det != nil && len(det.Details) > 0 {
		parts = append(parts, fmt.Sprintf("deterministic: %s", strings.Join(det.Details, "; ")))
	}

	if assessment != nil && assessment.Reasoning != "" {
		parts = append(parts, fmt.Sprintf("judge: %s", assessment.Reasoning))
	}

	return strings.Join(parts, "\n")
}
