package task

import (
	"fmt"
	"math"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/olaservo/skilljack-evals/pkg/util"
)

const (
	KindSkillTask = "SkillTask"

	// ExpectedSkillNone marks a negative task: the agent is expected to
	// complete the prompt without activating any skill.
	ExpectedSkillNone = "none"
)

// Dimension names one scored aspect of a trial.
type Dimension string

const (
	DimensionDiscovery Dimension = "discovery"
	DimensionAdherence Dimension = "adherence"
	DimensionOutput    Dimension = "output"
)

// weightSumTolerance is how far the criteria weights may drift from 1.0
// before the task is rejected.
const weightSumTolerance = 0.01

type Task struct {
	Metadata TaskMetadata `json:"metadata"`
	Config   TaskConfig   `json:"config"`
}

type TaskMetadata struct {
	// Name is the task id used to correlate trials and scores.
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
}

type TaskConfig struct {
	// Prompt sent to the agent by the external harness.
	Prompt string `json:"prompt"`

	// ExpectedSkill is the skill the agent should activate, or
	// ExpectedSkillNone for a negative task.
	ExpectedSkill string `json:"expectedSkill"`

	// Criteria weight the scored dimensions. Weights must sum to ~1.
	Criteria []Criterion `json:"criteria"`

	// Checklist lists expected behaviors shown to the judge.
	Checklist []string `json:"checklist,omitempty"`

	// Deterministic enables evidence-only checks for this task.
	Deterministic *DeterministicSpec `json:"deterministic,omitempty"`
}

type Criterion struct {
	Dimension   Dimension `json:"dimension"`
	Weight      float64   `json:"weight"`
	Description string    `json:"description,omitempty"`
}

// DeterministicSpec describes the evidence-only checks for a task. A task
// without one is simply not checked deterministically.
type DeterministicSpec struct {
	ExpectActivation bool     `json:"expectActivation"`
	ExpectMarker     string   `json:"expectMarker,omitempty"`
	RequiredTools    []string `json:"requiredTools,omitempty"`
	ForbiddenTools   []string `json:"forbiddenTools,omitempty"`
}

// IsNegative reports whether the task expects no skill activation at all.
func (t *Task) IsNegative() bool {
	return t.Config.ExpectedSkill == ExpectedSkillNone
}

// Weight returns the weight configured for a dimension, 0 if absent.
func (t *Task) Weight(d Dimension) float64 {
	for _, c := range t.Config.Criteria {
		if c.Dimension == d {
			return c.Weight
		}
	}
	return 0
}

func (t *Task) Validate() error {
	if t.Metadata.Name == "" {
		return fmt.Errorf("task must have a metadata.name")
	}

	if t.Config.Prompt == "" {
		return fmt.Errorf("task '%s' must have a prompt", t.Metadata.Name)
	}

	if t.Config.ExpectedSkill == "" {
		return fmt.Errorf("task '%s' must set expectedSkill (use %q for negative tasks)", t.Metadata.Name, ExpectedSkillNone)
	}

	if len(t.Config.Criteria) == 0 {
		return fmt.Errorf("task '%s' must define scoring criteria", t.Metadata.Name)
	}

	sum := 0.0
	seen := make(map[Dimension]bool, len(t.Config.Criteria))
	for _, c := range t.Config.Criteria {
		switch c.Dimension {
		case DimensionDiscovery, DimensionAdherence, DimensionOutput:
		default:
			return fmt.Errorf("task '%s' has unknown criterion dimension '%s'", t.Metadata.Name, c.Dimension)
		}

		if seen[c.Dimension] {
			return fmt.Errorf("task '%s' repeats criterion dimension '%s'", t.Metadata.Name, c.Dimension)
		}
		seen[c.Dimension] = true

		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("task '%s' criterion '%s' has weight %v outside [0,1]", t.Metadata.Name, c.Dimension, c.Weight)
		}
		sum += c.Weight
	}

	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("task '%s' criterion weights sum to %v, expected ~1.0", t.Metadata.Name, sum)
	}

	return nil
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type Doppleganger Task

	tmp := (*Doppleganger)(t)
	return util.UnmarshalWithKind(data, tmp, KindSkillTask)
}

func Read(data []byte) (*Task, error) {
	t := &Task{}

	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, err
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func FromFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s' for task: %w", path, err)
	}

	t, err := Read(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task at '%s': %w", path, err)
	}

	return t, nil
}
