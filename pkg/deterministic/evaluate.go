// Package deterministic checks a trial against a task's evidence-only
// expectations: skill activation, output markers, and required/forbidden
// tools. It never performs I/O and never fails at runtime.
package deterministic

import (
	"fmt"
	"strings"

	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
)

// activationToolNames are the tool names recognized as skill activations.
// Harnesses disagree on the exact name.
var activationToolNames = []string{"Skill", "skill", "use_skill", "activate_skill"}

// skillNameKeys are the input fields a skill name may live under, in
// preference order. The first key with a non-empty string value wins.
var skillNameKeys = []string{"skill", "skill_name", "name", "command"}

// Result is the outcome of the deterministic checks for one trial.
// Pointer-typed fields are nil when the corresponding check was not
// configured for the task.
type Result struct {
	SkillActivated bool   `json:"skillActivated"`
	ActivatedSkill string `json:"activatedSkill,omitempty"`

	// UnexpectedActivation is set when a negative task recorded an
	// activation anyway. The merger reads this flag directly.
	UnexpectedActivation bool `json:"unexpectedActivation,omitempty"`

	// TrialErrored is set when the trial carried an execution error and
	// no evidence was inspected.
	TrialErrored bool `json:"trialErrored,omitempty"`

	MarkerFound            *bool `json:"markerFound,omitempty"`
	RequiredToolsSatisfied *bool `json:"requiredToolsSatisfied,omitempty"`
	ForbiddenToolsViolated *bool `json:"forbiddenToolsViolated,omitempty"`

	Passed  bool     `json:"passed"`
	Details []string `json:"details,omitempty"`
}

// Evaluate runs the deterministic checks for one (task, trial) pair.
// It returns nil iff the task defines no deterministic spec: that is
// "not applicable", not a failure.
func Evaluate(t *task.Task, tr *trial.Trial) *Result {
	spec := t.Config.Deterministic
	if spec == nil {
		return nil
	}

	res := &Result{}

	if tr.IsError {
		res.TrialErrored = true
		res.Details = append(res.Details, fmt.Sprintf("trial errored before completion: %s", tr.ErrorMessage))
	} else {
		evaluateActivation(t, tr, res)
	}

	if t.IsNegative() {
		// For negative tasks any activation is the failure; the other
		// checks don't apply.
		res.Passed = !res.SkillActivated
		return res
	}

	if !tr.IsError {
		evaluateSubChecks(spec, tr, res)
	}

	res.Passed = res.SkillActivated &&
		(res.MarkerFound == nil || *res.MarkerFound) &&
		(res.RequiredToolsSatisfied == nil || *res.RequiredToolsSatisfied) &&
		(res.ForbiddenToolsViolated == nil || !*res.ForbiddenToolsViolated)

	return res
}

func evaluateActivation(t *task.Task, tr *trial.Trial, res *Result) {
	activated := activatedSkillName(tr)

	if t.IsNegative() {
		if activated != "" {
			res.SkillActivated = true
			res.ActivatedSkill = activated
			res.UnexpectedActivation = true
			res.Details = append(res.Details,
				fmt.Sprintf("unexpected activation of skill '%s' on a no-skill task", activated))
		} else {
			res.Details = append(res.Details, "no skill activated, as expected")
		}
		return
	}

	expected := t.Config.ExpectedSkill
	switch {
	case activated == expected:
		res.SkillActivated = true
		res.ActivatedSkill = activated
		res.Details = append(res.Details, fmt.Sprintf("skill '%s' activated", activated))
	case activated != "":
		// Wrong skill counts as not activated, but keep the name.
		res.ActivatedSkill = activated
		res.Details = append(res.Details,
			fmt.Sprintf("activated skill '%s' instead of expected '%s'", activated, expected))
	default:
		res.Details = append(res.Details, fmt.Sprintf("expected skill '%s' was not activated", expected))
	}
}

// activatedSkillName extracts the activated skill's name from the trial's
// tool calls, falling back to the harness-detected activation list.
func activatedSkillName(tr *trial.Trial) string {
	for _, call := range tr.ToolCalls {
		if !isActivationTool(call.Name) {
			continue
		}
		if name := skillNameFromInput(call.Input); name != "" {
			return name
		}
	}

	if len(tr.SkillActivations) > 0 {
		return tr.SkillActivations[0]
	}

	return ""
}

func isActivationTool(name string) bool {
	for _, t := range activationToolNames {
		if name == t {
			return true
		}
	}
	return false
}

func skillNameFromInput(input map[string]any) string {
	for _, key := range skillNameKeys {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func evaluateSubChecks(spec *task.DeterministicSpec, tr *trial.Trial, res *Result) {
	if spec.ExpectMarker != "" {
		found := strings.Contains(strings.ToLower(tr.Output), strings.ToLower(spec.ExpectMarker))
		res.MarkerFound = &found
		if found {
			res.Details = append(res.Details, fmt.Sprintf("marker '%s' found in output", spec.ExpectMarker))
		} else {
			res.Details = append(res.Details, fmt.Sprintf("marker '%s' not found in output", spec.ExpectMarker))
		}
	}

	invoked := tr.InvokedTools()

	if len(spec.RequiredTools) > 0 {
		var missing []string
		for _, tool := range spec.RequiredTools {
			if !invoked[tool] {
				missing = append(missing, tool)
			}
		}
		satisfied := len(missing) == 0
		res.RequiredToolsSatisfied = &satisfied
		if satisfied {
			res.Details = append(res.Details, "all required tools were used")
		} else {
			res.Details = append(res.Details,
				fmt.Sprintf("required tools not used: %s", strings.Join(missing, ", ")))
		}
	}

	if len(spec.ForbiddenTools) > 0 {
		var violations []string
		for _, tool := range spec.ForbiddenTools {
			if invoked[tool] {
				violations = append(violations, tool)
			}
		}
		violated := len(violations) > 0
		res.ForbiddenToolsViolated = &violated
		if violated {
			res.Details = append(res.Details,
				fmt.Sprintf("forbidden tools were used: %s", strings.Join(violations, ", ")))
		} else {
			res.Details = append(res.Details, "no forbidden tools were used")
		}
	}
}
