package judge

import (
	"bytes"
	"text/template"
)

var (
	systemPromptTemplate = template.Must(template.New("systemPrompt").Parse(
		`You are a specialized evaluator for agent skill usage. You are given the
prompt an agent received, the skill it was expected to use, and the agent's
output. Rate the agent's performance.

### Dimensions

* **discovery** (0 or 1): did the agent find and use the expected skill?
{{if .Negative}}This task expects NO skill usage: score discovery 1 only if the agent avoided activating any skill.
{{else}}The expected skill is "{{.ExpectedSkill}}". Score 1 only if that exact skill was used.
{{end}}* **adherence** (1-5): how closely did the agent follow the skill's instructions?
* **output_quality** (1-5): how good is the final output for the user's request?

### Scoring criteria
{{range .Criteria}}
* {{.Dimension}} (weight {{.Weight}}){{if .Description}}: {{.Description}}{{end}}{{end}}
{{if .Checklist}}
### Expected behaviors
{{range .Checklist}}
* {{.}}{{end}}
{{end}}
### Failure categories

If the agent fell short, classify the failure as exactly one of:
discovery_failure, false_positive, instruction_ambiguity, missing_guidance,
agent_error. Use "none" when nothing went wrong.

Respond with a single JSON object and nothing else:
{"discovery": 0 or 1, "adherence": 1-5, "output_quality": 1-5, "failure_category": "...", "reasoning": "..."}
`))

	userPromptTemplate = template.Must(template.New("userPrompt").Parse(
		`<task_prompt>
{{.Prompt}}
</task_prompt>

<skills_activated>
{{if .Activations}}{{range .Activations}}- {{.}}
{{end}}{{else}}(none recorded)
{{end}}</skills_activated>

<agent_output>
{{.Output}}
</agent_output>

Evaluate the agent output above and respond with the JSON object.
`))
)

type systemPromptData struct {
	ExpectedSkill string
	Negative      bool
	Criteria      []promptCriterion
	Checklist     []string
}

type promptCriterion struct {
	Dimension   string
	Weight      float64
	Description string
}

type userPromptData struct {
	Prompt      string
	Activations []string
	Output      string
}

func buildSystemPrompt(data systemPromptData) (string, error) {
	var out bytes.Buffer
	if err := systemPromptTemplate.Execute(&out, data); err != nil {
		return "", err
	}

	return out.String(), nil
}

func buildUserPrompt(data userPromptData) (string, error) {
	var out bytes.Buffer
	if err := userPromptTemplate.Execute(&out, data); err != nil {
		return "", err
	}

	return out.String(), nil
}

// truncate caps s at max characters, marking the cut.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	return s[:max] + "\n[output truncated]"
}
