// Package judge scores a trial qualitatively by asking a reasoning model
// for a rating. A judge never surfaces an error to its caller: a failed
// model call degrades to a heuristic assessment derived from trial
// evidence, and an unparseable response degrades to a fixed low score.
package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
)

// Assessment is the judge's qualitative rating for one (task, trial) pair.
type Assessment struct {
	Discovery       int             `json:"discovery"`
	Adherence       int             `json:"adherence"`
	OutputQuality   int             `json:"outputQuality"`
	FailureCategory FailureCategory `json:"failureCategory"`
	Reasoning       string          `json:"reasoning"`
}

type Judge interface {
	// Assess rates one trial. It always returns an assessment: model
	// failures are recovered into local fallbacks, never propagated.
	Assess(ctx context.Context, t *task.Task, tr *trial.Trial) *Assessment
	ModelName() string
}

// CompletionFunc is the single external operation the judge depends on:
// submit a prompt pair to a reasoning model and receive its text response.
type CompletionFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

type modelJudge struct {
	complete       CompletionFunc
	model          string
	maxOutputChars int
}

var _ Judge = &modelJudge{}

// New creates a Judge backed by an OpenAI-compatible completions endpoint.
func New(cfg *Config) (Judge, error) {
	if cfg == nil {
		return nil, fmt.Errorf("judge config cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseUrl()
	apiKey := cfg.ApiKey()
	model := cfg.ModelName()
	if baseURL == "" || apiKey == "" || model == "" {
		return nil, fmt.Errorf("environment variables %s, %s, and %s must be set",
			cfg.Env.BaseUrlKey, cfg.Env.ApiKeyKey, cfg.Env.ModelNameKey)
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	complete := func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: shared.ChatModel(model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userPrompt),
			},
		})
		if err != nil {
			return "", fmt.Errorf("failed to create chat completion: %w", err)
		}

		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("no completion choices returned")
		}

		return completion.Choices[0].Message.Content, nil
	}

	return NewWithCompletion(model, cfg.maxOutputChars(), complete), nil
}

// NewWithCompletion creates a Judge over an arbitrary completion operation.
// Tests inject fakes here.
func NewWithCompletion(model string, maxOutputChars int, complete CompletionFunc) Judge {
	if maxOutputChars <= 0 {
		maxOutputChars = DefaultMaxOutputChars
	}

	return &modelJudge{
		complete:       complete,
		model:          model,
		maxOutputChars: maxOutputChars,
	}
}

func (j *modelJudge) ModelName() string {
	return j.model
}

func (j *modelJudge) Assess(ctx context.Context, t *task.Task, tr *trial.Trial) *Assessment {
	// Never spend a judge call on a crashed trial.
	if tr.IsError {
		return &Assessment{
			Discovery:       0,
			Adherence:       1,
			OutputQuality:   1,
			FailureCategory: CategoryAgentError,
			Reasoning:       fmt.Sprintf("trial errored before scoring: %s", tr.ErrorMessage),
		}
	}

	systemPrompt, userPrompt, err := buildPrompts(t, tr, j.maxOutputChars)
	if err != nil {
		return heuristicAssessment(t, tr, err)
	}

	raw, err := j.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return heuristicAssessment(t, tr, err)
	}

	return parseAssessment(raw)
}

func buildPrompts(t *task.Task, tr *trial.Trial, maxOutputChars int) (string, string, error) {
	criteria := make([]promptCriterion, 0, len(t.Config.Criteria))
	for _, c := range t.Config.Criteria {
		criteria = append(criteria, promptCriterion{
			Dimension:   string(c.Dimension),
			Weight:      c.Weight,
			Description: c.Description,
		})
	}

	systemPrompt, err := buildSystemPrompt(systemPromptData{
		ExpectedSkill: t.Config.ExpectedSkill,
		Negative:      t.IsNegative(),
		Criteria:      criteria,
		Checklist:     t.Config.Checklist,
	})
	if err != nil {
		return "", "", err
	}

	userPrompt, err := buildUserPrompt(userPromptData{
		Prompt:      t.Config.Prompt,
		Activations: tr.SkillActivations,
		Output:      truncate(tr.Output, maxOutputChars),
	})
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

// assessmentWire is the JSON shape requested from the model.
type assessmentWire struct {
	Discovery       int    `json:"discovery"`
	Adherence       int    `json:"adherence"`
	OutputQuality   int    `json:"output_quality"`
	FailureCategory string `json:"failure_category"`
	Reasoning       string `json:"reasoning"`
}

// parseAssessment locates the first well-formed JSON object in the raw
// model response, tolerating code fences and surrounding prose. Anything
// unparseable becomes a fixed low score.
func parseAssessment(raw string) *Assessment {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return parseFailureAssessment()
	}

	var wire assessmentWire
	if err := json.Unmarshal([]byte(obj), &wire); err != nil {
		return parseFailureAssessment()
	}

	return &Assessment{
		Discovery:       clamp(wire.Discovery, 0, 1),
		Adherence:       clamp(wire.Adherence, 1, 5),
		OutputQuality:   clamp(wire.OutputQuality, 1, 5),
		FailureCategory: ParseFailureCategory(wire.FailureCategory),
		Reasoning:       wire.Reasoning,
	}
}

func parseFailureAssessment() *Assessment {
	return &Assessment{
		Discovery:       0,
		Adherence:       1,
		OutputQuality:   1,
		FailureCategory: CategoryAgentError,
		Reasoning:       "parse failure",
	}
}

// heuristicAssessment scores from trial evidence alone when the model call
// itself failed. Quality dimensions stay neutral: there is no basis for
// grading them locally.
func heuristicAssessment(t *task.Task, tr *trial.Trial, cause error) *Assessment {
	discovery := 0
	if t.IsNegative() {
		if len(tr.SkillActivations) == 0 {
			discovery = 1
		}
	} else if tr.HasActivation(t.Config.ExpectedSkill) {
		discovery = 1
	}

	category := CategoryNone
	if discovery == 0 {
		category = CategoryDiscoveryFailure
	}

	return &Assessment{
		Discovery:       discovery,
		Adherence:       3,
		OutputQuality:   3,
		FailureCategory: category,
		Reasoning:       fmt.Sprintf("heuristic fallback, judge call failed: %v", cause),
	}
}

// extractJSONObject returns the first balanced {...} in s, skipping brace
// characters inside JSON strings.
func extractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}

	return "", false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
