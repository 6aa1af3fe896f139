// Package trial holds the execution records produced by the external
// harness. Records are immutable once loaded; everything in this module
// consumes them read-only.
package trial

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ToolCall records one tool invocation observed during a trial.
type ToolCall struct {
	Name      string         `json:"name"`
	ID        string         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
}

// Trial is one complete execution of an agent against a task prompt.
type Trial struct {
	TaskName string `json:"taskName"`

	// Output is the agent's full textual output.
	Output string `json:"output"`

	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// SkillActivations lists the skills detected as activated during the
	// trial, deduplicated by the harness.
	SkillActivations []string `json:"skillActivations,omitempty"`

	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	CostUSD         float64 `json:"costUsd,omitempty"`
	Turns           int     `json:"turns,omitempty"`

	IsError      bool   `json:"isError,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// InvokedTools returns the set of tool names invoked during the trial.
func (t *Trial) InvokedTools() map[string]bool {
	tools := make(map[string]bool, len(t.ToolCalls))
	for _, call := range t.ToolCalls {
		tools[call.Name] = true
	}
	return tools
}

// HasActivation reports whether the trial recorded an activation of the
// named skill.
func (t *Trial) HasActivation(skill string) bool {
	for _, s := range t.SkillActivations {
		if s == skill {
			return true
		}
	}
	return false
}

// Read parses a JSON array of trial records.
func Read(data []byte) ([]*Trial, error) {
	var trials []*Trial
	if err := json.Unmarshal(data, &trials); err != nil {
		return nil, fmt.Errorf("failed to parse trials JSON: %w", err)
	}

	for i, tr := range trials {
		if tr == nil {
			return nil, fmt.Errorf("trial at index %d is null", i)
		}
		if tr.TaskName == "" {
			return nil, fmt.Errorf("trial at index %d has no taskName", i)
		}
	}

	return trials, nil
}

// FromFile loads trial records from a JSON file written by the harness.
func FromFile(path string) ([]*Trial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trials file '%s': %w", path, err)
	}

	return Read(data)
}

// GroupByTask buckets trials by task name, preserving file order within
// each bucket.
func GroupByTask(trials []*Trial) map[string][]*Trial {
	grouped := make(map[string][]*Trial)
	for _, tr := range trials {
		grouped[tr.TaskName] = append(grouped[tr.TaskName], tr)
	}
	return grouped
}
