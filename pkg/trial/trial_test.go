package trial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := map[string]struct {
		json        string
		expectErr   bool
		errContains string
		validate    func(t *testing.T, trials []*Trial)
	}{
		"valid records": {
			json: `[
				{
					"taskName": "greeting-basic",
					"output": "Hello! GREETING_SUCCESS",
					"toolCalls": [{"name": "Skill", "input": {"skill": "greeting"}}],
					"skillActivations": ["greeting"],
					"durationSeconds": 12.5,
					"costUsd": 0.03,
					"turns": 4
				},
				{
					"taskName": "greeting-basic",
					"output": "",
					"isError": true,
					"errorMessage": "agent crashed"
				}
			]`,
			validate: func(t *testing.T, trials []*Trial) {
				require.Len(t, trials, 2)
				assert.Equal(t, "greeting-basic", trials[0].TaskName)
				assert.Equal(t, "greeting", trials[0].ToolCalls[0].Input["skill"])
				assert.InDelta(t, 12.5, trials[0].DurationSeconds, 1e-9)
				assert.True(t, trials[1].IsError)
				assert.Equal(t, "agent crashed", trials[1].ErrorMessage)
			},
		},
		"empty array": {
			json: `[]`,
			validate: func(t *testing.T, trials []*Trial) {
				assert.Empty(t, trials)
			},
		},
		"not json": {
			json:        `{{`,
			expectErr:   true,
			errContains: "failed to parse trials JSON",
		},
		"null record": {
			json:        `[{"taskName": "a", "output": ""}, null]`,
			expectErr:   true,
			errContains: "index 1 is null",
		},
		"missing task name": {
			json:        `[{"output": "hello"}]`,
			expectErr:   true,
			errContains: "has no taskName",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			trials, err := Read([]byte(tc.json))
			if tc.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}

			require.NoError(t, err)
			if tc.validate != nil {
				tc.validate(t, trials)
			}
		})
	}
}

func TestInvokedTools(t *testing.T) {
	tr := &Trial{ToolCalls: []ToolCall{
		{Name: "Read"},
		{Name: "Write"},
		{Name: "Read"},
	}}

	tools := tr.InvokedTools()
	assert.Equal(t, map[string]bool{"Read": true, "Write": true}, tools)
}

func TestHasActivation(t *testing.T) {
	tr := &Trial{SkillActivations: []string{"greeting", "farewell"}}

	assert.True(t, tr.HasActivation("greeting"))
	assert.False(t, tr.HasActivation("summarize"))
	assert.False(t, (&Trial{}).HasActivation("greeting"))
}

func TestGroupByTask(t *testing.T) {
	trials := []*Trial{
		{TaskName: "a", Output: "a1"},
		{TaskName: "b", Output: "b1"},
		{TaskName: "a", Output: "a2"},
	}

	grouped := GroupByTask(trials)
	require.Len(t, grouped, 2)
	require.Len(t, grouped["a"], 2)
	assert.Equal(t, "a1", grouped["a"][0].Output)
	assert.Equal(t, "a2", grouped["a"][1].Output)
	assert.Equal(t, "b1", grouped["b"][0].Output)
}
