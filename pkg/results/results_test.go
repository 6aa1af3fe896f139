package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/runner"
	"github.com/olaservo/skilljack-evals/pkg/score"
)

func taskResult(name string, weighted, discovery, adherence, output float64, trials int, category judge.FailureCategory) *runner.TaskResult {
	return &runner.TaskResult{
		TaskName: name,
		Score: &score.AggregatedScore{
			CombinedScore: score.CombinedScore{
				TaskName:        name,
				Discovery:       discovery,
				Adherence:       adherence,
				OutputQuality:   output,
				WeightedScore:   weighted,
				FailureCategory: category,
			},
			Trials: trials,
		},
	}
}

func TestLoad(t *testing.T) {
	results := []*runner.TaskResult{
		taskResult("greeting-basic", 0.8, 1, 4, 4, 3, judge.CategoryNone),
		taskResult("farewell-basic", 0.4, 0, 3, 3, 3, judge.CategoryDiscoveryFailure),
	}
	data, err := json.Marshal(results)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "greeting-basic", loaded[0].TaskName)
	assert.InDelta(t, 0.4, loaded[1].Score.WeightedScore, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read results file")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse results JSON")
}

func TestFilter(t *testing.T) {
	results := []*runner.TaskResult{
		taskResult("greeting-basic", 0.8, 1, 4, 4, 1, judge.CategoryNone),
		taskResult("greeting-formal", 0.7, 1, 4, 4, 1, judge.CategoryNone),
		taskResult("farewell-basic", 0.4, 0, 3, 3, 1, judge.CategoryDiscoveryFailure),
	}

	tests := map[string]struct {
		filter   string
		expected []string
	}{
		"empty filter keeps all": {
			filter:   "",
			expected: []string{"greeting-basic", "greeting-formal", "farewell-basic"},
		},
		"substring match": {
			filter:   "greeting",
			expected: []string{"greeting-basic", "greeting-formal"},
		},
		"case insensitive": {
			filter:   "GREETING-B",
			expected: []string{"greeting-basic"},
		},
		"no match": {
			filter:   "nonexistent",
			expected: []string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			filtered := Filter(results, tc.filter)
			names := make([]string, 0, len(filtered))
			for _, r := range filtered {
				names = append(names, r.TaskName)
			}
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestCalculateStats(t *testing.T) {
	results := []*runner.TaskResult{
		taskResult("greeting-basic", 0.9, 1, 5, 4, 3, judge.CategoryNone),
		taskResult("farewell-basic", 0.3, 0, 2, 3, 3, judge.CategoryDiscoveryFailure),
		taskResult("no-skill", 0.6, 1, 3, 5, 2, judge.CategoryNone),
	}

	stats := CalculateStats("results.json", results)

	assert.Equal(t, "results.json", stats.ResultsFile)
	assert.Equal(t, 3, stats.TasksTotal)
	assert.Equal(t, 8, stats.TrialsTotal)
	assert.InDelta(t, 0.6, stats.MeanWeightedScore, 1e-9)
	assert.InDelta(t, 2.0/3.0, stats.DiscoveryRate, 1e-9)
	assert.InDelta(t, 10.0/3.0, stats.MeanAdherence, 1e-9)
	assert.InDelta(t, 4.0, stats.MeanOutputQuality, 1e-9)
	assert.Equal(t, map[string]int{"none": 2, "discovery_failure": 1}, stats.FailureCategories)
}

func TestCalculateStatsEmpty(t *testing.T) {
	stats := CalculateStats("results.json", nil)

	assert.Zero(t, stats.TasksTotal)
	assert.Zero(t, stats.TrialsTotal)
	assert.Zero(t, stats.MeanWeightedScore)
	assert.Empty(t, stats.FailureCategories)
}
