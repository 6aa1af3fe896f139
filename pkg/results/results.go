// Package results provides utilities for loading, filtering, and analyzing
// scored task results.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olaservo/skilljack-evals/pkg/runner"
)

// Stats holds computed statistics over scored tasks.
type Stats struct {
	ResultsFile       string         `json:"resultsFile"`
	TasksTotal        int            `json:"tasksTotal"`
	TrialsTotal       int            `json:"trialsTotal"`
	MeanWeightedScore float64        `json:"meanWeightedScore"`
	DiscoveryRate     float64        `json:"discoveryRate"`
	MeanAdherence     float64        `json:"meanAdherence"`
	MeanOutputQuality float64        `json:"meanOutputQuality"`
	FailureCategories map[string]int `json:"failureCategories"`
}

// Load reads a JSON results file written by the score command.
func Load(path string) ([]*runner.TaskResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var results []*runner.TaskResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results JSON: %w", err)
	}

	return results, nil
}

// Filter returns the subset of results whose task names contain the filter
// substring (case-insensitive).
func Filter(results []*runner.TaskResult, filter string) []*runner.TaskResult {
	if filter == "" {
		return results
	}

	filter = strings.ToLower(filter)
	filtered := make([]*runner.TaskResult, 0, len(results))
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.TaskName), filter) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// CalculateStats computes statistics over scored tasks.
func CalculateStats(resultsFile string, results []*runner.TaskResult) Stats {
	stats := Stats{
		ResultsFile:       resultsFile,
		TasksTotal:        len(results),
		FailureCategories: make(map[string]int),
	}

	for _, r := range results {
		if r.Score == nil {
			continue
		}

		stats.TrialsTotal += r.Score.Trials
		stats.MeanWeightedScore += r.Score.WeightedScore
		stats.DiscoveryRate += r.Score.Discovery
		stats.MeanAdherence += r.Score.Adherence
		stats.MeanOutputQuality += r.Score.OutputQuality
		stats.FailureCategories[string(r.Score.FailureCategory)]++
	}

	if stats.TasksTotal > 0 {
		n := float64(stats.TasksTotal)
		stats.MeanWeightedScore /= n
		stats.DiscoveryRate /= n
		stats.MeanAdherence /= n
		stats.MeanOutputQuality /= n
	}

	return stats
}
