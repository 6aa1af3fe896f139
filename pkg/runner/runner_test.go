package runner

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olaservo/skilljack-evals/pkg/judge"
	"github.com/olaservo/skilljack-evals/pkg/task"
	"github.com/olaservo/skilljack-evals/pkg/trial"
)

type fakeJudge struct {
	assessment judge.Assessment
	calls      atomic.Int64
}

func (f *fakeJudge) Assess(ctx context.Context, t *task.Task, tr *trial.Trial) *judge.Assessment {
	f.calls.Add(1)
	a := f.assessment
	return &a
}

func (f *fakeJudge) ModelName() string {
	return "fake-judge"
}

var _ judge.Judge = &fakeJudge{}

func scoringTask(name string) *task.Task {
	return &task.Task{
		Metadata: task.TaskMetadata{Name: name},
		Config: task.TaskConfig{
			Prompt:        "Greet the user",
			ExpectedSkill: "greeting",
			Criteria: []task.Criterion{
				{Dimension: task.DimensionDiscovery, Weight: 0.4},
				{Dimension: task.DimensionAdherence, Weight: 0.3},
				{Dimension: task.DimensionOutput, Weight: 0.3},
			},
			Deterministic: &task.DeterministicSpec{ExpectActivation: true},
		},
	}
}

func passingTrial(name string) *trial.Trial {
	return &trial.Trial{
		TaskName:         name,
		Output:           "Hello!",
		SkillActivations: []string{"greeting"},
	}
}

func TestScoreTask(t *testing.T) {
	j := &fakeJudge{assessment: judge.Assessment{
		Discovery:       1,
		Adherence:       4,
		OutputQuality:   4,
		FailureCategory: judge.CategoryNone,
		Reasoning:       "good",
	}}

	tk := scoringTask("greeting-basic")
	trials := []*trial.Trial{
		passingTrial("greeting-basic"),
		passingTrial("greeting-basic"),
		passingTrial("greeting-basic"),
	}

	r := NewRunner(j, 2)
	result, err := r.ScoreTask(context.Background(), tk, trials)
	require.NoError(t, err)

	assert.Equal(t, "greeting-basic", result.TaskName)
	assert.Len(t, result.TrialScores, 3)
	require.NotNil(t, result.Score)
	assert.Equal(t, 3, result.Score.Trials)
	assert.Equal(t, int64(3), j.calls.Load())

	// Deterministic activation plus a consistent 4/4 judge across trials.
	expectedWeighted := 0.4*1 + 0.3*0.75 + 0.3*0.75
	assert.InDelta(t, expectedWeighted, result.Score.WeightedScore, 1e-9)
	assert.NotNil(t, result.Representative)
	for _, s := range result.TrialScores {
		assert.Equal(t, 1.0, s.Discovery)
		assert.Equal(t, 4.0, s.Adherence)
	}
}

func TestScoreTaskWithoutJudge(t *testing.T) {
	tk := scoringTask("greeting-basic")
	trials := []*trial.Trial{passingTrial("greeting-basic")}

	r := NewRunner(nil, 0)
	result, err := r.ScoreTask(context.Background(), tk, trials)
	require.NoError(t, err)

	require.Len(t, result.TrialScores, 1)
	s := result.TrialScores[0]
	assert.Nil(t, s.Judge)
	assert.Equal(t, 1.0, s.Discovery)
	assert.Equal(t, 5.0, s.Adherence)
	assert.Equal(t, 5.0, s.OutputQuality)
}

func TestScoreTaskNoTrials(t *testing.T) {
	r := NewRunner(nil, 0)
	_, err := r.ScoreTask(context.Background(), scoringTask("empty"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no trials recorded")
}

func TestScoreAll(t *testing.T) {
	j := &fakeJudge{assessment: judge.Assessment{
		Discovery:       1,
		Adherence:       5,
		OutputQuality:   5,
		FailureCategory: judge.CategoryNone,
		Reasoning:       "good",
	}}

	tasks := []*task.Task{
		scoringTask("task-a"),
		scoringTask("task-b"),
		scoringTask("task-missing"),
	}
	trialsByTask := map[string][]*trial.Trial{
		"task-a": {passingTrial("task-a")},
		"task-b": {passingTrial("task-b"), passingTrial("task-b")},
	}

	var events []ProgressEventType
	callback := func(e ProgressEvent) {
		events = append(events, e.Type)
	}

	r := NewRunner(j, 2)
	results, err := r.ScoreAll(context.Background(), tasks, trialsByTask, callback)

	// The task without trials errors, the rest are still scored.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task-missing")
	require.Len(t, results, 2)
	assert.Equal(t, "task-a", results[0].TaskName)
	assert.Equal(t, "task-b", results[1].TaskName)

	assert.Equal(t, EventScoringStart, events[0])
	assert.Equal(t, EventScoringComplete, events[len(events)-1])
	assert.Contains(t, events, EventTaskError)

	scored := 0
	for _, e := range events {
		if e == EventTaskScored {
			scored++
		}
	}
	assert.Equal(t, 2, scored)
}

func TestScoreAllNilCallback(t *testing.T) {
	r := NewRunner(nil, 0)
	results, err := r.ScoreAll(context.Background(),
		[]*task.Task{scoringTask("task-a")},
		map[string][]*trial.Trial{"task-a": {passingTrial("task-a")}},
		nil)

	require.NoError(t, err)
	assert.Len(t, results, 1)
}
