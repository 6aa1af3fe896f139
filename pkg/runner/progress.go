package runner

// ProgressEventType identifies a stage of the scoring pipeline.
type ProgressEventType string

const (
	EventScoringStart    ProgressEventType = "scoringStart"
	EventTaskStart       ProgressEventType = "taskStart"
	EventTaskScored      ProgressEventType = "taskScored"
	EventTaskError       ProgressEventType = "taskError"
	EventScoringComplete ProgressEventType = "scoringComplete"
)

type ProgressEvent struct {
	Type    ProgressEventType
	Message string
	Result  *TaskResult
}

type ProgressCallback func(event ProgressEvent)

func NoopProgressCallback(ProgressEvent) {}
