package judge

// FailureCategory classifies why a trial fell short. It is a closed set:
// anything else coming back from the model is coerced to CategoryNone so
// downstream consumers can switch over it exhaustively.
type FailureCategory string

const (
	CategoryNone                 FailureCategory = "none"
	CategoryDiscoveryFailure     FailureCategory = "discovery_failure"
	CategoryFalsePositive        FailureCategory = "false_positive"
	CategoryInstructionAmbiguity FailureCategory = "instruction_ambiguity"
	CategoryMissingGuidance      FailureCategory = "missing_guidance"
	CategoryAgentError           FailureCategory = "agent_error"
)

// ParseFailureCategory maps a raw string from the model to a known
// category, defaulting to CategoryNone.
func ParseFailureCategory(s string) FailureCategory {
	switch FailureCategory(s) {
	case CategoryDiscoveryFailure, CategoryFalsePositive, CategoryInstructionAmbiguity,
		CategoryMissingGuidance, CategoryAgentError, CategoryNone:
		return FailureCategory(s)
	default:
		return CategoryNone
	}
}
