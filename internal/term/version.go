package term

// Version constants for the term model and engine.
const (
	// ModelVersion is the term model schema version.
	ModelVersion = "1"

	// EngineVersion is the evaluator version recorded on stored runs.
	EngineVersion = "0.1.0"
)
