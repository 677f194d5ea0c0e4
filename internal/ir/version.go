package ir

// Version constants for the stored data model and the engine.
const (
	// SchemaVersion is the revision/lineage data model version.
	SchemaVersion = "1"

	// EngineVersion is the stgov engine version.
	EngineVersion = "0.1.0"
)
