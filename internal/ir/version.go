package ir

// Version constants for the boundary surface and engine.
const (
	// IRVersion is the host value schema version.
	IRVersion = "1"

	// EngineVersion is the ffibench dispatcher version.
	EngineVersion = "0.1.0"
)
