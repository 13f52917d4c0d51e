package ir

// Version constants stamped into encoded witnesses.
const (
	// IRVersion is the witness encoding version.
	IRVersion = "1"

	// EngineVersion is the portmanteau release.
	EngineVersion = "0.1.0"
)
