package constants

// Tool name and related constants.
const (
	// ToolName is the name of this tool.
	ToolName = "genlower"

	// ConfigFileName is the default config file base name (without extension).
	ConfigFileName = ".genlower"

	// EnvVarPrefix is the prefix for environment variables.
	EnvVarPrefix = "GENLOWER"
)

// Output format constants.
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatDOT  = "dot"
)
