package config

// LoadDefaultConfig returns the hardcoded default configuration. It mirrors
// LoadConfig's signature for callers that want the defaults without a
// config-file lookup; no command calls it (`genlower init` writes the
// templates in templates.go).
func LoadDefaultConfig() (*Config, error) {
	return DefaultConfig(), nil
}
