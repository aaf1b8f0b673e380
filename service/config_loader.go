package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/genlower/domain"
	"github.com/ludo-technologies/genlower/internal/config"
)

// ConfigurationLoaderImpl loads a config.Config and projects it onto a
// domain.LowerRequest for the app layer.
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a ConfigurationLoaderImpl.
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path.
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.LowerRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}

	return c.convertToLowerRequest(cfg), nil
}

// LoadDefaultConfig loads the default configuration, first checking for
// .genlower.yaml discoverable from the working directory.
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.LowerRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err == nil {
		return c.convertToLowerRequest(cfg)
	}

	cfg = config.DefaultConfig()
	return c.convertToLowerRequest(cfg)
}

// FindDefaultConfigFile searches for a default configuration file, walking
// from the current directory up to the filesystem root.
func (c *ConfigurationLoaderImpl) FindDefaultConfigFile() string {
	configFiles := []string{
		".genlower.yaml",
		".genlower.yml",
	}

	for _, file := range configFiles {
		if _, err := os.Stat(file); err == nil {
			return file
		}
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, file := range configFiles {
			configPath := filepath.Join(currentDir, file)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// MergeConfig merges CLI flags (override) over a config-file-derived
// request (base); only fields CLI flags actually set take precedence.
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.LowerRequest, override *domain.LowerRequest) *domain.LowerRequest {
	merged := *base

	if len(override.Paths) > 0 {
		merged.Paths = override.Paths
	}

	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}

	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	if len(override.IncludePatterns) > 0 {
		merged.IncludePatterns = override.IncludePatterns
	}

	if len(override.ExcludePatterns) > 0 {
		merged.ExcludePatterns = override.ExcludePatterns
	}

	return &merged
}

// convertToLowerRequest projects a config.Config onto a domain.LowerRequest.
// Paths are left empty; the caller fills them in from command arguments.
func (c *ConfigurationLoaderImpl) convertToLowerRequest(cfg *config.Config) *domain.LowerRequest {
	return &domain.LowerRequest{
		Paths:           []string{},
		Recursive:       cfg.Analysis.Recursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		OutputFormat:    domain.OutputFormat(cfg.Output.Format),
	}
}

// ValidateConfig validates a LowerRequest's fields.
func (c *ConfigurationLoaderImpl) ValidateConfig(req *domain.LowerRequest) error {
	validFormats := map[domain.OutputFormat]bool{
		domain.OutputFormatText: true,
		domain.OutputFormatJSON: true,
		domain.OutputFormatDOT:  true,
	}

	if !validFormats[req.OutputFormat] {
		return fmt.Errorf("invalid output format: %s (must be one of: text, json, dot)", req.OutputFormat)
	}

	return nil
}
