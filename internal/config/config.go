package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ludo-technologies/genlower/internal/constants"
	"github.com/spf13/viper"
)

// Defaults for the section 9 policy toggles.
const (
	DefaultEmitFinalJump           = "auto"
	DefaultWrapInDoWhile           = true
	DefaultTightenSwitchCaseDetach = false
)

// Config is the root configuration loaded from .genlower.yaml (or a path
// passed via --config), layered over DefaultConfig() by viper.
type Config struct {
	// Lowering holds spec.md §9's open-question policy toggles.
	Lowering LoweringConfig `json:"lowering" mapstructure:"lowering" yaml:"lowering"`

	// Output holds output formatting configuration.
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Analysis holds file discovery configuration.
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Performance holds the parallel-executor tuning knobs.
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// LoweringConfig exposes spec.md §9's policy toggles as configuration
// rather than hidden guesses (see SPEC_FULL.md "Supplemented features").
type LoweringConfig struct {
	// EmitFinalJump is "auto", "always", or "never".
	EmitFinalJump string `json:"emitFinalJump" mapstructure:"emit_final_jump" yaml:"emit_final_jump"`

	// WrapInDoWhile wraps the generated switch in `do { } while(0)`.
	WrapInDoWhile bool `json:"wrapInDoWhile" mapstructure:"wrap_in_do_while" yaml:"wrap_in_do_while"`

	// TightenSwitchCaseDetach leaves an unmarked switch-case body that
	// follows a marked case inline, instead of detaching it, when the CFG
	// oracle proves the body has a single entry.
	TightenSwitchCaseDetach bool `json:"tightenSwitchCaseDetach" mapstructure:"tighten_switch_case_detach" yaml:"tighten_switch_case_detach"`
}

// OutputConfig holds configuration for output formatting.
type OutputConfig struct {
	// Format specifies the output format: text, json, dot.
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails is accepted in the config file; no command reads it.
	ShowDetails bool `json:"showDetails" mapstructure:"show_details" yaml:"show_details"`
}

// AnalysisConfig holds general file-discovery configuration.
type AnalysisConfig struct {
	// IncludePatterns specifies file patterns to include.
	IncludePatterns []string `json:"includePatterns" mapstructure:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns specifies file patterns to exclude.
	ExcludePatterns []string `json:"excludePatterns" mapstructure:"exclude_patterns" yaml:"exclude_patterns"`

	// Recursive controls whether to walk directories recursively.
	Recursive bool `json:"recursive" mapstructure:"recursive" yaml:"recursive"`
}

// PerformanceConfig tunes service.ParallelExecutorImpl's fan-out of
// FunctionTranspiler runs across the files in a batch.
type PerformanceConfig struct {
	// MaxGoroutines caps concurrent file-lowering tasks (<=0 uses the
	// executor's own default).
	MaxGoroutines int `json:"maxGoroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds one lowering batch (<=0 uses the executor's
	// own default).
	TimeoutSeconds int `json:"timeoutSeconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Lowering: LoweringConfig{
			EmitFinalJump:           DefaultEmitFinalJump,
			WrapInDoWhile:           DefaultWrapInDoWhile,
			TightenSwitchCaseDetach: DefaultTightenSwitchCaseDetach,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{
				"**/*.js", "**/*.ts", "**/*.jsx", "**/*.tsx",
				"**/*.mjs", "**/*.cjs", "**/*.mts", "**/*.cts",
			},
			ExcludePatterns: []string{
				"node_modules",
				"vendor",
				"dist",
				"build",
				"out",
				".next",
				".nuxt",
				".cache",
				".git",
				"*.min.js",
				"*.bundle.js",
				"*.map",
			},
			Recursive: true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  0,
			TimeoutSeconds: 300,
		},
	}
}

// LoadConfig loads configuration from file or returns default config.
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// discoverConfigFile finds the appropriate config file path.
func discoverConfigFile(targetPath string) string {
	return findDefaultConfig(targetPath)
}

// loadConfigFromFile reads and parses a configuration file.
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions.
	v := viper.New()
	cfg := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithTarget loads configuration with target path context:
// discovery searches upward from targetPath for .genlower.yaml when
// configPath isn't explicitly given.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = discoverConfigFile(targetPath)
	}

	return loadConfigFromFile(configPath)
}

// searchConfigInDirectory searches for configuration files in a specific directory.
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
func findDefaultConfig(targetPath string) string {
	candidates := []string{
		constants.ConfigFileName + ".yaml",
		constants.ConfigFileName + ".yml",
	}

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if cfg := searchConfigInDirectory(dir, candidates); cfg != "" {
					return cfg
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	if cfg := searchConfigInDirectory(".", candidates); cfg != "" {
		return cfg
	}

	if home, err := os.UserHomeDir(); err == nil {
		if cfg := searchConfigInDirectory(home, candidates); cfg != "" {
			return cfg
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	validJumpPolicies := map[string]bool{"auto": true, "always": true, "never": true}
	if !validJumpPolicies[c.Lowering.EmitFinalJump] {
		return fmt.Errorf("invalid lowering.emit_final_jump %q, must be one of: auto, always, never", c.Lowering.EmitFinalJump)
	}

	validFormats := map[string]bool{"text": true, "json": true, "dot": true}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format %q, must be one of: text, json, dot", c.Output.Format)
	}

	if len(c.Analysis.IncludePatterns) == 0 {
		return fmt.Errorf("analysis.include_patterns cannot be empty")
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}

	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	return nil
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("lowering", cfg.Lowering)
	v.Set("output", cfg.Output)
	v.Set("analysis", cfg.Analysis)
	v.Set("performance", cfg.Performance)

	return v.WriteConfig()
}
