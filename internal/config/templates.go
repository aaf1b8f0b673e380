package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// configTemplate is the structure rendered by GetFullConfigTemplate /
// GetMinimalConfigTemplate; a plain struct keeps the emitted YAML stable
// and lets yaml.v3 handle quoting/escaping instead of hand-built strings.
type configTemplate struct {
	Lowering LoweringConfig `yaml:"lowering"`
	Output   OutputConfig   `yaml:"output"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

const templateHeader = `# genlower configuration
# Documentation: https://github.com/ludo-technologies/genlower
#
# lowering: spec.md section 9's open-question policy toggles.
#   emit_final_jump: auto | always | never
#   wrap_in_do_while: wraps the generated switch in do { } while (0)
#   tighten_switch_case_detach: leave single-entry switch-case bodies inline
#
# output: validated on load; ` + "`genlower lower`" + ` takes its format from --format and
#   ` + "`genlower check`" + ` from --json, so these settings do not change either command.
#
# analysis: which files genlower walks when given a directory; both commands
#   take recursion from --recursive rather than from this file.

`

// GetFullConfigTemplate returns the documented config template as YAML.
func GetFullConfigTemplate() string {
	tmpl := configTemplate{
		Lowering: LoweringConfig{
			EmitFinalJump:           DefaultEmitFinalJump,
			WrapInDoWhile:           DefaultWrapInDoWhile,
			TightenSwitchCaseDetach: DefaultTightenSwitchCaseDetach,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: true,
		},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.js", "**/*.ts", "**/*.jsx", "**/*.tsx"},
			ExcludePatterns: []string{"node_modules", "dist", "build", "*.min.js"},
			Recursive:       true,
		},
	}

	return templateHeader + mustMarshalYAML(tmpl)
}

// GetMinimalConfigTemplate returns a short config template: the default
// settings with shorter pattern lists and no explanatory header. yaml.v3
// writes every field of configTemplate, so all of them appear.
func GetMinimalConfigTemplate() string {
	tmpl := configTemplate{
		Lowering: LoweringConfig{
			EmitFinalJump:           DefaultEmitFinalJump,
			WrapInDoWhile:           DefaultWrapInDoWhile,
			TightenSwitchCaseDetach: DefaultTightenSwitchCaseDetach,
		},
		Output: OutputConfig{Format: "text"},
		Analysis: AnalysisConfig{
			IncludePatterns: []string{"**/*.js", "**/*.ts"},
			ExcludePatterns: []string{"node_modules", "dist"},
			Recursive:       true,
		},
	}

	return "# genlower configuration (minimal)\n\n" + mustMarshalYAML(tmpl)
}

func mustMarshalYAML(v interface{}) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		// configTemplate is a plain struct of strings/bools/slices; this
		// can't fail short of a programmer error.
		panic(fmt.Sprintf("genlower: config template failed to marshal: %v", err))
	}
	_ = enc.Close()
	return buf.String()
}
