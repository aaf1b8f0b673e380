package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ludo-technologies/genlower/app"
	"github.com/ludo-technologies/genlower/domain"
	"github.com/ludo-technologies/genlower/internal/config"
	"github.com/ludo-technologies/genlower/internal/transpiler"
	"github.com/ludo-technologies/genlower/internal/version"
	"github.com/ludo-technologies/genlower/service"
	"github.com/spf13/cobra"
)

// CheckExitError is a custom error type for check command exit codes.
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

var (
	checkJSON       bool
	checkConfigPath string
	checkRecursive  bool
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "CI quality gate: fail if any generator function can't be lowered",
		Long: `Run the lowering pass against a tree and report whether every
generator function found lowered cleanly.

Exit codes:
  0 - every generator function lowered cleanly
  1 - at least one function produced a diagnostic (undecomposable yield,
      yield in a switch-case label)
  2 - a hard read/parse error occurred

Examples:
  genlower check src/
  genlower check --json src/`,
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVar(&checkJSON, "json", false, "Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().BoolVarP(&checkRecursive, "recursive", "r", true, "Recurse into directories")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	startTime := time.Now()

	cfg, err := config.LoadConfig(checkConfigPath)
	if err != nil {
		return &CheckExitError{Code: 2, Message: fmt.Sprintf("failed to load configuration: %v", err)}
	}

	policy := transpiler.Policy{
		EmitFinalJump:           transpiler.FinalJumpPolicy(cfg.Lowering.EmitFinalJump),
		WrapInDoWhile:           cfg.Lowering.WrapInDoWhile,
		TightenSwitchCaseDetach: cfg.Lowering.TightenSwitchCaseDetach,
	}

	executor := service.NewParallelExecutorFromConfig(&cfg.Performance)
	uc := app.NewLowerUseCase(executor, nil)

	lowerConfig := app.LowerConfig{
		Recursive:       checkRecursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		Policy:          policy,
	}

	response, err := uc.Execute(context.Background(), lowerConfig, args)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	result := toCheckResult(response, startTime)
	return outputCheckResult(result)
}

// toCheckResult reuses a LowerResponse's per-function outcomes to build
// the CI-facing CheckResult/CheckViolation vocabulary.
func toCheckResult(response *domain.LowerResponse, startTime time.Time) *domain.CheckResult {
	result := &domain.CheckResult{
		Passed:      true,
		ExitCode:    0,
		GeneratedAt: startTime.Format(time.RFC3339),
		Version:     version.GetVersion(),
		Summary: domain.CheckSummary{
			FilesAnalyzed: response.Summary.FilesProcessed,
		},
	}

	hardError := false
	for _, fileResult := range response.Results {
		for _, fn := range fileResult.Functions {
			result.Summary.FunctionsFound++
			if fn.Lowered {
				result.Summary.FunctionsLowered++
			}
		}
		for _, d := range fileResult.Diagnostics {
			// Read and parse failures carry no line; lowering diagnostics
			// always point at a source line.
			category, rule := "diagnostic", "undecomposable-yield"
			if d.Line == 0 {
				category, rule = "parse", "parse-error"
				hardError = true
			} else if d.Message == "Cannot convert yet: Case statements that contain yields" {
				rule = "yield-in-case-label"
			}
			result.Violations = append(result.Violations, domain.CheckViolation{
				Category: category,
				Rule:     rule,
				Severity: string(d.Severity),
				Message:  d.Message,
				Location: fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column),
			})
		}
	}

	result.Summary.TotalViolations = len(result.Violations)
	if len(result.Violations) > 0 {
		result.Passed = false
		result.ExitCode = 1
	}
	if hardError {
		result.ExitCode = 2
	}
	result.Duration = time.Since(startTime).Milliseconds()

	return result
}

func outputCheckResult(result *domain.CheckResult) error {
	formatter := service.NewOutputFormatter()
	format := domain.OutputFormatText
	if checkJSON {
		format = domain.OutputFormatJSON
	}

	if err := formatter.WriteCheck(result, format, os.Stdout); err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	if result.ExitCode != 0 {
		return &CheckExitError{Code: result.ExitCode, Message: ""}
	}
	return nil
}
