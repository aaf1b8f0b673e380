package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ludo-technologies/genlower/app"
	"github.com/ludo-technologies/genlower/domain"
	"github.com/ludo-technologies/genlower/internal/config"
	"github.com/ludo-technologies/genlower/internal/transpiler"
	"github.com/ludo-technologies/genlower/service"
	"github.com/spf13/cobra"
)

var (
	lowerOutputFormat string
	lowerOutputPath   string
	lowerConfigPath   string
	lowerRecursive    bool
	lowerNoProgress   bool
	lowerEmitFinalJmp string
	lowerWrapDoWhile  bool
	lowerDotFunction  string
)

func lowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower [path...]",
		Short: "Lower function*/yield generators into state-machine drivers",
		Long: `Lower rewrites every generator function found under the given paths
into a plain function that drives a small runtime state machine, the way
the Closure Compiler's ES5 generator transpiler does.

Examples:
  genlower lower src/
  genlower lower --format json src/ > report.json
  genlower lower --format dot --dot-function parse src/parser.js`,
		RunE:          runLower,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&lowerOutputFormat, "format", "f", "text", "Output format: text, json, dot")
	cmd.Flags().StringVarP(&lowerOutputPath, "output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().StringVarP(&lowerConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().BoolVarP(&lowerRecursive, "recursive", "r", true, "Recurse into directories")
	cmd.Flags().BoolVar(&lowerNoProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().StringVar(&lowerEmitFinalJmp, "emit-final-jump", "", "Override lowering.emit_final_jump: auto, always, never")
	cmd.Flags().BoolVar(&lowerWrapDoWhile, "wrap-do-while", true, "Wrap the generated switch in do { } while(0)")
	cmd.Flags().StringVar(&lowerDotFunction, "dot-function", "", "With --format dot, the function name to render (first match if empty)")

	return cmd
}

func runLower(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	cfg, err := config.LoadConfig(lowerConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if lowerEmitFinalJmp != "" {
		cfg.Lowering.EmitFinalJump = lowerEmitFinalJmp
	}
	if cmd.Flags().Changed("wrap-do-while") {
		cfg.Lowering.WrapInDoWhile = lowerWrapDoWhile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	format := domain.OutputFormat(lowerOutputFormat)

	policy := transpiler.Policy{
		EmitFinalJump:           transpiler.FinalJumpPolicy(cfg.Lowering.EmitFinalJump),
		WrapInDoWhile:           cfg.Lowering.WrapInDoWhile,
		TightenSwitchCaseDetach: cfg.Lowering.TightenSwitchCaseDetach,
	}

	progress := service.NewProgressManager(!lowerNoProgress)
	executor := service.NewParallelExecutorWithProgress(&cfg.Performance, progress)
	uc := app.NewLowerUseCase(executor, progress)

	lowerConfig := app.LowerConfig{
		Recursive:       lowerRecursive,
		IncludePatterns: cfg.Analysis.IncludePatterns,
		ExcludePatterns: cfg.Analysis.ExcludePatterns,
		Policy:          policy,
	}

	response, err := uc.Execute(context.Background(), lowerConfig, args)
	progress.Close()
	if err != nil {
		return err
	}

	writer := os.Stdout
	if lowerOutputPath != "" {
		f, err := os.Create(lowerOutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file %s: %w", lowerOutputPath, err)
		}
		defer f.Close()
		writer = f
	}

	if format == domain.OutputFormatDOT {
		return writeDotOutput(response, writer)
	}

	formatter := service.NewOutputFormatter()
	return formatter.Write(response, format, writer)
}

// writeDotOutput renders one function's case graph as Graphviz DOT: the
// first lowered function matching --dot-function, or the first lowered
// function overall when it's unset.
func writeDotOutput(response *domain.LowerResponse, writer *os.File) error {
	var target *domain.FunctionReport
	for i := range response.Results {
		for j := range response.Results[i].Functions {
			fn := &response.Results[i].Functions[j]
			if !fn.Lowered {
				continue
			}
			if lowerDotFunction == "" || fn.Name == lowerDotFunction {
				target = fn
				break
			}
		}
		if target != nil {
			break
		}
	}

	if target == nil {
		return fmt.Errorf("no lowered generator function found to render as dot")
	}

	dot := service.NewDOTFormatter(service.DefaultDOTFormatterConfig())
	return dot.WriteFunction(target, writer)
}
