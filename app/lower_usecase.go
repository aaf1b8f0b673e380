package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ludo-technologies/genlower/domain"
	"github.com/ludo-technologies/genlower/internal/parser"
	"github.com/ludo-technologies/genlower/internal/transpiler"
	"github.com/ludo-technologies/genlower/internal/version"
)

// LowerConfig holds configuration for one LowerUseCase run.
type LowerConfig struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	Policy          transpiler.Policy
	Logger          *log.Logger
}

// DefaultLowerConfig returns the configuration `genlower lower` falls back
// to when no config file or flags override it.
func DefaultLowerConfig() LowerConfig {
	return LowerConfig{
		Recursive: true,
		Policy:    transpiler.DefaultPolicy(),
	}
}

// LowerUseCase collects source files, parses each, lowers every generator
// function found, and assembles a domain.LowerResponse. It is the host
// app/service layer spec.md §6 explicitly does not describe: the core
// (internal/transpiler) never touches a filesystem or a CLI flag.
type LowerUseCase struct {
	fileHelper *FileHelper
	executor   domain.ParallelExecutor
	progress   domain.ProgressManager
}

// NewLowerUseCase creates a LowerUseCase. executor and progress may be nil;
// a nil executor runs files sequentially and a nil progress reports nothing.
func NewLowerUseCase(executor domain.ParallelExecutor, progress domain.ProgressManager) *LowerUseCase {
	return &LowerUseCase{
		fileHelper: NewFileHelper(),
		executor:   executor,
		progress:   progress,
	}
}

// lowerFileTask lowers one file's generator functions. Each instance is
// owned by exactly one goroutine for its lifetime, so storing its result
// on the struct itself (rather than through a channel) is race-free.
type lowerFileTask struct {
	path   string
	config LowerConfig
	result domain.TranspileResult
	err    error
}

func (t *lowerFileTask) Name() string      { return t.path }
func (t *lowerFileTask) IsEnabled() bool   { return true }
func (t *lowerFileTask) Execute(_ context.Context) (interface{}, error) {
	t.result, t.err = lowerFile(t.path, t.config)
	return nil, t.err
}

// Execute runs the lowering pass over every file resolved from paths.
func (uc *LowerUseCase) Execute(ctx context.Context, config LowerConfig, paths []string) (*domain.LowerResponse, error) {
	start := time.Now()

	files, err := ResolveFilePaths(uc.fileHelper, paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to collect JavaScript/TypeScript files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JavaScript/TypeScript files found in the specified paths")
	}

	tasks := make([]*lowerFileTask, len(files))
	for i, f := range files {
		tasks[i] = &lowerFileTask{path: f, config: config}
	}

	if uc.executor != nil {
		executable := make([]domain.ExecutableTask, len(tasks))
		for i, t := range tasks {
			executable[i] = t
		}
		// Per-file errors are already carried on each task's result; a
		// parse-level failure there still produces a TranspileResult
		// with a Diagnostic, so the aggregated error here is advisory
		// only and never aborts assembly of the response below.
		_ = uc.executor.Execute(ctx, executable)
	} else {
		var progress domain.TaskProgress = noOpProgress{}
		if uc.progress != nil {
			progress = uc.progress.StartTask("Lowering generator functions", len(tasks))
			defer progress.Complete()
		}
		for _, t := range tasks {
			_, _ = t.Execute(ctx)
			progress.Increment(1)
		}
	}

	response := &domain.LowerResponse{
		Results:     make([]domain.TranspileResult, 0, len(tasks)),
		GeneratedAt: start,
		Version:     version.GetVersion(),
	}
	for _, t := range tasks {
		response.Results = append(response.Results, t.result)
		response.Summary.FilesProcessed++
		for _, fn := range t.result.Functions {
			response.Summary.FunctionsFound++
			if fn.Lowered {
				response.Summary.FunctionsLowered++
				response.Summary.TotalCases += len(fn.CaseIDs)
			} else {
				response.Summary.FunctionsFailed++
			}
		}
	}
	response.DurationMs = time.Since(start).Milliseconds()

	return response, nil
}

type noOpProgress struct{}

func (noOpProgress) Increment(int)          {}
func (noOpProgress) Describe(string)        {}
func (noOpProgress) Complete()              {}

// lowerFile parses one file, lowers every generator function found in it,
// and assembles its TranspileResult.
func lowerFile(path string, config LowerConfig) (domain.TranspileResult, error) {
	result := domain.TranspileResult{FilePath: path}

	fh := NewFileHelper()
	source, err := fh.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read %s: %w", path, err)
		result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
			File:     path,
			Message:  err.Error(),
			Severity: domain.SeverityError,
		})
		return result, err
	}

	root, err := parser.ParseForLanguage(path, source)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
			File:     path,
			Message:  err.Error(),
			Severity: domain.SeverityError,
		})
		return result, nil
	}

	outcomes := transpiler.Program(root, config.Policy, config.Logger)
	for _, outcome := range outcomes {
		report := domain.FunctionReport{
			Name:      outcome.Name,
			FilePath:  path,
			StartLine: outcome.Node.Location.StartLine,
		}

		if outcome.Diag != nil {
			result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
				File:     path,
				Function: outcome.Diag.Function,
				Message:  outcome.Diag.Message,
				Severity: domain.SeverityError,
				Line:     outcome.Diag.Location.StartLine,
				Column:   outcome.Diag.Location.StartCol,
			})
			report.Lowered = false
			result.Functions = append(result.Functions, report)
			continue
		}

		report.Lowered = true
		ids, edges := extractCaseGraph(outcome.Result.ProgramFunction)
		report.CaseIDs = ids
		for _, e := range edges {
			report.Edges = append(report.Edges, domain.CaseEdge{From: e.from, To: e.to, Kind: e.kind})
		}
		result.Functions = append(result.Functions, report)
	}

	return result, nil
}
