package domain

import "time"

// Severity classifies a Diagnostic (spec.md §7's user-visible taxonomy:
// undecomposable yield, yield in a switch-case label; `super` inside a
// generator is not detected).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is the service-layer mirror of transpiler.Diagnostic: a
// user-visible failure to lower one generator function. Modeled on the
// teacher's CheckViolation shape so the same CLI plumbing (text/JSON
// rendering, exit codes) carries over unchanged.
type Diagnostic struct {
	File     string   `json:"file"`
	Function string   `json:"function,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
}

// CaseEdge is one surviving edge in a lowered function's address graph,
// rendered by DOTFormatter and reported in FunctionReport for --dot/JSON
// consumers that want to inspect the collapse pass's output directly.
type CaseEdge struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Kind string `json:"kind"` // "jumpTo" or "reference"
}

// FunctionReport summarizes one generator function's lowering: the
// surviving case ids (after TranspilationContext.Finalize's collapse) and
// the edges between them.
type FunctionReport struct {
	Name      string     `json:"name"`
	FilePath  string     `json:"file_path"`
	StartLine int        `json:"start_line"`
	CaseIDs   []int      `json:"case_ids"`
	Edges     []CaseEdge `json:"edges"`
	Lowered   bool       `json:"lowered"`
}

// TranspileResult is the per-file outcome of running the lowering pass:
// every generator function found, whether it lowered cleanly, and any
// Diagnostics raised along the way. AST serialization back to source text
// is an external collaborator this core never takes on (spec.md §1), so a
// result describes the transform rather than carrying rendered output.
type TranspileResult struct {
	FilePath    string           `json:"file_path"`
	Functions   []FunctionReport `json:"functions"`
	Diagnostics []Diagnostic     `json:"diagnostics"`
}

// LowerSummary aggregates a batch lowering run across every file
// processed by LowerUseCase.
type LowerSummary struct {
	FilesProcessed   int `json:"files_processed"`
	FunctionsFound   int `json:"functions_found"`
	FunctionsLowered int `json:"functions_lowered"`
	FunctionsFailed  int `json:"functions_failed"`
	TotalCases       int `json:"total_cases"`
}

// LowerResponse is the top-level result of `genlower lower`.
type LowerResponse struct {
	Results     []TranspileResult `json:"results"`
	Summary     LowerSummary      `json:"summary"`
	GeneratedAt time.Time         `json:"generated_at"`
	DurationMs  int64             `json:"duration_ms"`
	Version     string            `json:"version"`
}

// LowerRequest carries the inputs for one lowering run: the file/directory
// paths to process and the output shape the caller wants back.
type LowerRequest struct {
	Paths           []string
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	OutputFormat    OutputFormat
	ConfigPath      string
}

// DefaultLowerRequest returns a LowerRequest with the defaults `genlower
// lower` falls back to when a flag isn't set.
func DefaultLowerRequest() LowerRequest {
	return LowerRequest{
		Recursive:    true,
		OutputFormat: OutputFormatText,
	}
}
