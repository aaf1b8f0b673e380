package transpiler

import (
	"fmt"

	"github.com/ludo-technologies/genlower/internal/parser"
)

// Diagnostic is a user-visible compiler diagnostic produced while
// lowering one generator function (spec.md §7's first two taxonomy
// entries: undecomposable yield, yield in a switch-case label). It is a
// value, never a panic -- a batch driver decides whether to keep going
// with the next function. domain.Diagnostic mirrors this shape for the
// service/app layers that never import this package directly.
type Diagnostic struct {
	Function string
	Message  string
	Location parser.Location
}

func (d *Diagnostic) Error() string {
	if d.Function != "" {
		return fmt.Sprintf("%s: %s: %s", d.Location, d.Function, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Location, d.Message)
}

// InternalError signals a violated invariant inside the pass itself --
// a programmer error, never a user-facing diagnostic (spec.md §7's last
// taxonomy entry). FunctionTranspiler panics with this type; it is not
// recovered inside this package. A caller that wants per-function
// isolation across a batch (the way ParallelExecutor isolates one
// failing task from the rest) recovers it at that boundary.
type InternalError struct {
	Where  string
	Detail string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("genlower: internal invariant violated in %s: %s", e.Where, e.Detail)
}

func panicInternal(where, detail string, args ...interface{}) {
	panic(&InternalError{Where: where, Detail: fmt.Sprintf(detail, args...)})
}

// diagnosticAbort is panicked by lowering code to unwind out of a
// function's transpile attempt cleanly. Transpile recovers it and
// returns it as a Diagnostic; because every FunctionTranspiler/
// TranspilationContext pair is single-use and per-function (spec.md §5:
// "no global mutable state"), discarding the whole attempt on abort
// trivially satisfies "all scratch stacks restored" -- nothing outlives
// the aborted attempt to be left imbalanced.
type diagnosticAbort struct {
	diag *Diagnostic
}

func abort(loc parser.Location, format string, args ...interface{}) {
	panic(diagnosticAbort{diag: &Diagnostic{Message: fmt.Sprintf(format, args...), Location: loc}})
}
