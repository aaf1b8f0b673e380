package transpiler

import (
	"github.com/ludo-technologies/genlower/internal/decompose"
	"github.com/ludo-technologies/genlower/internal/parser"
)

// YieldExposer rewrites an expression containing a yield so the yield no
// longer sits inside a compound expression (spec.md §4.2): it repeatedly
// asks the external ExpressionDecomposer to hoist the offending
// subexpression into a preceding temporary, until either no yield remains
// nested (exposure complete) or the decomposer reports the expression is
// undecomposable.
type YieldExposer struct {
	decomposer *decompose.Decomposer
}

// NewYieldExposer creates a YieldExposer backed by decomposer.
func NewYieldExposer(decomposer *decompose.Decomposer) *YieldExposer {
	return &YieldExposer{decomposer: decomposer}
}

// Expose decomposes expr until every yield within it is either the whole
// of expr (a bare `yield E`, left for the caller's case-split step) or
// has already been hoisted into one of the returned declarations. It
// returns the rewritten expression, the ordered list of temp
// declarations to lower immediately before the statement containing
// expr, and ok=false if a yield could not be decomposed (the caller
// should abort the enclosing function's lowering with a diagnostic).
// Each returned declaration still embeds the yield it was hoisted from
// and has had its markers cleared (clearMarkers in walk.go); the caller
// (FunctionTranspiler.exposeOne) re-marks it and feeds it back through
// transpileStatement rather than emitting it verbatim.
func (y *YieldExposer) Expose(expr *parser.Node) (rewritten *parser.Node, decls []*parser.Node, ok bool) {
	for {
		if expr == nil || !containsYield(expr) {
			return expr, decls, true
		}
		if expr.IsYield() {
			// The whole expression IS the yield: nothing left to hoist.
			// The caller splits the case around it directly.
			return expr, decls, true
		}

		result, decl, next := y.decomposer.DecomposeOne(expr)
		switch result {
		case decompose.NoOp:
			return next, decls, true
		case decompose.Decomposed:
			clearMarkers(decl)
			decls = append(decls, decl)
			expr = next
		case decompose.Undecomposable:
			return expr, decls, false
		}
	}
}
