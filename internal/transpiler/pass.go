package transpiler

import (
	"log"

	"github.com/ludo-technologies/genlower/internal/cfg"
	"github.com/ludo-technologies/genlower/internal/parser"
)

// FunctionOutcome is one generator function's result from a Program run:
// either Result is set (lowering succeeded) or Diag is set (a user-visible
// diagnostic aborted this function only, per spec.md §7).
type FunctionOutcome struct {
	Node   *parser.Node
	Name   string
	Result *Result
	Diag   *Diagnostic
}

// discoverGenerators collects every generator function in root, ordered
// innermost-first. spec.md §2's driver walks "each generator function...
// post-order (innermost first)" so that by the time FunctionTranspiler
// runs on an outer generator, every generator nested inside its body has
// already been replaced by its runtime.createGenerator(...) call and
// carries Generator == false -- nothing marks it for a second pass.
//
// A node cannot be nested inside a sibling at the same depth, only inside
// an ancestor, so sorting the pre-order walk by descending nesting depth
// is equivalent to a true post-order for this purpose: every descendant
// generator sorts ahead of the ancestor that encloses it.
func discoverGenerators(root *parser.Node) []*parser.Node {
	type found struct {
		node  *parser.Node
		depth int
	}
	var all []found

	// walk mirrors (*parser.Node).Walk's field traversal order exactly, but
	// threads a nesting depth through so the caller can sort innermost-first
	// without relying on Parent (the parser never sets it on Body/Params/
	// Cases children, only AddChild does).
	var walk func(n *parser.Node, depth int)
	walk = func(n *parser.Node, depth int) {
		if n == nil {
			return
		}
		nextDepth := depth
		if n.IsFunction() && n.Generator {
			all = append(all, found{node: n, depth: depth})
			nextDepth = depth + 1
		}

		for _, child := range n.Children {
			walk(child, nextDepth)
		}
		for _, param := range n.Params {
			walk(param, nextDepth)
		}
		for _, stmt := range n.Body {
			walk(stmt, nextDepth)
		}
		for _, c := range n.Cases {
			walk(c, nextDepth)
		}
		for _, h := range n.Handlers {
			walk(h, nextDepth)
		}
		for _, a := range n.Arguments {
			walk(a, nextDepth)
		}
		for _, d := range n.Declarations {
			walk(d, nextDepth)
		}
		for _, sp := range n.Specifiers {
			walk(sp, nextDepth)
		}
		walk(n.Test, nextDepth)
		walk(n.Consequent, nextDepth)
		walk(n.Alternate, nextDepth)
		walk(n.Init, nextDepth)
		walk(n.Update, nextDepth)
		walk(n.Handler, nextDepth)
		walk(n.Finalizer, nextDepth)
		walk(n.Left, nextDepth)
		walk(n.Right, nextDepth)
		walk(n.Argument, nextDepth)
		walk(n.Callee, nextDepth)
		walk(n.Object, nextDepth)
		walk(n.Property, nextDepth)
		walk(n.Source, nextDepth)
		walk(n.Declaration, nextDepth)
		walk(n.TypeAnnotation, nextDepth)
	}
	walk(root, 0)

	// Stable sort descending by depth: deepest (innermost) generators
	// first, ties broken by discovery order.
	ordered := make([]*parser.Node, len(all))
	for i := range ordered {
		ordered[i] = all[i].node
	}
	for i := 1; i < len(all); i++ {
		j := i
		for j > 0 && all[j-1].depth < all[j].depth {
			all[j-1], all[j] = all[j], all[j-1]
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			j--
		}
	}
	return ordered
}

// Program lowers every generator function reachable from root (spec.md §2's
// top-level driver): it discovers them innermost-first, runs a fresh
// FunctionTranspiler per function (spec.md §5: no shared mutable state
// across functions), and isolates InternalError panics so one malformed
// function doesn't abort the whole file. A nil logger discards the
// transpilers' internal log output. Each function's level is its index in
// that innermost-first order, not its nesting depth.
func Program(root *parser.Node, policy Policy, logger *log.Logger) []FunctionOutcome {
	oracle := cfg.NewOracle()
	generators := discoverGenerators(root)
	outcomes := make([]FunctionOutcome, 0, len(generators))

	for level, fn := range generators {
		outcome := runOne(oracle, policy, logger, fn, level)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// runOne transpiles a single function, converting a panicked InternalError
// into a Diagnostic so Program can continue with the remaining functions
// in the batch (mirroring how service.ParallelExecutorImpl isolates one
// failing file-level task from the rest).
func runOne(oracle *cfg.Oracle, policy Policy, logger *log.Logger, fn *parser.Node, level int) (outcome FunctionOutcome) {
	name := fn.Name
	outcome = FunctionOutcome{Node: fn, Name: name}

	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				outcome.Diag = &Diagnostic{
					Function: name,
					Message:  ie.Error(),
					Location: fn.Location,
				}
				return
			}
			panic(r)
		}
	}()

	ft := NewFunctionTranspiler(oracle, policy, logger, level)
	result, diag := ft.Transpile(fn)
	outcome.Result = result
	outcome.Diag = diag
	return outcome
}
