package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// directChildren enumerates n's direct descendants across every field the
// AST model exposes them through, in left-to-right source order. It is
// the shared descent used by MarkerPropagator, YieldFinder and
// UnmarkedSubtreeFixer so the three walks agree on structure.
func directChildren(n *parser.Node) []*parser.Node {
	if n == nil {
		return nil
	}
	out := make([]*parser.Node, 0, 8)
	out = append(out, n.Children...)
	out = append(out, n.Params...)
	out = append(out, n.Body...)
	out = append(out, n.Cases...)
	out = append(out, n.Handlers...)
	out = append(out, n.Arguments...)
	out = append(out, n.Declarations...)

	appendIf := func(c *parser.Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	appendIf(n.Test)
	appendIf(n.Consequent)
	appendIf(n.Alternate)
	appendIf(n.Init)
	appendIf(n.Update)
	appendIf(n.Handler)
	appendIf(n.Finalizer)
	appendIf(n.Left)
	appendIf(n.Right)
	appendIf(n.Argument)
	appendIf(n.Callee)
	appendIf(n.Object)
	appendIf(n.Property)
	return out
}

// containsYield reports whether n's subtree (not crossing a nested
// function boundary) contains at least one yield. It is used where a
// fresh, marker-independent check is needed (e.g. after a rewrite that
// has not been re-marked yet).
func containsYield(n *parser.Node) bool {
	if n == nil {
		return false
	}
	if n.IsYield() {
		return true
	}
	if n.IsFunction() {
		return false
	}
	for _, c := range directChildren(n) {
		if containsYield(c) {
			return true
		}
	}
	return false
}

// clearMarkers resets GeneratorMarker across n's subtree, not crossing a
// nested function boundary. YieldExposer uses this after restructuring a
// subtree so stale markers from before the rewrite cannot be mistaken for
// markers computed by MarkerPropagator.
func clearMarkers(n *parser.Node) {
	if n == nil || n.IsFunction() {
		return
	}
	n.GeneratorMarker = false
	for _, c := range directChildren(n) {
		clearMarkers(c)
	}
}
