package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// MarkerPropagator is the post-order walk spec.md §4.1 describes: it
// tags every yield node with GeneratorMarker=true and propagates the bit
// to ancestors as the OR of their children's bits, never descending into
// a nested function's own body.
type MarkerPropagator struct{}

// NewMarkerPropagator creates a MarkerPropagator. It carries no state --
// a single instance may be reused across functions.
func NewMarkerPropagator() *MarkerPropagator {
	return &MarkerPropagator{}
}

// Mark walks body (typically a generator function's detached original
// body) and reports whether any statement in it contains a yield.
func (m *MarkerPropagator) Mark(body []*parser.Node) bool {
	any := false
	for _, stmt := range body {
		if m.markNode(stmt) {
			any = true
		}
	}
	return any
}

func (m *MarkerPropagator) markNode(n *parser.Node) bool {
	if n == nil {
		return false
	}
	if n.IsYield() {
		n.GeneratorMarker = true
		return true
	}
	if n.IsFunction() {
		// A nested function is its own marking scope; it is not
		// traversed here and is lowered independently (innermost first)
		// if it is itself a generator.
		n.GeneratorMarker = false
		return false
	}

	marked := false
	for _, c := range directChildren(n) {
		if m.markNode(c) {
			marked = true
		}
	}
	n.GeneratorMarker = marked
	return marked
}
