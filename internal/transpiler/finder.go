package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// YieldFinder locates the unique yield node within an exposed subtree
// (spec.md §4.3). After YieldExposer has run on a marked statement,
// exactly one yield remains in it.
type YieldFinder struct{}

// NewYieldFinder creates a YieldFinder.
func NewYieldFinder() *YieldFinder {
	return &YieldFinder{}
}

// Find returns the single yield node in n's subtree, not crossing a
// nested function boundary. It panics with an InternalError if it finds
// zero or more than one -- both are bugs in the pass, not user errors.
func (f *YieldFinder) Find(n *parser.Node) *parser.Node {
	var found []*parser.Node
	f.collect(n, &found)
	if len(found) != 1 {
		panicInternal("YieldFinder.Find", "expected exactly one yield in exposed subtree, found %d", len(found))
	}
	return found[0]
}

func (f *YieldFinder) collect(n *parser.Node, found *[]*parser.Node) {
	if n == nil || n.IsFunction() {
		return
	}
	if n.IsYield() {
		*found = append(*found, n)
		return
	}
	for _, c := range directChildren(n) {
		f.collect(c, found)
	}
}
