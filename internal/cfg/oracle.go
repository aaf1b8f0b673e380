package cfg

import "github.com/ludo-technologies/genlower/internal/parser"

// Oracle answers the two CFG questions spec.md §4.4/§9 names as the core's
// only coupling to control-flow analysis:
//
//  1. can execution fall off the end of a function body (EndReachable)?
//  2. does a switch-case body have exactly one incoming edge, i.e. is it
//     reachable only via its own `case` label (SingleEntryCaseBody)?
//
// A reimplementation of the generator lowering pass may substitute any CFG
// backend that answers these two predicates correctly.
type Oracle struct{}

// NewOracle creates an Oracle.
func NewOracle() *Oracle {
	return &Oracle{}
}

// EndReachable reports whether the end of body is reachable, i.e. whether
// a `return` appended after the last statement of body would sit in the
// entry block or have any in-edges. FunctionTranspiler calls this once per generator function
// (spec.md §4.4 step 1) to decide whether a final jumpToEnd() must be
// emitted.
func (o *Oracle) EndReachable(body []*parser.Node) bool {
	probe := parser.NewNode(parser.NodeReturnStatement)
	statements := append(append([]*parser.Node{}, body...), probe)

	b := NewBuilder()
	g := b.Build("probe", statements)

	block := g.BlockOf(probe)
	return block == g.Entry || block.InDegree() > 0
}

// SingleEntryCaseBody reports whether caseNode's body, within switchStmt,
// is reachable only through its own case label (spec.md §4.4.l's
// "provably the sole entry via the CFG oracle" tightening).
func (o *Oracle) SingleEntryCaseBody(switchStmt *parser.Node, caseNode *parser.Node) bool {
	b := NewBuilder()
	g := b.Build("switch-probe", []*parser.Node{switchStmt})

	block, ok := g.CaseBlocks[caseNode]
	if !ok {
		return false
	}
	return block.InDegree() == 1
}
