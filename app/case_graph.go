package app

import "github.com/ludo-technologies/genlower/internal/parser"

// jumpMethods are the runtime calls whose case-id argument is reported as
// a "jumpTo" edge (spec.md §6); every other method that carries a case-id
// literal argument (yield's next case, setFinallyBlock's target,
// leaveTryBlock's target, ...) is reported as a "reference" edge instead.
var jumpMethods = map[string]bool{
	"jumpTo":                   true,
	"jumpThroughFinallyBlocks": true,
}

// caseGraphEdgeMethods lists every runtime method emit.go can attach a
// case-id literal argument to, so extractCaseGraph recognizes all of them
// instead of just the jump primitives.
var caseGraphEdgeMethods = map[string]bool{
	"jumpTo":                   true,
	"jumpThroughFinallyBlocks": true,
	"yield":                    true,
	"yieldAll":                 true,
	"setFinallyBlock":          true,
	"setCatchFinallyBlocks":    true,
	"leaveTryBlock":            true,
	"enterCatchBlock":          true,
	"enterFinallyBlock":        true,
	"leaveFinallyBlock":        true,
}

// caseID int value, kind string
type caseEdge struct {
	from, to int
	kind     string
}

// extractCaseGraph walks a lowered function's generated program body and
// recovers the surviving case ids and edges Finalize left behind, for
// FunctionReport / --dot consumers. It never mutates the tree.
func extractCaseGraph(programFn *parser.Node) (ids []int, edges []caseEdge) {
	switchNode := findSwitch(programFn)
	if switchNode == nil {
		return nil, nil
	}

	for _, clause := range switchNode.Cases {
		id, ok := literalInt(clause.Test)
		if !ok {
			continue
		}
		ids = append(ids, id)

		for _, stmt := range clause.Body {
			collectEdgesFrom(stmt, id, &edges)
		}
	}
	return ids, edges
}

func findSwitch(n *parser.Node) *parser.Node {
	var found *parser.Node
	n.Walk(func(node *parser.Node) bool {
		if found != nil {
			return false
		}
		if node.Type == parser.NodeSwitchStatement {
			found = node
			return false
		}
		return true
	})
	return found
}

func collectEdgesFrom(n *parser.Node, from int, edges *[]caseEdge) {
	if n == nil {
		return
	}
	n.Walk(func(node *parser.Node) bool {
		if node.Type != parser.NodeCallExpression || node.Callee == nil {
			return true
		}
		callee := node.Callee
		if callee.Type != parser.NodeMemberExpression || callee.Property == nil {
			return true
		}
		method := callee.Property.Name
		if !caseGraphEdgeMethods[method] || len(node.Arguments) == 0 {
			return true
		}
		to, ok := literalInt(node.Arguments[0])
		if !ok {
			return true
		}
		kind := "reference"
		if jumpMethods[method] {
			kind = "jumpTo"
		}
		*edges = append(*edges, caseEdge{from: from, to: to, kind: kind})
		return true
	})
}

func literalInt(n *parser.Node) (int, bool) {
	if n == nil || n.Type != parser.NodeNumberLiteral {
		return 0, false
	}
	v, ok := n.Value.(int)
	return v, ok
}
