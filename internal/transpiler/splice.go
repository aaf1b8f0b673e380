package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

func indexInBody(parent, n *parser.Node) int {
	if parent == nil {
		return -1
	}
	for i, c := range parent.Body {
		if c == n {
			return i
		}
	}
	return -1
}

// spliceReplace replaces statement n with stmts, preserving their order.
// When n sits in a Body list, the extra statements are inserted right
// after it; when n occupies a single-statement slot (an `if`'s
// unbraced consequent/alternate, a label's body, etc.), stmts are
// wrapped in a block first since those slots hold exactly one node.
func spliceReplace(n *parser.Node, stmts []*parser.Node) {
	if n == nil || n.Parent == nil || len(stmts) == 0 {
		return
	}
	parent := n.Parent
	if idx := indexInBody(parent, n); idx >= 0 {
		n.ReplaceWith(stmts[0])
		for i := 1; i < len(stmts); i++ {
			parent.AddChildAt(idx+i, stmts[i])
		}
		return
	}

	block := parser.NewNode(parser.NodeBlockStatement)
	block.Body = stmts
	for _, s := range stmts {
		s.Parent = block
	}
	block.GeneratorSafe = true
	n.ReplaceWith(block)
}
