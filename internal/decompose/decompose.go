// Package decompose implements the external ExpressionDecomposer
// collaborator spec.md §1/§4.2 names: given an expression that embeds a
// `yield`, it pulls that yield out into a preceding temporary declaration
// so the caller (YieldExposer) can repeat until the yield stands alone as
// the right-hand side of a simple assignment.
//
// This is deliberately narrower than a general-purpose expression
// decomposer (spec.md's Non-goals reserve that as an external
// responsibility); it only handles the one case the core ever asks of it:
// hoisting a single yield out of the expression tree it is embedded in,
// refusing when the yield sits on a conditionally-evaluated branch where
// hoisting would change which side effects run.
package decompose

import "github.com/ludo-technologies/genlower/internal/parser"

// Result reports what DecomposeOne did.
type Result int

const (
	// NoOp means expr needed no further decomposition (no yield nested in
	// a compound expression remains).
	NoOp Result = iota
	// Decomposed means one yield was hoisted into tempDecl and expr was
	// rewritten in place to reference the temporary.
	Decomposed
	// Undecomposable means a yield was found but sits where hoisting it
	// would reorder or skip side effects (the conditionally-evaluated
	// side of a logical or conditional expression).
	Undecomposable
)

// Decomposer hoists yield subexpressions into temporaries, naming each one
// via nextTemp.
type Decomposer struct {
	nextTemp func() string
}

// New creates a Decomposer. nextTemp must return a fresh, unique
// identifier on every call (the caller owns the naming convention, e.g.
// "$jscomp$generator$temp$0", "$jscomp$generator$temp$1", ...).
func New(nextTemp func() string) *Decomposer {
	return &Decomposer{nextTemp: nextTemp}
}

// site describes where, within expr, the located yield sits.
type site struct {
	yieldNode   *parser.Node
	conditional bool
}

// DecomposeOne finds a yield embedded in a compound subexpression of expr
// and hoists it into a temporary. Call repeatedly (YieldExposer's loop)
// until it reports NoOp. expr must already contain at least one yield;
// passing a yield-free expression always reports NoOp.
func (d *Decomposer) DecomposeOne(expr *parser.Node) (Result, *parser.Node, *parser.Node) {
	if expr == nil {
		return NoOp, nil, expr
	}
	if expr.IsYield() {
		// expr itself IS the yield: nothing nested to pull out.
		return NoOp, nil, expr
	}

	s := locate(expr, false)
	if s == nil {
		return NoOp, nil, expr
	}
	if s.conditional {
		return Undecomposable, nil, expr
	}

	tempName := d.nextTemp()
	tempIdent := parser.NewNode(parser.NodeIdentifier)
	tempIdent.Name = tempName

	yieldNode := s.yieldNode
	yieldNode.ReplaceWith(tempIdent)

	decl := declareTemp(tempName, yieldNode)
	return Decomposed, decl, expr
}

// declareTemp builds `var tempName = init;` as a VariableDeclaration
// statement with a single declarator. init still embeds the yield it was
// hoisted from, so this declaration is not generator-safe: the caller
// (YieldExposer/FunctionTranspiler) must re-mark and re-lower it rather
// than emit it verbatim.
func declareTemp(tempName string, init *parser.Node) *parser.Node {
	declarator := parser.NewNode(parser.NodeVariableDeclarator)
	declarator.Name = tempName
	declarator.Init = init
	init.Parent = declarator

	decl := parser.NewNode(parser.NodeVariableDeclaration)
	decl.Kind = "var"
	decl.Declarations = []*parser.Node{declarator}
	declarator.Parent = decl
	return decl
}

// locate performs a pre-order search for the first yield in expr,
// tracking whether the path from expr's root to that yield crosses a
// point where evaluation is conditional: the non-test branch of a
// conditional expression, or the right operand of a logical `&&`/`||`
// (its left operand always evaluates; its right does not).
func locate(n *parser.Node, conditional bool) *site {
	if n == nil {
		return nil
	}
	if n.IsYield() {
		return &site{yieldNode: n, conditional: conditional}
	}

	switch n.Type {
	case parser.NodeLogicalExpression:
		if found := locate(n.Left, conditional); found != nil {
			return found
		}
		return locate(n.Right, true)

	case parser.NodeConditionalExpression:
		if found := locate(n.Test, conditional); found != nil {
			return found
		}
		if found := locate(n.Consequent, true); found != nil {
			return found
		}
		return locate(n.Alternate, true)

	case parser.NodeAssignmentExpression:
		if found := locate(n.Left, conditional); found != nil {
			return found
		}
		return locate(n.Right, conditional)

	case parser.NodeBinaryExpression:
		if found := locate(n.Left, conditional); found != nil {
			return found
		}
		return locate(n.Right, conditional)

	case parser.NodeUnaryExpression, parser.NodeUpdateExpression,
		parser.NodeSpreadElement, parser.NodeAwaitExpression:
		return locate(n.Argument, conditional)

	case parser.NodeSequenceExpression:
		for _, child := range n.Children {
			if found := locate(child, conditional); found != nil {
				return found
			}
		}
		return nil

	case parser.NodeCallExpression, parser.NodeNewExpression:
		if found := locate(n.Callee, conditional); found != nil {
			return found
		}
		for _, arg := range n.Arguments {
			if found := locate(arg, conditional); found != nil {
				return found
			}
		}
		return nil

	case parser.NodeMemberExpression:
		if found := locate(n.Object, conditional); found != nil {
			return found
		}
		return locate(n.Property, conditional)

	case parser.NodeArrayExpression:
		for _, el := range n.Children {
			if found := locate(el, conditional); found != nil {
				return found
			}
		}
		return nil

	case parser.NodeObjectExpression:
		for _, prop := range n.Children {
			if found := locate(prop, conditional); found != nil {
				return found
			}
		}
		return nil
	}

	return nil
}
