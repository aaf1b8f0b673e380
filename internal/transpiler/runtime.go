package transpiler

import (
	"fmt"

	"github.com/ludo-technologies/genlower/internal/parser"
)

// Generated identifier conventions (spec.md §6), with a "$<level>" suffix
// appended when level > 0. Program passes each function's index in its
// innermost-first order as the level, not its nesting depth, so every
// function lowered in one run gets its own names and an outer function's
// names never collide with one it has already rewritten; a generator that
// is not nested also gets a suffix unless it is the first in that order.
const (
	contextParamBase  = "$jscomp$generator$context"
	selfFunctionBase  = "$jscomp$generator$function"
	argumentsVarBase  = "$jscomp$generator$arguments"
	thisVarBase       = "$jscomp$generator$this"
	forInHolderPrefix = "$jscomp$generator$forin$"
	tempPrefix        = "$jscomp$generator$temp$"
)

func mangled(base string, level int) string {
	if level == 0 {
		return base
	}
	return fmt.Sprintf("%s$%d", base, level)
}

func identifier(name string) *parser.Node {
	n := parser.NewNode(parser.NodeIdentifier)
	n.Name = name
	return n
}

func numberLiteral(v int) *parser.Node {
	n := parser.NewNode(parser.NodeNumberLiteral)
	n.Value = v
	n.GeneratorSafe = true
	return n
}

func memberExpr(object *parser.Node, property string) *parser.Node {
	n := parser.NewNode(parser.NodeMemberExpression)
	n.Object = object
	n.Property = identifier(property)
	object.Parent = n
	n.Property.Parent = n
	n.GeneratorSafe = true
	return n
}

func callExpr(callee *parser.Node, args ...*parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeCallExpression)
	n.Callee = callee
	callee.Parent = n
	n.Arguments = args
	for _, a := range args {
		if a != nil {
			a.Parent = n
		}
	}
	n.GeneratorSafe = true
	return n
}

func exprStatement(expr *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeExpressionStatement)
	n.Argument = expr
	expr.Parent = n
	n.GeneratorSafe = true
	return n
}

func returnStatement(expr *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeReturnStatement)
	n.Argument = expr
	if expr != nil {
		expr.Parent = n
	}
	n.GeneratorSafe = true
	return n
}

func breakStatement() *parser.Node {
	n := parser.NewNode(parser.NodeBreakStatement)
	n.GeneratorSafe = true
	return n
}

func assignmentStatement(left, right *parser.Node) *parser.Node {
	assign := parser.NewNode(parser.NodeAssignmentExpression)
	assign.Operator = "="
	assign.Left = left
	assign.Right = right
	left.Parent = assign
	right.Parent = assign
	assign.GeneratorSafe = true
	return exprStatement(assign)
}

func throwStatement(expr *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeThrowStatement)
	n.Argument = expr
	expr.Parent = n
	n.GeneratorSafe = true
	return n
}

// varDecl builds `var name [= init];` as a single-declarator
// VariableDeclaration.
func varDecl(kind, name string, init *parser.Node) *parser.Node {
	declarator := parser.NewNode(parser.NodeVariableDeclarator)
	declarator.Name = name
	declarator.Init = init
	if init != nil {
		init.Parent = declarator
	}
	decl := parser.NewNode(parser.NodeVariableDeclaration)
	decl.Kind = kind
	decl.Declarations = []*parser.Node{declarator}
	declarator.Parent = decl
	decl.GeneratorSafe = true
	return decl
}

// contextMethodCall builds `contextName.method(args...)`.
func contextMethodCall(contextName, method string, args ...*parser.Node) *parser.Node {
	return callExpr(memberExpr(identifier(contextName), method), args...)
}
