package decompose

import (
	"testing"

	"github.com/ludo-technologies/genlower/internal/parser"
)

func tempNamer() func() string {
	n := 0
	return func() string {
		name := []string{"$jscomp$generator$temp$0", "$jscomp$generator$temp$1", "$jscomp$generator$temp$2"}[n]
		n++
		return name
	}
}

func yieldExpr(arg *parser.Node) *parser.Node {
	y := parser.NewNode(parser.NodeYieldExpression)
	y.Argument = arg
	if arg != nil {
		arg.Parent = y
	}
	return y
}

func ident(name string) *parser.Node {
	n := parser.NewNode(parser.NodeIdentifier)
	n.Name = name
	return n
}

func binary(op string, left, right *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeBinaryExpression)
	n.Operator = op
	n.Left = left
	n.Right = right
	left.Parent = n
	right.Parent = n
	return n
}

func logical(op string, left, right *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeLogicalExpression)
	n.Operator = op
	n.Left = left
	n.Right = right
	left.Parent = n
	right.Parent = n
	return n
}

func TestDecomposeOne_BareYield(t *testing.T) {
	d := New(tempNamer())
	expr := yieldExpr(ident("b"))

	result, decl, out := d.DecomposeOne(expr)
	if result != NoOp {
		t.Fatalf("bare yield expression should be NoOp, got %v", result)
	}
	if decl != nil {
		t.Fatalf("NoOp must not produce a declaration")
	}
	if out != expr {
		t.Fatalf("NoOp must return expr unchanged")
	}
}

func TestDecomposeOne_BinaryExpression(t *testing.T) {
	d := New(tempNamer())
	// a + (yield b)
	expr := binary("+", ident("a"), yieldExpr(ident("b")))

	result, decl, out := d.DecomposeOne(expr)
	if result != Decomposed {
		t.Fatalf("expected Decomposed, got %v", result)
	}
	if decl == nil || !decl.IsVar() {
		t.Fatalf("expected a var declaration, got %#v", decl)
	}
	if out.Right.Type != parser.NodeIdentifier || out.Right.Name != "$jscomp$generator$temp$0" {
		t.Fatalf("expected right operand replaced by temp identifier, got %#v", out.Right)
	}
	if decl.Declarations[0].Init.Type != parser.NodeYieldExpression {
		t.Fatalf("expected temp declaration to hold the original yield, got %#v", decl.Declarations[0].Init)
	}

	// A second pass over the rewritten expr should report NoOp.
	result2, _, _ := d.DecomposeOne(out)
	if result2 != NoOp {
		t.Fatalf("expected NoOp after full exposure, got %v", result2)
	}
}

func TestDecomposeOne_LogicalShortCircuitIsUndecomposable(t *testing.T) {
	d := New(tempNamer())
	// a && (yield b)
	expr := logical("&&", ident("a"), yieldExpr(ident("b")))

	result, decl, out := d.DecomposeOne(expr)
	if result != Undecomposable {
		t.Fatalf("expected Undecomposable for yield under &&, got %v", result)
	}
	if decl != nil {
		t.Fatalf("Undecomposable must not produce a declaration")
	}
	if out != expr {
		t.Fatalf("Undecomposable must return expr unchanged")
	}
}

func TestDecomposeOne_ConditionalTestIsDecomposable(t *testing.T) {
	d := New(tempNamer())
	// (yield a) ? x : y -- yield sits in the always-evaluated test
	cond := parser.NewNode(parser.NodeConditionalExpression)
	cond.Test = yieldExpr(ident("a"))
	cond.Consequent = ident("x")
	cond.Alternate = ident("y")
	cond.Test.Parent = cond

	result, decl, out := d.DecomposeOne(cond)
	if result != Decomposed {
		t.Fatalf("expected Decomposed for yield in conditional test, got %v", result)
	}
	if decl == nil {
		t.Fatalf("expected a declaration")
	}
	if out.Test.Type != parser.NodeIdentifier {
		t.Fatalf("expected test replaced with temp identifier, got %#v", out.Test)
	}
}

func TestDecomposeOne_ConditionalBranchIsUndecomposable(t *testing.T) {
	d := New(tempNamer())
	cond := parser.NewNode(parser.NodeConditionalExpression)
	cond.Test = ident("a")
	cond.Consequent = yieldExpr(ident("x"))
	cond.Alternate = ident("y")
	cond.Consequent.Parent = cond

	result, _, _ := d.DecomposeOne(cond)
	if result != Undecomposable {
		t.Fatalf("expected Undecomposable for yield in conditional branch, got %v", result)
	}
}

func TestDecomposeOne_CallArguments(t *testing.T) {
	d := New(tempNamer())
	call := parser.NewNode(parser.NodeCallExpression)
	call.Callee = ident("f")
	arg0 := ident("a")
	arg1 := yieldExpr(ident("b"))
	call.Arguments = []*parser.Node{arg0, arg1}
	call.Callee.Parent = call
	arg0.Parent = call
	arg1.Parent = call

	result, decl, out := d.DecomposeOne(call)
	if result != Decomposed {
		t.Fatalf("expected Decomposed, got %v", result)
	}
	if decl == nil {
		t.Fatalf("expected a declaration")
	}
	if out.Arguments[1].Type != parser.NodeIdentifier {
		t.Fatalf("expected call argument replaced by temp identifier, got %#v", out.Arguments[1])
	}
}
