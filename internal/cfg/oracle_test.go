package cfg

import (
	"testing"

	"github.com/ludo-technologies/genlower/internal/parser"
)

func ident(name string) *parser.Node {
	n := parser.NewNode(parser.NodeIdentifier)
	n.Name = name
	return n
}

func exprStmt(e *parser.Node) *parser.Node {
	s := parser.NewNode(parser.NodeExpressionStatement)
	s.Argument = e
	e.Parent = s
	return s
}

func returnStmt() *parser.Node {
	return parser.NewNode(parser.NodeReturnStatement)
}

func ifStmt(test *parser.Node, consequent *parser.Node, alternate *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeIfStatement)
	n.Test = test
	n.Consequent = consequent
	n.Alternate = alternate
	return n
}

func block(stmts ...*parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeBlockStatement)
	n.Body = stmts
	return n
}

func TestOracle_EndReachable_FallsThrough(t *testing.T) {
	o := NewOracle()
	body := []*parser.Node{exprStmt(ident("a"))}
	if !o.EndReachable(body) {
		t.Fatal("expected end reachable after a plain expression statement")
	}
}

func TestOracle_EndReachable_AfterUnconditionalReturn(t *testing.T) {
	o := NewOracle()
	body := []*parser.Node{returnStmt()}
	if o.EndReachable(body) {
		t.Fatal("expected end unreachable after an unconditional return")
	}
}

func TestOracle_EndReachable_IfWithoutElseStillFallsThrough(t *testing.T) {
	o := NewOracle()
	body := []*parser.Node{
		ifStmt(ident("cond"), block(returnStmt()), nil),
	}
	if !o.EndReachable(body) {
		t.Fatal("expected end reachable: the false branch of an if without else falls through")
	}
}

func TestOracle_EndReachable_IfElseBothReturn(t *testing.T) {
	o := NewOracle()
	body := []*parser.Node{
		ifStmt(ident("cond"), block(returnStmt()), block(returnStmt())),
	}
	if o.EndReachable(body) {
		t.Fatal("expected end unreachable: both branches return")
	}
}

func breakStmt() *parser.Node {
	return parser.NewNode(parser.NodeBreakStatement)
}

func TestOracle_SingleEntryCaseBody_NoFallthrough(t *testing.T) {
	o := NewOracle()

	caseA := parser.NewNode(parser.NodeCaseClause)
	caseA.Test = ident("1")
	caseA.Body = []*parser.Node{exprStmt(ident("a")), breakStmt()}

	caseB := parser.NewNode(parser.NodeCaseClause)
	caseB.Test = ident("2")
	caseB.Body = []*parser.Node{exprStmt(ident("b")), breakStmt()}

	switchStmt := parser.NewNode(parser.NodeSwitchStatement)
	switchStmt.Test = ident("addr")
	switchStmt.Cases = []*parser.Node{caseA, caseB}

	if !o.SingleEntryCaseBody(switchStmt, caseA) {
		t.Error("expected caseA to be single-entry: reachable only via its own label")
	}
	if !o.SingleEntryCaseBody(switchStmt, caseB) {
		t.Error("expected caseB to be single-entry: caseA breaks instead of falling through")
	}
}

func TestOracle_SingleEntryCaseBody_Fallthrough(t *testing.T) {
	o := NewOracle()

	caseA := parser.NewNode(parser.NodeCaseClause)
	caseA.Test = ident("1")
	caseA.Body = []*parser.Node{exprStmt(ident("a"))}

	caseB := parser.NewNode(parser.NodeCaseClause)
	caseB.Test = ident("2")
	caseB.Body = []*parser.Node{exprStmt(ident("b")), breakStmt()}

	switchStmt := parser.NewNode(parser.NodeSwitchStatement)
	switchStmt.Test = ident("addr")
	switchStmt.Cases = []*parser.Node{caseA, caseB}

	if o.SingleEntryCaseBody(switchStmt, caseB) {
		t.Error("expected caseB to have two in-edges: its own label and fallthrough from caseA")
	}
}
