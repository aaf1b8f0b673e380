package transpiler

import (
	"testing"

	"github.com/ludo-technologies/genlower/internal/cfg"
	"github.com/ludo-technologies/genlower/internal/parser"
	"github.com/ludo-technologies/genlower/internal/testutil"
)

func findGenerator(t *testing.T, source string) *parser.Node {
	t.Helper()
	ast := testutil.CreateTestAST(t, source)
	var fn *parser.Node
	ast.Walk(func(n *parser.Node) bool {
		if n.IsFunction() && n.Generator {
			fn = n
			return false
		}
		return true
	})
	if fn == nil {
		t.Fatalf("no generator function found in: %s", source)
	}
	return fn
}

func transpile(t *testing.T, source string) (*Result, *Diagnostic) {
	t.Helper()
	fn := findGenerator(t, source)
	ft := NewFunctionTranspiler(cfg.NewOracle(), DefaultPolicy(), nil, 0)
	return ft.Transpile(fn)
}

func TestTranspile_SingleYield_ReplacesBodyWithCreateGenerator(t *testing.T) {
	result, diag := transpile(t, `function* gen() { yield 1; }`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if result == nil {
		t.Fatal("expected a Result")
	}
	if result.ProgramFunction == nil {
		t.Fatal("expected a program function")
	}
	if !result.ProgramFunction.GeneratorSafe {
		t.Error("expected the generated program function to be marked GeneratorSafe")
	}
}

func TestTranspile_SingleYield_HasTwoCases(t *testing.T) {
	fn := findGenerator(t, `function* gen() { yield 1; }`)
	ft := NewFunctionTranspiler(cfg.NewOracle(), DefaultPolicy(), nil, 0)
	result, diag := ft.Transpile(fn)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}

	sw := findSwitchIn(t, result.ProgramFunction)
	// One case before the yield, one case resumed after it, plus the
	// synthetic program-end case.
	if len(sw.Cases) < 2 {
		t.Fatalf("expected at least 2 cases, got %d", len(sw.Cases))
	}
}

func TestTranspile_IfElseBothBranchesYield(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(x) {
			if (x) {
				yield 1;
			} else {
				yield 2;
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	sw := findSwitchIn(t, result.ProgramFunction)

	foundIf := false
	for _, c := range sw.Cases {
		for _, stmt := range c.Body {
			if stmt.Type == parser.NodeIfStatement {
				foundIf = true
			}
		}
	}
	if !foundIf {
		t.Error("expected the generated switch to retain an if-guard for the branch dispatch")
	}
}

func TestTranspile_EmbeddedYieldInReturn_NoYieldSurvivesAndCallsContextYield(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(a, b) {
			return a + (yield b);
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if containsYieldExpression(result.ProgramFunction) {
		t.Error("expected no NodeYieldExpression to survive lowering an embedded yield")
	}
	if !callsContextMethod(result.ProgramFunction, "yield") {
		t.Error("expected a context.yield call for the embedded yield")
	}
}

func TestTranspile_EmbeddedYieldInCallArgument_NoYieldSurvivesAndCallsContextYield(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(x) {
			foo(yield x);
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if containsYieldExpression(result.ProgramFunction) {
		t.Error("expected no NodeYieldExpression to survive lowering an embedded yield")
	}
	if !callsContextMethod(result.ProgramFunction, "yield") {
		t.Error("expected a context.yield call for the embedded yield")
	}
}

func TestTranspile_WhileLoopWithYield(t *testing.T) {
	result, diag := transpile(t, `
		function* gen() {
			while (true) {
				yield 1;
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	sw := findSwitchIn(t, result.ProgramFunction)
	if len(sw.Cases) < 2 {
		t.Fatalf("expected a loop-start and loop-body case at minimum, got %d", len(sw.Cases))
	}
}

func TestTranspile_UndecomposableYieldUnderLogicalAnd(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(a) {
			var v = a && (yield 1);
		}
	`)
	if diag == nil {
		t.Fatal("expected a diagnostic for a yield trapped under &&")
	}
	if result != nil {
		t.Error("expected no Result when a diagnostic is returned")
	}
}

func TestTranspile_ReturnValue(t *testing.T) {
	result, diag := transpile(t, `
		function* gen() {
			yield 1;
			return 42;
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if result.ProgramFunction == nil {
		t.Fatal("expected a program function")
	}
}

func TestTranspile_NamedFunctionKeepsSelfReference(t *testing.T) {
	result, diag := transpile(t, `function* named() { yield 1; }`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if result.SelfName != "named" {
		t.Errorf("expected self name 'named', got %q", result.SelfName)
	}
}

func TestTranspile_UnflagsGeneratorOnOriginalNode(t *testing.T) {
	fn := findGenerator(t, `function* gen() { yield 1; }`)
	ft := NewFunctionTranspiler(cfg.NewOracle(), DefaultPolicy(), nil, 0)
	if _, diag := ft.Transpile(fn); diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if fn.Generator {
		t.Error("expected Generator to be cleared on the original function node after lowering")
	}
	if len(fn.Body) != 1 || fn.Body[0].Type != parser.NodeReturnStatement {
		t.Fatalf("expected the original function body to be replaced with a single return statement, got %#v", fn.Body)
	}
}

func TestTranspile_LabeledBreakAcrossFinally(t *testing.T) {
	result, diag := transpile(t, `
		function* gen() {
			outer: for (;;) {
				try {
					yield 1;
					break outer;
				} finally {
					yield 2;
				}
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	sw := findSwitchIn(t, result.ProgramFunction)

	foundThroughFinally := false
	walkSwitchCalls(sw, func(methodName string) {
		if methodName == "jumpThroughFinallyBlocks" {
			foundThroughFinally = true
		}
	})
	if !foundThroughFinally {
		t.Error("expected the labeled break out of the try to use jumpThroughFinallyBlocks, not jumpTo")
	}
}

func TestTranspile_ForInWithYieldBody(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(o) {
			for (var k in o) {
				yield k;
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	sw := findSwitchIn(t, result.ProgramFunction)

	foundForIn := false
	walkSwitchCalls(sw, func(methodName string) {
		if methodName == "forIn" {
			foundForIn = true
		}
	})
	if !foundForIn {
		t.Error("expected the for-in loop to be rewritten through context.forIn")
	}
}

func TestTranspile_TryCatchHoistsCatchParameter(t *testing.T) {
	result, diag := transpile(t, `
		function* gen() {
			try {
				yield 1;
			} catch (e) {
				yield e;
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	found := false
	for _, h := range result.Hoisted {
		if h.Type == parser.NodeVariableDeclaration {
			for _, d := range h.Declarations {
				if d.Name == "e" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected the catch parameter 'e' to be hoisted as a top-level var")
	}
}

func TestTranspile_SwitchWithYieldedCaseBody(t *testing.T) {
	result, diag := transpile(t, `
		function* gen(x) {
			switch (x) {
				case 1:
					yield "a";
					break;
				case 2:
					yield "b";
					break;
			}
		}
	`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	sw := findSwitchIn(t, result.ProgramFunction)

	foundInnerSwitch := false
	foundJumpTo := false
	for _, c := range sw.Cases {
		for _, stmt := range c.Body {
			stmt.Walk(func(n *parser.Node) bool {
				if n.Type == parser.NodeSwitchStatement && n != sw {
					foundInnerSwitch = true
				}
				return true
			})
		}
	}
	walkSwitchCalls(sw, func(methodName string) {
		if methodName == "jumpTo" {
			foundJumpTo = true
		}
	})
	if !foundInnerSwitch {
		t.Error("expected the original switch's scrutinee/dispatch to survive as an inner switch")
	}
	if !foundJumpTo {
		t.Error("expected marked case bodies to be detached behind a jumpTo stub")
	}
}

func TestTranspile_YieldInSwitchCaseLabel_IsDiagnostic(t *testing.T) {
	_, diag := transpile(t, `
		function* gen(x) {
			switch (x) {
				case (yield 1):
					break;
			}
		}
	`)
	if diag == nil {
		t.Fatal("expected a diagnostic for a yield inside a case label expression")
	}
}

// walkSwitchCalls visits every CallExpression reachable from sw whose
// callee is a MemberExpression (i.e. a context.<method>(...) runtime
// call) and reports the method name to fn.
func walkSwitchCalls(sw *parser.Node, fn func(methodName string)) {
	sw.Walk(func(n *parser.Node) bool {
		if n.Type == parser.NodeCallExpression && n.Callee != nil && n.Callee.Type == parser.NodeMemberExpression {
			if n.Callee.Property != nil {
				fn(n.Callee.Property.Name)
			}
		}
		return true
	})
}

// containsYieldExpression reports whether root's subtree still contains a
// literal NodeYieldExpression -- a sign that an embedded yield was never
// split into its own resume case.
func containsYieldExpression(root *parser.Node) bool {
	found := false
	root.Walk(func(n *parser.Node) bool {
		if n.IsYield() {
			found = true
			return false
		}
		return true
	})
	return found
}

// callsContextMethod reports whether root's subtree contains a
// context.<methodName>(...) runtime call.
func callsContextMethod(root *parser.Node, methodName string) bool {
	found := false
	walkSwitchCalls(root, func(name string) {
		if name == methodName {
			found = true
		}
	})
	return found
}

// findSwitchIn locates the generated dispatch switch inside a lowered
// program function, looking through the optional do-while wrapper.
func findSwitchIn(t *testing.T, programFn *parser.Node) *parser.Node {
	t.Helper()
	var sw *parser.Node
	for _, stmt := range programFn.Body {
		stmt.Walk(func(n *parser.Node) bool {
			if n.Type == parser.NodeSwitchStatement {
				sw = n
				return false
			}
			return true
		})
		if sw != nil {
			break
		}
	}
	if sw == nil {
		t.Fatal("expected to find a switch statement in the generated program function")
	}
	return sw
}
