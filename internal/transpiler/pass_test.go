package transpiler

import (
	"testing"

	"github.com/ludo-technologies/genlower/internal/testutil"
)

func TestDiscoverGenerators_InnermostFirst(t *testing.T) {
	ast := testutil.CreateTestAST(t, `
		function* outer() {
			function* inner() {
				yield 1;
			}
			yield inner();
		}
	`)

	found := discoverGenerators(ast)
	if len(found) != 2 {
		t.Fatalf("expected 2 generator functions, got %d", len(found))
	}
	if found[0].Name != "inner" {
		t.Errorf("expected inner to be discovered first, got %q", found[0].Name)
	}
	if found[1].Name != "outer" {
		t.Errorf("expected outer to be discovered last, got %q", found[1].Name)
	}
}

func TestDiscoverGenerators_SkipsNonGeneratorFunctions(t *testing.T) {
	ast := testutil.CreateTestAST(t, `
		function plain() { return 1; }
		function* gen() { yield 1; }
	`)

	found := discoverGenerators(ast)
	if len(found) != 1 {
		t.Fatalf("expected 1 generator function, got %d", len(found))
	}
	if found[0].Name != "gen" {
		t.Errorf("expected gen, got %q", found[0].Name)
	}
}

func TestProgram_LowersNestedGeneratorsInDependencyOrder(t *testing.T) {
	ast := testutil.CreateTestAST(t, `
		function* outer() {
			function* inner() {
				yield 1;
			}
			yield inner();
		}
	`)

	outcomes := Program(ast, DefaultPolicy(), nil)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Diag != nil {
			t.Fatalf("unexpected diagnostic for %q: %v", o.Name, o.Diag)
		}
		if o.Result == nil {
			t.Fatalf("expected a Result for %q", o.Name)
		}
	}
	// inner is lowered before outer, so by the time outer's own
	// FunctionTranspiler runs, inner.Generator is already false and
	// outer's body contains no marked yields referring to a still-raw
	// nested generator.
	if outcomes[0].Name != "inner" || outcomes[1].Name != "outer" {
		t.Fatalf("expected [inner, outer] order, got [%s, %s]", outcomes[0].Name, outcomes[1].Name)
	}
}

func TestProgram_IsolatesDiagnosticPerFunction(t *testing.T) {
	ast := testutil.CreateTestAST(t, `
		function* bad() {
			var v = (1 && (yield 1));
		}
		function* good() {
			yield 1;
		}
	`)

	outcomes := Program(ast, DefaultPolicy(), nil)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}

	var badOutcome, goodOutcome *FunctionOutcome
	for i := range outcomes {
		switch outcomes[i].Name {
		case "bad":
			badOutcome = &outcomes[i]
		case "good":
			goodOutcome = &outcomes[i]
		}
	}

	if badOutcome == nil || badOutcome.Diag == nil {
		t.Fatal("expected bad() to produce a diagnostic")
	}
	if goodOutcome == nil || goodOutcome.Result == nil {
		t.Fatal("expected good() to lower cleanly despite bad() failing")
	}
}

func TestProgram_EmptyProgramYieldsNoOutcomes(t *testing.T) {
	ast := testutil.CreateTestAST(t, `var x = 1;`)
	outcomes := Program(ast, DefaultPolicy(), nil)
	if len(outcomes) != 0 {
		t.Fatalf("expected no outcomes for a generator-free program, got %d", len(outcomes))
	}
}
