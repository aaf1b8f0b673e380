package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// UnmarkedSubtreeFixer is the secondary walk spec.md §4.5 describes,
// applied to yield-free subtrees emitted verbatim into a case. It
// rewrites bare return/break/continue that must now jump between cases
// instead of relying on structural control flow, replaces `this` and the
// implicit `arguments` binding with hoisted top-level names, hoists every
// `var` declaration to program-body scope, and hoists nested function
// declarations the same way.
type UnmarkedSubtreeFixer struct {
	ctx   *TranspilationContext
	level int

	hoisted []*parser.Node // var/function declarations to place at program scope
}

// NewUnmarkedSubtreeFixer creates a fixer for one function's lowering.
// One instance should be reused across every Fix call for that function
// so `this`/`arguments` are hoisted at most once and every hoisted
// declaration accumulates in one place.
func NewUnmarkedSubtreeFixer(ctx *TranspilationContext, level int) *UnmarkedSubtreeFixer {
	return &UnmarkedSubtreeFixer{ctx: ctx, level: level}
}

// Hoisted returns the var/function declarations accumulated so far, in
// the order they were first needed.
func (f *UnmarkedSubtreeFixer) Hoisted() []*parser.Node {
	return f.hoisted
}

// fixerState is the small bit of walk-local context spec.md §4.5 tracks:
// how many enclosing loops/switches (within THIS unmarked subtree) already
// give bare break/continue a valid local target, and which label names
// are declared locally (and therefore untouched).
type fixerState struct {
	breakSuppressors    int
	continueSuppressors int
	localLabels         map[string]bool
}

func (s fixerState) withLocalLabel(name string) fixerState {
	next := s
	next.localLabels = make(map[string]bool, len(s.localLabels)+1)
	for k := range s.localLabels {
		next.localLabels[k] = true
	}
	next.localLabels[name] = true
	return next
}

// Fix applies the fixer to a single unmarked statement, in place, and
// returns it (the pointer itself never changes identity at the top
// level; only its descendants are rewritten or spliced).
func (f *UnmarkedSubtreeFixer) Fix(stmt *parser.Node) *parser.Node {
	f.walk(stmt, fixerState{localLabels: map[string]bool{}})
	return stmt
}

func (f *UnmarkedSubtreeFixer) walk(n *parser.Node, st fixerState) {
	if n == nil {
		return
	}
	if n.GeneratorSafe {
		n.GeneratorSafe = false
		return
	}

	switch n.Type {
	case parser.NodeFunction, parser.NodeGeneratorFunction, parser.NodeAsyncFunction:
		f.hoistFunction(n)
		return

	case parser.NodeThisExpression:
		f.replaceThis(n)
		return

	case parser.NodeIdentifier:
		if n.Name == "arguments" {
			f.replaceArguments(n)
		}
		return

	case parser.NodeReturnStatement:
		f.fixReturn(n)
		return

	case parser.NodeBreakStatement:
		f.fixBreak(n, st)
		return

	case parser.NodeContinueStatement:
		f.fixContinue(n, st)
		return

	case parser.NodeVariableDeclaration:
		f.hoistVarDeclaration(n)
		return

	case parser.NodeLabeledStatement:
		inner := st.withLocalLabel(n.Label)
		for _, c := range n.Body {
			f.walk(c, inner)
		}
		return

	case parser.NodeSwitchStatement:
		f.walk(n.Test, st)
		inner := st
		inner.breakSuppressors++
		for _, c := range n.Cases {
			for _, stmt := range c.Body {
				f.walk(stmt, inner)
			}
		}
		return
	}

	if n.IsLoopStructure() {
		inner := st
		inner.breakSuppressors++
		inner.continueSuppressors++
		f.walk(n.Test, st)
		f.walk(n.Init, st)
		f.walk(n.Update, st)
		for _, body := range n.Body {
			f.walk(body, inner)
		}
		return
	}

	for _, c := range directChildren(n) {
		f.walk(c, st)
	}
}

// fixReturn rewrites a bare `return [E];` into `return context.return(E
// ?? undefined);` (spec.md §4.5).
func (f *UnmarkedSubtreeFixer) fixReturn(n *parser.Node) {
	value := n.Argument
	if value != nil {
		f.walk(value, fixerState{localLabels: map[string]bool{}})
	} else {
		value = identifier("undefined")
	}
	call := contextMethodCall(f.ctx.contextName, "return", value)
	n.Argument = call
	call.Parent = n
}

// fixBreak rewrites a bare break whose target now lies outside the
// switch it was generated into.
func (f *UnmarkedSubtreeFixer) fixBreak(n *parser.Node, st fixerState) {
	if n.Label != "" {
		if st.localLabels[n.Label] {
			return
		}
		lc := f.ctx.Label(n.Label)
		if lc == nil {
			panicInternal("UnmarkedSubtreeFixer.fixBreak", "unresolved label %q", n.Label)
		}
		f.jump(n, lc.Break)
		return
	}
	if st.breakSuppressors > 0 {
		return
	}
	target := f.ctx.BreakTarget()
	if target == nil {
		panicInternal("UnmarkedSubtreeFixer.fixBreak", "break outside any enclosing break target")
	}
	f.jump(n, target)
}

// fixContinue is fixBreak's analogue for continue; only loops (never
// switches) suppress a bare continue.
func (f *UnmarkedSubtreeFixer) fixContinue(n *parser.Node, st fixerState) {
	if n.Label != "" {
		if st.localLabels[n.Label] {
			return
		}
		lc := f.ctx.Label(n.Label)
		if lc == nil || lc.Continue == nil {
			panicInternal("UnmarkedSubtreeFixer.fixContinue", "unresolved continue label %q", n.Label)
		}
		f.jump(n, lc.Continue)
		return
	}
	if st.continueSuppressors > 0 {
		return
	}
	target := f.ctx.ContinueTarget()
	if target == nil {
		panicInternal("UnmarkedSubtreeFixer.fixContinue", "continue outside any enclosing continue target")
	}
	f.jump(n, target)
}

// jump replaces n with the jumpTo (or jumpThroughFinallyBlocks, if
// finally handlers are active between here and target) block.
func (f *UnmarkedSubtreeFixer) jump(n *parser.Node, target *Case) {
	var block []*parser.Node
	if ft := f.ctx.FinallyTarget(); ft != nil && target.ID < ft.ID {
		block = f.ctx.JumpThroughFinallyBlocksBlock(target)
	} else {
		block = f.ctx.JumpToBlock(target)
	}
	spliceReplace(n, block)
}

func (f *UnmarkedSubtreeFixer) replaceThis(n *parser.Node) {
	name := mangled(thisVarBase, f.level)
	if !f.ctx.thisReferenceFound {
		f.ctx.thisReferenceFound = true
		thisExpr := parser.NewNode(parser.NodeThisExpression)
		f.hoisted = append(f.hoisted, varDecl("var", name, thisExpr))
	}
	n.ReplaceWith(identifier(name))
}

func (f *UnmarkedSubtreeFixer) replaceArguments(n *parser.Node) {
	name := mangled(argumentsVarBase, f.level)
	if !f.ctx.argumentsReferenceFound {
		f.ctx.argumentsReferenceFound = true
		f.hoisted = append(f.hoisted, varDecl("var", name, identifier("arguments")))
	}
	n.Name = name
}

func (f *UnmarkedSubtreeFixer) hoistFunction(n *parser.Node) {
	n.Detach()
	f.hoisted = append(f.hoisted, n)
}

// hoistVarDeclaration splits `var x = e, y;` into a bare `var x, y;`
// hoisted to program-body scope, and a `x = e;` assignment statement (or
// a comma expression joining one assignment per initialized declarator)
// left at the original site (spec.md §4.5). A declaration with no
// initializers at all is hoisted whole and the original site is removed.
func (f *UnmarkedSubtreeFixer) hoistVarDeclaration(n *parser.Node) {
	hoistedDecl := parser.NewNode(parser.NodeVariableDeclaration)
	hoistedDecl.Kind = "var"
	hoistedDecl.GeneratorSafe = true

	var assigns []*parser.Node
	for _, d := range n.Declarations {
		if d.Init != nil {
			f.walk(d.Init, fixerState{localLabels: map[string]bool{}})
		}

		bare := parser.NewNode(parser.NodeVariableDeclarator)
		bare.Name = d.Name
		hoistedDecl.Declarations = append(hoistedDecl.Declarations, bare)
		bare.Parent = hoistedDecl

		if d.Init != nil {
			assigns = append(assigns, assign(identifier(d.Name), d.Init))
		}
	}
	f.hoisted = append(f.hoisted, hoistedDecl)

	switch len(assigns) {
	case 0:
		removeStatement(n)
	case 1:
		n.ReplaceWith(exprStatement(assigns[0]))
	default:
		seq := parser.NewNode(parser.NodeSequenceExpression)
		seq.Children = assigns
		for _, a := range assigns {
			a.Parent = seq
		}
		n.ReplaceWith(exprStatement(seq))
	}
}

func assign(left, right *parser.Node) *parser.Node {
	n := parser.NewNode(parser.NodeAssignmentExpression)
	n.Operator = "="
	n.Left = left
	n.Right = right
	left.Parent = n
	right.Parent = n
	n.GeneratorSafe = true
	return n
}

// removeStatement detaches n from its parent's Body list, or (in a
// single-statement slot) replaces it with an empty statement.
func removeStatement(n *parser.Node) {
	if n.Parent == nil {
		return
	}
	if idx := indexInBody(n.Parent, n); idx >= 0 {
		n.Detach()
		return
	}
	n.ReplaceWith(parser.NewNode(parser.NodeEmptyStatement))
}
