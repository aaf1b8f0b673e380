package transpiler

import (
	"log"

	"github.com/ludo-technologies/genlower/internal/cfg"
	"github.com/ludo-technologies/genlower/internal/decompose"
	"github.com/ludo-technologies/genlower/internal/parser"
)

// FinalJumpPolicy controls spec.md §9b's "conservative final jump" open
// question.
type FinalJumpPolicy string

const (
	FinalJumpAuto   FinalJumpPolicy = "auto"
	FinalJumpAlways FinalJumpPolicy = "always"
	FinalJumpNever  FinalJumpPolicy = "never"
)

// Policy bundles the three toggles SPEC_FULL.md's "Supplemented features"
// section turns spec.md §9's open questions into, so an implementation
// preserves current (conservative) behavior by default while letting a
// caller pin it for golden-file stability or opt into the CFG-oracle
// tightening the spec gestures at without mandating.
type Policy struct {
	// EmitFinalJump: "auto" follows the CFG reachability probe exactly
	// (spec.md §4.4 step 1); "always"/"never" pin the decision.
	EmitFinalJump FinalJumpPolicy

	// WrapInDoWhile wraps the generated switch in `do { } while(0)`
	// (spec.md §9c). Default true.
	WrapInDoWhile bool

	// TightenSwitchCaseDetach, when true, leaves an unmarked case body that
	// follows a marked case inline instead of detaching it (spec.md §4.4.l)
	// when Oracle.SingleEntryCaseBody proves it has exactly one incoming
	// edge. Unmarked bodies before the first marked case stay inline either way.
	TightenSwitchCaseDetach bool
}

// DefaultPolicy matches the documented conservative behavior.
func DefaultPolicy() Policy {
	return Policy{EmitFinalJump: FinalJumpAuto, WrapInDoWhile: true, TightenSwitchCaseDetach: false}
}

// Result is what a successful Transpile produces: the generated program
// function expression that replaced F's body, plus the hoisted
// declarations placed ahead of it.
type Result struct {
	ProgramFunction *parser.Node
	Hoisted         []*parser.Node
	SelfName        string
}

// FunctionTranspiler orchestrates one generator function (spec.md §4.4). A
// fresh instance (and a fresh TranspilationContext) is used per function;
// nested generator functions are lowered first by the caller, innermost
// out, so none remain inside F's body by the time Transpile runs.
type FunctionTranspiler struct {
	oracle *cfg.Oracle
	policy Policy
	logger *log.Logger
	level  int

	ctx     *TranspilationContext
	marker  *MarkerPropagator
	exposer *YieldExposer
	finder  *YieldFinder
	fixer   *UnmarkedSubtreeFixer
}

// NewFunctionTranspiler creates a transpiler for a function at the given
// level, used to pick mangled-identifier suffixes (0 = no suffix). Program
// passes each function's index in its innermost-first order, not its
// nesting depth.
func NewFunctionTranspiler(oracle *cfg.Oracle, policy Policy, logger *log.Logger, level int) *FunctionTranspiler {
	ctx := NewTranspilationContext(mangled(contextParamBase, level), logger)
	dec := decompose.New(ctx.NextTemp)
	return &FunctionTranspiler{
		oracle:  oracle,
		policy:  policy,
		logger:  logger,
		level:   level,
		ctx:     ctx,
		marker:  NewMarkerPropagator(),
		exposer: NewYieldExposer(dec),
		finder:  NewYieldFinder(),
		fixer:   NewUnmarkedSubtreeFixer(ctx, level),
	}
}

// Transpile lowers generator function fn in place (spec.md §4.4). On a
// user-visible failure (undecomposable yield, yield inside a switch-case
// label) it returns a Diagnostic and leaves fn unmodified in spirit --
// the caller should discard this attempt. Exactly one of result and diag is
// non-nil; any other panic (an InternalError) propagates to the caller.
func (ft *FunctionTranspiler) Transpile(fn *parser.Node) (result *Result, diag *Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			if da, ok := r.(diagnosticAbort); ok {
				result = nil
				diag = da.diag
				return
			}
			panic(r)
		}
	}()

	body := fn.Body
	fn.Body = nil

	// Step 1: reachability probe.
	shouldAddFinalJump := ft.oracle.EndReachable(body)
	switch ft.policy.EmitFinalJump {
	case FinalJumpAlways:
		shouldAddFinalJump = true
	case FinalJumpNever:
		shouldAddFinalJump = false
	}

	// Step 2: name self.
	selfName := fn.Name
	if selfName == "" {
		selfName = mangled(selfFunctionBase, ft.level)
	}

	// Step 4: mark.
	ft.marker.Mark(body)

	// Step 5: drain statements.
	for _, stmt := range body {
		ft.transpileStatement(stmt)
	}

	// Step 6: terminate.
	if ft.ctx.Current().MayFallThrough {
		if shouldAddFinalJump {
			ft.ctx.EmitJumpToEnd()
		} else {
			ft.ctx.EmitJumpTo(ft.ctx.ProgramEndCase())
		}
	}
	ft.ctx.SwitchTo(ft.ctx.ProgramEndCase())

	switchNode := parser.NewNode(parser.NodeSwitchStatement)
	switchNode.Test = memberExpr(identifier(ft.ctx.contextName), "nextAddress")
	switchNode.Test.Parent = switchNode
	switchNode.GeneratorSafe = true
	ft.ctx.Finalize(switchNode)

	ft.ctx.AssertEmpty()

	programBody := append([]*parser.Node{}, ft.fixer.Hoisted()...)
	programBody = append(programBody, ft.wrapSwitch(switchNode))

	programFn := parser.NewNode(parser.NodeFunctionExpression)
	programFn.Params = []*parser.Node{identifier(ft.ctx.contextName)}
	programFn.Body = programBody
	for _, s := range programBody {
		s.Parent = programFn
	}
	programFn.GeneratorSafe = true

	selfRef := identifier(selfName)
	createCall := callExpr(memberExpr(identifier("runtime"), "createGenerator"), selfRef, programFn)
	fn.Body = []*parser.Node{returnStatement(createCall)}
	for _, s := range fn.Body {
		s.Parent = fn
	}

	// Step 7: unflag.
	fn.Generator = false

	return &Result{ProgramFunction: programFn, Hoisted: ft.fixer.Hoisted(), SelfName: selfName}, nil
}

// wrapSwitch applies spec.md §9c's `do { switch } while(0)` wrapper under
// Policy.WrapInDoWhile, or returns the bare switch otherwise.
func (ft *FunctionTranspiler) wrapSwitch(switchNode *parser.Node) *parser.Node {
	if !ft.policy.WrapInDoWhile {
		return switchNode
	}
	doWhile := parser.NewNode(parser.NodeDoWhileStatement)
	doWhile.Body = []*parser.Node{switchNode}
	switchNode.Parent = doWhile
	doWhile.Test = numberLiteral(0)
	doWhile.Test.Parent = doWhile
	doWhile.GeneratorSafe = true
	return doWhile
}

// transpileStatement dispatches one top-level (or recursively lowered)
// statement per spec.md §4.4 step 5: unmarked subtrees go through
// UnmarkedSubtreeFixer and are emitted verbatim; marked statements are
// dispatched by kind to 4.4.a-l.
func (ft *FunctionTranspiler) transpileStatement(s *parser.Node) {
	if s == nil {
		return
	}
	if !s.GeneratorMarker {
		ft.ctx.Current().Emit(ft.fixer.Fix(s))
		return
	}

	switch {
	case s.IsLabel():
		ft.lowerLabel(s)
	case s.Type == parser.NodeBlockStatement:
		ft.lowerBlock(s)
	case s.IsVar():
		ft.lowerVar(s)
	case s.IsReturn():
		ft.lowerReturn(s)
	case s.Type == parser.NodeThrowStatement:
		ft.lowerThrow(s)
	case s.Type == parser.NodeIfStatement:
		ft.lowerIf(s)
	case s.Type == parser.NodeForStatement:
		ft.lowerFor(s)
	case s.Type == parser.NodeForInStatement, s.Type == parser.NodeForOfStatement:
		ft.lowerForIn(s)
	case s.Type == parser.NodeWhileStatement:
		ft.lowerWhile(s)
	case s.Type == parser.NodeDoWhileStatement:
		ft.lowerDoWhile(s)
	case s.IsTry():
		ft.lowerTry(s)
	case s.IsSwitch():
		ft.lowerSwitch(s)
	default:
		// EXPR_RESULT (spec.md §4.4.c): the front end hands a bare
		// top-level expression straight through without an
		// ExpressionStatement wrapper, so any marked statement that
		// matched none of the statement kinds above is itself the
		// expression to expose and emit.
		ft.lowerExprResult(s)
	}
}

// emitYield is the shared "find the single yield, split the case, resume
// with context.yieldResult" step used by EXPR_RESULT, VAR, RETURN, THROW
// and every condition/scrutinee lowering. decompose must already have
// reduced expr to at most one yield (YieldExposer's postcondition).
// materialize controls whether the resumed value is substituted back in
// (false lets the caller drop a bare yield statement entirely, per
// spec.md §4.4.c's empty-case-merging note).
func (ft *FunctionTranspiler) emitYield(expr *parser.Node, materialize bool) *parser.Node {
	yieldNode := ft.finder.Find(expr)
	next := ft.ctx.NewCase()

	value := yieldNode.Argument
	if yieldNode.Delegate {
		ft.ctx.EmitYieldAll(value, next)
	} else {
		ft.ctx.EmitYield(value, next)
	}
	ft.ctx.SwitchTo(next)

	if expr == yieldNode {
		if materialize {
			return ft.ctx.YieldResultRef()
		}
		return nil
	}

	if materialize {
		yieldNode.ReplaceWith(ft.ctx.YieldResultRef())
	} else {
		yieldNode.ReplaceWith(identifier("undefined"))
	}
	return expr
}

// fixExpr runs UnmarkedSubtreeFixer over an expression that will be
// embedded directly into generated code rather than reached through
// transpileStatement's own unmarked path (a condition, scrutinee, or
// return/throw value): it still may reference `this`/arguments or a
// nested function declaration that needs hoisting. Fix's walk is generic
// over any node, not just statements, so calling it on an expression root
// is safe.
func (ft *FunctionTranspiler) fixExpr(e *parser.Node) *parser.Node {
	if e == nil {
		return nil
	}
	return ft.fixer.Fix(e)
}

// exposeOne runs YieldExposer on expr and aborts the function's lowering
// with a diagnostic if the decomposer reports the expression
// undecomposable (spec.md §4.2). Each temp declaration Expose produces
// (`var $temp = yield E;`) still embeds a yield, so it cannot simply be
// emitted verbatim: it is re-marked by MarkerPropagator (Expose already
// cleared its stale markers while restructuring) and fed back through
// transpileStatement, which dispatches it to lowerVar and so splits a
// resume case for it exactly as it would for a source-level `var` whose
// initializer is a bare yield (spec.md §4.2's "the marker is
// re-established ... by running MarkerPropagator again").
func (ft *FunctionTranspiler) exposeOne(loc parser.Location, expr *parser.Node) *parser.Node {
	rewritten, decls, ok := ft.exposer.Expose(expr)
	if !ok {
		abort(loc, "Undecomposable expression: please rewrite the yield as a separate statement")
	}
	for _, decl := range decls {
		ft.marker.Mark([]*parser.Node{decl})
		ft.transpileStatement(decl)
	}
	return rewritten
}

// --- 4.4.a LABEL ---

func (ft *FunctionTranspiler) lowerLabel(s *parser.Node) {
	breakCase := ft.ctx.NewCase()
	var continueCase *Case
	if len(s.Body) == 1 && s.Body[0].IsLoopStructure() {
		continueCase = ft.ctx.NewCase()
	}

	lc := &LabelCases{Break: breakCase, Continue: continueCase}
	ft.ctx.PushLabel(s.Label, lc)
	ft.ctx.PushBreak(breakCase)
	if continueCase != nil {
		ft.ctx.PushContinue(continueCase)
	}

	for _, inner := range s.Body {
		ft.transpileStatement(inner)
	}

	if continueCase != nil {
		ft.ctx.PopContinue()
	}
	ft.ctx.PopBreak()
	ft.ctx.PopLabel(s.Label)

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(breakCase)
	}
	ft.ctx.SwitchTo(breakCase)
}

// --- 4.4.b BLOCK ---

func (ft *FunctionTranspiler) lowerBlock(s *parser.Node) {
	for _, inner := range s.Body {
		ft.transpileStatement(inner)
	}
}

// --- 4.4.c EXPR_RESULT ---

func (ft *FunctionTranspiler) lowerExprResult(s *parser.Node) {
	expr := ft.exposeOne(s.Location, s)
	if expr == nil {
		return
	}
	if expr.IsYield() {
		// Bare yield: drop the result rather than materializing
		// `context.yieldResult;`, preserving empty-case merging.
		ft.emitYield(expr, false)
		return
	}
	if containsYield(expr) {
		expr = ft.emitYield(expr, true)
	}
	expr = ft.fixExpr(expr)
	stmt := exprStatement(expr)
	stmt.GeneratorSafe = true
	ft.ctx.Current().Emit(stmt)
}

// --- 4.4.d VAR ---

func (ft *FunctionTranspiler) lowerVar(s *parser.Node) {
	i := 0
	for i < len(s.Declarations) {
		d := s.Declarations[i]
		if !d.GeneratorMarker {
			run := []*parser.Node{d}
			j := i + 1
			for j < len(s.Declarations) && !s.Declarations[j].GeneratorMarker {
				run = append(run, s.Declarations[j])
				j++
			}
			ft.emitVarRun(s.Kind, run)
			i = j
			continue
		}

		init := ft.exposeOne(s.Location, d.Init)
		if init != nil && containsYield(init) {
			init = ft.emitYield(init, true)
		}
		ft.emitVarRun(s.Kind, []*parser.Node{declaratorWithInit(d, init)})
		i++
	}
}

func declaratorWithInit(d, init *parser.Node) *parser.Node {
	d.Init = init
	if init != nil {
		init.Parent = d
	}
	return d
}

// emitVarRun emits decls as a single `var`/`let`/`const` statement in the
// current case. decls is already in its final, split form (spec.md §4.4.d
// never re-splits a run it built itself), so the declaration itself is
// marked GeneratorSafe to skip UnmarkedSubtreeFixer's own var-hoisting;
// each initializer is still fixed individually first so a `this`,
// `arguments`, or nested function declaration inside it is still hoisted.
func (ft *FunctionTranspiler) emitVarRun(kind string, decls []*parser.Node) {
	decl := parser.NewNode(parser.NodeVariableDeclaration)
	decl.Kind = kind
	decl.Declarations = decls
	for _, d := range decls {
		d.Parent = decl
		d.Init = ft.fixExpr(d.Init)
		if d.Init != nil {
			d.Init.Parent = d
		}
	}
	decl.GeneratorSafe = true
	ft.ctx.Current().Emit(decl)
}

// --- 4.4.e RETURN ---

func (ft *FunctionTranspiler) lowerReturn(s *parser.Node) {
	value := s.Argument
	if value != nil {
		value = ft.exposeOne(s.Location, value)
		if value != nil && containsYield(value) {
			value = ft.emitYield(value, true)
		}
		value = ft.fixExpr(value)
	}
	ft.ctx.EmitReturnValue(value)
}

// --- 4.4.f THROW ---

func (ft *FunctionTranspiler) lowerThrow(s *parser.Node) {
	value := ft.exposeOne(s.Location, s.Argument)
	if value != nil && containsYield(value) {
		value = ft.emitYield(value, true)
	}
	value = ft.fixExpr(value)
	stmt := throwStatement(value)
	ft.ctx.Current().Emit(ft.fixer.Fix(stmt))
	ft.ctx.Current().MayFallThrough = false
}

// --- 4.4.g IF ---

func (ft *FunctionTranspiler) lowerIf(s *parser.Node) {
	cond := ft.exposeOne(s.Location, s.Test)
	if cond != nil && containsYield(cond) {
		cond = ft.emitYield(cond, true)
	}
	cond = ft.fixExpr(cond)

	thenMarked := s.Consequent.GeneratorMarker
	elseMarked := s.Alternate != nil && s.Alternate.GeneratorMarker

	endCase := ft.ctx.BreakTarget()
	ownEnd := endCase == nil
	if ownEnd {
		endCase = ft.ctx.NewCase()
	}

	if !thenMarked && !elseMarked {
		// Shouldn't reach lowerIf at all in this case (the whole
		// statement would be unmarked), but handle defensively.
		ifStmt := parser.NewNode(parser.NodeIfStatement)
		ifStmt.Test = cond
		cond.Parent = ifStmt
		ifStmt.Consequent = s.Consequent
		ifStmt.Alternate = s.Alternate
		ft.ctx.Current().Emit(ft.fixer.Fix(ifStmt))
		return
	}

	ifCase := ft.ctx.NewCase()
	guard := parser.NewNode(parser.NodeIfStatement)
	guard.Test = cond
	cond.Parent = guard
	block := parser.NewNode(parser.NodeBlockStatement)
	block.Body = ft.ctx.JumpToBlock(ifCase)
	for _, st := range block.Body {
		st.Parent = block
	}
	block.GeneratorSafe = true
	guard.Consequent = block
	block.Parent = guard
	guard.GeneratorSafe = true
	ft.ctx.Current().Emit(guard)

	if s.Alternate != nil {
		if elseMarked {
			ft.transpileStatement(s.Alternate)
		} else {
			ft.ctx.Current().Emit(ft.fixer.Fix(s.Alternate))
		}
	}
	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(endCase)
	}

	ft.ctx.SwitchTo(ifCase)
	if thenMarked {
		ft.transpileStatement(s.Consequent)
	} else {
		ft.ctx.Current().Emit(ft.fixer.Fix(s.Consequent))
	}
	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(endCase)
	}

	ft.ctx.SwitchTo(endCase)
}

// --- 4.4.h FOR ---

func (ft *FunctionTranspiler) lowerFor(s *parser.Node) {
	if s.Init != nil {
		ft.ctx.Current().Emit(ft.fixer.Fix(exprOrDeclStatement(s.Init)))
	}

	startCase := ft.ctx.NewCase()
	incrementCase := ft.ctx.ContinueTarget()
	ownIncrement := incrementCase == nil
	if ownIncrement {
		incrementCase = ft.ctx.NewCase()
	}
	endCase := ft.ctx.BreakTarget()
	ownEnd := endCase == nil
	if ownEnd {
		endCase = ft.ctx.NewCase()
	}

	ft.ctx.SwitchTo(startCase)

	if s.Test != nil {
		cond := ft.exposeOne(s.Location, s.Test)
		if cond != nil && containsYield(cond) {
			cond = ft.emitYield(cond, true)
		}
		cond = ft.fixExpr(cond)
		if cond != nil {
			guard := parser.NewNode(parser.NodeIfStatement)
			neg := parser.NewNode(parser.NodeUnaryExpression)
			neg.Operator = "!"
			neg.Argument = cond
			cond.Parent = neg
			neg.GeneratorSafe = true
			guard.Test = neg
			neg.Parent = guard
			block := parser.NewNode(parser.NodeBlockStatement)
			block.Body = ft.ctx.JumpToBlock(endCase)
			for _, st := range block.Body {
				st.Parent = block
			}
			block.GeneratorSafe = true
			guard.Consequent = block
			block.Parent = guard
			guard.GeneratorSafe = true
			ft.ctx.Current().Emit(guard)
		}
	}

	ft.ctx.PushBreak(endCase)
	ft.ctx.PushContinue(incrementCase)
	ft.transpileStatement(blockOf(s.Body))
	ft.ctx.PopContinue()
	ft.ctx.PopBreak()

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(incrementCase)
	}

	ft.ctx.SwitchTo(incrementCase)
	if s.Update != nil {
		ft.ctx.Current().Emit(ft.fixer.Fix(exprStatement(s.Update)))
	}
	ft.ctx.EmitJumpTo(startCase)

	ft.ctx.SwitchTo(endCase)
}

// blockOf wraps a loop body (spec.md's AST model stores a single-statement
// loop body directly in Body, same slot a block statement would occupy)
// into a single node transpileStatement can dispatch uniformly.
func blockOf(body []*parser.Node) *parser.Node {
	if len(body) == 1 && body[0].Type == parser.NodeBlockStatement {
		return body[0]
	}
	block := parser.NewNode(parser.NodeBlockStatement)
	block.Body = body
	marked := false
	for _, s := range body {
		s.Parent = block
		if s.GeneratorMarker {
			marked = true
		}
	}
	block.GeneratorMarker = marked
	return block
}

// exprOrDeclStatement wraps a for-loop's init clause (already either a
// VariableDeclaration or a bare expression per this AST's ForStatement
// convention) as a statement for UnmarkedSubtreeFixer/emission.
func exprOrDeclStatement(init *parser.Node) *parser.Node {
	if init.Type == parser.NodeVariableDeclaration {
		return init
	}
	return exprStatement(init)
}

// --- 4.4.i FOR-IN ---

func (ft *FunctionTranspiler) lowerForIn(s *parser.Node) {
	// Rewrite `for (v in E) body` to the FOR-equivalent form spec.md
	// §4.4.i gives: `for (var v, $fi = context.forIn(E); (v = $fi.getNext()) != null; ) body`.
	// This AST's ForInStatement reuses Init for the loop variable and
	// Test for the iterated object.
	holder := mangled(forInHolderPrefix, ft.level) + itoa(ft.ctx.tempCounter)
	ft.ctx.tempCounter++

	loopVarName := forInTargetName(s.Init)

	varDeclNode := parser.NewNode(parser.NodeVariableDeclaration)
	varDeclNode.Kind = "var"
	loopVarDeclarator := parser.NewNode(parser.NodeVariableDeclarator)
	loopVarDeclarator.Name = loopVarName
	holderDeclarator := parser.NewNode(parser.NodeVariableDeclarator)
	holderDeclarator.Name = holder
	iterated := ft.fixExpr(s.Test)
	holderDeclarator.Init = callExpr(memberExpr(identifier(ft.ctx.contextName), "forIn"), iterated)
	iterated.Parent = holderDeclarator.Init
	varDeclNode.Declarations = []*parser.Node{loopVarDeclarator, holderDeclarator}
	loopVarDeclarator.Parent = varDeclNode
	holderDeclarator.Parent = varDeclNode

	assign := parser.NewNode(parser.NodeAssignmentExpression)
	assign.Operator = "="
	assign.Left = identifier(loopVarName)
	assign.Right = callExpr(memberExpr(identifier(holder), "getNext"))
	assign.Left.Parent = assign
	assign.Right.Parent = assign

	notNull := parser.NewNode(parser.NodeBinaryExpression)
	notNull.Operator = "!="
	notNull.Left = assign
	notNull.Right = parser.NewNode(parser.NodeNullLiteral)
	assign.Parent = notNull
	notNull.Right.Parent = notNull

	forEquiv := parser.NewNode(parser.NodeForStatement)
	forEquiv.Init = varDeclNode
	varDeclNode.Parent = forEquiv
	forEquiv.Test = notNull
	notNull.Parent = forEquiv
	forEquiv.Body = s.Body
	for _, b := range s.Body {
		b.Parent = forEquiv
	}
	forEquiv.GeneratorMarker = s.GeneratorMarker

	ft.lowerFor(forEquiv)
}

func forInTargetName(init *parser.Node) string {
	if init == nil {
		return "$jscomp$generator$forin$target"
	}
	if init.Type == parser.NodeVariableDeclaration && len(init.Declarations) == 1 {
		return init.Declarations[0].Name
	}
	if init.IsName() {
		return init.Name
	}
	return "$jscomp$generator$forin$target"
}

// --- 4.4.j WHILE / DO-WHILE ---

func (ft *FunctionTranspiler) lowerWhile(s *parser.Node) {
	startCase := ft.ctx.NewCase()
	endCase := ft.ctx.BreakTarget()
	if endCase == nil {
		endCase = ft.ctx.NewCase()
	}

	ft.ctx.SwitchTo(startCase)

	cond := ft.exposeOne(s.Location, s.Test)
	if cond != nil && containsYield(cond) {
		cond = ft.emitYield(cond, true)
	}
	cond = ft.fixExpr(cond)
	if cond != nil {
		guard := parser.NewNode(parser.NodeIfStatement)
		neg := parser.NewNode(parser.NodeUnaryExpression)
		neg.Operator = "!"
		neg.Argument = cond
		cond.Parent = neg
		neg.GeneratorSafe = true
		guard.Test = neg
		neg.Parent = guard
		block := parser.NewNode(parser.NodeBlockStatement)
		block.Body = ft.ctx.JumpToBlock(endCase)
		for _, st := range block.Body {
			st.Parent = block
		}
		block.GeneratorSafe = true
		guard.Consequent = block
		block.Parent = guard
		guard.GeneratorSafe = true
		ft.ctx.Current().Emit(guard)
	}

	ft.ctx.PushBreak(endCase)
	ft.ctx.PushContinue(startCase)
	ft.transpileStatement(blockOf(s.Body))
	ft.ctx.PopContinue()
	ft.ctx.PopBreak()

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(startCase)
	}
	ft.ctx.SwitchTo(endCase)
}

func (ft *FunctionTranspiler) lowerDoWhile(s *parser.Node) {
	bodyCase := ft.ctx.NewCase()
	condCase := ft.ctx.NewCase()
	endCase := ft.ctx.BreakTarget()
	if endCase == nil {
		endCase = ft.ctx.NewCase()
	}

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(bodyCase)
	}
	ft.ctx.SwitchTo(bodyCase)

	ft.ctx.PushBreak(endCase)
	ft.ctx.PushContinue(condCase)
	ft.transpileStatement(blockOf(s.Body))
	ft.ctx.PopContinue()
	ft.ctx.PopBreak()

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(condCase)
	}
	ft.ctx.SwitchTo(condCase)

	cond := ft.exposeOne(s.Location, s.Test)
	if cond != nil && containsYield(cond) {
		cond = ft.emitYield(cond, true)
	}
	cond = ft.fixExpr(cond)
	if cond != nil {
		guard := parser.NewNode(parser.NodeIfStatement)
		guard.Test = cond
		cond.Parent = guard
		block := parser.NewNode(parser.NodeBlockStatement)
		block.Body = ft.ctx.JumpToBlock(bodyCase)
		for _, st := range block.Body {
			st.Parent = block
		}
		block.GeneratorSafe = true
		guard.Consequent = block
		block.Parent = guard
		guard.GeneratorSafe = true
		ft.ctx.Current().Emit(guard)
	}

	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitJumpTo(endCase)
	}
	ft.ctx.SwitchTo(endCase)
}

// --- 4.4.k TRY/CATCH/FINALLY ---

func (ft *FunctionTranspiler) lowerTry(s *parser.Node) {
	var catchCase, finallyCase *Case
	if s.Handler != nil {
		catchCase = ft.ctx.NewCase()
	}
	if s.Finalizer != nil {
		finallyCase = ft.ctx.NewCase()
	}
	endCase := ft.ctx.BreakTarget()
	ownEnd := endCase == nil
	if ownEnd {
		endCase = ft.ctx.NewCase()
	}

	if finallyCase != nil {
		ft.ctx.EmitSetFinallyBlock(finallyCase)
		ft.ctx.PushFinally(finallyCase)
	} else {
		ft.ctx.EmitSetCatchFinallyBlocks(catchCase, nil)
	}
	if catchCase != nil {
		ft.ctx.PushCatch(&CatchCase{Catch: catchCase, FinallyBlocksPending: ft.ctx.PendingFinallyCount()})
	}

	ft.transpileStatement(blockOf(s.Body))

	if catchCase != nil {
		ft.ctx.PopCatch()
	}

	nextCatch := ft.outerCatch()
	if ft.ctx.Current().MayFallThrough {
		ft.ctx.EmitLeaveTryBlock(endCase, nextCatch)
	}

	if catchCase != nil {
		ft.ctx.SwitchTo(catchCase)
		paramName := ""
		if len(s.Handler.Params) > 0 {
			paramName = s.Handler.Params[0].Name
		}
		if paramName != "" {
			if !ft.ctx.catchNames[paramName] {
				ft.ctx.catchNames[paramName] = true
				ft.fixer.hoisted = append(ft.fixer.hoisted, varDecl("var", paramName, nil))
			}
			ft.ctx.EmitEnterCatchBlock(paramName, nextCatch)
		} else {
			ft.ctx.Current().Emit(exprStatement(ft.ctx.callEnterCatchBlock(nextCatch)))
		}
		ft.transpileStatement(blockOf(s.Handler.Body))
		if finallyCase != nil {
			if ft.ctx.Current().MayFallThrough {
				ft.ctx.EmitJumpTo(finallyCase)
			}
		} else if ft.ctx.Current().MayFallThrough {
			ft.ctx.EmitJumpTo(endCase)
		}
	}

	if finallyCase != nil {
		ft.ctx.PopFinally()
		ft.ctx.SwitchTo(finallyCase)
		depth := ft.ctx.PendingFinallyCount()
		ft.ctx.EmitEnterFinallyBlock(nextCatch, ft.ctx.FinallyTarget(), int(depth), depth > 0)
		ft.ctx.IncNestedFinally()
		ft.transpileStatement(blockOf(s.Finalizer.Body))
		ft.ctx.DecNestedFinally()
		if ft.ctx.Current().MayFallThrough {
			ft.ctx.EmitLeaveFinallyBlock(endCase, int(depth), depth > 0)
		}
	}

	ft.ctx.SwitchTo(endCase)
}

// outerCatch returns the nearest enclosing active catch not hidden by an
// intervening finally already pushed by this try's own finally handling.
func (ft *FunctionTranspiler) outerCatch() *Case {
	cc := ft.ctx.CatchTarget()
	if cc == nil {
		return nil
	}
	return cc.Catch
}

// --- 4.4.l SWITCH ---

type detachedCase struct {
	generated *Case
	body      []*parser.Node
}

func (ft *FunctionTranspiler) lowerSwitch(s *parser.Node) {
	scrutinee := ft.exposeOne(s.Location, s.Test)
	if scrutinee != nil && containsYield(scrutinee) {
		scrutinee = ft.emitYield(scrutinee, true)
	}

	anyMarked := false
	for _, c := range s.Cases {
		if c.GeneratorMarker {
			anyMarked = true
		}
		if c.Test != nil && containsYield(c.Test) {
			abort(s.Location, "Cannot convert yet: Case statements that contain yields")
		}
	}

	if !anyMarked {
		verbatim := parser.NewNode(parser.NodeSwitchStatement)
		verbatim.Test = scrutinee
		scrutinee.Parent = verbatim
		verbatim.Cases = s.Cases
		for _, c := range s.Cases {
			c.Parent = verbatim
		}
		ft.ctx.Current().Emit(ft.fixer.Fix(verbatim))
		return
	}

	endCase := ft.ctx.BreakTarget()
	ownEnd := endCase == nil
	if ownEnd {
		endCase = ft.ctx.NewCase()
	}

	var detached []detachedCase
	passedMarked := false
	for _, c := range s.Cases {
		if len(c.Body) == 0 {
			continue
		}
		detach := c.GeneratorMarker
		if !detach && passedMarked {
			detach = true
			if ft.policy.TightenSwitchCaseDetach && ft.oracle.SingleEntryCaseBody(s, c) {
				detach = false
			}
		}
		if c.GeneratorMarker {
			passedMarked = true
		}
		if !detach {
			continue
		}

		generated := ft.ctx.NewCase()
		original := c.Body
		c.Body = ft.ctx.JumpToBlock(generated)
		for _, st := range c.Body {
			st.Parent = c
		}
		detached = append(detached, detachedCase{generated: generated, body: original})
	}

	switchNode := parser.NewNode(parser.NodeSwitchStatement)
	switchNode.Test = scrutinee
	scrutinee.Parent = switchNode
	switchNode.Cases = s.Cases
	for _, c := range s.Cases {
		c.Parent = switchNode
	}
	// The detached cases above were already replaced with our own
	// GeneratorSafe jump stubs; Fix walks right past those and still
	// needs to run over the scrutinee and every case left inline so a
	// bare break inside them resolves structurally, not as a jump.
	ft.ctx.Current().Emit(ft.fixer.Fix(switchNode))
	ft.ctx.EmitJumpTo(endCase)

	ft.ctx.PushBreak(endCase)
	for _, dc := range detached {
		ft.ctx.SwitchTo(dc.generated)
		for _, stmt := range dc.body {
			ft.transpileStatement(stmt)
		}
		if ft.ctx.Current().MayFallThrough {
			ft.ctx.EmitJumpTo(endCase)
		}
	}
	ft.ctx.PopBreak()

	ft.ctx.SwitchTo(endCase)
}
