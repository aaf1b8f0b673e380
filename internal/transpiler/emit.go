package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// This file builds and emits the runtime method calls spec.md §6 names.
// Control-transfer primitives (jumpTo, jumpToEnd, jumpThroughFinallyBlocks,
// leaveTryBlock, leaveFinallyBlock) are always paired with a `break;` that
// exits the generated switch, per spec.md §4.4's literal phrasing
// ("context.jumpTo(ifCase); break;"). Value-producing primitives (yield,
// yieldAll, return) are wrapped in an actual `return` statement, since
// suspending or terminating the generator must unwind all the way out of
// the driver call, not just out of the switch. Installation primitives
// (setFinallyBlock, setCatchFinallyBlocks, enterFinallyBlock,
// enterCatchBlock) are plain statements that fall through into the
// handler body lowered right after them.

func (ctx *TranspilationContext) idRef(target *Case) *parser.Node {
	lit := numberLiteral(target.ID)
	target.References = append(target.References, lit)
	return lit
}

// --- call builders ---

func (ctx *TranspilationContext) callJumpTo(target *Case) *parser.Node {
	return contextMethodCall(ctx.contextName, "jumpTo", ctx.idRef(target))
}

func (ctx *TranspilationContext) callJumpToEnd() *parser.Node {
	return contextMethodCall(ctx.contextName, "jumpToEnd")
}

func (ctx *TranspilationContext) callJumpThroughFinallyBlocks(target *Case) *parser.Node {
	return contextMethodCall(ctx.contextName, "jumpThroughFinallyBlocks", ctx.idRef(target))
}

func (ctx *TranspilationContext) callReturn(value *parser.Node) *parser.Node {
	var args []*parser.Node
	if value != nil {
		args = append(args, value)
	}
	return contextMethodCall(ctx.contextName, "return", args...)
}

func (ctx *TranspilationContext) callYield(value *parser.Node, next *Case) *parser.Node {
	v := value
	if v == nil {
		v = identifier("undefined")
	}
	return contextMethodCall(ctx.contextName, "yield", v, ctx.idRef(next))
}

func (ctx *TranspilationContext) callYieldAll(iterable *parser.Node, next *Case) *parser.Node {
	return contextMethodCall(ctx.contextName, "yieldAll", iterable, ctx.idRef(next))
}

func (ctx *TranspilationContext) callForIn(obj *parser.Node) *parser.Node {
	return contextMethodCall(ctx.contextName, "forIn", obj)
}

func (ctx *TranspilationContext) callSetFinallyBlock(finallyCase *Case) *parser.Node {
	return contextMethodCall(ctx.contextName, "setFinallyBlock", ctx.idRef(finallyCase))
}

func (ctx *TranspilationContext) callSetCatchFinallyBlocks(catchCase, finallyCase *Case) *parser.Node {
	args := []*parser.Node{ctx.idRef(catchCase)}
	if finallyCase != nil {
		args = append(args, ctx.idRef(finallyCase))
	}
	return contextMethodCall(ctx.contextName, "setCatchFinallyBlocks", args...)
}

func (ctx *TranspilationContext) callLeaveTryBlock(end, nextCatch *Case) *parser.Node {
	args := []*parser.Node{ctx.idRef(end)}
	if nextCatch != nil {
		args = append(args, ctx.idRef(nextCatch))
	}
	return contextMethodCall(ctx.contextName, "leaveTryBlock", args...)
}

func (ctx *TranspilationContext) callEnterCatchBlock(nextCatch *Case) *parser.Node {
	var args []*parser.Node
	if nextCatch != nil {
		args = append(args, ctx.idRef(nextCatch))
	}
	return contextMethodCall(ctx.contextName, "enterCatchBlock", args...)
}

func (ctx *TranspilationContext) callEnterFinallyBlock(nextCatch, nextFinally *Case, depth int, hasDepth bool) *parser.Node {
	var args []*parser.Node
	if nextCatch != nil {
		args = append(args, ctx.idRef(nextCatch))
	}
	if nextFinally != nil {
		args = append(args, ctx.idRef(nextFinally))
	}
	if hasDepth {
		args = append(args, numberLiteral(depth))
	}
	return contextMethodCall(ctx.contextName, "enterFinallyBlock", args...)
}

func (ctx *TranspilationContext) callLeaveFinallyBlock(end *Case, depth int, hasDepth bool) *parser.Node {
	args := []*parser.Node{ctx.idRef(end)}
	if hasDepth {
		args = append(args, numberLiteral(depth))
	}
	return contextMethodCall(ctx.contextName, "leaveFinallyBlock", args...)
}

// --- direct emission into the current case ---

// JumpToBlock returns the `call; break;` pair for embedding into a
// conditional branch's block (e.g. an `if`'s consequent) instead of
// emitting directly into the current case.
func (ctx *TranspilationContext) JumpToBlock(target *Case) []*parser.Node {
	return []*parser.Node{exprStatement(ctx.callJumpTo(target)), breakStatement()}
}

func (ctx *TranspilationContext) JumpThroughFinallyBlocksBlock(target *Case) []*parser.Node {
	return []*parser.Node{exprStatement(ctx.callJumpThroughFinallyBlocks(target)), breakStatement()}
}

func (ctx *TranspilationContext) EmitJumpTo(target *Case) {
	for _, s := range ctx.JumpToBlock(target) {
		ctx.currentCase.Emit(s)
	}
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitJumpToEnd() {
	ctx.currentCase.Emit(exprStatement(ctx.callJumpToEnd()))
	ctx.currentCase.Emit(breakStatement())
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitJumpThroughFinallyBlocks(target *Case) {
	for _, s := range ctx.JumpThroughFinallyBlocksBlock(target) {
		ctx.currentCase.Emit(s)
	}
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitReturnValue(value *parser.Node) {
	ctx.currentCase.Emit(returnStatement(ctx.callReturn(value)))
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitYield(value *parser.Node, next *Case) {
	ctx.currentCase.Emit(returnStatement(ctx.callYield(value, next)))
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitYieldAll(iterable *parser.Node, next *Case) {
	ctx.currentCase.Emit(returnStatement(ctx.callYieldAll(iterable, next)))
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitSetFinallyBlock(finallyCase *Case) {
	ctx.currentCase.Emit(exprStatement(ctx.callSetFinallyBlock(finallyCase)))
}

func (ctx *TranspilationContext) EmitSetCatchFinallyBlocks(catchCase, finallyCase *Case) {
	ctx.currentCase.Emit(exprStatement(ctx.callSetCatchFinallyBlocks(catchCase, finallyCase)))
}

func (ctx *TranspilationContext) EmitLeaveTryBlock(end, nextCatch *Case) {
	ctx.currentCase.Emit(exprStatement(ctx.callLeaveTryBlock(end, nextCatch)))
	ctx.currentCase.Emit(breakStatement())
	ctx.currentCase.MayFallThrough = false
}

func (ctx *TranspilationContext) EmitEnterCatchBlock(paramName string, nextCatch *Case) {
	ctx.currentCase.Emit(assignmentStatement(identifier(paramName), ctx.callEnterCatchBlock(nextCatch)))
}

func (ctx *TranspilationContext) EmitEnterFinallyBlock(nextCatch, nextFinally *Case, depth int, hasDepth bool) {
	ctx.currentCase.Emit(exprStatement(ctx.callEnterFinallyBlock(nextCatch, nextFinally, depth, hasDepth)))
}

func (ctx *TranspilationContext) EmitLeaveFinallyBlock(end *Case, depth int, hasDepth bool) {
	ctx.currentCase.Emit(exprStatement(ctx.callLeaveFinallyBlock(end, depth, hasDepth)))
	ctx.currentCase.Emit(breakStatement())
	ctx.currentCase.MayFallThrough = false
}

// YieldResultRef returns a reference to `context.yieldResult`, used by
// FunctionTranspiler to materialize the value resumed into a yield
// expression once it has been replaced by a case split.
func (ctx *TranspilationContext) YieldResultRef() *parser.Node {
	return memberExpr(identifier(ctx.contextName), "yieldResult")
}
