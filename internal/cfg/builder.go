package cfg

import (
	"fmt"
	"log"
	"strconv"

	"github.com/ludo-technologies/genlower/internal/parser"
)

// loopContext tracks the break/continue targets of an enclosing loop.
type loopContext struct {
	headerBlock *BasicBlock
	exitBlock   *BasicBlock
}

// exceptionContext tracks the handler targets of an enclosing try.
type exceptionContext struct {
	catchBlock   *BasicBlock
	finallyBlock *BasicBlock
}

// Builder constructs a CFG from a list of statement nodes. It is
// intentionally narrower than a general-purpose CFG builder: it only
// models the statement kinds spec.md §1 names as the target dialect
// (if/switch/for/for-in/for-of/while/do-while/try-catch-finally/throw/
// return/break/continue/labels), which is exactly what the generator
// core ever hands it.
type Builder struct {
	cfg            *CFG
	currentBlock   *BasicBlock
	blockCounter   uint
	logger         *log.Logger
	loopStack      []*loopContext
	exceptionStack []*exceptionContext
	namedTargets   map[string]*loopContext
}

// NewBuilder creates a Builder. A nil logger discards diagnostics.
func NewBuilder() *Builder {
	return &Builder{namedTargets: make(map[string]*loopContext)}
}

// SetLogger sets an optional logger for internal diagnostics.
func (b *Builder) SetLogger(logger *log.Logger) {
	b.logger = logger
}

// Build constructs a CFG over a flat statement list (typically a function
// body, possibly with a probe statement appended by the caller).
func (b *Builder) Build(name string, statements []*parser.Node) *CFG {
	b.cfg = NewCFG(name)
	b.currentBlock = b.cfg.Entry

	for _, stmt := range statements {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}

	if b.currentBlock != nil && b.currentBlock != b.cfg.Exit && !b.hasSuccessor(b.currentBlock, b.cfg.Exit) {
		b.cfg.ConnectBlocks(b.currentBlock, b.cfg.Exit, EdgeNormal)
	}

	return b.cfg
}

// BlockOf returns the block that directly contains stmt, or nil.
func (c *CFG) BlockOf(stmt *parser.Node) *BasicBlock {
	for _, block := range c.Blocks {
		for _, s := range block.Statements {
			if s == stmt {
				return block
			}
		}
	}
	return nil
}

func (b *Builder) processStatement(node *parser.Node) {
	if node == nil || b.currentBlock == nil {
		return
	}

	switch node.Type {
	case parser.NodeIfStatement:
		b.buildIf(node)
	case parser.NodeSwitchStatement:
		b.buildSwitch(node)
	case parser.NodeForStatement:
		b.buildFor(node)
	case parser.NodeForInStatement, parser.NodeForOfStatement:
		b.buildForIn(node)
	case parser.NodeWhileStatement:
		b.buildWhile(node)
	case parser.NodeDoWhileStatement:
		b.buildDoWhile(node)
	case parser.NodeTryStatement:
		b.buildTry(node)
	case parser.NodeReturnStatement:
		b.buildReturn(node)
	case parser.NodeBreakStatement:
		b.buildBreak(node)
	case parser.NodeContinueStatement:
		b.buildContinue(node)
	case parser.NodeThrowStatement:
		b.buildThrow(node)
	case parser.NodeBlockStatement:
		b.buildBlock(node)
	case parser.NodeLabeledStatement:
		b.buildLabeled(node)
	default:
		b.currentBlock.Statements = append(b.currentBlock.Statements, node)
	}
}

func (b *Builder) buildBlock(node *parser.Node) {
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
}

func (b *Builder) buildLabeled(node *parser.Node) {
	// The label's target is whatever loop/break target its body creates;
	// register it once that target exists.
	if node.Body == nil {
		return
	}
	for _, stmt := range node.Body {
		b.processStatement(stmt)
	}
}

func (b *Builder) buildIf(node *parser.Node) {
	if node.Test != nil {
		b.currentBlock.Statements = append(b.currentBlock.Statements, node.Test)
	}

	testBlock := b.currentBlock
	thenBlock := b.newBlock("if_then")
	mergeBlock := b.newBlock("if_merge")

	b.cfg.ConnectBlocks(testBlock, thenBlock, EdgeCondTrue)

	b.currentBlock = thenBlock
	b.processBranch(node.Consequent)
	if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
		b.cfg.ConnectBlocks(b.currentBlock, mergeBlock, EdgeNormal)
	}

	if node.Alternate != nil {
		elseBlock := b.newBlock("if_else")
		b.cfg.ConnectBlocks(testBlock, elseBlock, EdgeCondFalse)
		b.currentBlock = elseBlock
		b.processBranch(node.Alternate)
		if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
			b.cfg.ConnectBlocks(b.currentBlock, mergeBlock, EdgeNormal)
		}
	} else {
		b.cfg.ConnectBlocks(testBlock, mergeBlock, EdgeCondFalse)
	}

	b.currentBlock = mergeBlock
}

func (b *Builder) processBranch(n *parser.Node) {
	if n == nil {
		return
	}
	if n.Type == parser.NodeBlockStatement {
		for _, stmt := range n.Body {
			if b.currentBlock == nil {
				break
			}
			b.processStatement(stmt)
		}
		return
	}
	b.processStatement(n)
}

func (b *Builder) buildSwitch(node *parser.Node) {
	if node.Test != nil {
		b.currentBlock.Statements = append(b.currentBlock.Statements, node.Test)
	}

	testBlock := b.currentBlock
	mergeBlock := b.newBlock("switch_merge")
	var prevFallthrough *BasicBlock
	var defaultBlock *BasicBlock

	// A bare break inside a case exits the switch; the context has no
	// header, so continueTarget skips it.
	b.loopStack = append(b.loopStack, &loopContext{exitBlock: mergeBlock})
	for i, caseNode := range node.Cases {
		caseBlock := b.newBlock("switch_case_" + strconv.Itoa(i))
		b.cfg.CaseBlocks[caseNode] = caseBlock

		if caseNode.Type == parser.NodeDefaultClause {
			defaultBlock = caseBlock
		} else {
			b.cfg.ConnectBlocks(testBlock, caseBlock, EdgeCondTrue)
		}
		if prevFallthrough != nil {
			b.cfg.ConnectBlocks(prevFallthrough, caseBlock, EdgeNormal)
			prevFallthrough = nil
		}

		b.currentBlock = caseBlock
		for _, stmt := range caseNode.Body {
			if b.currentBlock == nil {
				break
			}
			b.processStatement(stmt)
		}

		if b.currentBlock == nil {
			continue
		}
		if b.endsWithJump(b.currentBlock) {
			continue
		}
		if i == len(node.Cases)-1 {
			b.cfg.ConnectBlocks(b.currentBlock, mergeBlock, EdgeNormal)
		} else {
			prevFallthrough = b.currentBlock
		}
	}
	b.popLoop()

	if defaultBlock != nil {
		b.cfg.ConnectBlocks(testBlock, defaultBlock, EdgeCondFalse)
	} else {
		b.cfg.ConnectBlocks(testBlock, mergeBlock, EdgeCondFalse)
	}

	b.currentBlock = mergeBlock
}

func (b *Builder) buildFor(node *parser.Node) {
	if node.Init != nil {
		b.currentBlock.Statements = append(b.currentBlock.Statements, node.Init)
	}

	headerBlock := b.newBlock("loop_header")
	bodyBlock := b.newBlock("loop_body")
	exitBlock := b.newBlock("loop_exit")

	b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeNormal)
	if node.Test != nil {
		headerBlock.Statements = append(headerBlock.Statements, node.Test)
	}
	b.cfg.ConnectBlocks(headerBlock, bodyBlock, EdgeCondTrue)
	b.cfg.ConnectBlocks(headerBlock, exitBlock, EdgeCondFalse)

	b.pushLoop(headerBlock, exitBlock)
	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
	if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
		if node.Update != nil {
			b.currentBlock.Statements = append(b.currentBlock.Statements, node.Update)
		}
		b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeLoop)
	}
	b.popLoop()

	b.currentBlock = exitBlock
}

func (b *Builder) buildForIn(node *parser.Node) {
	headerBlock := b.newBlock("loop_header")
	bodyBlock := b.newBlock("loop_body")
	exitBlock := b.newBlock("loop_exit")

	b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeNormal)
	b.cfg.ConnectBlocks(headerBlock, bodyBlock, EdgeCondTrue)
	b.cfg.ConnectBlocks(headerBlock, exitBlock, EdgeCondFalse)

	b.pushLoop(headerBlock, exitBlock)
	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
	if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
		b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeLoop)
	}
	b.popLoop()

	b.currentBlock = exitBlock
}

func (b *Builder) buildWhile(node *parser.Node) {
	headerBlock := b.newBlock("loop_header")
	bodyBlock := b.newBlock("loop_body")
	exitBlock := b.newBlock("loop_exit")

	b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeNormal)
	if node.Test != nil {
		headerBlock.Statements = append(headerBlock.Statements, node.Test)
	}
	b.cfg.ConnectBlocks(headerBlock, bodyBlock, EdgeCondTrue)
	b.cfg.ConnectBlocks(headerBlock, exitBlock, EdgeCondFalse)

	b.pushLoop(headerBlock, exitBlock)
	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
	if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
		b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeLoop)
	}
	b.popLoop()

	b.currentBlock = exitBlock
}

func (b *Builder) buildDoWhile(node *parser.Node) {
	bodyBlock := b.newBlock("loop_body")
	headerBlock := b.newBlock("loop_header")
	exitBlock := b.newBlock("loop_exit")

	b.cfg.ConnectBlocks(b.currentBlock, bodyBlock, EdgeNormal)

	b.pushLoop(headerBlock, exitBlock)
	b.currentBlock = bodyBlock
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
	if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
		b.cfg.ConnectBlocks(b.currentBlock, headerBlock, EdgeNormal)
	}
	if node.Test != nil {
		headerBlock.Statements = append(headerBlock.Statements, node.Test)
	}
	b.cfg.ConnectBlocks(headerBlock, bodyBlock, EdgeCondTrue)
	b.cfg.ConnectBlocks(headerBlock, exitBlock, EdgeCondFalse)
	b.popLoop()

	b.currentBlock = exitBlock
}

func (b *Builder) buildTry(node *parser.Node) {
	tryBlock := b.newBlock("try_block")
	mergeBlock := b.newBlock("try_merge")
	var catchBlock, finallyBlock *BasicBlock

	b.cfg.ConnectBlocks(b.currentBlock, tryBlock, EdgeNormal)

	if node.Handler != nil {
		catchBlock = b.newBlock("catch_block")
	}
	if node.Finalizer != nil {
		finallyBlock = b.newBlock("finally_block")
	}
	b.exceptionStack = append(b.exceptionStack, &exceptionContext{catchBlock: catchBlock, finallyBlock: finallyBlock})

	b.currentBlock = tryBlock
	for _, stmt := range node.Body {
		if b.currentBlock == nil {
			break
		}
		b.processStatement(stmt)
	}
	tryEnd := b.currentBlock

	b.exceptionStack = b.exceptionStack[:len(b.exceptionStack)-1]

	if catchBlock != nil {
		b.cfg.ConnectBlocks(tryBlock, catchBlock, EdgeException)
		b.currentBlock = catchBlock
		for _, stmt := range node.Handler.Body {
			if b.currentBlock == nil {
				break
			}
			b.processStatement(stmt)
		}
	}
	catchEnd := b.currentBlock

	dest := mergeBlock
	if finallyBlock != nil {
		dest = finallyBlock
	}
	if tryEnd != nil && !b.endsWithJump(tryEnd) {
		b.cfg.ConnectBlocks(tryEnd, dest, EdgeNormal)
	}
	if catchBlock != nil && catchEnd != nil && !b.endsWithJump(catchEnd) {
		b.cfg.ConnectBlocks(catchEnd, dest, EdgeNormal)
	}

	if finallyBlock != nil {
		b.currentBlock = finallyBlock
		for _, stmt := range node.Finalizer.Body {
			if b.currentBlock == nil {
				break
			}
			b.processStatement(stmt)
		}
		if b.currentBlock != nil && !b.endsWithJump(b.currentBlock) {
			b.cfg.ConnectBlocks(b.currentBlock, mergeBlock, EdgeNormal)
		}
	}

	b.currentBlock = mergeBlock
}

func (b *Builder) buildReturn(node *parser.Node) {
	b.currentBlock.Statements = append(b.currentBlock.Statements, node)
	b.cfg.ConnectBlocks(b.currentBlock, b.cfg.Exit, EdgeReturn)
	b.currentBlock = nil
}

func (b *Builder) buildBreak(node *parser.Node) {
	b.currentBlock.Statements = append(b.currentBlock.Statements, node)
	if target := b.breakTarget(node); target != nil {
		b.cfg.ConnectBlocks(b.currentBlock, target, EdgeBreak)
	}
	b.currentBlock = nil
}

func (b *Builder) buildContinue(node *parser.Node) {
	b.currentBlock.Statements = append(b.currentBlock.Statements, node)
	if target := b.continueTarget(node); target != nil {
		b.cfg.ConnectBlocks(b.currentBlock, target, EdgeContinue)
	}
	b.currentBlock = nil
}

func (b *Builder) buildThrow(node *parser.Node) {
	b.currentBlock.Statements = append(b.currentBlock.Statements, node)
	if len(b.exceptionStack) > 0 {
		ctx := b.exceptionStack[len(b.exceptionStack)-1]
		switch {
		case ctx.catchBlock != nil:
			b.cfg.ConnectBlocks(b.currentBlock, ctx.catchBlock, EdgeException)
		case ctx.finallyBlock != nil:
			b.cfg.ConnectBlocks(b.currentBlock, ctx.finallyBlock, EdgeException)
		default:
			b.cfg.ConnectBlocks(b.currentBlock, b.cfg.Exit, EdgeException)
		}
	} else {
		b.cfg.ConnectBlocks(b.currentBlock, b.cfg.Exit, EdgeException)
	}
	b.currentBlock = nil
}

func (b *Builder) breakTarget(node *parser.Node) *BasicBlock {
	if node.Name != "" {
		if lc, ok := b.namedTargets[node.Name]; ok {
			return lc.exitBlock
		}
		return nil
	}
	if len(b.loopStack) == 0 {
		return nil
	}
	return b.loopStack[len(b.loopStack)-1].exitBlock
}

func (b *Builder) continueTarget(node *parser.Node) *BasicBlock {
	if node.Name != "" {
		if lc, ok := b.namedTargets[node.Name]; ok {
			return lc.headerBlock
		}
		return nil
	}
	for i := len(b.loopStack) - 1; i >= 0; i-- {
		if b.loopStack[i].headerBlock != nil {
			return b.loopStack[i].headerBlock
		}
	}
	return nil
}

func (b *Builder) pushLoop(header, exit *BasicBlock) {
	b.loopStack = append(b.loopStack, &loopContext{headerBlock: header, exitBlock: exit})
}

func (b *Builder) popLoop() {
	b.loopStack = b.loopStack[:len(b.loopStack)-1]
}

func (b *Builder) newBlock(label string) *BasicBlock {
	b.blockCounter++
	id := fmt.Sprintf("%s_%d", label, b.blockCounter)
	block := NewBasicBlock(id)
	b.cfg.Blocks[id] = block
	return block
}

func (b *Builder) hasSuccessor(block, target *BasicBlock) bool {
	for _, e := range block.Successors {
		if e.To == target {
			return true
		}
	}
	return false
}

func (b *Builder) endsWithJump(block *BasicBlock) bool {
	if len(block.Statements) == 0 {
		return false
	}
	last := block.Statements[len(block.Statements)-1]
	switch last.Type {
	case parser.NodeReturnStatement, parser.NodeBreakStatement, parser.NodeContinueStatement, parser.NodeThrowStatement:
		return true
	}
	return false
}
