package transpiler

import (
	"log"
)

// TranspilationContext owns the generated state machine for one
// generator function: the sequence of Cases, the "current" case, the
// break/continue/label/catch/finally stacks, and the terminal
// program-end case (spec.md §3). It also emits the runtime method calls
// (spec.md §6) and performs the address-graph collapse (spec.md §4.6) in
// Finalize.
type TranspilationContext struct {
	contextName string

	allCases       []*Case
	currentCase    *Case
	programEndCase *Case
	idCounter      int

	namedLabels map[string]*LabelCases

	breakCases    []*Case
	continueCases []*Case

	catchCases   []*CatchCase
	finallyCases []*Case

	nestedFinallyBlockCount uint

	catchNames             map[string]bool
	thisReferenceFound     bool
	argumentsReferenceFound bool

	tempCounter int
	logger      *log.Logger
}

// NewTranspilationContext creates a context whose generated runtime calls
// target contextName (the mangled, per-nesting-level parameter name) and
// whose entry case (id 1) is already current.
func NewTranspilationContext(contextName string, logger *log.Logger) *TranspilationContext {
	ctx := &TranspilationContext{
		contextName: contextName,
		idCounter:   2,
		namedLabels: make(map[string]*LabelCases),
		catchNames:  make(map[string]bool),
		logger:      logger,
	}
	ctx.programEndCase = newCase(0)
	entry := newCase(1)
	ctx.allCases = append(ctx.allCases, entry)
	ctx.currentCase = entry
	return ctx
}

// Current returns the case currently being filled.
func (ctx *TranspilationContext) Current() *Case {
	return ctx.currentCase
}

// EntryCase returns case 1.
func (ctx *TranspilationContext) EntryCase() *Case {
	return ctx.allCases[0]
}

// ProgramEndCase returns the synthetic case 0.
func (ctx *TranspilationContext) ProgramEndCase() *Case {
	return ctx.programEndCase
}

// NewCase allocates a fresh case with the next monotonic id, without
// making it current and without adding it to allCases -- it joins
// allCases only once SwitchTo actually makes it current, preserving the
// "appended in the order they become currentCase" ordering guarantee
// (spec.md §5) even though ids may be allocated ahead of their use (e.g.
// an endCase allocated before the case that jumps to it is lowered).
func (ctx *TranspilationContext) NewCase() *Case {
	id := ctx.idCounter
	ctx.idCounter++
	return newCase(id)
}

// SwitchTo makes c the current case. If the previous current case never
// received a statement, it is marked as a pure jump-chain hop to c
// (spec.md §4.4's "if currentCase.body is empty when a switch occurs,
// the predecessor is marked jumpTo = C").
func (ctx *TranspilationContext) SwitchTo(c *Case) {
	if ctx.currentCase != nil && ctx.currentCase.Empty() {
		ctx.currentCase.JumpTo = c
	}
	ctx.allCases = append(ctx.allCases, c)
	ctx.currentCase = c
}

// log writes an internal diagnostic if a logger was configured.
func (ctx *TranspilationContext) log(format string, args ...interface{}) {
	if ctx.logger != nil {
		ctx.logger.Printf(format, args...)
	}
}

// --- break/continue/label/catch/finally stacks ---

func (ctx *TranspilationContext) PushBreak(c *Case)    { ctx.breakCases = append(ctx.breakCases, c) }
func (ctx *TranspilationContext) PushContinue(c *Case) { ctx.continueCases = append(ctx.continueCases, c) }

func (ctx *TranspilationContext) PopBreak() {
	ctx.breakCases = ctx.breakCases[:len(ctx.breakCases)-1]
}

func (ctx *TranspilationContext) PopContinue() {
	ctx.continueCases = ctx.continueCases[:len(ctx.continueCases)-1]
}

func (ctx *TranspilationContext) BreakTarget() *Case {
	if len(ctx.breakCases) == 0 {
		return nil
	}
	return ctx.breakCases[len(ctx.breakCases)-1]
}

func (ctx *TranspilationContext) ContinueTarget() *Case {
	if len(ctx.continueCases) == 0 {
		return nil
	}
	return ctx.continueCases[len(ctx.continueCases)-1]
}

func (ctx *TranspilationContext) PushLabel(name string, lc *LabelCases) {
	ctx.namedLabels[name] = lc
}

func (ctx *TranspilationContext) PopLabel(name string) {
	delete(ctx.namedLabels, name)
}

func (ctx *TranspilationContext) Label(name string) *LabelCases {
	return ctx.namedLabels[name]
}

func (ctx *TranspilationContext) PushCatch(cc *CatchCase) {
	ctx.catchCases = append(ctx.catchCases, cc)
}

func (ctx *TranspilationContext) PopCatch() {
	ctx.catchCases = ctx.catchCases[:len(ctx.catchCases)-1]
}

func (ctx *TranspilationContext) CatchTarget() *CatchCase {
	if len(ctx.catchCases) == 0 {
		return nil
	}
	return ctx.catchCases[len(ctx.catchCases)-1]
}

func (ctx *TranspilationContext) PushFinally(c *Case) {
	ctx.finallyCases = append(ctx.finallyCases, c)
}

func (ctx *TranspilationContext) PopFinally() {
	ctx.finallyCases = ctx.finallyCases[:len(ctx.finallyCases)-1]
}

func (ctx *TranspilationContext) FinallyTarget() *Case {
	if len(ctx.finallyCases) == 0 {
		return nil
	}
	return ctx.finallyCases[len(ctx.finallyCases)-1]
}

// PendingFinallyCount returns how many finally handlers are active, i.e.
// the depth of the finally stack.
func (ctx *TranspilationContext) PendingFinallyCount() uint {
	return uint(len(ctx.finallyCases))
}

func (ctx *TranspilationContext) IncNestedFinally() { ctx.nestedFinallyBlockCount++ }
func (ctx *TranspilationContext) DecNestedFinally() { ctx.nestedFinallyBlockCount-- }
func (ctx *TranspilationContext) InFinally() bool    { return ctx.nestedFinallyBlockCount > 0 }

// NextTemp returns a fresh temporary variable name, suitable for use by
// the decompose.Decomposer callback.
func (ctx *TranspilationContext) NextTemp() string {
	name := tempPrefix + itoa(ctx.tempCounter)
	ctx.tempCounter++
	return name
}

// AssertEmpty checks the invariants spec.md §3 requires at the end of a
// function's transpile: every stack empty, no nested finally in flight.
// A violation is a programmer error in the pass, not a user diagnostic.
func (ctx *TranspilationContext) AssertEmpty() {
	if len(ctx.namedLabels) != 0 {
		panicInternal("TranspilationContext.AssertEmpty", "namedLabels not empty: %d entries remain", len(ctx.namedLabels))
	}
	if len(ctx.breakCases) != 0 || len(ctx.continueCases) != 0 {
		panicInternal("TranspilationContext.AssertEmpty", "break/continue stacks not empty (%d/%d)", len(ctx.breakCases), len(ctx.continueCases))
	}
	if len(ctx.catchCases) != 0 || len(ctx.finallyCases) != 0 {
		panicInternal("TranspilationContext.AssertEmpty", "catch/finally stacks not empty (%d/%d)", len(ctx.catchCases), len(ctx.finallyCases))
	}
	if ctx.nestedFinallyBlockCount != 0 {
		panicInternal("TranspilationContext.AssertEmpty", "nestedFinallyBlockCount not zero: %d", ctx.nestedFinallyBlockCount)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
