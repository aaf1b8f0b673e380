package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// Case is one address in the generated switch (spec.md §3). Id 1 is the
// entry case; id 0 is reserved for the synthetic program-end case.
type Case struct {
	ID   int
	Body []*parser.Node

	// References holds every literal-id AST node emitted elsewhere that
	// names this case (the argument to a jumpTo/yield/... runtime call).
	// Collapse rewrites these in place rather than tracking back-pointers
	// from the AST, per spec.md §9's "references are one-way" note.
	References []*parser.Node

	// JumpTo is set when this case is a pure jump chain hop: its body is
	// empty and control was switched away from it immediately (spec.md
	// §4.4's "if currentCase.body is empty when a switch occurs, the
	// predecessor is marked jumpTo = C").
	JumpTo *Case

	// EmbedInto is the block node this case's body may be inlined into,
	// when the case is reachable from exactly one jump-block and need
	// not stand alone.
	EmbedInto *parser.Node

	// MayFallThrough is whether control can leave the case's generated
	// body without an explicit jump, return, or break.
	MayFallThrough bool
}

func newCase(id int) *Case {
	return &Case{ID: id, MayFallThrough: true}
}

// Emit appends stmt to the case's body. A nil stmt is ignored so callers
// can build statements conditionally without an extra nil check.
func (c *Case) Emit(stmt *parser.Node) {
	if stmt == nil {
		return
	}
	c.Body = append(c.Body, stmt)
}

// Empty reports whether the case has no emitted statements yet.
func (c *Case) Empty() bool {
	return len(c.Body) == 0
}

// LabelCases is the pair of targets registered for a named label
// (spec.md §3): Continue is nil unless the labeled node is a loop
// structure.
type LabelCases struct {
	Break    *Case
	Continue *Case
}

// CatchCase records one active catch handler: the case it resumes at,
// and how many enclosing finally blocks sit between it and the current
// code site (spec.md §3).
type CatchCase struct {
	Catch                *Case
	FinallyBlocksPending uint
}
