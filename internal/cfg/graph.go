// Package cfg builds a minimal control-flow graph and answers the two
// reachability questions the generator-lowering core needs: whether the
// tail of a function body can fall through to a point after it, and
// whether a given switch-case body has exactly one incoming edge.
//
// This is the "CFG query oracle" spec.md treats as an external
// collaborator. Its shape (BasicBlock/Edge/CFG, one block per structural
// region, successors recorded as typed edges) is grounded on the teacher's
// cfg_builder.go; the types themselves are reimplemented locally because
// the teacher's CFG/BasicBlock types live in a sibling module
// (github.com/ludo-technologies/codescan-core) that is not part of this
// retrieval pack.
package cfg

import "github.com/ludo-technologies/genlower/internal/parser"

// EdgeType classifies a control-flow edge.
type EdgeType int

const (
	EdgeNormal EdgeType = iota
	EdgeCondTrue
	EdgeCondFalse
	EdgeLoop
	EdgeBreak
	EdgeContinue
	EdgeReturn
	EdgeException
)

// Edge is a directed control-flow edge between two blocks.
type Edge struct {
	To   *BasicBlock
	Type EdgeType
}

// BasicBlock is a straight-line run of statements with no internal branch.
type BasicBlock struct {
	ID         string
	Statements []*parser.Node
	Successors []Edge
	// Predecessors is maintained alongside Successors so in-edge queries
	// (the only thing the oracle needs) don't require a full-graph scan.
	Predecessors []Edge
}

// NewBasicBlock creates an empty block with the given id.
func NewBasicBlock(id string) *BasicBlock {
	return &BasicBlock{ID: id}
}

// IsEmpty reports whether the block has no statements.
func (b *BasicBlock) IsEmpty() bool {
	return len(b.Statements) == 0
}

// CFG is a single function's (or function fragment's) control-flow graph.
type CFG struct {
	Name   string
	Entry  *BasicBlock
	Exit   *BasicBlock
	Blocks map[string]*BasicBlock

	// CaseBlocks maps a switch-case AST node to the block that holds its
	// body, populated while building a switch statement. It lets the
	// oracle answer "does this case body have a single incoming edge"
	// without the CFG otherwise needing to track AST identity.
	CaseBlocks map[*parser.Node]*BasicBlock
}

// NewCFG creates a CFG with an entry and exit block already wired in.
func NewCFG(name string) *CFG {
	entry := NewBasicBlock("ENTRY")
	exit := NewBasicBlock("EXIT")
	c := &CFG{
		Name:  name,
		Entry: entry,
		Exit:  exit,
		Blocks: map[string]*BasicBlock{
			entry.ID: entry,
			exit.ID:  exit,
		},
		CaseBlocks: make(map[*parser.Node]*BasicBlock),
	}
	return c
}

// ConnectBlocks records a directed edge from -> to with the given type.
func (c *CFG) ConnectBlocks(from, to *BasicBlock, t EdgeType) {
	if from == nil || to == nil {
		return
	}
	from.Successors = append(from.Successors, Edge{To: to, Type: t})
	to.Predecessors = append(to.Predecessors, Edge{To: from, Type: t})
}

// InDegree returns the number of incoming edges on a block.
func (b *BasicBlock) InDegree() int {
	if b == nil {
		return 0
	}
	return len(b.Predecessors)
}
