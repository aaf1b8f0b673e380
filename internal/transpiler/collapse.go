package transpiler

import "github.com/ludo-technologies/genlower/internal/parser"

// Finalize performs the two-phase address-graph collapse spec.md §4.6
// describes (chain flattening, then adjacent merging) and appends the
// surviving cases to switchNode as SwitchCase clauses keyed by case id.
// The entry case (id 1) is never renamed or dropped.
func (ctx *TranspilationContext) Finalize(switchNode *parser.Node) {
	dropped := make(map[*Case]bool)
	ctx.collapseChains(dropped)
	ctx.collapseAdjacent(dropped)

	var clauses []*parser.Node
	for _, c := range ctx.allCases {
		if dropped[c] {
			continue
		}
		if c.ID != 1 && len(c.Body) == 0 && len(c.References) == 0 {
			// Unreferenced and empty: nothing can resume here, and the
			// entry case already guarantees the switch is never empty.
			continue
		}
		clause := buildCaseClause(c)
		clause.Parent = switchNode
		clauses = append(clauses, clause)
	}
	switchNode.Cases = clauses
}

// collapseChains implements spec.md §4.6 step 1: for each case C with
// C.JumpTo set, follow the chain to its non-jump terminal, retarget every
// reference that named C to name the terminal instead, and drop C. The
// entry case is special: since it cannot be dropped, it absorbs its
// target's body instead of being absorbed itself.
func (ctx *TranspilationContext) collapseChains(dropped map[*Case]bool) {
	for _, c := range ctx.allCases {
		if dropped[c] || c.JumpTo == nil {
			continue
		}

		terminal := c.JumpTo
		visited := map[*Case]bool{c: true}
		for terminal.JumpTo != nil && !visited[terminal] {
			visited[terminal] = true
			terminal = terminal.JumpTo
		}
		if terminal == c {
			continue
		}

		if c.ID == 1 {
			c.Body = terminal.Body
			c.MayFallThrough = terminal.MayFallThrough
			c.JumpTo = terminal.JumpTo
			for _, ref := range terminal.References {
				ref.Value = c.ID
				c.References = append(c.References, ref)
			}
			terminal.References = nil
			dropped[terminal] = true
			continue
		}

		c.JumpTo = terminal
		if c.EmbedInto != nil && len(c.References) == 1 {
			terminal.EmbedInto = c.EmbedInto
		}
		for _, ref := range c.References {
			ref.Value = terminal.ID
			terminal.References = append(terminal.References, ref)
		}
		c.References = nil
		dropped[c] = true
	}
}

// collapseAdjacent implements spec.md §4.6 step 2: walk allCases in
// order, merging each unreferenced fall-through case into its
// predecessor, inlining single-reference embeddable cases into their
// embedding block, and folding pure-jump predecessors into their target.
func (ctx *TranspilationContext) collapseAdjacent(dropped map[*Case]bool) {
	var prev *Case
	for _, d := range ctx.allCases {
		if dropped[d] {
			continue
		}
		if prev == nil {
			prev = d
			continue
		}

		switch {
		case len(d.References) == 0 && prev.MayFallThrough:
			prev.Body = append(prev.Body, d.Body...)
			prev.MayFallThrough = d.MayFallThrough
			dropped[d] = true

		case d.EmbedInto != nil && len(d.References) == 1 && !d.MayFallThrough:
			d.EmbedInto.Body = d.Body
			for _, s := range d.Body {
				s.Parent = d.EmbedInto
			}
			dropped[d] = true

		case prev.JumpTo == d:
			prev.Body = append(prev.Body, d.Body...)
			prev.MayFallThrough = d.MayFallThrough
			prev.JumpTo = d.JumpTo
			for _, ref := range d.References {
				ref.Value = prev.ID
				prev.References = append(prev.References, ref)
			}
			d.References = nil
			dropped[d] = true

		default:
			prev = d
		}
	}
}

func buildCaseClause(c *Case) *parser.Node {
	clause := parser.NewNode(parser.NodeCaseClause)
	clause.Test = numberLiteral(c.ID)
	clause.Test.GeneratorSafe = true
	clause.Body = c.Body
	for _, s := range c.Body {
		s.Parent = clause
	}
	clause.GeneratorSafe = true
	return clause
}
