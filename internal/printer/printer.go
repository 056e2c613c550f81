// Package printer renders a plan tree as a fully-parenthesized
// relation-name expression: no precedence sugar, every join wrapped in
// its own parentheses.
package printer

import (
	"strings"

	"github.com/kasuganosora/joinopt/internal/planmodel"
	"github.com/kasuganosora/joinopt/internal/querygraph"
)

// Print renders plan using relationNames to resolve leaf relation IDs to
// their source names. A leaf renders as "(name)"; an internal node
// renders as "(left⋈right)".
func Print(plan *planmodel.Plan, relationNames map[int]string) string {
	var b strings.Builder
	write(&b, plan, relationNames)
	return b.String()
}

// PrintGraph is a convenience wrapper building the relationNames map from
// a QueryGraph's relation list.
func PrintGraph(plan *planmodel.Plan, g *querygraph.QueryGraph) string {
	names := make(map[int]string, len(g.Relations))
	for _, rel := range g.Relations {
		names[rel.ID] = rel.Name
	}
	return Print(plan, names)
}

func write(b *strings.Builder, plan *planmodel.Plan, names map[int]string) {
	b.WriteByte('(')
	if plan.IsLeaf() {
		b.WriteString(names[plan.Relation])
	} else {
		write(b, plan.Left, names)
		b.WriteRune('⋈')
		write(b, plan.Right, names)
	}
	b.WriteByte(')')
}
