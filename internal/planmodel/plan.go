// Package planmodel defines the join-tree plan representation and its
// bump-allocating arena.
package planmodel

import (
	"strconv"
	"strings"

	"github.com/kasuganosora/joinopt/internal/bitset"
	"github.com/kasuganosora/joinopt/internal/feature"
)

const bowtie = ":J:"

// LeafSentinel marks a Plan as an internal (join) node rather than a base
// table scan.
const LeafSentinel = -1

// Plan is a node of a join tree: either a base-table scan leaf or an
// internal hash-join node. Leaves have Left = Right = nil, MatCost = 0,
// Cost = 0. Internal nodes carry OpenPipelineFeatures describing the
// still-unterminated pipeline feeding their output.
type Plan struct {
	OpenPipelineFeatures feature.Feature
	Left, Right          *Plan
	Cardinality          float64
	Cost                 float64
	MatCost              float64
	Relation             int // >=0 for a base-table leaf, -1 for an internal node
	Subset               bitset.Set
}

// IsLeaf reports whether p is a base-table scan.
func (p *Plan) IsLeaf() bool {
	return p.Relation != LeafSentinel
}

// Signature renders a deterministic, arena-address-independent string
// describing the plan's shape: leaf relation ids and join nesting. Used
// by tests to assert structural equality across repeated DP runs without
// comparing raw pointers.
func (p *Plan) Signature() string {
	if p == nil {
		return "nil"
	}
	if p.IsLeaf() {
		return "R" + strconv.Itoa(p.Relation)
	}
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(p.Left.Signature())
	b.WriteString(bowtie)
	b.WriteString(p.Right.Signature())
	b.WriteByte(')')
	return b.String()
}
