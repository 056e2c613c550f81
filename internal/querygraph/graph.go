// Package querygraph models the relations, join predicates, and per-subset
// cardinalities the DPsize driver enumerates over, plus the connectivity
// oracle that prunes cross products.
package querygraph

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/joinopt/internal/bitset"
)

// ErrTooManyRelations is returned when a graph has more relations than a
// 64-bit bitset can address joins over. The encodable bit width is
// bitset.MaxRelations, but shifting a full mask by that many bits is
// itself undefined for a 64-bit word, so the enforced business limit is
// one relation lower: 63.
var ErrTooManyRelations = errors.New("querygraph: more than 63 relations cannot be encoded in a 64-bit bitset")

// ErrMissingCardinality is returned when the DP driver asks for the
// cardinality of a subset this graph never recorded. It indicates a
// caller error: every connected subset the enumeration reaches must have
// an entry.
var ErrMissingCardinality = errors.New("querygraph: missing subset cardinality")

// Relation is a base table: its bit position, pre- and post-filter sizes.
type Relation struct {
	Name        string
	ID          int
	TableSize   float64
	Cardinality float64
}

// Join is a single-bit-mask-normalized pairwise join predicate:
// popcount(Left) = popcount(Right) = 1, Left != Right.
type Join struct {
	Left        bitset.Set
	Right       bitset.Set
	Selectivity float64
}

// QueryGraph is the immutable input to DPsize: relations, normalized
// joins, the subset cardinality table, and a join_lookup adjacency index
// built once by PrepareLookup.
type QueryGraph struct {
	Relations    []Relation
	Joins        []Join
	Cardinalities map[bitset.Set]float64

	// joinLookup[i] lists every join touching relation i; a join with
	// endpoints (l, r) appears in joinLookup[l's id] and joinLookup[r's id].
	joinLookup [][]int
}

// New builds a QueryGraph from raw relations and raw (by-id) joins,
// normalizing join endpoints to single-bit masks. Returns
// ErrTooManyRelations if len(relations) reaches bitset.MaxRelations —
// at most 63 relations are accepted, since the 64th would require
// shifting a full mask by the bitset's entire width.
func New(relations []Relation, rawJoins []RawJoin, cardinalities map[bitset.Set]float64) (*QueryGraph, error) {
	if len(relations) >= bitset.MaxRelations {
		return nil, ErrTooManyRelations
	}

	joins := make([]Join, len(rawJoins))
	for i, rj := range rawJoins {
		joins[i] = Join{
			Left:        bitset.Set(1) << uint(rj.LeftID),
			Right:       bitset.Set(1) << uint(rj.RightID),
			Selectivity: rj.Selectivity,
		}
	}

	if cardinalities == nil {
		cardinalities = make(map[bitset.Set]float64)
	}

	g := &QueryGraph{
		Relations:     relations,
		Joins:         joins,
		Cardinalities: cardinalities,
	}
	g.PrepareLookup()
	return g, nil
}

// RawJoin is the caller-facing join shape before bitmask normalization.
type RawJoin struct {
	LeftID      int
	RightID     int
	Selectivity float64
}

// PrepareLookup (re)builds the per-relation join adjacency index. Called
// once by New; exposed so callers that mutate Joins directly afterwards
// can call it again.
func (g *QueryGraph) PrepareLookup() {
	g.joinLookup = make([][]int, len(g.Relations))
	for idx, j := range g.Joins {
		for _, rel := range []bitset.Set{j.Left, j.Right} {
			id := SingleBitIndex(rel)
			if id < 0 || id >= len(g.Relations) {
				continue
			}
			g.joinLookup[id] = append(g.joinLookup[id], idx)
		}
	}
}

// SingleBitIndex returns the position of mask's single set bit, or -1 if
// mask is zero. Join endpoints are always single-bit masks, so this
// recovers a relation's ID from its bit.
func SingleBitIndex(mask bitset.Set) int {
	id := -1
	bitset.Bits(mask, func(i int) bool {
		id = i
		return false
	})
	return id
}

// NumRelations returns R, the relation count.
func (g *QueryGraph) NumRelations() int {
	return len(g.Relations)
}

// FullMask returns the bitmask covering every relation in the graph.
func (g *QueryGraph) FullMask() bitset.Set {
	return bitset.Full(len(g.Relations))
}

// CardinalityOf looks up the cardinality of a connected subset. Returns
// ErrMissingCardinality if the caller never supplied one — a programmer
// error: the dump parser or driver setup should have recorded it.
func (g *QueryGraph) CardinalityOf(subset bitset.Set) (float64, error) {
	card, ok := g.Cardinalities[subset]
	if !ok {
		return 0, fmt.Errorf("%w: subset %#x", ErrMissingCardinality, subset)
	}
	return card, nil
}

// IsConnected reports whether at least one join edge has one endpoint in
// s1 and the other in s2. s1 and s2 must be disjoint and non-empty for
// the result to be meaningful; the oracle itself does not enforce that.
func (g *QueryGraph) IsConnected(s1, s2 bitset.Set) bool {
	small := bitset.Smaller(s1, s2)

	found := false
	bitset.Bits(small, func(i int) bool {
		if i >= len(g.joinLookup) {
			return true
		}
		for _, idx := range g.joinLookup[i] {
			j := g.Joins[idx]
			if (bitset.IsSubset(j.Left, s1) && bitset.IsSubset(j.Right, s2)) ||
				(bitset.IsSubset(j.Left, s2) && bitset.IsSubset(j.Right, s1)) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}
