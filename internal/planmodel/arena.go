package planmodel

import "math"

// Arena bump-allocates Plan records from chunks that double in capacity
// (initial 8, then 16, 32, ...). There is no per-plan free; the whole
// arena is released at once when the caller finishes reading the chosen
// plan tree.
type Arena struct {
	chunks []*[]Plan
}

const initialChunkCapacity = 8

// NewArena creates an empty arena with its first chunk pre-allocated.
func NewArena() *Arena {
	a := &Arena{}
	a.growChunk(initialChunkCapacity)
	return a
}

func (a *Arena) growChunk(capacity int) {
	chunk := make([]Plan, 0, capacity)
	a.chunks = append(a.chunks, &chunk)
}

func (a *Arena) currentChunk() *[]Plan {
	return a.chunks[len(a.chunks)-1]
}

// NewLeaf allocates a leaf plan for the given base relation, seeded with
// the caller-supplied table-scan features (see internal/cost's
// TableScanFeatures, which knows how to derive them).
func (a *Arena) NewLeaf(relation int, subset uint64, scanFeatures Plan) *Plan {
	p := a.alloc()
	*p = scanFeatures
	p.Relation = relation
	p.Subset = subset
	p.Left, p.Right = nil, nil
	p.MatCost, p.Cost = 0, 0
	return p
}

// NewInternal allocates an internal (join) node in its initial
// infinite-cost placeholder state, per create_join_tree step 1: the open
// pipeline starts as the probe (right) side's, since the first orientation
// considered always seeds it; cost comparison then overwrites fields in
// place as cheaper orientations are found.
func (a *Arena) NewInternal(subset uint64, left, right *Plan) *Plan {
	p := a.alloc()
	p.Relation = LeafSentinel
	p.Subset = subset
	p.Left = left
	p.Right = right
	p.OpenPipelineFeatures = right.OpenPipelineFeatures
	p.Cost = math.Inf(1)
	p.Cardinality = math.Inf(1)
	return p
}

func (a *Arena) alloc() *Plan {
	chunk := a.currentChunk()
	if len(*chunk) == cap(*chunk) {
		a.growChunk(cap(*chunk) * 2)
		chunk = a.currentChunk()
	}
	*chunk = append(*chunk, Plan{})
	return &(*chunk)[len(*chunk)-1]
}

// Release drops every chunk, making previously-returned plan pointers
// dangling. Callers must not touch any Plan from this arena afterward.
func (a *Arena) Release() {
	a.chunks = nil
}

// Len returns the total number of plans allocated across all chunks,
// mostly useful for tests and diagnostics.
func (a *Arena) Len() int {
	n := 0
	for _, c := range a.chunks {
		n += len(*c)
	}
	return n
}
