// Package dpsize implements the DPsize enumeration engine: subset-pair
// enumeration by size, singleton seeding, and the best-plan-per-subset
// memo.
package dpsize

import (
	"fmt"

	"github.com/kasuganosora/joinopt/internal/bitset"
	"github.com/kasuganosora/joinopt/internal/cost"
	"github.com/kasuganosora/joinopt/internal/planmodel"
	"github.com/kasuganosora/joinopt/internal/querygraph"
)

// Driver runs DPsize over one QueryGraph with one cost Adapter. A Driver
// is single-use: call Run once, read the result, then release the
// returned arena when done with the plan tree.
type Driver struct {
	graph   *querygraph.QueryGraph
	adapter cost.Adapter

	// CardinalityFallback, if set, is consulted whenever the graph itself
	// has no recorded cardinality for a subset DPsize reaches. It lets a
	// caller backfill from a cross-run cache: a dump that only redumps
	// the subsets touched since the last optimizer invocation can still
	// be enumerated in full, as long as every untouched subset's
	// cardinality was persisted by that earlier run.
	CardinalityFallback func(bitset.Set) (float64, bool)

	arena       *planmodel.Arena
	memo        map[bitset.Set]*planmodel.Plan
	sizeBuckets [][]bitset.Set // sizeBuckets[k] holds every subset of size k discovered so far
}

// New creates a Driver for the given graph and cost adapter.
func New(graph *querygraph.QueryGraph, adapter cost.Adapter) *Driver {
	return &Driver{
		graph:   graph,
		adapter: adapter,
		arena:   planmodel.NewArena(),
		memo:    make(map[bitset.Set]*planmodel.Plan),
	}
}

// Arena exposes the plan arena backing this run's results, so callers can
// Release it once they are done reading the returned plan.
func (d *Driver) Arena() *planmodel.Arena {
	return d.arena
}

// Run enumerates connected join trees over every relation in the graph
// and returns the cheapest plan for the full relation set. Returns
// (nil, nil) if the graph has zero relations, and (nil, nil) if the
// graph is disconnected (no plan exists for the full mask). Returns a
// non-nil error only for a programmer error: a connected subset with no
// cardinality entry.
func (d *Driver) Run() (*planmodel.Plan, error) {
	r := d.graph.NumRelations()
	if r == 0 {
		return nil, nil
	}

	d.sizeBuckets = make([][]bitset.Set, r+1)
	d.seedSingletons()

	for size := 2; size <= r; size++ {
		for l := 1; l < size; l++ {
			for _, left := range d.sizeBuckets[l] {
				for _, right := range d.sizeBuckets[size-l] {
					if left&right != 0 {
						continue // not disjoint
					}
					united, isNew, err := d.createJoinTree(left, right)
					if err != nil {
						return nil, err
					}
					if isNew {
						d.sizeBuckets[size] = append(d.sizeBuckets[size], united)
					}
				}
			}
		}
	}

	return d.memo[d.graph.FullMask()], nil
}

func (d *Driver) seedSingletons() {
	for _, rel := range d.graph.Relations {
		mask := bitset.Set(1) << uint(rel.ID)
		leaf := d.arena.NewLeaf(rel.ID, mask, planmodel.Plan{
			OpenPipelineFeatures: cost.TableScanFeatures(rel.TableSize, rel.Cardinality),
			Cardinality:          rel.Cardinality,
		})
		d.memo[mask] = leaf
		d.sizeBuckets[1] = append(d.sizeBuckets[1], mask)
	}
}

// createJoinTree considers joining left and right, updating united's memo
// entry in place if this orientation is cheaper than what's there. It
// returns the united subset mask and whether a memo entry was allocated
// for united by *this call* — the driver only records a subset in its
// size bucket the first time it's allocated, not on every later split
// that happens to reach the same subset.
func (d *Driver) createJoinTree(left, right bitset.Set) (bitset.Set, bool, error) {
	united := left | right
	leftPlan, rightPlan := d.memo[left], d.memo[right]

	plan, exists := d.memo[united]
	allocated := false
	if !exists {
		if !d.graph.IsConnected(left, right) {
			return united, false, nil
		}
		plan = d.arena.NewInternal(united, leftPlan, rightPlan)
		d.memo[united] = plan
		allocated = true
	}

	card, err := d.graph.CardinalityOf(united)
	if err != nil {
		if d.CardinalityFallback != nil {
			if fallback, ok := d.CardinalityFallback(united); ok {
				card = fallback
			} else {
				return united, false, fmt.Errorf("dpsize: %w", err)
			}
		} else {
			return united, false, fmt.Errorf("dpsize: %w", err)
		}
	}

	result, err := d.adapter.Compute(leftPlan, rightPlan, card)
	if err != nil {
		return united, false, fmt.Errorf("dpsize: %w", err)
	}

	if result.Cost < plan.Cost {
		plan.Left, plan.Right = leftPlan, rightPlan
		plan.Cost = result.Cost
		plan.MatCost = result.MatCost
		plan.OpenPipelineFeatures = result.OpenFeatures
		plan.Cardinality = card
	}

	return united, allocated, nil
}
