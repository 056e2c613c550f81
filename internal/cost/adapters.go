package cost

import (
	"github.com/kasuganosora/joinopt/internal/feature"
	"github.com/kasuganosora/joinopt/internal/model"
	"github.com/kasuganosora/joinopt/internal/planmodel"
)

// Result is what a cost adapter hands back to create_join_tree: the
// candidate's open-pipeline features, total cost, and materialized cost.
type Result struct {
	OpenFeatures feature.Feature
	Cost         float64
	MatCost      float64
}

// Adapter scores one join orientation: left is always the build side,
// right is always the probe side — the DPsize driver tries both
// orientations by calling Compute twice with left/right swapped; the
// adapter itself never swaps.
type Adapter interface {
	Compute(left, right *planmodel.Plan, outputCardinality float64) (Result, error)
}

// Cout is the baseline cost adapter: cost is simply the sum of the
// output cardinality and both children's costs. Its open pipeline is
// never materialized, so OpenFeatures and MatCost are always zero.
type Cout struct{}

func (Cout) Compute(left, right *planmodel.Plan, outputCardinality float64) (Result, error) {
	return Result{
		Cost: outputCardinality + left.Cost + right.Cost,
	}, nil
}

// LearnedModel scores a join orientation with the compiled forest: the
// build side's materialization cost terminates its pipeline, and the
// probe side's extended pipeline feeds the returned OpenFeatures.
type LearnedModel struct {
	Model *model.Model
}

func (lm LearnedModel) Compute(left, right *planmodel.Plan, outputCardinality float64) (Result, error) {
	buildFeatures, err := BuildHashTable(left)
	if err != nil {
		return Result{}, err
	}
	if _, err := lm.Model.RegisterFeatures(buildFeatures); err != nil {
		return Result{}, err
	}
	buildCost := lm.Model.PredictOne()

	probeFeatures := ProbeFeatures(right, left, outputCardinality)
	if _, err := lm.Model.RegisterFeatures(probeFeatures); err != nil {
		return Result{}, err
	}
	probeCost := lm.Model.PredictOne()

	matCost := left.MatCost + right.MatCost + buildCost
	return Result{
		OpenFeatures: probeFeatures,
		MatCost:      matCost,
		Cost:         matCost + probeCost,
	}, nil
}
