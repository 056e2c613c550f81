// Package cost implements the two cost-model adapters DPsize scores join
// orientations with: a plain output-cardinality sum (C_out) and a
// learned-model adapter that drives the compiled forest via
// internal/model. Both share the same plan-feature derivation rules.
package cost

import (
	"errors"

	"github.com/kasuganosora/joinopt/internal/feature"
	"github.com/kasuganosora/joinopt/internal/planmodel"
)

// ErrPipelineAlreadyBuilt is returned by BuildHashTable when the plan's
// open pipeline already carries a build — the DP is trying to chain two
// builds onto the same pipeline, a contract violation.
var ErrPipelineAlreadyBuilt = errors.New("cost: build_hash_table called on a pipeline that already has a build")

// TableScanFeatures derives the scan features for a base-table leaf.
// Undefined (divides by zero) if tableSize is 0.
func TableScanFeatures(tableSize, cardinality float64) feature.Feature {
	empty := 0.0
	if cardinality == 0 {
		empty = 1.0
	}
	return feature.Feature{
		TableScanScanConst:         1,
		TableScanScanInCard:        tableSize,
		TableScanScanOutPercentage: cardinality / tableSize,
		TableScanScanEmptyOutput:   empty,
	}
}

// BuildHashTable derives the features of materializing plan's output into
// a hash table, terminating its open pipeline. Its precondition
// (HashJoinBuildConst == 0 on entry) is enforced; violating it returns
// ErrPipelineAlreadyBuilt.
func BuildHashTable(plan *planmodel.Plan) (feature.Feature, error) {
	open := plan.OpenPipelineFeatures
	if open.HashJoinBuildConst > 0 {
		return feature.Feature{}, ErrPipelineAlreadyBuilt
	}
	return open.Add(feature.Feature{
		HashJoinBuildConst:        1,
		HashJoinBuildOutCard:      plan.Cardinality,
		HashJoinBuildOutSize:      16,
		HashJoinBuildInPercentage: plan.Cardinality / open.TableScanScanInCard,
	}), nil
}

// ProbeFeatures derives the features of streaming probePlan's output
// through a hash table built from buildPlan, extending probePlan's open
// pipeline upward rather than terminating it.
func ProbeFeatures(probePlan, buildPlan *planmodel.Plan, outCard float64) feature.Feature {
	open := probePlan.OpenPipelineFeatures
	return open.Add(feature.Feature{
		HashJoinProbeConst:           1,
		HashJoinProbeInCard:          buildPlan.Cardinality,
		HashJoinProbeRightPercentage: probePlan.Cardinality / open.TableScanScanInCard,
		HashJoinProbeOutPercentage:   outCard / open.TableScanScanInCard,
	})
}
