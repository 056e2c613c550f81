package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/joinopt/internal/feature"
	"github.com/kasuganosora/joinopt/internal/model"
	"github.com/kasuganosora/joinopt/internal/planmodel"
)

func leafPlan(tableSize, cardinality float64) *planmodel.Plan {
	return &planmodel.Plan{
		OpenPipelineFeatures: TableScanFeatures(tableSize, cardinality),
		Cardinality:          cardinality,
	}
}

func TestTableScanFeaturesEmptyOutputFlag(t *testing.T) {
	f := TableScanFeatures(100, 0)
	assert.Equal(t, 1.0, f.TableScanScanEmptyOutput)

	f2 := TableScanFeatures(100, 5)
	assert.Equal(t, 0.0, f2.TableScanScanEmptyOutput)
}

func TestBuildHashTableIncrementsBuildConst(t *testing.T) {
	p := leafPlan(100, 40)
	built, err := BuildHashTable(p)
	require.NoError(t, err)

	// build const is open's + 1
	assert.Equal(t, p.OpenPipelineFeatures.HashJoinBuildConst+1, built.HashJoinBuildConst)
	assert.Equal(t, 40.0, built.HashJoinBuildOutCard)
	assert.Equal(t, 16.0, built.HashJoinBuildOutSize)
}

func TestBuildHashTableRejectsDoubleBuild(t *testing.T) {
	p := leafPlan(100, 40)
	built, err := BuildHashTable(p)
	require.NoError(t, err)

	p.OpenPipelineFeatures = built
	_, err = BuildHashTable(p)
	assert.ErrorIs(t, err, ErrPipelineAlreadyBuilt)
}

func TestProbeFeaturesExtendsPipeline(t *testing.T) {
	build := leafPlan(100, 40)
	probe := leafPlan(200, 80)

	pf := ProbeFeatures(probe, build, 30)

	assert.Equal(t, 1.0, pf.HashJoinProbeConst)
	assert.Equal(t, 40.0, pf.HashJoinProbeInCard)
	assert.InDelta(t, 80.0/200.0, pf.HashJoinProbeRightPercentage, 1e-9)
	assert.InDelta(t, 30.0/200.0, pf.HashJoinProbeOutPercentage, 1e-9)
}

func TestCoutSumsChildCosts(t *testing.T) {
	left := &planmodel.Plan{Cost: 10}
	right := &planmodel.Plan{Cost: 20}

	res, err := Cout{}.Compute(left, right, 5)
	require.NoError(t, err)
	assert.Equal(t, 35.0, res.Cost)
	assert.Equal(t, feature.Feature{}, res.OpenFeatures)
	assert.Equal(t, 0.0, res.MatCost)
}

// constantForest returns a score whose post-processed value is
// deterministic and distinguishable between build and probe calls by
// reading back slot differences via the row's in_card (slot 1).
func constantForest(raw float64) model.ForestFunc {
	return func(input, output []float64, start, n int32) {
		for i := int32(0); i < n; i++ {
			output[start+i] = raw
		}
	}
}

func TestLearnedModelBuildSideCheaperPreferred(t *testing.T) {
	// raw=0 => post-process = exp(0) * in_card = in_card itself, so a
	// smaller build-side in_card yields a smaller build cost. The probe
	// row is scored the same way, so the total Cost is 10+1000 in both
	// orientations; the build cost alone is what lands in MatCost.
	m := model.New(constantForest(0))
	m.Resize(2)
	adapter := LearnedModel{Model: m}

	small := leafPlan(10, 10)
	big := leafPlan(1000, 1000)

	smallBuild, err := adapter.Compute(small, big, 5)
	require.NoError(t, err)

	m2 := model.New(constantForest(0))
	m2.Resize(2)
	adapter2 := LearnedModel{Model: m2}
	bigBuild, err := adapter2.Compute(big, small, 5)
	require.NoError(t, err)

	assert.Less(t, smallBuild.MatCost, bigBuild.MatCost)
}

func TestLearnedModelPropagatesBuildPipelineViolation(t *testing.T) {
	m := model.New(constantForest(0))
	m.Resize(2)
	adapter := LearnedModel{Model: m}

	left := leafPlan(100, 10)
	left.OpenPipelineFeatures.HashJoinBuildConst = 1 // already built once
	right := leafPlan(50, 5)

	_, err := adapter.Compute(left, right, 1)
	assert.ErrorIs(t, err, ErrPipelineAlreadyBuilt)
}
