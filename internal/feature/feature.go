// Package feature holds the 12-field engine-feature record the cost model
// reasons about, and its positional projection onto the compiled forest's
// dense 110-slot input layout.
package feature

// InputWidth is the width of one row in the forest's input buffer.
const InputWidth = 110

// Forest input slot positions, part of the trained-model contract. These
// are fixed by the model that was trained against them; do not renumber.
const (
	slotScanConst         = 0
	slotScanInCard         = 1
	slotScanOutPercentage  = 3
	slotScanComparePercent = 5 // always incremented, never read from a field
	slotScanEmptyOutput    = 10

	slotBuildConst        = 39
	slotBuildOutCard      = 40
	slotBuildOutSize      = 41
	slotBuildInPercentage = 42

	slotProbeConst          = 43
	slotProbeInCard          = 44
	slotProbeRightPercentage = 45
	slotProbeOutPercentage   = 46
)

// Feature is a value-semantic record of the three engine-feature groups:
// table scan, hash-join build, and hash-join probe. Zero value is the
// additive identity.
type Feature struct {
	TableScanScanConst         float64
	TableScanScanInCard        float64
	TableScanScanOutPercentage float64
	TableScanScanEmptyOutput   float64

	HashJoinBuildConst        float64
	HashJoinBuildOutCard      float64
	HashJoinBuildOutSize      float64
	HashJoinBuildInPercentage float64

	HashJoinProbeConst          float64
	HashJoinProbeInCard         float64
	HashJoinProbeRightPercentage float64
	HashJoinProbeOutPercentage   float64
}

// Add returns the field-wise sum of f and other: each field is summed
// with the matching field of other, not with itself. An earlier revision
// of this accumulator doubled the eight HashJoin build/probe fields
// against themselves instead of reading the other operand, leaving only
// the four table-scan fields summed correctly; this implementation does
// not reproduce that bug.
func (f Feature) Add(other Feature) Feature {
	return Feature{
		TableScanScanConst:         f.TableScanScanConst + other.TableScanScanConst,
		TableScanScanInCard:        f.TableScanScanInCard + other.TableScanScanInCard,
		TableScanScanOutPercentage: f.TableScanScanOutPercentage + other.TableScanScanOutPercentage,
		TableScanScanEmptyOutput:   f.TableScanScanEmptyOutput + other.TableScanScanEmptyOutput,

		HashJoinBuildConst:        f.HashJoinBuildConst + other.HashJoinBuildConst,
		HashJoinBuildOutCard:      f.HashJoinBuildOutCard + other.HashJoinBuildOutCard,
		HashJoinBuildOutSize:      f.HashJoinBuildOutSize + other.HashJoinBuildOutSize,
		HashJoinBuildInPercentage: f.HashJoinBuildInPercentage + other.HashJoinBuildInPercentage,

		HashJoinProbeConst:           f.HashJoinProbeConst + other.HashJoinProbeConst,
		HashJoinProbeInCard:          f.HashJoinProbeInCard + other.HashJoinProbeInCard,
		HashJoinProbeRightPercentage: f.HashJoinProbeRightPercentage + other.HashJoinProbeRightPercentage,
		HashJoinProbeOutPercentage:   f.HashJoinProbeOutPercentage + other.HashJoinProbeOutPercentage,
	}
}

// AddTo projects f onto vec at its fixed positions, additively: two
// calls with different features sum at the same slots. vec must have at
// least InputWidth elements. Slot 5 is unconditionally bumped by 1.0 on
// every call, independent of f's contents — the "compare percentage" slot
// the trained model always expects to see set.
func (f Feature) AddTo(vec []float64) {
	vec[slotScanConst] += f.TableScanScanConst
	vec[slotScanInCard] += f.TableScanScanInCard
	vec[slotScanOutPercentage] += f.TableScanScanOutPercentage
	vec[slotScanComparePercent] += 1.0
	vec[slotScanEmptyOutput] += f.TableScanScanEmptyOutput

	vec[slotBuildConst] += f.HashJoinBuildConst
	vec[slotBuildOutCard] += f.HashJoinBuildOutCard
	vec[slotBuildOutSize] += f.HashJoinBuildOutSize
	vec[slotBuildInPercentage] += f.HashJoinBuildInPercentage

	vec[slotProbeConst] += f.HashJoinProbeConst
	vec[slotProbeInCard] += f.HashJoinProbeInCard
	vec[slotProbeRightPercentage] += f.HashJoinProbeRightPercentage
	vec[slotProbeOutPercentage] += f.HashJoinProbeOutPercentage
}
