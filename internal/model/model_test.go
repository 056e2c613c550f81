package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/joinopt/internal/feature"
)

// echoForest writes a deterministic, row-dependent raw score so tests can
// check both the forward pass plumbing and the post-processing transform.
func echoForest(input, output []float64, start, n int32) {
	for i := int32(0); i < n; i++ {
		row := start + i
		// raw score = sum of the row's input slots
		var sum float64
		for j := 0; j < feature.InputWidth; j++ {
			sum += input[int(row)*feature.InputWidth+j]
		}
		output[row] = sum
	}
}

func TestRegisterFeaturesOverflow(t *testing.T) {
	m := New(echoForest)
	m.Resize(1)

	_, err := m.RegisterFeatures(feature.Feature{})
	require.NoError(t, err)

	_, err = m.RegisterFeatures(feature.Feature{})
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestPredictOneAppliesPostProcessing(t *testing.T) {
	m := New(echoForest)
	m.Resize(4)

	f := feature.Feature{TableScanScanInCard: 10}
	_, err := m.RegisterFeatures(f)
	require.NoError(t, err)

	got := m.PredictOne()

	// raw score includes slot5's constant +1.0 plus in_card=10 at slot 1
	raw := 10.0 + 1.0
	want := math.Exp(-raw) * 10.0
	assert.InDelta(t, want, got, 1e-9)
}

func TestPredictOneResetsBuffer(t *testing.T) {
	m := New(echoForest)
	m.Resize(4)
	_, _ = m.RegisterFeatures(feature.Feature{TableScanScanConst: 1})
	m.PredictOne()

	assert.Equal(t, 0, m.Filled())
	assert.Equal(t, 1, m.Calls())
}

func TestPredictManyMatchesSerialPredictOne(t *testing.T) {
	rows := []feature.Feature{
		{TableScanScanInCard: 5},
		{TableScanScanInCard: 20, HashJoinBuildConst: 1},
		{TableScanScanInCard: 0},
	}

	batched := New(echoForest)
	batched.Resize(len(rows))
	for _, r := range rows {
		_, err := batched.RegisterFeatures(r)
		require.NoError(t, err)
	}
	batchedResults := batched.PredictMany()

	serial := New(echoForest)
	serial.Resize(1)
	var serialResults []float64
	for _, r := range rows {
		_, err := serial.RegisterFeatures(r)
		require.NoError(t, err)
		serialResults = append(serialResults, serial.PredictOne())
	}

	require.Len(t, batchedResults, len(serialResults))
	for i := range rows {
		assert.InDeltaf(t, serialResults[i], batchedResults[i], 1e-9, "row %d", i)
	}
}

func TestCallsCounterIncrementsOncePerBatch(t *testing.T) {
	m := New(echoForest)
	m.Resize(4)
	for i := 0; i < 3; i++ {
		_, _ = m.RegisterFeatures(feature.Feature{})
	}
	m.PredictMany()
	assert.Equal(t, 1, m.Calls())
}
