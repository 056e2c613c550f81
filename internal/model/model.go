// Package model owns the dense prediction buffers the cost adapter uses
// to talk to the externally-linked compiled decision forest, plus the
// exp-and-multiply post-processing that turns a raw log-residual
// regression output into an absolute latency estimate.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/kasuganosora/joinopt/internal/feature"
)

// ErrBufferOverflow is returned by RegisterFeatures when the caller has
// already filled every row the buffer was sized for.
var ErrBufferOverflow = errors.New("model: register_features called beyond buffer capacity")

// ForestFunc is the compiled decision-forest evaluator's ABI:
// forest_root(input, output, start_row, n_rows). Reads
// input[(start+i)*feature.InputWidth : ...] for i in [0, nRows) and
// writes one value per row to output[start+i]. The function must not
// read beyond the specified rows and is assumed reentrant for distinct
// (input, output, start, count) triples, though this package invokes it
// sequentially.
type ForestFunc func(input, output []float64, startRow, nRows int32)

// Model batches feature rows into the forest's input layout, invokes the
// compiled evaluator, and post-processes its raw output into latency
// predictions. It is owned exclusively by a single DPsize run; there is
// no internal synchronization.
type Model struct {
	forest ForestFunc

	input  []float64 // N * feature.InputWidth, row-major
	output []float64 // N
	n      int
	filled int

	calls int // number of predict_one/predict_many invocations so far
}

// New creates a Model wrapping the given forest evaluator, with both
// buffers sized for zero rows; call Resize before first use.
func New(forest ForestFunc) *Model {
	return &Model{forest: forest}
}

// Resize reallocates both buffers for up to n concurrent rows, zeroes the
// input, and resets Filled to 0.
func (m *Model) Resize(n int) {
	m.n = n
	m.input = make([]float64, n*feature.InputWidth)
	m.output = make([]float64, n)
	m.filled = 0
}

// Filled returns how many rows are currently registered and awaiting a
// predict call.
func (m *Model) Filled() int {
	return m.filled
}

// Calls returns the number of predict_one/predict_many invocations made
// so far.
func (m *Model) Calls() int {
	return m.calls
}

// RegisterFeatures adds f into row m.filled, which it does not clear
// itself (the row is already zero by the reset-on-predict contract), and
// returns that row's
// index, incrementing Filled. Returns ErrBufferOverflow if the buffer is
// already full.
func (m *Model) RegisterFeatures(f feature.Feature) (int, error) {
	if m.filled >= m.n {
		return 0, fmt.Errorf("%w: capacity %d", ErrBufferOverflow, m.n)
	}
	row := m.filled
	f.AddTo(m.input[row*feature.InputWidth : (row+1)*feature.InputWidth])
	m.filled++
	return row, nil
}

// PredictOne invokes the forest on row 0 only, applies the post-processing
// transform, then resets the input and Filled to 0. Intended usage is one
// RegisterFeatures call followed immediately by PredictOne.
func (m *Model) PredictOne() float64 {
	m.forest(m.input, m.output, 0, 1)
	m.output[0] = postProcess(m.output[0], m.input[1])
	m.resetInput()
	m.filled = 0
	m.calls++
	return m.output[0]
}

// PredictMany invokes the forest on rows [0, Filled), applies the same
// transform to each row, then resets the input and Filled to 0. It must
// produce identical results to calling PredictOne once per row with the
// same inputs; it exists for the batched latency-benchmark path only.
func (m *Model) PredictMany() []float64 {
	n := m.filled
	m.forest(m.input, m.output, 0, int32(n))
	results := make([]float64, n)
	for i := 0; i < n; i++ {
		results[i] = postProcess(m.output[i], m.input[i*feature.InputWidth+1])
	}
	m.resetInput()
	m.filled = 0
	m.calls++
	return results
}

// resetInput zeroes the input slots belonging to filled rows,
// conservatively the whole buffer.
func (m *Model) resetInput() {
	for i := range m.input {
		m.input[i] = 0
	}
}

// postProcess converts a raw log-residual regression output into an
// absolute latency estimate relative to the pipeline's input cardinality
// (input slot 1). This is the model-training contract; implementations
// must not alter it.
func postProcess(raw, inputCardinality float64) float64 {
	return math.Exp(-raw) * inputCardinality
}
