package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	assert.Equal(t, Set(0), Full(0))
	assert.Equal(t, Set(0b1), Full(1))
	assert.Equal(t, Set(0b111), Full(3))
	assert.Equal(t, ^Set(0), Full(64))
}

func TestIsSubset(t *testing.T) {
	assert.True(t, IsSubset(0b001, 0b111))
	assert.True(t, IsSubset(0b000, 0b111))
	assert.False(t, IsSubset(0b101, 0b010))
	assert.True(t, IsSubset(0b111, 0b111))
}

func TestBitsAscending(t *testing.T) {
	assert.Equal(t, []int{0, 2, 5}, BitList(0b100101))
}

func TestBitsEarlyStop(t *testing.T) {
	var seen []int
	Bits(0b1111, func(i int) bool {
		seen = append(seen, i)
		return i < 1
	})
	assert.Equal(t, []int{0, 1}, seen)
}

func TestPopCount(t *testing.T) {
	assert.Equal(t, 0, PopCount(0))
	assert.Equal(t, 3, PopCount(0b10101))
}

func TestSmaller(t *testing.T) {
	assert.Equal(t, Set(0b1), Smaller(0b1, 0b11))
	assert.Equal(t, Set(0b1), Smaller(0b11, 0b1))
	// tie breaks toward a
	assert.Equal(t, Set(0b01), Smaller(0b01, 0b10))
}
