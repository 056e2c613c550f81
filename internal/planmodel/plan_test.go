package planmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureLeaf(t *testing.T) {
	p := &Plan{Relation: 3}
	assert.Equal(t, "R3", p.Signature())
}

func TestSignatureInternalNestsChildren(t *testing.T) {
	left := &Plan{Relation: 0}
	right := &Plan{Relation: 1}
	join := &Plan{Relation: LeafSentinel, Left: left, Right: right}

	assert.Equal(t, "(R0:J:R1)", join.Signature())
}

func TestSignatureDistinguishesOrientation(t *testing.T) {
	a := &Plan{Relation: 0}
	b := &Plan{Relation: 1}

	ab := (&Plan{Relation: LeafSentinel, Left: a, Right: b}).Signature()
	ba := (&Plan{Relation: LeafSentinel, Left: b, Right: a}).Signature()

	assert.NotEqual(t, ab, ba)
}
