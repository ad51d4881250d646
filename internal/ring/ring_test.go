package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInOpenIntervalEdgeRule(t *testing.T) {
	r := New(6)
	// a == b: full ring, every x qualifies including a itself.
	assert.True(t, r.InOpenInterval(10, 10, 10))
	assert.True(t, r.InOpenInterval(10, 10, 63))
}

func TestInOpenIntervalWraps(t *testing.T) {
	r := New(6) // Size = 64
	assert.True(t, r.InOpenInterval(60, 5, 62))
	assert.True(t, r.InOpenInterval(60, 5, 2))
	assert.False(t, r.InOpenInterval(60, 5, 60))
	assert.False(t, r.InOpenInterval(60, 5, 5))
	assert.False(t, r.InOpenInterval(60, 5, 10))
}

func TestInHalfOpenRightIncludesUpperBound(t *testing.T) {
	r := New(6)
	assert.True(t, r.InHalfOpenRight(10, 20, 20))
	assert.False(t, r.InHalfOpenRight(10, 20, 10))
	assert.True(t, r.InHalfOpenRight(10, 20, 15))
}

// P4: interval membership is invariant under rotation of all three operands.
func TestRotationInvariance(t *testing.T) {
	r := New(6)
	cases := []struct{ a, b, x ID }{
		{10, 20, 15},
		{60, 5, 62},
		{3, 3, 40},
		{0, 0, 0},
	}
	for _, c := range cases {
		want := r.InOpenInterval(c.a, c.b, c.x)
		for shift := uint64(1); shift < uint64(r.Size()); shift *= 7 {
			got := r.InOpenInterval(r.Add(c.a, shift), r.Add(c.b, shift), r.Add(c.x, shift))
			assert.Equalf(t, want, got, "rotation by %d broke invariance for %+v", shift, c)
		}
	}
}

func TestDistance(t *testing.T) {
	r := New(6)
	assert.Equal(t, ID(10), r.Distance(5, 15))
	assert.Equal(t, ID(0), r.Distance(5, 5))
	assert.Equal(t, ID(63), r.Distance(1, 0))
}

func TestHashDeterministicAndInRange(t *testing.T) {
	r := New(24)
	a := r.HashAddress("10.0.0.1:9000")
	b := r.HashAddress("10.0.0.1:9000")
	require.Equal(t, a, b)
	assert.Less(t, a, r.Size())

	c := r.HashKey("10.0.0.1:9000")
	assert.Equal(t, a, c, "HashAddress and HashKey share the same collaborator")
}

func TestNewPanicsOnInvalidBits(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(64) })
}
