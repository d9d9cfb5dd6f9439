package kmc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlipSiteBetween_SingleFlip_ReturnsSite(t *testing.T) {
	// GIVEN two configurations differing only at site 2
	a := Configuration{0, 1, 0, 1}
	b := Configuration{0, 1, 1, 1}

	// WHEN the flip site is resolved
	site, err := FlipSiteBetween(a, b)

	// THEN it is site 2
	require.NoError(t, err)
	assert.Equal(t, 2, site)
}

func TestFlipSiteBetween_Identical_IsMalformed(t *testing.T) {
	a := Configuration{0, 1, 0}
	_, err := FlipSiteBetween(a, a.Clone())
	assert.ErrorIs(t, err, ErrMalformedTransition)
}

func TestFlipSiteBetween_TwoFlips_IsMalformed(t *testing.T) {
	a := Configuration{0, 1, 0, 1}
	b := Configuration{1, 1, 1, 1}
	_, err := FlipSiteBetween(a, b)
	assert.ErrorIs(t, err, ErrMalformedTransition)
}

func TestFlipSiteBetween_LengthMismatch_IsMalformed(t *testing.T) {
	_, err := FlipSiteBetween(Configuration{0, 1}, Configuration{0, 1, 0})
	assert.ErrorIs(t, err, ErrMalformedTransition)
}

func TestConfiguration_RingNeighbors_WrapAround(t *testing.T) {
	c := Configuration{1, 0, 0, 1}

	// Site 0's left neighbor is the last site; site 3's right is the first.
	assert.Equal(t, 1, c.Left(0))
	assert.Equal(t, 1, c.Right(3))
	assert.Equal(t, 1, c.Left(1))
	assert.Equal(t, 0, c.Right(1))
}

func TestConfiguration_Clone_IsIndependent(t *testing.T) {
	a := Configuration{0, 1, 0}
	b := a.Clone()
	b[0] = 1
	assert.Equal(t, 0, a[0])
}
