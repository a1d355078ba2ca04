package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortionMultiplierClampsHigh(t *testing.T) {
	// raw 2000/400 = 5.0 clamps to the upper bound
	m, err := PortionMultiplier(400, 0, 2000)
	require.NoError(t, err)
	assert.Equal(t, 1.5, m)
}

func TestPortionMultiplierClampsLow(t *testing.T) {
	// budget already exceeded: raw goes negative, clamps to the floor
	m, err := PortionMultiplier(500, 2200, 2000)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m)
}

func TestPortionMultiplierSnapsAfterClamp(t *testing.T) {
	// raw 900/1000 = 0.9 is within bounds and snaps up to 1.0
	m, err := PortionMultiplier(1000, 0, 900)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)

	// raw 850/1000 = 0.85 snaps down to 0.75
	m, err = PortionMultiplier(1000, 0, 850)
	require.NoError(t, err)
	assert.Equal(t, 0.75, m)

	// raw 1.2 snaps to 1.25
	m, err = PortionMultiplier(1000, 0, 1200)
	require.NoError(t, err)
	assert.Equal(t, 1.25, m)
}

func TestPortionMultiplierZeroBase(t *testing.T) {
	// no base kcal means no scaling, regardless of the budget
	m, err := PortionMultiplier(0, 900, 2000)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)
}

func TestPortionMultiplierNegativeBase(t *testing.T) {
	_, err := PortionMultiplier(-100, 0, 2000)
	assert.ErrorIs(t, err, ErrNegativeBaseKcal)
}
