package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))
}

func TestPasswordCostClamp(t *testing.T) {
	hash, err := HashPassword("hunter22", 1)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.False(t, NeedsRehash(hash, 1))
	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, bcrypt.MinCost+1))
	assert.True(t, NeedsRehash("garbage", bcrypt.MinCost))
}

func TestBurnPasswordCheck(t *testing.T) {
	assert.NotPanics(t, func() { BurnPasswordCheck("anything") })
}
