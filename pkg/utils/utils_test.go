package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	h, err := HashPassword("password")
	require.NoError(t, err)
	assert.NotEqual(t, "password", h)
	assert.True(t, CheckPassword("password", h))
	assert.False(t, CheckPassword("Password", h))
	assert.False(t, CheckPassword("password", "not-a-hash"))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b) // v7 按时间递增
}
