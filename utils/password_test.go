package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short", "bob"))
	assert.Error(t, ValidatePassword("1234567890", "bob"))
	assert.Error(t, ValidatePassword("BobTheUser", "bobtheuser"))
	assert.NoError(t, ValidatePassword("correct horse", "bob"))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}
