package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x4f36A53DC32272b97Ae5FF511387E2741D727bdb"))
	assert.False(t, IsValidAddress("4f36A53DC32272b97Ae5FF511387E2741D727bdb"))
	assert.False(t, IsValidAddress("0x4f36"))
}

func TestValidateAccount(t *testing.T) {
	addr, err := ValidateAccount("0x4F36A53DC32272B97AE5FF511387E2741D727BDB")
	assert.NoError(t, err)
	assert.True(t, strings.EqualFold("0x4f36A53DC32272b97Ae5FF511387E2741D727bdb", addr))

	_, err = ValidateAccount("0x1234")
	assert.Error(t, err)
}

func TestIsZeroAddress(t *testing.T) {
	assert.True(t, IsZeroAddress(""))
	assert.True(t, IsZeroAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsZeroAddress("0x4f36A53DC32272b97Ae5FF511387E2741D727bdb"))
}
