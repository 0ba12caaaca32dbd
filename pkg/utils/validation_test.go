package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("   "))
	assert.False(t, ValidateEmail("no-at-sign"))
	assert.False(t, ValidateEmail("user@nodot"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ng!pass"))
	assert.ErrorIs(t, ValidatePassword("Sh0rt!a"), xerrors.ErrPasswordTooShort)
	assert.ErrorIs(t, ValidatePassword("alllower1!"), xerrors.ErrPasswordUppercase)
	assert.ErrorIs(t, ValidatePassword("ALLUPPER1!"), xerrors.ErrPasswordLowercase)
	assert.ErrorIs(t, ValidatePassword("NoDigits!!"), xerrors.ErrPasswordDigit)
	assert.ErrorIs(t, ValidatePassword("NoSpecial1a"), xerrors.ErrPasswordSpecialChar)
}
