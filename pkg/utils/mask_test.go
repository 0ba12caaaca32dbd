package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskIdentityPhone(t *testing.T) {
	assert.Equal(t, "****3210", MaskIdentity("919876543210"))
	assert.Equal(t, "****", MaskIdentity("987"))
}

func TestMaskIdentityEmail(t *testing.T) {
	assert.Equal(t, "r*****a@example.com", MaskIdentity("ramesha@example.com"))
	assert.Equal(t, "***@example.com", MaskIdentity("ab@example.com"))
}
