package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer("91")

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare 10 digit local", raw: "9876543210", want: "919876543210"},
		{name: "leading zero trunk form", raw: "09876543210", want: "919876543210"},
		{name: "already canonical 12 digit", raw: "919876543210", want: "919876543210"},
		{name: "plus and separators stripped", raw: "+91 98765-43210", want: "919876543210"},
		{name: "parens and spaces stripped", raw: "(091) 98765 43210", want: "919876543210"},
		{name: "too short", raw: "98765", wantErr: true},
		{name: "nine digits", raw: "987654321", wantErr: true},
		{name: "letters only", raw: "not-a-phone", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "sixteen digits", raw: "1234567890123456", wantErr: true},
		// 11 digits without the leading zero and 12 digits with a foreign
		// prefix pass through on length alone.
		{name: "eleven digits no leading zero", raw: "12345678901", want: "12345678901"},
		{name: "twelve digits foreign prefix", raw: "441234567890", want: "441234567890"},
		{name: "fifteen digits upper bound", raw: "123456789012345", want: "123456789012345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, xerrors.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeErrorKeepsInput(t *testing.T) {
	n := NewNormalizer("91")

	_, err := n.Normalize("98-765")
	require.Error(t, err)
	require.True(t, errors.Is(err, xerrors.ErrInvalidPhone))
	// The message carries the raw input and the digit count so support can
	// see what the caller actually typed.
	assert.Contains(t, err.Error(), `"98-765"`)
	assert.Contains(t, err.Error(), "5 digits")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer("91")

	once, err := n.Normalize("09876543210")
	require.NoError(t, err)
	twice, err := n.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}
