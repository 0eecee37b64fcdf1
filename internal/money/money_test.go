package money

import (
	"errors"
	"testing"

	"github.com/portalops/ledger-backend/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"25.00", 2500},
		{"25", 2500},
		{"-3.5", -350},
		{"0.01", 1},
		{"-0.01", -1},
		{"1000000.99", 100000099},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.234", "12,50", "1e3.5"} {
		_, err := ParseAmount(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, apperrors.ErrValidation), in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "25.00", Format(2500))
	assert.Equal(t, "-3.50", Format(-350))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "0.01", Format(1))
}

func TestRoundTrip(t *testing.T) {
	for _, minor := range []int64{0, 1, -1, 99, 100, 12345, -98765} {
		got, err := ParseAmount(Format(minor))
		require.NoError(t, err)
		assert.Equal(t, minor, got)
	}
}
