package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountShorthand(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"25rb", 25_000},
		{"25 rb", 25_000},
		{"500k", 500_000},
		{"1.5jt", 1_500_000},
		{"1,5jt", 1_500_000},
		{"2jt", 2_000_000},
		{"2j", 2_000_000},
		{"2m", 2_000_000},
		{"3b", 3_000_000_000},
		{"50000", 50_000},
		{"  75RB  ", 75_000},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseAmountAppliesOneMultiplier(t *testing.T) {
	// "jt" wins over the trailing "t"; "rb" wins over "b"
	got, err := ParseAmount("2jt")
	require.NoError(t, err)
	assert.Equal(t, float64(2_000_000), got)

	got, err = ParseAmount("10rb")
	require.NoError(t, err)
	assert.Equal(t, float64(10_000), got)
}

func TestParseAmountRejectsNonNumbers(t *testing.T) {
	_, err := ParseAmount("bukan angka")
	assert.ErrorIs(t, err, ErrBadAmount)

	_, err = ParseAmount("")
	assert.ErrorIs(t, err, ErrBadAmount)
}
