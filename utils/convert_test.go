// Package utils
package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	type Case struct {
		Input *big.Int
		Want  string
	}
	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)
	onePointFive, _ := new(big.Int).SetString("1500000000000000000", 10)
	cases := map[string]Case{
		"one":        {Input: oneEther, Want: "1.0"},
		"fraction":   {Input: onePointFive, Want: "1.5"},
		"zero":       {Input: big.NewInt(0), Want: "0.0"},
		"one wei":    {Input: big.NewInt(1), Want: "0.000000000000000001"},
		"nil amount": {Input: nil, Want: "0.0"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, c.Want, FormatUnits(c.Input, NativeDecimals))
		})
	}
}

func TestFormatUnitsString(t *testing.T) {
	s, err := FormatUnitsString("1000000000000000000", NativeDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1.0", s)

	_, err = FormatUnitsString("abc", NativeDecimals)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5", NativeDecimals)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", v.String())

	v, err = ParseUnits("2", NativeDecimals)
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", v.String())

	_, err = ParseUnits("-1", NativeDecimals)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseUnits("0.0000000000000000001", NativeDecimals)
	assert.ErrorIs(t, err, ErrTooManyDecimal)

	_, err = ParseUnits("ten", NativeDecimals)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPercentOf(t *testing.T) {
	s, err := PercentOf("2.5", 40)
	require.NoError(t, err)
	assert.Equal(t, "1", s)

	s, err = PercentOf("1", 33)
	require.NoError(t, err)
	assert.Equal(t, "0.33", s)
}
