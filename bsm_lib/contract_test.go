package bsm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContractRejectsNonPositiveStrikeAndSpot(t *testing.T) {
	cases := []struct {
		name          string
		strike, spot  float64
		expectedField string
	}{
		{"zero strike", 0, 100, "strike"},
		{"negative strike", -5, 100, "strike"},
		{"zero spot", 100, 0, "spot"},
		{"negative spot", 100, -1, "spot"},
		{"NaN strike", math.NaN(), 100, "strike"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewContract(tc.strike, tc.spot, 1, 0.2, 0.05, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))

			var paramErr *InvalidParameterError
			require.True(t, errors.As(err, &paramErr))
			assert.Equal(t, tc.expectedField, paramErr.Field)
		})
	}
}

func TestNewContractDerivesD1D2(t *testing.T) {
	c, err := NewContract(100, 100, 1, 0.2, 0.05, 0)
	require.NoError(t, err)

	// (ln 1 + (0.05 + 0.02)) / 0.2
	assert.InDelta(t, 0.35, c.D1(), 1e-12)
	assert.InDelta(t, 0.15, c.D2(), 1e-12)
}

func TestDegenerateInputsPropagateNonFinite(t *testing.T) {
	t.Run("zero volatility", func(t *testing.T) {
		c, err := NewContract(100, 100, 1, 0, 0.05, 0)
		require.NoError(t, err)
		// (0 + 0.05) / 0 is +Inf
		assert.True(t, math.IsInf(c.D1(), 1))
		assert.True(t, math.IsNaN(c.Gamma()))
	})

	t.Run("zero maturity at the money", func(t *testing.T) {
		c, err := NewContract(100, 100, 0, 0.2, 0.05, 0)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(c.D1()))

		price, err := c.Price(Call)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(price))
	})

	t.Run("negative maturity", func(t *testing.T) {
		c, err := NewContract(100, 120, -0.1, 0.2, 0.05, 0)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(c.D1()))
		assert.True(t, math.IsNaN(c.Vega()))
	})
}

func TestWithSpotBuildsNewContract(t *testing.T) {
	c, err := NewContract(100, 100, 1, 0.2, 0.05, 0.01)
	require.NoError(t, err)

	moved, err := c.WithSpot(110)
	require.NoError(t, err)

	assert.Equal(t, 100.0, c.Spot())
	assert.Equal(t, 110.0, moved.Spot())
	assert.Equal(t, c.DividendYield(), moved.DividendYield())
	assert.NotEqual(t, c.D1(), moved.D1())

	_, err = c.WithSpot(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseOptionType(t *testing.T) {
	for _, in := range []string{"CALL", "call", " Call ", "c", "calls"} {
		typ, err := ParseOptionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, Call, typ)
	}
	for _, in := range []string{"PUT", "put", "P", "puts"} {
		typ, err := ParseOptionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, Put, typ)
	}

	_, err := ParseOptionType("straddle")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedOptionType)

	var typeErr *UnrecognizedOptionTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "straddle", typeErr.Input)
}

func TestOptionTypeText(t *testing.T) {
	text, err := Put.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "PUT", string(text))

	var typ OptionType
	require.NoError(t, typ.UnmarshalText([]byte("call")))
	assert.Equal(t, Call, typ)

	_, err = OptionType(7).MarshalText()
	assert.ErrorIs(t, err, ErrUnrecognizedOptionType)
}
