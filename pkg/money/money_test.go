package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	require.Equal(t, "10.01", Round(decimal.RequireFromString("10.005")).StringFixed(2))
	require.Equal(t, "10.00", Round(decimal.RequireFromString("10.004")).StringFixed(2))
	require.Equal(t, "10.02", Round(decimal.RequireFromString("10.015")).StringFixed(2))
}

func TestTotal(t *testing.T) {
	base := decimal.NewFromInt(40)
	perUnit := decimal.RequireFromString("2.50")

	require.Equal(t, "47.50", Total(base, perUnit, 3).StringFixed(2))
	require.Equal(t, "40.00", Total(base, decimal.Zero, 10).StringFixed(2))
}

func TestConvert(t *testing.T) {
	amount := decimal.RequireFromString("46.00")
	rate := decimal.RequireFromString("15250.5")

	require.Equal(t, "701523.00", Convert(amount, rate).StringFixed(2))
	require.Equal(t, "41.40", Convert(amount, decimal.RequireFromString("0.9")).StringFixed(2))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "USD 49.00", Format(decimal.NewFromInt(49), "USD"))
	require.Equal(t, "IDR 1500000.50", Format(decimal.RequireFromString("1500000.5"), "IDR"))
}
