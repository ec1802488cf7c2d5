package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotal_ExactAcrossRepeats(t *testing.T) {
	items := []LineItem{
		{UnitPrice: d("499.99"), Quantity: 2},
		{UnitPrice: d("10.00"), Quantity: 1},
	}
	want := d("1009.98")

	for i := 0; i < 1000; i++ {
		total, err := ComputeTotal(items, "usd")
		require.NoError(t, err)
		require.True(t, total.Amount.Equal(want), "iteration %d got %s", i, total.Amount)
	}
}

func TestComputeTotal_MinorUnits(t *testing.T) {
	total, err := ComputeTotal([]LineItem{
		{UnitPrice: d("499.99"), Quantity: 2},
		{UnitPrice: d("10.00"), Quantity: 1},
	}, "usd")
	require.NoError(t, err)

	minor, err := total.MinorUnits()
	require.NoError(t, err)
	assert.Equal(t, int64(100998), minor)
}

func TestComputeTotal_Empty(t *testing.T) {
	total, err := ComputeTotal(nil, "")
	require.NoError(t, err)
	assert.True(t, total.Amount.IsZero())
	assert.Equal(t, DefaultCurrency, total.Currency)
}

func TestComputeTotal_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []LineItem
		field string
	}{
		{"zero quantity", []LineItem{{UnitPrice: d("1"), Quantity: 0}}, "items[0].quantity"},
		{"negative quantity", []LineItem{{UnitPrice: d("1"), Quantity: -3}}, "items[0].quantity"},
		{"negative price", []LineItem{{UnitPrice: d("1"), Quantity: 1}, {UnitPrice: d("-0.01"), Quantity: 1}}, "items[1].unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotal(tt.items, "usd")
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestToMinorUnits_RoundHalfEven(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"1009.98", "usd", 100998},
		{"1009.985", "usd", 100998},
		{"1009.975", "usd", 100998},
		{"1009.9850001", "usd", 100999},
		{"0.005", "usd", 0},
		{"0.015", "usd", 2},
		{"0.025", "usd", 2},
		{"2.5", "krw", 2},
		{"3.5", "krw", 4},
		{"0", "usd", 0},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"_"+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(d(tt.amount), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_Rejects(t *testing.T) {
	_, err := ToMinorUnits(d("-1"), "usd")
	assert.Error(t, err)

	_, err = ToMinorUnits(d("100000000000000000"), "usd")
	assert.Error(t, err)
}

func TestFromMinorUnits(t *testing.T) {
	assert.True(t, FromMinorUnits(100998, "usd").Equal(d("1009.98")))
	assert.True(t, FromMinorUnits(1500, "jpy").Equal(d("1500")))
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice(" 19.90 ", "usd")
	require.NoError(t, err)
	assert.True(t, p.Equal(d("19.9")))

	_, err = ParsePrice("abc", "usd")
	assert.Error(t, err)

	_, err = ParsePrice("1.999", "usd")
	assert.Error(t, err)

	_, err = ParsePrice("10.5", "jpy")
	assert.Error(t, err)

	_, err = ParsePrice("-2", "usd")
	assert.Error(t, err)
}

func TestMoney_String(t *testing.T) {
	m := Money{Amount: d("1009.98"), Currency: "usd"}
	assert.Equal(t, "1009.98 USD", m.String())
}
