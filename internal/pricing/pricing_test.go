package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDeriveSellingPrice(t *testing.T) {
	tests := []struct {
		name     string
		original string
		discount string
		explicit string
		expected string
	}{
		{"twenty percent off", "1000", "20", "0", "800.00"},
		{"discount overrides explicit", "1000", "20", "950", "800"},
		{"no discount uses explicit", "1000", "0", "950", "950"},
		{"explicit above original is kept", "100", "0", "120", "120"},
		{"full discount", "59.99", "100", "10", "0"},
		{"rounds to cents", "999.99", "15", "0", "849.99"},
		{"fractional discount", "200", "12.5", "0", "175"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSellingPrice(d(tt.original), d(tt.discount), d(tt.explicit))
			assert.True(t, got.Equal(d(tt.expected)), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestDeriveSellingPrice_IsExactDecimal(t *testing.T) {
	got := DeriveSellingPrice(d("1000"), d("20"), decimal.Zero)
	assert.Equal(t, "800.00", got.StringFixed(Places))

	// repeated writes of the same inputs never drift
	price := d("0.10")
	for i := 0; i < 1000; i++ {
		price = DeriveSellingPrice(d("0.10"), decimal.Zero, price)
	}
	assert.True(t, price.Equal(d("0.10")))
}

func TestValidDiscount(t *testing.T) {
	assert.True(t, ValidDiscount(d("0")))
	assert.True(t, ValidDiscount(d("100")))
	assert.True(t, ValidDiscount(d("33.33")))
	assert.False(t, ValidDiscount(d("-1")))
	assert.False(t, ValidDiscount(d("100.01")))
}
