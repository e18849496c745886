package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplay(t *testing.T) {
	cases := map[int64]string{
		0:          "₹0.00",
		5:          "₹0.05",
		100000:     "₹1,000.00",
		129900:     "₹1,299.00",
		2999900:    "₹29,999.00",
		12345678:   "₹1,23,456.78",
		1000000000: "₹1,00,00,000.00",
		-94400:     "-₹944.00",
	}

	for minor, want := range cases {
		assert.Equal(t, want, ToDisplay(minor), "minor=%d", minor)
	}
}

func TestToMinorUnitsRounding(t *testing.T) {
	assert.Equal(t, int64(129900), ToMinorUnits(decimal.RequireFromString("1299")))
	assert.Equal(t, int64(1001), ToMinorUnits(decimal.RequireFromString("10.005")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("10.004")))
	assert.Equal(t, int64(-1001), ToMinorUnits(decimal.RequireFromString("-10.005")))
}

func TestDisplayRoundTrip(t *testing.T) {
	for _, x := range []int64{0, 1, 99, 100, 94400, 12345678, 999999999, -250} {
		parsed, err := ParseDisplay(ToDisplay(x))
		require.NoError(t, err)
		assert.Equal(t, x, ToMinorUnits(parsed), "x=%d", x)
	}
}

func TestParseDisplayRejectsGarbage(t *testing.T) {
	_, err := ParseDisplay("₹12.3.4")
	assert.Error(t, err)
}

func TestComputeTax(t *testing.T) {
	assert.Equal(t, int64(14400), ComputeTax(80000, DefaultGSTRate))
	// 1 paisa * 18% = 0.18 -> 0
	assert.Equal(t, int64(0), ComputeTax(1, DefaultGSTRate))
	// 25 * 18% = 4.5 -> 5 (half away from zero)
	assert.Equal(t, int64(5), ComputeTax(25, DefaultGSTRate))
	assert.Equal(t, int64(0), ComputeTax(0, DefaultGSTRate))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, int64(10000), Percentage(100000, 10))
	assert.Equal(t, int64(3), Percentage(25, 10))
}

func TestToDecimalString(t *testing.T) {
	assert.Equal(t, "944.00", ToDecimalString(94400))
	assert.Equal(t, "0.05", ToDecimalString(5))
}
