package calc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vat-einvoice/models"
)

func newLine(qty string, price int64, vat models.VATRate) models.LineItem {
	item := models.NewLineItem()
	item.Quantity = decimal.RequireFromString(qty)
	item.VATRate = vat
	item, _ = RecomputeLine(item, FieldUnitPrice, decimal.NewFromInt(price))
	return item
}

func TestRecomputeLine(t *testing.T) {
	t.Run("Discount by rate", func(t *testing.T) {
		item := newLine("10", 100000, models.VAT10)

		got, err := RecomputeLine(item, FieldDiscountRate, decimal.NewFromInt(10))
		require.NoError(t, err)
		assert.Equal(t, int64(100000), got.DiscountAmount)
		assert.Equal(t, int64(900000), got.LineTotal)
		assert.Equal(t, int64(90000), got.VATAmount)
	})

	t.Run("Discount by amount derives rate", func(t *testing.T) {
		item := newLine("2", 150000, models.VAT8)

		got, err := RecomputeLine(item, FieldDiscountAmount, decimal.NewFromInt(45000))
		require.NoError(t, err)
		assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(15)), got.DiscountRate.String())
		assert.Equal(t, int64(255000), got.LineTotal)
		assert.Equal(t, int64(20400), got.VATAmount)
	})

	t.Run("Discount amount on zero base", func(t *testing.T) {
		item := newLine("1", 0, models.VAT10)

		got, err := RecomputeLine(item, FieldDiscountAmount, decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.True(t, got.DiscountRate.IsZero())
		assert.Equal(t, int64(0), got.DiscountAmount)
		assert.Equal(t, int64(0), got.LineTotal)
	})

	t.Run("Discount amount above base is capped", func(t *testing.T) {
		item := newLine("1", 1000, models.VAT10)

		got, err := RecomputeLine(item, FieldDiscountAmount, decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.Equal(t, int64(1000), got.DiscountAmount)
		assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(0), got.LineTotal)
	})

	t.Run("Rate is sticky when quantity changes", func(t *testing.T) {
		item := newLine("10", 100000, models.VAT10)
		item, err := RecomputeLine(item, FieldDiscountRate, decimal.NewFromInt(10))
		require.NoError(t, err)

		got, err := RecomputeLine(item, FieldQuantity, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, int64(50000), got.DiscountAmount)
		assert.Equal(t, int64(450000), got.LineTotal)
	})

	t.Run("Rate is sticky when price changes", func(t *testing.T) {
		item := newLine("4", 25000, models.VAT5)
		item, err := RecomputeLine(item, FieldDiscountRate, decimal.RequireFromString("12.5"))
		require.NoError(t, err)
		assert.Equal(t, int64(12500), item.DiscountAmount)

		got, err := RecomputeLine(item, FieldUnitPrice, decimal.NewFromInt(30000))
		require.NoError(t, err)
		assert.Equal(t, int64(15000), got.DiscountAmount)
		assert.Equal(t, int64(105000), got.LineTotal)
	})

	t.Run("Rate is clamped to 100", func(t *testing.T) {
		item := newLine("3", 20000, models.VAT10)

		got, err := RecomputeLine(item, FieldDiscountRate, decimal.NewFromInt(150))
		require.NoError(t, err)
		assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(60000), got.DiscountAmount)
		assert.Equal(t, int64(0), got.LineTotal)
	})

	t.Run("Fractional quantity rounds once", func(t *testing.T) {
		item := newLine("1.5", 33333, models.VAT10)

		assert.Equal(t, int64(50000), item.LineTotal)
		assert.Equal(t, int64(5000), item.VATAmount)
	})

	t.Run("Negative value is rejected", func(t *testing.T) {
		item := newLine("2", 1000, models.VAT10)

		got, err := RecomputeLine(item, FieldQuantity, decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, ErrNegativeValue)
		assert.Equal(t, item, got)
	})

	t.Run("Unknown field", func(t *testing.T) {
		item := newLine("2", 1000, models.VAT10)

		got, err := RecomputeLine(item, Field("vat_rate"), decimal.NewFromInt(5))
		assert.ErrorIs(t, err, ErrUnknownField)
		assert.Equal(t, item, got)
	})
}

func TestRecomputeLineClampsStoredRate(t *testing.T) {
	item := newLine("1", 100000, models.VAT10)
	item.DiscountRate = decimal.NewFromInt(150)

	got, err := RecomputeLine(item, FieldQuantity, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(100)), got.DiscountRate.String())
	assert.Equal(t, int64(200000), got.DiscountAmount)
	assert.Equal(t, int64(0), got.LineTotal)
}

func TestNormalizeLine(t *testing.T) {
	t.Run("Typed discount amount is kept", func(t *testing.T) {
		item := newLine("1", 1000000, models.VAT10)
		item.DiscountAmount = 33333
		item.DiscountRate = decimal.RequireFromString("3.33")

		got, err := NormalizeLine(item)
		require.NoError(t, err)
		assert.Equal(t, int64(33333), got.DiscountAmount)
		assert.True(t, got.DiscountRate.Equal(decimal.RequireFromString("3.33")), got.DiscountRate.String())
		assert.Equal(t, int64(966667), got.LineTotal)
		assert.Equal(t, int64(96667), got.VATAmount)
	})

	t.Run("Rate alone drives the amount", func(t *testing.T) {
		item := newLine("2", 100000, models.VAT10)
		item.DiscountRate = decimal.NewFromInt(10)

		got, err := NormalizeLine(item)
		require.NoError(t, err)
		assert.Equal(t, int64(20000), got.DiscountAmount)
		assert.Equal(t, int64(180000), got.LineTotal)
	})

	t.Run("Rate above 100 is clamped", func(t *testing.T) {
		item := newLine("1", 100000, models.VAT10)
		item.DiscountRate = decimal.NewFromInt(150)

		got, err := NormalizeLine(item)
		require.NoError(t, err)
		assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, int64(100000), got.DiscountAmount)
		assert.Equal(t, int64(0), got.LineTotal)
	})

	t.Run("Amount above base is capped", func(t *testing.T) {
		item := newLine("1", 100000, models.VAT10)
		item.DiscountAmount = 150000

		got, err := NormalizeLine(item)
		require.NoError(t, err)
		assert.Equal(t, int64(100000), got.DiscountAmount)
		assert.Equal(t, int64(0), got.LineTotal)
	})

	t.Run("Negative values are refused", func(t *testing.T) {
		item := newLine("1", 100000, models.VAT10)
		item.UnitPrice = -5000
		_, err := NormalizeLine(item)
		assert.ErrorIs(t, err, ErrNegativeValue)

		item = newLine("1", 100000, models.VAT10)
		item.Quantity = decimal.NewFromInt(-1)
		_, err = NormalizeLine(item)
		assert.ErrorIs(t, err, ErrNegativeValue)

		item = newLine("1", 100000, models.VAT10)
		item.DiscountAmount = -100
		_, err = NormalizeLine(item)
		assert.ErrorIs(t, err, ErrNegativeValue)
	})
}

func TestFillFromProductClampsRate(t *testing.T) {
	item := models.NewLineItem()
	item.DiscountRate = decimal.NewFromInt(120)

	got := FillFromProduct(item, &models.Product{ID: 3, Code: "SP003", Name: "Bút bi", Unit: "Cây", Price: 5000, VATRate: models.VAT8})
	assert.True(t, got.DiscountRate.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(5000), got.DiscountAmount)
	assert.Equal(t, int64(0), got.LineTotal)
}

func TestDiscountRoundTrip(t *testing.T) {
	quantities := []string{"1", "3", "7", "12"}
	prices := []int64{5000, 12345, 99999, 1250000}
	tolerance := decimal.RequireFromString("0.01")

	for _, q := range quantities {
		for _, p := range prices {
			item := newLine(q, p, models.VAT10)
			for cents := int64(0); cents <= 10000; cents += 37 {
				rate := decimal.New(cents, -2)

				withRate, err := RecomputeLine(item, FieldDiscountRate, rate)
				require.NoError(t, err)

				back, err := RecomputeLine(withRate, FieldDiscountAmount, decimal.NewFromInt(withRate.DiscountAmount))
				require.NoError(t, err)

				diff := back.DiscountRate.Sub(rate).Abs()
				assert.Truef(t, diff.LessThanOrEqual(tolerance), "q=%s p=%d rate=%s got %s", q, p, rate, back.DiscountRate)
			}
		}
	}
}

func TestRemoveLine(t *testing.T) {
	a := newLine("1", 1000, models.VAT10)
	b := newLine("2", 2000, models.VAT10)

	t.Run("Removes and renumbers", func(t *testing.T) {
		got, err := RemoveLine([]models.LineItem{a, b}, a.RowID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b.RowID, got[0].RowID)
		assert.Equal(t, 1, got[0].Position)
	})

	t.Run("Keeps the last line", func(t *testing.T) {
		got, err := RemoveLine([]models.LineItem{a}, a.RowID)
		assert.ErrorIs(t, err, ErrLastLine)
		assert.Len(t, got, 1)
	})

	t.Run("Unknown row", func(t *testing.T) {
		_, err := RemoveLine([]models.LineItem{a, b}, "missing")
		assert.ErrorIs(t, err, ErrRowNotFound)
	})
}

func TestParseField(t *testing.T) {
	f, err := ParseField("discount_rate")
	require.NoError(t, err)
	assert.Equal(t, FieldDiscountRate, f)

	_, err = ParseField("name")
	assert.ErrorIs(t, err, ErrUnknownField)
}
