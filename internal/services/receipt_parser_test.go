package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceipt(t *testing.T) {
	parser := NewReceiptParser()

	ocrText := `FRESH MARKET
123 MAIN ST
08/15/2026 14:32

MILK 2% GAL 3.49 F
CHICKEN BREAST 4011234567890 8.99
2 x YOGURT CUP 1.98
SUBTOTAL 14.46
TAX 0.87
TOTAL 15.33
THANK YOU`

	result, err := parser.Parse(ocrText)
	require.NoError(t, err)

	require.Len(t, result.Items, 3)

	assert.Equal(t, "MILK 2% GAL", result.Items[0].Name)
	assert.InDelta(t, 3.49, result.Items[0].Price, 0.001)
	assert.InDelta(t, 1.0, result.Items[0].Quantity, 0.001)

	assert.Equal(t, "CHICKEN BREAST", result.Items[1].Name)
	assert.InDelta(t, 8.99, result.Items[1].Price, 0.001)

	assert.Equal(t, "YOGURT CUP", result.Items[2].Name)
	assert.InDelta(t, 1.98, result.Items[2].Price, 0.001)
	assert.InDelta(t, 2.0, result.Items[2].Quantity, 0.001)

	require.NotNil(t, result.Total)
	assert.InDelta(t, 15.33, *result.Total, 0.001)

	require.NotNil(t, result.Date)
	assert.Equal(t, 2026, result.Date.Year())
	assert.Equal(t, time.August, result.Date.Month())
	assert.Equal(t, 15, result.Date.Day())
}

func TestParseReceiptExcludesNonItems(t *testing.T) {
	parser := NewReceiptParser()

	ocrText := `2.96 lb @ $0.99 / lb
CASH 20.00
CHANGE 4.67
VISA 15.33
BANANAS 2.93`

	result, err := parser.Parse(ocrText)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "BANANAS", result.Items[0].Name)
	assert.InDelta(t, 2.93, result.Items[0].Price, 0.001)
}

func TestParseReceiptEmptyText(t *testing.T) {
	parser := NewReceiptParser()

	result, err := parser.Parse("")
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Nil(t, result.Total)
	assert.Nil(t, result.Date)
}

func TestParseReceiptImplausiblePrices(t *testing.T) {
	parser := NewReceiptParser()

	// Phone-number style lines must not become items
	result, err := parser.Parse("CALL 555 867.53")
	require.NoError(t, err)

	for _, item := range result.Items {
		assert.LessOrEqual(t, item.Price, 9999.0)
		assert.Greater(t, item.Price, 0.0)
	}
}
