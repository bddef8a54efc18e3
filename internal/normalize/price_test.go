package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		hasContext bool
		expected   float64
		currency   string
		ok         bool
	}{
		{
			name:     "dollar with cents",
			raw:      "$1,899.00",
			expected: 1899.00,
			currency: "USD",
			ok:       true,
		},
		{
			name:       "bare number with price context",
			raw:        "1899",
			hasContext: true,
			expected:   1899.00,
			currency:   "USD",
			ok:         true,
		},
		{
			name:     "dollar without cents",
			raw:      "$1,899",
			expected: 1899.00,
			currency: "USD",
			ok:       true,
		},
		{
			name: "bare number without context is not a price",
			raw:  "1899",
			ok:   false,
		},
		{
			name:       "free is not a price",
			raw:        "Free",
			hasContext: true,
			ok:         false,
		},
		{
			name:       "contact for price",
			raw:        "Contact for price",
			hasContext: true,
			ok:         false,
		},
		{
			name: "zero is rejected",
			raw:  "$0.00",
			ok:   false,
		},
		{
			name:     "euro symbol",
			raw:      "€450.50",
			expected: 450.50,
			currency: "EUR",
			ok:       true,
		},
		{
			name:     "currency code in text",
			raw:      "1250 USD",
			expected: 1250.00,
			currency: "USD",
			ok:       true,
		},
		{
			name: "empty string",
			raw:  "",
			ok:   false,
		},
		{
			name:     "price embedded in sentence",
			raw:      "Now only $249.99 while supplies last",
			expected: 249.99,
			currency: "USD",
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, ok := ParsePrice(tt.raw, tt.hasContext)

			if !tt.ok {
				assert.False(t, ok)
				assert.Nil(t, money)
				return
			}

			require.True(t, ok)
			require.NotNil(t, money)
			assert.InDelta(t, tt.expected, money.Amount, 0.001)
			assert.Equal(t, tt.currency, money.Currency)
		})
	}
}
