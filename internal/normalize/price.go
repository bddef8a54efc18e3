package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/finchdev/ffe-scraper/internal/models"
)

var priceNumber = regexp.MustCompile(`\d[\d,]*(?:\.\d{1,2})?`)

var currencySymbols = map[string]string{
	"$":   "USD",
	"usd": "USD",
	"€":   "EUR",
	"eur": "EUR",
	"£":   "GBP",
	"gbp": "GBP",
}

// ParsePrice coerces a price-like string to a decimal amount. Strings with
// no currency symbol are accepted only when hasContext is true, so an
// arbitrary number on the page never becomes a price. Zero and
// non-numeric phrases ("Free", "Contact for price") yield no price.
func ParsePrice(raw string, hasContext bool) (*models.Money, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	currency := detectCurrency(raw)
	if currency == "" && !hasContext {
		return nil, false
	}

	m := priceNumber.FindString(raw)
	if m == "" {
		return nil, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || amount <= 0 {
		return nil, false
	}

	// Normalize to two decimal places; records carry USD unless the page
	// said otherwise.
	amount = math.Round(amount*100) / 100
	if currency == "" {
		currency = "USD"
	}

	return &models.Money{Amount: amount, Currency: currency}, true
}

func detectCurrency(raw string) string {
	lower := strings.ToLower(raw)
	for symbol, code := range currencySymbols {
		if strings.Contains(lower, symbol) {
			return code
		}
	}
	return ""
}
