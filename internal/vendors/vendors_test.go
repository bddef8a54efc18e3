package vendors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finchdev/ffe-scraper/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "Four Hands product URL",
			url:      "https://fourhands.com/product/248067-003",
			expected: "Four Hands",
		},
		{
			name:     "Uttermost with www prefix",
			url:      "https://www.uttermost.com/products/12345",
			expected: "Uttermost",
		},
		{
			name:     "Perigold",
			url:      "https://www.perigold.com/furniture/pdp/some-chair.html",
			expected: "Perigold",
		},
		{
			name:     "Houzz subdomain",
			url:      "https://pro.houzz.com/product/987",
			expected: "Houzz",
		},
		{
			name:     "unknown vendor",
			url:      "https://example.com/products/chair",
			expected: Unknown,
		},
		{
			name:     "domain suffix does not false-match",
			url:      "https://notfourhands.com/product/1",
			expected: Unknown,
		},
		{
			name:     "empty string",
			url:      "",
			expected: Unknown,
		},
		{
			name:     "garbage input",
			url:      "::::not a url::::",
			expected: Unknown,
		},
		{
			name:     "scheme-less input",
			url:      "fourhands.com/product/1",
			expected: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.url))
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("Four Hands"))
	assert.False(t, Known(Unknown))
	assert.False(t, Known(""))
}

func TestProfileFor(t *testing.T) {
	profile := ProfileFor("Four Hands")
	assert.NotNil(t, profile)
	assert.NotEmpty(t, profile.FieldSelectors(models.FieldPrice))
	assert.NotEmpty(t, profile.SKUPathPattern)

	assert.Nil(t, ProfileFor(Unknown))
	assert.Nil(t, (*Profile)(nil).FieldSelectors(models.FieldName))
}
