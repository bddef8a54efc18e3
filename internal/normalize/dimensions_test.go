package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		width  float64
		depth  float64
		height float64
		unit   string
	}{
		{
			name:   "standard quoted inches",
			raw:    `48"W x 16"D x 30"H`,
			width:  48, depth: 16, height: 30,
			unit: "in",
		},
		{
			name:   "axis letters reordered",
			raw:    `30"H x 48"W x 16"D`,
			width:  48, depth: 16, height: 30,
			unit: "in",
		},
		{
			name:   "lowercase with spaces",
			raw:    `48 w x 16 d x 30 h`,
			width:  48, depth: 16, height: 30,
			unit: "in",
		},
		{
			name:   "decimal values",
			raw:    `23.5"W x 23.5"D x 33.75"H`,
			width:  23.5, depth: 23.5, height: 33.75,
			unit: "in",
		},
		{
			name:   "centimeters",
			raw:    `120 cm W x 40 cm D x 75 cm H`,
			width:  120, depth: 40, height: 75,
			unit: "cm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims := ParseDimensions(tt.raw)
			require.NotNil(t, dims)
			require.True(t, dims.Structured(), "expected a structured parse for %q", tt.raw)

			assert.Equal(t, tt.width, dims.Width)
			assert.Equal(t, tt.depth, dims.Depth)
			assert.Equal(t, tt.height, dims.Height)
			assert.Equal(t, tt.unit, dims.Unit)
			assert.Empty(t, dims.Raw)
		})
	}
}

func TestParseDimensionsKeepsUnmatchedText(t *testing.T) {
	tests := []string{
		"Seat height 18 inches",
		"oversized, see spec sheet",
		`48"W x 16"D`, // only two axes
		"",
	}

	for _, raw := range tests {
		dims := ParseDimensions(raw)
		require.NotNil(t, dims)
		assert.False(t, dims.Structured())
		assert.Equal(t, raw, dims.Raw, "unparseable input must be preserved verbatim")
	}
}
