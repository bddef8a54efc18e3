package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/finchdev/ffe-scraper/internal/models"
)

// dimPart matches one component of a dimension phrase: a number, an
// optional unit mark, and a W/D/H axis letter, e.g. `48"W` or `16 in D`.
var dimPart = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*("|”|in(?:ch(?:es)?)?\.?|cm)?\s*([wdh])\b`)

// ParseDimensions parses strings like `48"W x 16"D x 30"H` (axis letters
// in any order) into a structured triple, inches by default. Text that
// matches no known pattern is preserved verbatim in Raw rather than
// dropped; partial matches also fall back to Raw.
func ParseDimensions(raw string) *models.Dimensions {
	raw = strings.TrimSpace(raw)
	dims := &models.Dimensions{Raw: raw}

	matches := dimPart.FindAllStringSubmatch(raw, -1)
	if len(matches) < 3 {
		return dims
	}

	unit := "in"
	values := map[string]float64{}
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil || v <= 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(m[2]), "cm") {
			unit = "cm"
		}
		axis := strings.ToLower(m[3])
		if _, seen := values[axis]; !seen {
			values[axis] = v
		}
	}

	w, okW := values["w"]
	d, okD := values["d"]
	h, okH := values["h"]
	if !okW || !okD || !okH {
		return dims
	}

	dims.Width = w
	dims.Depth = d
	dims.Height = h
	dims.Unit = unit
	dims.Raw = ""
	return dims
}
