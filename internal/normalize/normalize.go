package normalize

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/finchdev/ffe-scraper/internal/extract"
	"github.com/finchdev/ffe-scraper/internal/models"
)

const maxDescriptionRunes = 1000

// Normalize arbitrates the candidates collected per field and produces one
// canonical record. The highest-tier candidate that survives its field's
// coercion wins; fields with no survivor stay absent, which is distinct
// from "extracted but empty". The chosen image URL is returned separately
// so the caller can materialize it.
func Normalize(sourceURL, vendor string, candidates map[models.Field][]extract.Candidate) (*models.ProductRecord, string) {
	rec := models.NewProductRecord(sourceURL, vendor)

	if c, ok := pickString(candidates[models.FieldName]); ok {
		rec.Name = strPtr(c.Value)
		rec.Confidence[models.FieldName] = c.Tier.Confidence()
	}

	for _, c := range ranked(candidates[models.FieldPrice]) {
		money, ok := ParsePrice(c.Value, priceContext(c))
		if !ok {
			continue
		}
		rec.Price = money
		rec.Confidence[models.FieldPrice] = c.Tier.Confidence()
		break
	}

	if c, ok := pickString(candidates[models.FieldSKU]); ok {
		rec.SKU = strPtr(c.Value)
		rec.Confidence[models.FieldSKU] = c.Tier.Confidence()
	}

	if c, ok := pickString(candidates[models.FieldDimensions]); ok {
		dims := ParseDimensions(c.Value)
		rec.Dimensions = dims
		if dims.Structured() {
			rec.Confidence[models.FieldDimensions] = c.Tier.Confidence()
		} else {
			// Unparsed text is kept verbatim but flagged so consumers
			// know not to trust it as a measured triple.
			rec.Confidence[models.FieldDimensions] = models.ConfidenceLow
		}
	}

	if c, ok := pickString(candidates[models.FieldFinishColor]); ok {
		rec.FinishColor = strPtr(c.Value)
		rec.Confidence[models.FieldFinishColor] = c.Tier.Confidence()
	}

	if c, ok := pickString(candidates[models.FieldDescription]); ok {
		rec.Description = strPtr(truncateRunes(c.Value, maxDescriptionRunes))
		rec.Confidence[models.FieldDescription] = c.Tier.Confidence()
	}

	imageURL := ""
	if c, ok := pickString(candidates[models.FieldImage]); ok {
		imageURL = c.Value
		rec.Confidence[models.FieldImage] = c.Tier.Confidence()
	}

	return rec, imageURL
}

// ranked returns candidates ordered highest tier first, stable within a
// tier so earlier extractors keep priority.
func ranked(cands []extract.Candidate) []extract.Candidate {
	out := make([]extract.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Tier > out[j].Tier
	})
	return out
}

func pickString(cands []extract.Candidate) (extract.Candidate, bool) {
	for _, c := range ranked(cands) {
		if strings.TrimSpace(c.Value) != "" {
			c.Value = collapseWhitespace(c.Value)
			return c, true
		}
	}
	return extract.Candidate{}, false
}

// priceContext reports whether a candidate came from somewhere that makes
// a bare number trustworthy as a price. Structured data and price-specific
// selectors qualify; a naked number matched in page text does not.
func priceContext(c extract.Candidate) bool {
	if c.Tier >= extract.TierVendor {
		return true
	}
	return strings.Contains(c.Source, "currency") || strings.Contains(strings.ToLower(c.Source), "price")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

func strPtr(s string) *string {
	return &s
}
