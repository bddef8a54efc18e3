package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finchdev/ffe-scraper/internal/models"
	"github.com/finchdev/ffe-scraper/internal/vendors"
)

// extractVendor runs the vendor's selector profile. Different vendors put
// price and name in different markup, so selectors come from the registry
// rather than being hardcoded per field.
func extractVendor(doc *goquery.Document, pageURL, vendor string) []Candidate {
	profile := vendors.ProfileFor(vendor)
	if profile == nil {
		return nil
	}

	var out []Candidate

	for _, field := range []models.Field{
		models.FieldName,
		models.FieldPrice,
		models.FieldSKU,
		models.FieldDimensions,
		models.FieldFinishColor,
		models.FieldDescription,
	} {
		for _, sel := range profile.FieldSelectors(field) {
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text == "" {
				continue
			}
			// A stale selector can land on chrome text; descriptions go
			// through the same plausibility gate as the generic tier.
			if field == models.FieldDescription && !plausibleDescription(text) {
				continue
			}
			out = append(out, Candidate{
				Field:  field,
				Value:  text,
				Tier:   TierVendor,
				Source: "selector:" + sel,
			})
			break
		}
	}

	for _, sel := range profile.FieldSelectors(models.FieldImage) {
		src := imageSrc(doc.Find(sel).First())
		if src == "" {
			continue
		}
		resolved := resolveURL(pageURL, src)
		if looksLikeTrackingPixel(resolved, doc.Find(sel).First()) {
			continue
		}
		out = append(out, Candidate{
			Field:  models.FieldImage,
			Value:  resolved,
			Tier:   TierVendor,
			Source: "selector:" + sel,
		})
		break
	}

	if profile.SKUPathPattern != "" {
		if sku := skuFromPath(pageURL, profile.SKUPathPattern); sku != "" {
			out = append(out, Candidate{
				Field:  models.FieldSKU,
				Value:  sku,
				Tier:   TierVendor,
				Source: "url-path",
			})
		}
	}

	return out
}

// imageSrc prefers src, then the lazy-load attributes vendors use.
func imageSrc(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// skuFromPath matches URL path segments against the vendor's SKU layout.
// Vendors like Four Hands embed the SKU directly in product URLs, which
// survives even when the page markup changes.
func skuFromPath(pageURL, pattern string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if re.MatchString(segment) {
			return segment
		}
	}
	return ""
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
