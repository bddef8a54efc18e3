package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finchdev/ffe-scraper/internal/models"
)

var (
	currencyPattern  = regexp.MustCompile(`\$\s*\d[\d,]*(?:\.\d{1,2})?`)
	labeledSKU       = regexp.MustCompile(`(?i)(?:sku|item\s*(?:#|no\.?|number))\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{2,19})`)
	pathSKU          = regexp.MustCompile(`^(?:[A-Z0-9]{2,}[-_][A-Z0-9_-]+|\d{5,})$`)
	dimensionPhrase  = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*(?:"|”|in(?:ch(?:es)?)?\.?)?\s*[wdh]\s*(?:x|×)\s*\d+(?:[.,]\d+)?\s*(?:"|”|in(?:ch(?:es)?)?\.?)?\s*[wdh]\s*(?:x|×)\s*\d+(?:[.,]\d+)?\s*(?:"|”|in(?:ch(?:es)?)?\.?)?\s*[wdh]`)
	labeledDimension = regexp.MustCompile(`(?i)dimensions?\s*:\s*([^\n<]{5,80})`)
	labeledFinish    = regexp.MustCompile(`(?i)(?:finish|colou?r)\s*:\s*([A-Za-z][A-Za-z\s,&/-]{2,40})`)
)

// extractGeneric is the lowest tier: heuristics that assume nothing about
// the vendor. They only matter when the structured and vendor tiers came
// up empty, but they always run so arbitration has fallbacks to weigh.
func extractGeneric(doc *goquery.Document, pageURL string) []Candidate {
	var out []Candidate
	add := func(field models.Field, value, source string) {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, Candidate{Field: field, Value: value, Tier: TierGeneric, Source: source})
		}
	}

	if name := metaContent(doc, `meta[property="og:title"]`); name != "" {
		add(models.FieldName, stripSiteSuffix(name), "og:title")
	} else if h1 := largestHeading(doc); h1 != "" {
		add(models.FieldName, h1, "h1")
	}

	if price := genericPrice(doc); price != "" {
		add(models.FieldPrice, price, "currency-pattern")
	}

	if sku := genericSKU(doc, pageURL); sku != "" {
		add(models.FieldSKU, sku, "sku-heuristic")
	}

	body := doc.Find("body").Text()
	if m := labeledDimension.FindStringSubmatch(body); len(m) > 1 {
		add(models.FieldDimensions, m[1], "dimensions-label")
	} else if m := dimensionPhrase.FindString(body); m != "" {
		add(models.FieldDimensions, m, "dimensions-pattern")
	}

	if m := labeledFinish.FindStringSubmatch(body); len(m) > 1 {
		add(models.FieldFinishColor, m[1], "finish-label")
	}

	if desc := genericDescription(doc); desc != "" {
		add(models.FieldDescription, desc, "description-heuristic")
	}

	if img := genericImage(doc, pageURL); img != "" {
		add(models.FieldImage, img, "image-heuristic")
	}

	return out
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// stripSiteSuffix drops trailing "| Site Name" decorations from og:title.
func stripSiteSuffix(title string) string {
	for _, sep := range []string{" | ", " – ", " - "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return title
}

func largestHeading(doc *goquery.Document) string {
	var best string
	doc.Find("h1").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > len(best) {
			best = text
		}
	})
	return best
}

// genericPrice wants a currency symbol inside an element whose class or id
// suggests a price. A bare full-text currency match is accepted only as a
// last resort; arbitrary numbers on a page are not prices.
func genericPrice(doc *goquery.Document) string {
	var found string
	doc.Find(`[class*="price"], [id*="price"], [itemprop="price"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if m := currencyPattern.FindString(text); m != "" {
			found = m
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	body := doc.Find("body").Text()
	if m := currencyPattern.FindString(body); m != "" {
		return m
	}
	return ""
}

func genericSKU(doc *goquery.Document, pageURL string) string {
	body := doc.Find("body").Text()
	if m := labeledSKU.FindStringSubmatch(body); len(m) > 1 {
		return m[1]
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.ToUpper(segments[i])
		if pathSKU.MatchString(seg) {
			return segments[i]
		}
	}
	return ""
}

func genericDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content := metaContent(doc, sel); plausibleDescription(content) {
			return content
		}
	}

	// Longest paragraph in the content area, gated by the boilerplate
	// filter so menu text never leaks in.
	var best string
	doc.Find("main p, article p, .product p, p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > len(best) && plausibleDescription(text) {
			best = text
		}
	})
	return best
}

func genericImage(doc *goquery.Document, pageURL string) string {
	if og := metaContent(doc, `meta[property="og:image"]`); og != "" {
		resolved := resolveURL(pageURL, og)
		if !looksLikeTrackingPixel(resolved, nil) {
			return resolved
		}
	}

	var best string
	var bestArea int
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := imageSrc(s)
		if src == "" {
			return
		}
		resolved := resolveURL(pageURL, src)
		if looksLikeTrackingPixel(resolved, s) {
			return
		}
		area := declaredArea(s)
		if area > bestArea || best == "" {
			best = resolved
			if area > bestArea {
				bestArea = area
			}
		}
	})
	return best
}
