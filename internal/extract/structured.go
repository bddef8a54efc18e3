package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/finchdev/ffe-scraper/internal/models"
)

// extractStructured pulls candidates from JSON-LD Product blocks and from
// product JSON objects vendors embed for client-side hydration. This is
// the highest-confidence tier: values here were written by the vendor's
// own templating, not scraped out of markup.
func extractStructured(doc *goquery.Document, pageURL string) []Candidate {
	var out []Candidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		for _, product := range findProductNodes(payload) {
			out = append(out, candidatesFromProduct(product, pageURL)...)
		}
	})

	if len(out) > 0 {
		return out
	}

	// Fallback: hydration scripts that inline a product object without
	// schema.org markup. Seen on Four Hands and Uttermost catalogs.
	doc.Find("script:not([type='application/ld+json'])").Each(func(i int, s *goquery.Selection) {
		if len(out) > 0 {
			return
		}
		out = append(out, candidatesFromHydrationScript(s.Text())...)
	})

	return out
}

// findProductNodes walks arbitrarily nested JSON-LD (including @graph
// wrappers) and returns every node typed as a Product.
func findProductNodes(node interface{}) []map[string]interface{} {
	var products []map[string]interface{}

	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			products = append(products, findProductNodes(item)...)
		}
	case map[string]interface{}:
		if isProductType(v["@type"]) {
			products = append(products, v)
		}
		if graph, ok := v["@graph"]; ok {
			products = append(products, findProductNodes(graph)...)
		}
	}

	return products
}

func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func candidatesFromProduct(product map[string]interface{}, pageURL string) []Candidate {
	var out []Candidate
	add := func(field models.Field, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			out = append(out, Candidate{
				Field:  field,
				Value:  value,
				Tier:   TierStructured,
				Source: "json-ld",
			})
		}
	}

	add(models.FieldName, stringValue(product["name"]))
	add(models.FieldSKU, stringValue(product["sku"]))
	add(models.FieldDescription, stringValue(product["description"]))
	add(models.FieldFinishColor, stringValue(product["color"]))

	if img := firstImageURL(product["image"]); img != "" {
		add(models.FieldImage, resolveURL(pageURL, img))
	}

	if price, currency := offerPrice(product["offers"]); price != "" {
		value := price
		if currency != "" {
			value = currency + " " + price
		}
		add(models.FieldPrice, value)
	}

	return out
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return trimFloat(s)
	}
	return ""
}

func firstImageURL(v interface{}) string {
	switch img := v.(type) {
	case string:
		return img
	case []interface{}:
		for _, item := range img {
			if s := firstImageURL(item); s != "" {
				return s
			}
		}
	case map[string]interface{}:
		return stringValue(img["url"])
	}
	return ""
}

func offerPrice(v interface{}) (price, currency string) {
	switch offers := v.(type) {
	case map[string]interface{}:
		price = stringValue(offers["price"])
		if price == "" {
			price = stringValue(offers["lowPrice"])
		}
		currency = stringValue(offers["priceCurrency"])
		return price, currency
	case []interface{}:
		for _, item := range offers {
			if p, c := offerPrice(item); p != "" {
				return p, c
			}
		}
	}
	return "", ""
}

var hydrationFieldPatterns = map[models.Field]*regexp.Regexp{
	models.FieldName:  regexp.MustCompile(`"(?:name|productName|title)"\s*:\s*"([^"]+)"`),
	models.FieldSKU:   regexp.MustCompile(`"(?:sku|itemNumber|productCode)"\s*:\s*"([^"]+)"`),
	models.FieldPrice: regexp.MustCompile(`"(?:price|listPrice|retailPrice)"\s*:\s*(?:"([^"]+)"|(\d+(?:\.\d+)?))`),
	models.FieldImage: regexp.MustCompile(`"(?:image|imageUrl|mainImage)"\s*:\s*"(https?://[^"]+)"`),
}

// candidatesFromHydrationScript scans a script body for an inline product
// object. A script must mention both a name and a price or SKU before any
// value is taken, to avoid matching unrelated config blobs.
func candidatesFromHydrationScript(script string) []Candidate {
	if len(script) > 512*1024 {
		return nil
	}
	if !strings.Contains(script, `"name"`) && !strings.Contains(script, `"productName"`) {
		return nil
	}
	if !strings.Contains(script, `"price"`) && !strings.Contains(script, `"sku"`) {
		return nil
	}

	var out []Candidate
	for field, pattern := range hydrationFieldPatterns {
		m := pattern.FindStringSubmatch(script)
		if len(m) < 2 {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" && len(m) > 2 {
			value = strings.TrimSpace(m[2])
		}
		if value == "" || value == "null" {
			continue
		}
		out = append(out, Candidate{
			Field:  field,
			Value:  value,
			Tier:   TierStructured,
			Source: "hydration-script",
		})
	}

	return out
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
