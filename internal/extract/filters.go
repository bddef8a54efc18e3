package extract

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const minDescriptionRunes = 40

// trackingMarkers flag URLs that are analytics beacons, not product
// photos. Picking these up instead of the product image was a recurring
// bug in earlier per-vendor scripts.
var trackingMarkers = []string{
	"pixel", "beacon", "spacer", "1x1", "blank.gif", "transparent",
	"analytics", "doubleclick", "facebook.com/tr",
}

// boilerplateMarkers flag navigation and chrome text that earlier scripts
// kept mistaking for product descriptions.
var boilerplateMarkers = []string{
	"cookie", "sign in", "log in", "my account", "shopping cart",
	"skip to content", "all rights reserved", "subscribe to our",
	"free shipping on orders", "terms of service", "privacy policy",
}

// looksLikeTrackingPixel rejects image candidates by URL markers and by
// declared 1x1 (or near-zero) dimensions when the img element is known.
func looksLikeTrackingPixel(imgURL string, s *goquery.Selection) bool {
	lower := strings.ToLower(imgURL)
	for _, marker := range trackingMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	if s != nil {
		w := declaredDimension(s, "width")
		h := declaredDimension(s, "height")
		if (w > 0 && w <= 2) || (h > 0 && h <= 2) {
			return true
		}
	}

	return false
}

func plausibleDescription(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minDescriptionRunes {
		return false
	}

	lower := strings.ToLower(text)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}

	return true
}

func declaredDimension(s *goquery.Selection, attr string) int {
	v, ok := s.Attr(attr)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}

func declaredArea(s *goquery.Selection) int {
	return declaredDimension(s, "width") * declaredDimension(s, "height")
}
