package extract

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/finchdev/ffe-scraper/internal/models"
)

// Tier ranks extraction strategies. Higher values win during arbitration.
type Tier int

const (
	TierGeneric    Tier = 1
	TierVendor     Tier = 2
	TierStructured Tier = 3
)

func (t Tier) Confidence() models.Confidence {
	switch t {
	case TierStructured:
		return models.ConfidenceStructured
	case TierVendor:
		return models.ConfidenceVendor
	default:
		return models.ConfidenceGeneric
	}
}

// Candidate is one unconfirmed value proposed for one field. Extractors
// return zero or more of these; arbitration happens in normalize.
type Candidate struct {
	Field  models.Field
	Value  string
	Tier   Tier
	Source string
}

// noiseSelectors name page regions that repeatedly produced false
// positives in practice: cross-sell prices, navigation text picked up as
// descriptions, cart widgets. They are stripped before the vendor and
// generic tiers run; the structured tier runs first because JSON-LD lives
// in script tags.
var noiseSelectors = []string{
	"nav", "footer", "header",
	".related-products", ".cross-sell", ".crosssell", ".upsell",
	".recommendations", ".you-may-also-like", ".recently-viewed",
	".mini-cart", ".cart-drawer", ".newsletter",
	".breadcrumb", ".breadcrumbs",
}

// Run executes all extraction tiers against the document and groups the
// resulting candidates by field. A failing extractor contributes nothing;
// it never aborts the run.
func Run(doc *goquery.Document, pageURL, vendor string) map[models.Field][]Candidate {
	out := make(map[models.Field][]Candidate)
	add := func(cands []Candidate) {
		for _, c := range cands {
			if c.Value == "" {
				continue
			}
			out[c.Field] = append(out[c.Field], c)
		}
	}

	add(extractStructured(doc, pageURL))

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	add(extractVendor(doc, pageURL, vendor))
	add(extractGeneric(doc, pageURL))

	slog.Default().Debug("extraction complete",
		"url", pageURL,
		"vendor", vendor,
		"fields", len(out),
	)

	return out
}
