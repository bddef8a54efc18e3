package vendors

import "github.com/finchdev/ffe-scraper/internal/models"

// Profile holds the ordered CSS selector lists one vendor's product pages
// need. Selectors earlier in a list are tried first. Vendors without a
// profile fall through to generic extraction only.
type Profile struct {
	Selectors map[models.Field][]string

	// SKUPathPattern, when set, marks a URL path segment layout the vendor
	// embeds SKUs in (used as a fallback source by the SKU extractor).
	SKUPathPattern string
}

var profiles = map[string]*Profile{
	"Four Hands": {
		Selectors: map[models.Field][]string{
			models.FieldName:        {"h1.product-name", "h1[itemprop=name]", ".product-detail h1"},
			models.FieldPrice:       {".product-price .price", "span.price", "[data-price]"},
			models.FieldSKU:         {".product-sku", "span.sku", "[itemprop=sku]"},
			models.FieldDimensions:  {".product-dimensions", ".specs .dimensions", "li.dimensions"},
			models.FieldFinishColor: {".product-finish", ".specs .finish", "li.finish"},
			models.FieldDescription: {".product-description", "[itemprop=description]"},
			models.FieldImage:       {".product-gallery img", "img.product-image"},
		},
		SKUPathPattern: `^\d{6}-\d{3}$`,
	},
	"Uttermost": {
		Selectors: map[models.Field][]string{
			models.FieldName:        {"h1.product-title", ".product-info h1"},
			models.FieldPrice:       {".product-price", "span.price-value"},
			models.FieldSKU:         {".product-item-number", "span.item-number"},
			models.FieldDimensions:  {".product-specs .dimensions", "td.dimensions"},
			models.FieldFinishColor: {".product-specs .finish", "td.finish"},
			models.FieldDescription: {".product-copy", ".product-description"},
			models.FieldImage:       {".product-image-main img", ".gallery img"},
		},
		SKUPathPattern: `^\d{5}$`,
	},
	"Perigold": {
		Selectors: map[models.Field][]string{
			models.FieldName:        {"h1[data-hb-id=heading]", "header h1"},
			models.FieldPrice:       {"[data-test-id=PriceDisplay]", ".SFPrice span"},
			models.FieldSKU:         {"[data-test-id=sku]"},
			models.FieldDimensions:  {".Specifications td", ".ProductOverviewInformation li"},
			models.FieldFinishColor: {".Specifications .finish"},
			models.FieldDescription: {".ProductOverviewInformation p", "[data-test-id=description]"},
			models.FieldImage:       {".ProductDetailImageCarousel img", ".FluidImage img"},
		},
	},
	"Houzz": {
		Selectors: map[models.Field][]string{
			models.FieldName:        {"h1.view-product-title", "h1[itemprop=name]"},
			models.FieldPrice:       {".product-price em", "span.pricing-info__price"},
			models.FieldSKU:         {".product-spec-item .sku"},
			models.FieldDimensions:  {".product-spec-item--dimensions dd"},
			models.FieldFinishColor: {".product-spec-item--color dd"},
			models.FieldDescription: {".product-description", ".vp-product-description"},
			models.FieldImage:       {".view-product-image-print", ".main-image img"},
		},
	},
	"Wayfair": {
		Selectors: map[models.Field][]string{
			models.FieldName:        {"h1[data-hb-id=heading]", "header.ProductDetailInfoBlock h1"},
			models.FieldPrice:       {"[data-test-id=PriceDisplay]", ".SFPrice span"},
			models.FieldDimensions:  {".Specifications td"},
			models.FieldDescription: {".ProductOverviewInformation p"},
			models.FieldImage:       {".ProductDetailImageCarousel img"},
		},
	},
}

// ProfileFor returns the selector profile for a vendor, or nil when the
// vendor has no vendor-specific selectors.
func ProfileFor(vendor string) *Profile {
	return profiles[vendor]
}

// FieldSelectors returns the ordered selector list for one field, or nil.
func (p *Profile) FieldSelectors(field models.Field) []string {
	if p == nil {
		return nil
	}
	return p.Selectors[field]
}
