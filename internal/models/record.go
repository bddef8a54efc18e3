package models

import (
	"time"
)

// Field identifies one extractable product attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldPrice       Field = "price"
	FieldSKU         Field = "sku"
	FieldDimensions  Field = "dimensions"
	FieldFinishColor Field = "finish_color"
	FieldDescription Field = "description"
	FieldImage       Field = "image"
)

// Confidence records which extraction tier supplied a field.
type Confidence string

const (
	ConfidenceStructured Confidence = "structured"
	ConfidenceVendor     Confidence = "vendor"
	ConfidenceGeneric    Confidence = "generic"
	ConfidenceLow        Confidence = "low"
)

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Dimensions is a parsed W x D x H triple. Raw keeps the original string
// when it matched no known pattern, so nothing is silently dropped.
type Dimensions struct {
	Width  float64 `json:"width,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
	Height float64 `json:"height,omitempty"`
	Unit   string  `json:"unit,omitempty"`
	Raw    string  `json:"raw,omitempty"`
}

// Structured reports whether a numeric triple was parsed out of the source
// text, as opposed to only the raw fallback being kept.
func (d *Dimensions) Structured() bool {
	return d != nil && d.Width > 0 && d.Depth > 0 && d.Height > 0
}

// EncodedImage is a self-contained image payload. Data is base64 so the
// record can be rendered without touching the original URL again.
type EncodedImage struct {
	MimeType  string `json:"mime_type"`
	Data      string `json:"data"`
	SourceURL string `json:"source_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ProductRecord is the canonical output of one scrape invocation.
// SourceURL and Vendor are always set; every other field is optional and
// left nil when nothing plausible was extracted. Records are never mutated
// after being returned.
type ProductRecord struct {
	SourceURL   string        `json:"source_url"`
	Vendor      string        `json:"vendor"`
	Name        *string       `json:"name,omitempty"`
	Price       *Money        `json:"price,omitempty"`
	SKU         *string       `json:"sku,omitempty"`
	Dimensions  *Dimensions   `json:"dimensions,omitempty"`
	FinishColor *string       `json:"finish_color,omitempty"`
	Description *string       `json:"description,omitempty"`
	Image       *EncodedImage `json:"image,omitempty"`

	Confidence map[Field]Confidence `json:"confidence,omitempty"`
	ScrapedAt  time.Time            `json:"scraped_at"`
}

func NewProductRecord(sourceURL, vendor string) *ProductRecord {
	return &ProductRecord{
		SourceURL:  sourceURL,
		Vendor:     vendor,
		Confidence: make(map[Field]Confidence),
		ScrapedAt:  time.Now(),
	}
}
