package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finchdev/ffe-scraper/internal/extract"
	"github.com/finchdev/ffe-scraper/internal/fetcher"
	"github.com/finchdev/ffe-scraper/internal/images"
	"github.com/finchdev/ffe-scraper/internal/models"
	"github.com/finchdev/ffe-scraper/internal/normalize"
	"github.com/finchdev/ffe-scraper/internal/vendors"
)

// Fetcher renders a URL into a document. Satisfied by fetcher.Fetcher;
// tests substitute a fixture-backed fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Document, error)
}

// Materializer resolves an image URL into an embedded payload.
type Materializer interface {
	Materialize(ctx context.Context, imageURL string) (*models.EncodedImage, error)
}

// Service runs the whole pipeline for one URL: fetch, classify, extract,
// normalize, materialize. It holds no per-invocation state; invocations
// for different URLs are independent.
type Service struct {
	fetcher      Fetcher
	materializer Materializer
	logger       *slog.Logger
}

func NewService(f Fetcher, m Materializer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:      f,
		materializer: m,
		logger:       logger.With("component", "scraper"),
	}
}

// Scrape produces a ProductRecord for the given URL. A fetch failure is
// fatal and propagates typed; everything downstream degrades instead -
// a record with only SourceURL and Vendor set is a valid success.
// Extraction is an enrichment, not a gate.
func (s *Service) Scrape(ctx context.Context, url string) (*models.ProductRecord, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	vendor := vendors.Classify(url)

	gq, err := doc.Doc()
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	candidates := extract.Run(gq, doc.FinalURL, vendor)
	record, imageURL := normalize.Normalize(url, vendor, candidates)

	if imageURL != "" && s.materializer != nil {
		encoded, err := s.materializer.Materialize(ctx, imageURL)
		if err != nil {
			// Missing image never blocks the record.
			s.logger.Warn("image materialization failed",
				"url", url,
				"image_url", imageURL,
				"error", err,
			)
			delete(record.Confidence, models.FieldImage)
		} else {
			record.Image = encoded
		}
	}

	s.logger.Info("scrape complete",
		"url", url,
		"vendor", vendor,
		"fields", len(record.Confidence),
		"has_image", record.Image != nil,
	)

	return record, nil
}

var _ Materializer = (*images.Materializer)(nil)
var _ Fetcher = (*fetcher.Fetcher)(nil)
