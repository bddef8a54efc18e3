package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchdev/ffe-scraper/internal/fetcher"
	"github.com/finchdev/ffe-scraper/internal/models"
	"github.com/finchdev/ffe-scraper/internal/queue"
)

const fennChairHTML = `<!DOCTYPE html>
<html>
<head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Fenn Chair",
  "sku": "248067-003",
  "description": "A generously proportioned lounge chair upholstered in top-grain leather with a solid parawood frame.",
  "color": "Palermo Butterscotch",
  "image": "https://cdn.fourhands.com/fenn-chair-main.jpg",
  "offers": {"@type": "Offer", "price": "1899.00", "priceCurrency": "USD"}
}
</script>
</head>
<body>
<h1 class="product-name">Fenn Chair</h1>
<div class="product-dimensions">31.5"W x 33.5"D x 29.25"H</div>
</body>
</html>`

type fakeFetcher struct {
	html string
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetcher.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fetcher.Document{SourceURL: url, FinalURL: url, Status: 200, HTML: f.html}, nil
}

type fakeMaterializer struct {
	image *models.EncodedImage
	err   error
	calls []string
}

func (m *fakeMaterializer) Materialize(ctx context.Context, imageURL string) (*models.EncodedImage, error) {
	m.calls = append(m.calls, imageURL)
	return m.image, m.err
}

func TestScrapeFullPipeline(t *testing.T) {
	mat := &fakeMaterializer{
		image: &models.EncodedImage{
			MimeType:  "image/jpeg",
			Data:      "ZmFrZQ==",
			SourceURL: "https://cdn.fourhands.com/fenn-chair-main.jpg",
			Width:     1200,
			Height:    900,
		},
	}
	svc := NewService(&fakeFetcher{html: fennChairHTML}, mat, nil)

	rec, err := svc.Scrape(context.Background(), "https://fourhands.com/product/248067-003")
	require.NoError(t, err)

	assert.Equal(t, "https://fourhands.com/product/248067-003", rec.SourceURL)
	assert.Equal(t, "Four Hands", rec.Vendor)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Fenn Chair", *rec.Name)
	assert.Equal(t, models.ConfidenceStructured, rec.Confidence[models.FieldName])

	require.NotNil(t, rec.SKU)
	assert.Equal(t, "248067-003", *rec.SKU)

	require.NotNil(t, rec.Price)
	assert.InDelta(t, 1899.00, rec.Price.Amount, 0.001)
	assert.Equal(t, "USD", rec.Price.Currency)

	require.NotNil(t, rec.Dimensions)
	assert.True(t, rec.Dimensions.Structured())
	assert.Equal(t, 31.5, rec.Dimensions.Width)
	assert.Equal(t, 33.5, rec.Dimensions.Depth)
	assert.Equal(t, 29.25, rec.Dimensions.Height)

	require.NotNil(t, rec.FinishColor)
	assert.Equal(t, "Palermo Butterscotch", *rec.FinishColor)

	require.NotNil(t, rec.Image)
	assert.Equal(t, "image/jpeg", rec.Image.MimeType)
	assert.Equal(t, []string{"https://cdn.fourhands.com/fenn-chair-main.jpg"}, mat.calls)

	assert.False(t, rec.ScrapedAt.IsZero())
}

func TestScrapeEmptyPageIsPartialSuccess(t *testing.T) {
	svc := NewService(&fakeFetcher{html: "<html><body></body></html>"}, nil, nil)

	rec, err := svc.Scrape(context.Background(), "https://example.com/products/mystery")
	require.NoError(t, err, "a page with nothing extractable is still a success")

	assert.Equal(t, "https://example.com/products/mystery", rec.SourceURL)
	assert.Equal(t, "Unknown", rec.Vendor)
	assert.Nil(t, rec.Name)
	assert.Nil(t, rec.Price)
	assert.Nil(t, rec.Image)
	assert.Empty(t, rec.Confidence)
}

func TestScrapePropagatesFetchErrors(t *testing.T) {
	svc := NewService(&fakeFetcher{err: fetcher.ErrAntiBotBlocked}, nil, nil)

	rec, err := svc.Scrape(context.Background(), "https://fourhands.com/product/1")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, fetcher.ErrAntiBotBlocked)
}

func TestScrapeImageFailureIsNotFatal(t *testing.T) {
	mat := &fakeMaterializer{err: errors.New("image fetch failed")}
	svc := NewService(&fakeFetcher{html: fennChairHTML}, mat, nil)

	rec, err := svc.Scrape(context.Background(), "https://fourhands.com/product/248067-003")
	require.NoError(t, err)

	assert.Nil(t, rec.Image)
	assert.NotContains(t, rec.Confidence, models.FieldImage)

	// Everything else survives.
	require.NotNil(t, rec.Name)
	assert.Equal(t, "Fenn Chair", *rec.Name)
}

func TestPoolProcessesJobs(t *testing.T) {
	svc := NewService(&fakeFetcher{html: fennChairHTML}, nil, nil)
	q := queue.NewInMemoryQueue()

	results := make(chan *Result, 1)
	pool := NewPool(svc, q, 2, 5*time.Second, func(ctx context.Context, res *Result) {
		results <- res
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	jobID, err := pool.Enqueue("https://fourhands.com/product/248067-003", 0)
	require.NoError(t, err)

	state, ok := pool.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, "https://fourhands.com/product/248067-003", state.URL)

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		require.NotNil(t, res.Record)
		assert.Equal(t, "Four Hands", res.Record.Vendor)
	case <-time.After(5 * time.Second):
		t.Fatal("job result never arrived")
	}

	state, ok = pool.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobDone, state.Status)
	require.NotNil(t, state.Record)

	cancel()
	pool.Wait()
}

func TestPoolRecordsJobFailures(t *testing.T) {
	svc := NewService(&fakeFetcher{err: fetcher.ErrFetchTimeout}, nil, nil)
	q := queue.NewInMemoryQueue()

	results := make(chan *Result, 1)
	pool := NewPool(svc, q, 1, 5*time.Second, func(ctx context.Context, res *Result) {
		results <- res
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	jobID, err := pool.Enqueue("https://fourhands.com/product/1", 0)
	require.NoError(t, err)

	select {
	case res := <-results:
		assert.ErrorIs(t, res.Err, fetcher.ErrFetchTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("job result never arrived")
	}

	state, ok := pool.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobFailed, state.Status)
	assert.NotEmpty(t, state.Error)

	cancel()
	pool.Wait()
}

func TestPoolEvictsOldestFinishedJobStates(t *testing.T) {
	svc := NewService(&fakeFetcher{html: fennChairHTML}, nil, nil)
	pool := NewPool(svc, queue.NewInMemoryQueue(), 1, time.Second, nil)
	pool.maxStates = 2

	first, err := pool.Enqueue("https://fourhands.com/product/1", 0)
	require.NoError(t, err)
	second, err := pool.Enqueue("https://fourhands.com/product/2", 0)
	require.NoError(t, err)

	pool.setStatus(first, JobDone, nil, nil)

	third, err := pool.Enqueue("https://fourhands.com/product/3", 0)
	require.NoError(t, err)

	_, ok := pool.Status(first)
	assert.False(t, ok, "oldest finished job falls out of the tracker")

	for _, id := range []string{second, third} {
		_, ok := pool.Status(id)
		assert.True(t, ok)
	}
}

func TestPoolNeverEvictsUnfinishedJobs(t *testing.T) {
	svc := NewService(&fakeFetcher{html: fennChairHTML}, nil, nil)
	pool := NewPool(svc, queue.NewInMemoryQueue(), 1, time.Second, nil)
	pool.maxStates = 1

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := pool.Enqueue("https://fourhands.com/product/1", 0)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// All three are still queued; pressure alone must not drop them.
	for _, id := range ids {
		state, ok := pool.Status(id)
		require.True(t, ok)
		assert.Equal(t, JobQueued, state.Status)
	}
}

func TestScrapeIsIdempotent(t *testing.T) {
	svc := NewService(&fakeFetcher{html: fennChairHTML}, nil, nil)

	first, err := svc.Scrape(context.Background(), "https://fourhands.com/product/248067-003")
	require.NoError(t, err)
	second, err := svc.Scrape(context.Background(), "https://fourhands.com/product/248067-003")
	require.NoError(t, err)

	assert.Equal(t, *first.Name, *second.Name)
	assert.Equal(t, *first.SKU, *second.SKU)
	assert.Equal(t, first.Price.Amount, second.Price.Amount)
	assert.Equal(t, first.Confidence, second.Confidence)
}
