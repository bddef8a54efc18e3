package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/finchdev/ffe-scraper/internal/models"
)

// ErrImageUnavailable is returned for any materialization failure. A
// missing image never blocks the rest of the record; callers log it and
// move on.
var ErrImageUnavailable = errors.New("image unavailable")

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Options struct {
	DownloadTimeout time.Duration
	MinBytes        int
	MinPixels       int
	MaxDimension    int
	JPEGQuality     int
}

func DefaultOptions() Options {
	return Options{
		DownloadTimeout: 15 * time.Second,
		MinBytes:        1024,
		MinPixels:       80,
		MaxDimension:    1200,
		JPEGQuality:     80,
	}
}

// Materializer downloads an image, validates it against tracking-pixel
// thresholds, bounds its size, and re-encodes it into a self-contained
// payload so the record keeps rendering after the vendor URL dies.
type Materializer struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
}

func NewMaterializer(opts Options) *Materializer {
	if opts.DownloadTimeout == 0 {
		opts.DownloadTimeout = 15 * time.Second
	}
	if opts.MaxDimension == 0 {
		opts.MaxDimension = 1200
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = 80
	}

	return &Materializer{
		client: &http.Client{Timeout: opts.DownloadTimeout},
		opts:   opts,
		logger: slog.Default().With("component", "images"),
	}
}

// Materialize downloads and re-encodes the image at imageURL. Every
// failure path wraps ErrImageUnavailable.
func (m *Materializer) Materialize(ctx context.Context, imageURL string) (*models.EncodedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.DownloadTimeout)
	defer cancel()

	raw, contentType, err := m.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	if len(raw) < m.opts.MinBytes {
		return nil, fmt.Errorf("%w: %d bytes below minimum", ErrImageUnavailable, len(raw))
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable payload (%s): %v", ErrImageUnavailable, contentType, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < m.opts.MinPixels || bounds.Dy() < m.opts.MinPixels {
		// 1x1 tracking pixels and broken-image placeholders land here.
		return nil, fmt.Errorf("%w: %dx%d below pixel threshold", ErrImageUnavailable, bounds.Dx(), bounds.Dy())
	}

	img = m.bound(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: re-encode failed: %v", ErrImageUnavailable, err)
	}

	final := img.Bounds()
	return &models.EncodedImage{
		MimeType:  "image/jpeg",
		Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		SourceURL: imageURL,
		Width:     final.Dx(),
		Height:    final.Dy(),
	}, nil
}

func (m *Materializer) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: status %d", ErrImageUnavailable, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if base, _, found := strings.Cut(contentType, ";"); found {
		contentType = base
	}
	contentType = strings.TrimSpace(contentType)
	if contentType != "" && !supportedTypes[contentType] {
		return nil, "", fmt.Errorf("%w: unsupported type %s", ErrImageUnavailable, contentType)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}

	return raw, contentType, nil
}

// bound scales the image down so its longest side fits MaxDimension.
// Images already inside the bound pass through untouched.
func (m *Materializer) bound(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= m.opts.MaxDimension {
		return img
	}

	scale := float64(m.opts.MaxDimension) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
