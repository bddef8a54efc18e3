package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisePNG encodes a PNG full of deterministic noise. Noise defeats PNG
// filtering, so even small test images clear the byte-size floor.
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func serveBytes(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMaterializeResizesOversizedImages(t *testing.T) {
	srv := serveBytes(t, "image/png", noisePNG(t, 1600, 900))
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL+"/hero.png")
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, 1200, img.Width, "longest side bounded to the max dimension")
	assert.Equal(t, 675, img.Height, "aspect ratio preserved")
	assert.Equal(t, srv.URL+"/hero.png", img.SourceURL)

	raw, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	decoded, format, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 1200, decoded.Bounds().Dx())
}

func TestMaterializeKeepsInBoundImagesUnscaled(t *testing.T) {
	srv := serveBytes(t, "image/png", noisePNG(t, 400, 300))
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 400, img.Width)
	assert.Equal(t, 300, img.Height)
}

func TestMaterializeRejectsTinyPixelDimensions(t *testing.T) {
	opts := DefaultOptions()
	opts.MinBytes = 1
	srv := serveBytes(t, "image/png", noisePNG(t, 20, 20))
	m := NewMaterializer(opts)

	img, err := m.Materialize(context.Background(), srv.URL)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestMaterializeRejectsUndersizedPayloads(t *testing.T) {
	srv := serveBytes(t, "image/png", []byte("tiny"))
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestMaterializeRejectsUnsupportedContentTypes(t *testing.T) {
	srv := serveBytes(t, "text/html; charset=utf-8", []byte("<html>not an image</html>"))
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestMaterializeRejectsUndecodableBodies(t *testing.T) {
	garbage := make([]byte, 4096)
	rand.New(rand.NewSource(7)).Read(garbage)
	srv := serveBytes(t, "image/jpeg", garbage)
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL)
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestMaterializeRejectsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), srv.URL+"/gone.jpg")
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}

func TestMaterializeRejectsUnreachableHosts(t *testing.T) {
	m := NewMaterializer(DefaultOptions())

	img, err := m.Materialize(context.Background(), "http://127.0.0.1:1/nope.jpg")
	assert.Nil(t, img)
	assert.ErrorIs(t, err, ErrImageUnavailable)
}
