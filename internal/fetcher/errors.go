package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL means the input failed validation; no network call was made.
	ErrInvalidURL = errors.New("invalid url")

	// ErrFetchTimeout means the hard wall-clock limit elapsed before the
	// page settled.
	ErrFetchTimeout = errors.New("fetch timeout")

	// ErrAntiBotBlocked covers 403/429 responses and challenge pages.
	// Callers should cool down instead of retrying immediately.
	ErrAntiBotBlocked = errors.New("blocked by anti-bot protection")

	// ErrNetwork covers transport-level failures (DNS, connection reset).
	ErrNetwork = errors.New("network error")
)

// HTTPError is a non-2xx response that is not an anti-bot signal.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d fetching %s", e.Status, e.URL)
}
