package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finchdev/ffe-scraper/internal/cache"
	"github.com/finchdev/ffe-scraper/internal/fetcher"
	"github.com/finchdev/ffe-scraper/internal/models"
	"github.com/finchdev/ffe-scraper/internal/scraper"
	"github.com/finchdev/ffe-scraper/internal/store"
)

type Handlers struct {
	scraper *scraper.Service
	pool    *scraper.Pool
	cache   *cache.RecordCache
	db      *store.DB
	logger  *slog.Logger
}

func NewHandlers(svc *scraper.Service, pool *scraper.Pool, recordCache *cache.RecordCache, db *store.DB, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: svc,
		pool:    pool,
		cache:   recordCache,
		db:      db,
		logger:  logger,
	}
}

// ScrapeRequest asks for one URL to be scraped synchronously.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// ScrapeResponse carries the record; ID is set when persistence is on.
type ScrapeResponse struct {
	ID     string                `json:"id,omitempty"`
	Record *models.ProductRecord `json:"record,omitempty"`
	Cached bool                  `json:"cached,omitempty"`
	Error  string                `json:"error,omitempty"`
	Code   string                `json:"code,omitempty"`
}

// Scrape handles synchronous single-URL scraping. The CRUD frontend calls
// this when a designer pastes a product link into an item.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	if record, ok := h.cache.Get(r.Context(), req.URL); ok {
		h.respondJSON(w, http.StatusOK, ScrapeResponse{Record: record, Cached: true})
		return
	}

	record, err := h.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		status, code := classifyScrapeError(err)
		h.logger.Error("scrape failed", "url", req.URL, "code", code, "error", err)
		h.respondJSON(w, status, ScrapeResponse{Error: err.Error(), Code: code})
		return
	}

	h.cache.Set(r.Context(), req.URL, record)

	resp := ScrapeResponse{Record: record}
	if h.db != nil {
		id, err := h.db.SaveRecord(r.Context(), record)
		if err != nil {
			h.logger.Error("failed to persist record", "url", req.URL, "error", err)
		} else {
			resp.ID = id.String()
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// CreateJobsRequest enqueues a batch of URLs for background scraping.
type CreateJobsRequest struct {
	URLs     []string `json:"urls"`
	Priority int      `json:"priority"`
}

type CreateJobsResponse struct {
	JobIDs []string `json:"job_ids"`
}

func (h *Handlers) CreateJobs(w http.ResponseWriter, r *http.Request) {
	var req CreateJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	jobIDs := make([]string, 0, len(req.URLs))
	for _, url := range req.URLs {
		id, err := h.pool.Enqueue(url, req.Priority)
		if err != nil {
			h.logger.Error("failed to enqueue", "url", url, "error", err)
			h.respondError(w, http.StatusServiceUnavailable, "queue unavailable")
			return
		}
		jobIDs = append(jobIDs, id)
	}

	h.respondJSON(w, http.StatusAccepted, CreateJobsResponse{JobIDs: jobIDs})
}

// GetJob reports the progress of a background job, including its record
// once the scrape finished.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if _, err := uuid.Parse(jobID); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	state, ok := h.pool.Status(jobID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// GetProduct returns a persisted record by storage id.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.respondError(w, http.StatusNotImplemented, "persistence disabled")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.db.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to load product", "id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// GetProductByURL returns the stored record for a source URL, so the CRUD
// layer can check for an existing scrape before submitting a new one.
func (h *Handlers) GetProductByURL(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.respondError(w, http.StatusNotImplemented, "persistence disabled")
		return
	}

	sourceURL := r.URL.Query().Get("source_url")
	if sourceURL == "" {
		h.respondError(w, http.StatusBadRequest, "source_url is required")
		return
	}

	product, err := h.db.GetRecordByURL(r.Context(), sourceURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to load product", "source_url", sourceURL, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

// GetStats returns stored-record counts per vendor.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.respondJSON(w, http.StatusOK, map[string]int{})
		return
	}

	counts, err := h.db.CountByVendor(r.Context())
	if err != nil {
		h.logger.Error("failed to get stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, counts)
}

// classifyScrapeError maps pipeline errors onto HTTP statuses and stable
// machine-readable codes. Anti-bot blocks get their own code so the CRUD
// layer can apply a longer cool-down instead of retrying.
func classifyScrapeError(err error) (int, string) {
	var httpErr *fetcher.HTTPError

	switch {
	case errors.Is(err, fetcher.ErrInvalidURL):
		return http.StatusBadRequest, "invalid_url"
	case errors.Is(err, fetcher.ErrAntiBotBlocked):
		return http.StatusBadGateway, "anti_bot_blocked"
	case errors.Is(err, fetcher.ErrFetchTimeout):
		return http.StatusGatewayTimeout, "fetch_timeout"
	case errors.As(err, &httpErr):
		return http.StatusBadGateway, "http_error"
	case errors.Is(err, fetcher.ErrNetwork):
		return http.StatusBadGateway, "network_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
