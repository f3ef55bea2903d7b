package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/duartefn/worten-price-scraper/internal/jobs"
	"github.com/duartefn/worten-price-scraper/internal/models"
	"github.com/duartefn/worten-price-scraper/internal/spreadsheet"
)

// ProductStore is the persistence surface the handlers need.
type ProductStore interface {
	List(ctx context.Context) ([]*models.Product, error)
	GetByOriginalID(ctx context.Context, originalID string) (*models.Product, error)
	FilterByOriginalIDs(ctx context.Context, ids []string) ([]*models.Product, error)
	UpsertImported(ctx context.Context, p *models.Product) error
	ImportProducts(ctx context.Context, products []*models.Product) (int, error)
	ApplyScrapeResult(ctx context.Context, originalID string, result *models.ScrapeResult) error
	Delete(ctx context.Context, originalID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// BatchRunner scrapes a set of products and reports counts.
type BatchRunner interface {
	Run(ctx context.Context, products []*models.Product, limit int, delay time.Duration) jobs.Summary
}

// ProductSearcher looks a single product up on Worten.
type ProductSearcher interface {
	Search(ctx context.Context, productName, barcode string) *models.ScrapeResult
}

type Handlers struct {
	store      ProductStore
	runner     BatchRunner
	searcher   ProductSearcher
	inputPath  string
	outputPath string
	logger     *slog.Logger
}

func NewHandlers(store ProductStore, runner BatchRunner, searcher ProductSearcher, inputPath, outputPath string, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:      store,
		runner:     runner,
		searcher:   searcher,
		inputPath:  inputPath,
		outputPath: outputPath,
		logger:     logger.With("component", "api"),
	}
}

// Routes mounts every product endpoint on a fresh router. Middleware is the
// caller's business.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Post("/import", h.ImportProducts)
		r.Get("/download", h.DownloadProducts)
		r.Post("/scrape", h.ScrapeBatch)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
			r.Post("/scrape", h.ScrapeProduct)
		})
	})

	return r
}

// ProductRequest is the create/update payload.
type ProductRequest struct {
	OriginalID   string `json:"original_id"`
	EAN          string `json:"ean"`
	OriginalName string `json:"original_name"`
}

// ScrapeBatchRequest narrows a batch scrape; all fields are optional.
type ScrapeBatchRequest struct {
	ProductIDs []string `json:"product_ids"`
	Limit      int      `json:"limit"`
	DelayMs    int      `json:"delay_ms"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "error",
			"error":  "database unreachable",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"products": count,
	})
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []*models.Product{}
	}

	h.respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OriginalID == "" || req.OriginalName == "" {
		h.respondError(w, http.StatusBadRequest, "original_id and original_name are required")
		return
	}

	product := &models.Product{
		OriginalID:   req.OriginalID,
		EAN:          req.EAN,
		OriginalName: req.OriginalName,
	}
	if err := h.store.UpsertImported(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "original_id", req.OriginalID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.exportSpreadsheet(r.Context())
	h.respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.store.GetByOriginalID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.store.GetByOriginalID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if existing == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OriginalName == "" {
		h.respondError(w, http.StatusBadRequest, "original_name is required")
		return
	}

	product := &models.Product{
		OriginalID:   id,
		EAN:          req.EAN,
		OriginalName: req.OriginalName,
	}
	if err := h.store.UpsertImported(r.Context(), product); err != nil {
		h.logger.Error("failed to update product", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	h.exportSpreadsheet(r.Context())
	h.respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete product", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	if !deleted {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	h.exportSpreadsheet(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ImportProducts re-reads the configured input spreadsheet and upserts every
// row in a single transaction.
func (h *Handlers) ImportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := spreadsheet.ReadProducts(h.inputPath)
	if err != nil {
		h.logger.Error("failed to read input spreadsheet", "path", h.inputPath, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to read input spreadsheet")
		return
	}

	imported, err := h.store.ImportProducts(r.Context(), products)
	if err != nil {
		h.logger.Error("failed to import products", "path", h.inputPath, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to import products")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int{"imported": imported, "rows": len(products)})
}

// DownloadProducts regenerates the output spreadsheet and serves it.
func (h *Handlers) DownloadProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	written, err := spreadsheet.WriteProducts(h.outputPath, products)
	if err != nil {
		h.logger.Error("failed to write output spreadsheet", "path", h.outputPath, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(written)+`"`)
	http.ServeFile(w, r, written)
}

// ScrapeBatch scrapes every product, or the subset named in the optional
// request body. The summary is returned even when some products failed.
func (h *Handlers) ScrapeBatch(w http.ResponseWriter, r *http.Request) {
	var req ScrapeBatchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var products []*models.Product
	var err error
	if len(req.ProductIDs) > 0 {
		products, err = h.store.FilterByOriginalIDs(r.Context(), req.ProductIDs)
	} else {
		products, err = h.store.List(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to load products for scraping", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	summary := h.runner.Run(r.Context(), products, req.Limit, time.Duration(req.DelayMs)*time.Millisecond)

	h.exportSpreadsheet(r.Context())
	h.respondJSON(w, http.StatusOK, summary)
}

// ScrapeProduct scrapes one product immediately.
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.store.GetByOriginalID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	result := h.searcher.Search(r.Context(), product.OriginalName, product.EAN)
	if err := h.store.ApplyScrapeResult(r.Context(), id, result); err != nil {
		h.logger.Error("failed to persist result", "original_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to persist result")
		return
	}

	h.exportSpreadsheet(r.Context())
	h.respondJSON(w, http.StatusOK, result)
}

// exportSpreadsheet refreshes the output file after a mutation. Failures are
// logged, never surfaced; the database remains the source of truth.
func (h *Handlers) exportSpreadsheet(ctx context.Context) {
	if h.outputPath == "" {
		return
	}

	products, err := h.store.List(ctx)
	if err != nil {
		h.logger.Warn("spreadsheet export skipped", "error", err)
		return
	}
	if _, err := spreadsheet.WriteProducts(h.outputPath, products); err != nil {
		h.logger.Warn("spreadsheet export failed", "path", h.outputPath, "error", err)
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
