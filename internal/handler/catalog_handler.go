package handler

import (
	"errors"
	"net/http"

	"catalog-engine/internal/model"
	"catalog-engine/internal/service"

	"github.com/rs/zerolog"
)

// CatalogHandler serves the read side of the catalogue.
type CatalogHandler struct {
	service     service.CatalogService
	searchLimit int
	logger      zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler. searchLimit is the number
// of search results returned when the client does not ask for a limit.
func NewCatalogHandler(service service.CatalogService, searchLimit int, logger zerolog.Logger) *CatalogHandler {
	if searchLimit <= 0 {
		searchLimit = model.DefaultLimit
	}
	return &CatalogHandler{
		service:     service,
		searchLimit: searchLimit,
		logger:      logger.With().Str("handler", "catalog").Logger(),
	}
}

// ShopProducts handles GET /api/shops/{shopId}/products.
func (h *CatalogHandler) ShopProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQueryFilter(r.URL.Query())
	if err != nil {
		h.writeBadRequest(w, r, err)
		return
	}

	page, err := h.service.FindByShopID(r.Context(), r.PathValue("shopId"), filter)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Products handles GET /api/products, the feed across every open shop.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQueryFilter(r.URL.Query())
	if err != nil {
		h.writeBadRequest(w, r, err)
		return
	}

	page, err := h.service.SearchGlobal(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Search handles GET /api/search?q=...
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts, err := parseSearchOptions(query, h.searchLimit)
	if err != nil {
		h.writeBadRequest(w, r, err)
		return
	}

	page, err := h.service.Search(r.Context(), query.Get("q"), opts)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	var pErr *paramError
	if errors.As(err, &pErr) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, pErr.Error(), h.logger)
		return
	}
	writeServiceError(w, r, err, h.logger)
}
