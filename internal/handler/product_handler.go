package handler

import (
	"net/http"

	"catalog-engine/internal/model"
	"catalog-engine/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles the catalogue write endpoints.
type ProductHandler struct {
	writer service.ProductWriter
	logger zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(writer service.ProductWriter, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		writer: writer,
		logger: logger.With().Str("handler", "product").Logger(),
	}
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

type stockRequest struct {
	Delta int `json:"delta"`
}

// Create handles POST /api/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	p, err := h.writer.Create(r.Context(), &in)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	p, err := h.writer.Update(r.Context(), r.PathValue("id"), &in)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// SetAvailability handles PATCH /api/products/{id}/availability requests.
func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.IsAvailable == nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "isAvailable is required", h.logger)
		return
	}

	p, err := h.writer.SetAvailability(r.Context(), r.PathValue("id"), *req.IsAvailable)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.writer.SoftDelete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdjustStock handles POST /api/products/{id}/stock requests.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Delta == 0 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "delta must not be zero", h.logger)
		return
	}

	p, err := h.writer.AdjustStock(r.Context(), r.PathValue("id"), req.Delta)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
