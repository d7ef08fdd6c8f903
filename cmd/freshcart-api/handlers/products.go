package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/catalog"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
)

// ProductHandler handles product catalog requests.
type ProductHandler struct {
	logger   *observability.Logger
	service  *catalog.Service
	resolver *catalog.Resolver
	pricer   *pricing.Resolver
}

// NewProductHandler creates a new product handler.
func NewProductHandler(logger *observability.Logger, service *catalog.Service, resolver *catalog.Resolver, pricer *pricing.Resolver) *ProductHandler {
	return &ProductHandler{
		logger:   logger,
		service:  service,
		resolver: resolver,
		pricer:   pricer,
	}
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if errors.Is(err, catalog.ErrValidation) {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("product creation failed")
		writeError(w, http.StatusInternalServerError, "product creation failed", "")
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(product))
}

// Update handles PUT /products/{productId}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	var input catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, input)
	switch {
	case errors.Is(err, catalog.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("product update failed")
		writeError(w, http.StatusInternalServerError, "product update failed", "")
		return
	}

	h.pricer.Invalidate(r.Context(), id)
	writeJSON(w, http.StatusOK, toProductDTO(product))
}

// Get handles GET /products/{productId}, returning the product at its
// effective price.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("product lookup failed")
		writeError(w, http.StatusInternalServerError, "product lookup failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toPricedDTO(h.pricer.Price(r.Context(), product)))
}

// Search handles GET /products?q=, returning priced fuzzy matches.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	phrase := r.URL.Query().Get("q")
	brand := r.URL.Query().Get("brand")

	matches, err := h.resolver.Search(r.Context(), phrase, brand)
	switch {
	case errors.Is(err, catalog.ErrEntityMissing):
		writeError(w, http.StatusBadRequest, "q is required", "")
		return
	case errors.Is(err, catalog.ErrNoMatch):
		writeJSON(w, http.StatusOK, []PricedProductDTO{})
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("product search failed")
		writeError(w, http.StatusInternalServerError, "product search failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toPricedDTOs(h.pricer.PriceAll(r.Context(), matches)))
}
