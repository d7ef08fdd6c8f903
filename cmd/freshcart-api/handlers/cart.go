package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshcart/freshcart/cmd/freshcart-api/middleware"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
)

// CartHandler handles direct cart manipulation.
type CartHandler struct {
	logger  *observability.Logger
	carts   *storage.CartRepository
	catalog *storage.CatalogRepository
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(logger *observability.Logger, carts *storage.CartRepository, catalog *storage.CatalogRepository) *CartHandler {
	return &CartHandler{logger: logger, carts: carts, catalog: catalog}
}

// AddItemRequestDTO represents a direct cart add.
type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// Get handles GET /cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())

	cart, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("cart load failed")
		writeError(w, http.StatusInternalServerError, "cart load failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserFromContext(ctx)

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid productId", err.Error())
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	product, err := h.catalog.FindByID(ctx, productID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("product lookup failed")
		writeError(w, http.StatusInternalServerError, "product lookup failed", "")
		return
	}

	cart, err := h.carts.AppendOrIncrement(ctx, userID, storage.CartItem{
		ProductID:    product.ID,
		NameSnapshot: product.Name,
		Quantity:     req.Quantity,
		Unit:         product.Unit,
		Notes:        req.Notes,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("cart add failed")
		writeError(w, http.StatusInternalServerError, "cart add failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

// RemoveItem handles DELETE /cart/items/{productId}. An optional quantity
// query parameter reduces the line instead of deleting it outright.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserFromContext(ctx)

	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid productId", err.Error())
		return
	}

	quantity := 0
	if q := r.URL.Query().Get("quantity"); q != "" {
		quantity, err = strconv.Atoi(q)
		if err != nil || quantity < 0 {
			writeError(w, http.StatusBadRequest, "invalid quantity", "")
			return
		}
	}
	if quantity == 0 {
		// Delete the whole line regardless of its current quantity.
		quantity = int(^uint(0) >> 1)
	}

	cart, err := h.carts.DecrementOrRemove(ctx, userID, productID, quantity)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not in cart", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("cart remove failed")
		writeError(w, http.StatusInternalServerError, "cart remove failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(cart))
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())

	cleared, err := h.carts.Clear(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("cart clear failed")
		writeError(w, http.StatusInternalServerError, "cart clear failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"itemsCleared": cleared})
}
