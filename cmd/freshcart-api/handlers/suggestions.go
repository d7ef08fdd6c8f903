package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshcart/freshcart/cmd/freshcart-api/middleware"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
	"github.com/freshcart/freshcart/internal/suggest"
)

// SuggestionHandler handles suggestion requests.
type SuggestionHandler struct {
	logger  *observability.Logger
	service *suggest.Service
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(logger *observability.Logger, service *suggest.Service) *SuggestionHandler {
	return &SuggestionHandler{logger: logger, service: service}
}

// SubstitutesResponseDTO pairs the original priced product with its ranked
// substitutes.
type SubstitutesResponseDTO struct {
	Original    PricedProductDTO `json:"original"`
	Substitutes []SubstituteDTO  `json:"substitutes"`
}

// Substitutes handles GET /suggestions/substitutes/{productId}.
func (h *SuggestionHandler) Substitutes(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id", err.Error())
		return
	}

	original, subs, err := h.service.Substitutes(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("substitute lookup failed")
		writeError(w, http.StatusInternalServerError, "substitute lookup failed", "")
		return
	}

	writeJSON(w, http.StatusOK, SubstitutesResponseDTO{
		Original:    toPricedDTO(original),
		Substitutes: toSubstituteDTOs(subs),
	})
}

// History handles GET /suggestions/history.
func (h *SuggestionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserFromContext(r.Context())

	items, err := h.service.History(r.Context(), userID, limitParam(r))
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("history lookup failed")
		writeError(w, http.StatusInternalServerError, "history lookup failed", "")
		return
	}

	dtos := make([]HistoryItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, HistoryItemDTO{
			Product:        toPricedDTO(item.Priced),
			TimesPurchased: item.TimesPurchased,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Deals handles GET /suggestions/deals.
func (h *SuggestionHandler) Deals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.service.Deals(r.Context(), limitParam(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("deals lookup failed")
		writeError(w, http.StatusInternalServerError, "deals lookup failed", "")
		return
	}
	writeJSON(w, http.StatusOK, toPricedDTOs(deals))
}

func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
