package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
)

// DiscountHandler handles discount administration.
type DiscountHandler struct {
	logger    *observability.Logger
	discounts *storage.DiscountRepository
}

// NewDiscountHandler creates a new discount handler.
func NewDiscountHandler(logger *observability.Logger, discounts *storage.DiscountRepository) *DiscountHandler {
	return &DiscountHandler{logger: logger, discounts: discounts}
}

// DiscountRequestDTO represents a discount definition.
type DiscountRequestDTO struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	AppliesTo   string    `json:"appliesTo"`
	Targets     []string  `json:"targets"`
	ValidFrom   time.Time `json:"validFrom"`
	ValidUntil  time.Time `json:"validUntil"`
}

// DiscountDTO represents a stored discount.
type DiscountDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	AppliesTo   string    `json:"appliesTo"`
	Targets     []string  `json:"targets"`
	ValidFrom   time.Time `json:"validFrom"`
	ValidUntil  time.Time `json:"validUntil"`
}

// Create handles POST /discounts.
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "")
		return
	}
	dType := storage.DiscountType(req.Type)
	if dType != storage.DiscountTypePercentage && dType != storage.DiscountTypeFixedAmount {
		writeError(w, http.StatusBadRequest, "type must be percentage or fixed_amount", "")
		return
	}
	scope := storage.DiscountScope(req.AppliesTo)
	if scope != storage.DiscountScopeProduct && scope != storage.DiscountScopeCategory {
		writeError(w, http.StatusBadRequest, "appliesTo must be product or category", "")
		return
	}
	if req.Value <= 0 {
		writeError(w, http.StatusBadRequest, "value must be positive", "")
		return
	}
	if dType == storage.DiscountTypePercentage && req.Value > 100 {
		writeError(w, http.StatusBadRequest, "percentage value cannot exceed 100", "")
		return
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		writeError(w, http.StatusBadRequest, "validUntil must be after validFrom", "")
		return
	}

	targets := make([]uuid.UUID, 0, len(req.Targets))
	for _, raw := range req.Targets {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target id", raw)
			return
		}
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		writeError(w, http.StatusBadRequest, "at least one target is required", "")
		return
	}

	discount := &storage.Discount{
		Name:        req.Name,
		Description: req.Description,
		Type:        dType,
		Value:       req.Value,
		AppliesTo:   scope,
		Targets:     targets,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
	}
	if err := h.discounts.Create(r.Context(), discount); err != nil {
		h.logger.Error().Err(err).Msg("discount creation failed")
		writeError(w, http.StatusInternalServerError, "discount creation failed", "")
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountDTO(discount))
}

// ListActive handles GET /discounts.
func (h *DiscountHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.discounts.FindAllActive(r.Context(), time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("discount listing failed")
		writeError(w, http.StatusInternalServerError, "discount listing failed", "")
		return
	}

	dtos := make([]DiscountDTO, 0, len(active))
	for _, d := range active {
		dtos = append(dtos, toDiscountDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func toDiscountDTO(d *storage.Discount) DiscountDTO {
	dto := DiscountDTO{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		Type:        string(d.Type),
		Value:       d.Value,
		AppliesTo:   string(d.AppliesTo),
		ValidFrom:   d.ValidFrom,
		ValidUntil:  d.ValidUntil,
	}
	for _, t := range d.Targets {
		dto.Targets = append(dto.Targets, t.String())
	}
	return dto
}
