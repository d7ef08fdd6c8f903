package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freshcart/freshcart/cmd/freshcart-api/middleware"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/voice"
)

// VoiceHandler handles voice command requests.
type VoiceHandler struct {
	logger     *observability.Logger
	dispatcher *voice.Dispatcher
}

// NewVoiceHandler creates a new voice handler.
func NewVoiceHandler(logger *observability.Logger, dispatcher *voice.Dispatcher) *VoiceHandler {
	return &VoiceHandler{logger: logger, dispatcher: dispatcher}
}

// CommandRequestDTO represents a voice command request.
type CommandRequestDTO struct {
	Text string `json:"text"`
}

// CommandResponseDTO represents the outcome of a voice command. Success
// false with HTTP 200 means the command was understood but not fulfillable.
type CommandResponseDTO struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	Parsed       ParsedCommandDTO   `json:"parsed"`
	Action       string             `json:"action"`
	Product      *ProductDTO        `json:"product,omitempty"`
	Cart         *CartDTO           `json:"cart,omitempty"`
	Products     []PricedProductDTO `json:"products,omitempty"`
	Suggestions  []string           `json:"suggestions,omitempty"`
	ItemsCleared int                `json:"itemsCleared,omitempty"`
}

// Command handles POST /voice/command.
func (h *VoiceHandler) Command(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CommandRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	userID := middleware.UserFromContext(ctx)
	result, err := h.dispatcher.Execute(ctx, userID, req.Text)
	if errors.Is(err, voice.ErrEmptyCommand) {
		writeError(w, http.StatusBadRequest, "text is required", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("userId", userID).Msg("command execution failed")
		writeError(w, http.StatusInternalServerError, "command execution failed", "")
		return
	}

	resp := CommandResponseDTO{
		Success:      result.Success,
		Message:      result.Message,
		Parsed:       toParsedDTO(result.Parsed),
		Action:       result.Action,
		Suggestions:  result.Suggestions,
		ItemsCleared: result.ItemsCleared,
	}
	if result.Product != nil {
		dto := toProductDTO(result.Product)
		resp.Product = &dto
	}
	if result.Cart != nil {
		dto := toCartDTO(result.Cart)
		resp.Cart = &dto
	}
	if result.Products != nil {
		resp.Products = toPricedDTOs(result.Products)
	}

	writeJSON(w, http.StatusOK, resp)
}
