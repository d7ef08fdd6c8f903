package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
	"github.com/freshcart/freshcart/internal/voice"
)

// brokenResolver simulates a store outage during resolution.
type brokenResolver struct{}

func (brokenResolver) Resolve(context.Context, string, string) (*storage.Product, error) {
	return nil, errors.New("pq: connection refused")
}

func (brokenResolver) Search(context.Context, string, string) ([]*storage.Product, error) {
	return nil, errors.New("pq: connection refused")
}

type noopCarts struct{}

func (noopCarts) GetCart(context.Context, string) (*storage.Cart, error) {
	return &storage.Cart{}, nil
}

func (noopCarts) AppendOrIncrement(context.Context, string, storage.CartItem) (*storage.Cart, error) {
	return &storage.Cart{}, nil
}

func (noopCarts) DecrementOrRemove(context.Context, string, uuid.UUID, int) (*storage.Cart, error) {
	return &storage.Cart{}, nil
}

func (noopCarts) Clear(context.Context, string) (int, error) { return 0, nil }

type noopPricer struct{}

func (noopPricer) PriceAll(context.Context, []*storage.Product) []*pricing.PricedProduct {
	return nil
}

func TestVoiceCommand_StoreFailureHidesDetail(t *testing.T) {
	logger := observability.DefaultLogger()
	dispatcher := voice.NewDispatcher(brokenResolver{}, noopCarts{}, noopPricer{}, logger, voice.DispatcherConfig{})
	handler := NewVoiceHandler(logger, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/voice/command",
		strings.NewReader(`{"text": "add milk"}`))
	rec := httptest.NewRecorder()
	handler.Command(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "command execution failed", body.Error)

	// The driver error is logged, never surfaced to the caller.
	assert.Empty(t, body.Details)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestVoiceCommand_EmptyTextIsBadRequest(t *testing.T) {
	logger := observability.DefaultLogger()
	dispatcher := voice.NewDispatcher(brokenResolver{}, noopCarts{}, noopPricer{}, logger, voice.DispatcherConfig{})
	handler := NewVoiceHandler(logger, dispatcher)

	req := httptest.NewRequest(http.MethodPost, "/api/voice/command",
		strings.NewReader(`{"text": "  "}`))
	rec := httptest.NewRecorder()
	handler.Command(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
