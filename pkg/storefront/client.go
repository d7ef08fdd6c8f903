// Package storefront provides the public Go SDK for the FreshCart API.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the public SDK client for the FreshCart API.
type Client struct {
	baseURL string
	userID  string
	http    *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	UserID  string
	Timeout time.Duration
}

// NewClient creates a new FreshCart client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		userID:  cfg.UserID,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Product represents a catalog product.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	BasePrice   float64  `json:"basePrice"`
	Unit        string   `json:"unit"`
	SKU         string   `json:"sku,omitempty"`
	Stock       int      `json:"stock"`
	CategoryID  string   `json:"categoryId"`
	Tags        []string `json:"tags,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	IsSeasonal  bool     `json:"isSeasonal"`
	Substitutes []string `json:"substitutes,omitempty"`
}

// AppliedDiscount describes the discount that won for a product.
type AppliedDiscount struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	SavedAmount float64 `json:"savedAmount"`
}

// PricedProduct pairs a product with its effective price.
type PricedProduct struct {
	Product    Product          `json:"product"`
	FinalPrice float64          `json:"finalPrice"`
	Discount   *AppliedDiscount `json:"discount,omitempty"`
}

// CartItem represents one cart line.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes,omitempty"`
}

// Cart represents a shopper's cart.
type Cart struct {
	UserID    string     `json:"userId"`
	Revision  int64      `json:"revision"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ParsedCommand is the structured form of an utterance.
type ParsedCommand struct {
	Intent   string `json:"intent"`
	Product  string `json:"product,omitempty"`
	Quantity int    `json:"quantity"`
	Brand    string `json:"brand,omitempty"`
	RawText  string `json:"rawText"`
}

// CommandResult is the outcome of a voice command. Success false means the
// command was understood but could not be fulfilled.
type CommandResult struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Parsed       ParsedCommand   `json:"parsed"`
	Action       string          `json:"action"`
	Product      *Product        `json:"product,omitempty"`
	Cart         *Cart           `json:"cart,omitempty"`
	Products     []PricedProduct `json:"products,omitempty"`
	Suggestions  []string        `json:"suggestions,omitempty"`
	ItemsCleared int             `json:"itemsCleared,omitempty"`
}

// Comparison relates a substitute's price to the original product.
type Comparison struct {
	PriceDifference      float64 `json:"priceDifference"`
	PercentageDifference float64 `json:"percentageDifference"`
	Cheaper              bool    `json:"cheaper"`
}

// Substitute is one ranked substitute suggestion.
type Substitute struct {
	Product    PricedProduct `json:"product"`
	Comparison Comparison    `json:"comparison"`
}

// SubstitutesResult pairs the priced original with its ranked substitutes.
type SubstitutesResult struct {
	Original    PricedProduct `json:"original"`
	Substitutes []Substitute  `json:"substitutes"`
}

// HistoryItem is a previously purchased product with its purchase count.
type HistoryItem struct {
	Product        PricedProduct `json:"product"`
	TimesPurchased int           `json:"timesPurchased"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// SendCommand runs a voice command.
func (c *Client) SendCommand(ctx context.Context, text string) (*CommandResult, error) {
	var result CommandResult
	err := c.do(ctx, http.MethodPost, "/api/v1/voice/command", map[string]string{"text": text}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCart fetches the current cart.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/api/v1/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem adds a product to the cart directly.
func (c *Client) AddCartItem(ctx context.Context, productID string, quantity int) (*Cart, error) {
	var cart Cart
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	if err := c.do(ctx, http.MethodPost, "/api/v1/cart/items", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// RemoveCartItem removes a product from the cart. Quantity zero deletes the
// whole line.
func (c *Client) RemoveCartItem(ctx context.Context, productID string, quantity int) (*Cart, error) {
	path := "/api/v1/cart/items/" + url.PathEscape(productID)
	if quantity > 0 {
		path += fmt.Sprintf("?quantity=%d", quantity)
	}
	var cart Cart
	if err := c.do(ctx, http.MethodDelete, path, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// ClearCart removes every item from the cart and returns how many lines were
// removed.
func (c *Client) ClearCart(ctx context.Context) (int, error) {
	var resp struct {
		ItemsCleared int `json:"itemsCleared"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/cart", nil, &resp); err != nil {
		return 0, err
	}
	return resp.ItemsCleared, nil
}

// SearchProducts returns priced catalog matches for a query.
func (c *Client) SearchProducts(ctx context.Context, query, brand string) ([]PricedProduct, error) {
	v := url.Values{}
	v.Set("q", query)
	if brand != "" {
		v.Set("brand", brand)
	}
	var products []PricedProduct
	if err := c.do(ctx, http.MethodGet, "/api/v1/products?"+v.Encode(), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a product at its effective price.
func (c *Client) GetProduct(ctx context.Context, productID string) (*PricedProduct, error) {
	var product PricedProduct
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Substitutes fetches ranked substitutes for a product.
func (c *Client) Substitutes(ctx context.Context, productID string) (*SubstitutesResult, error) {
	var result SubstitutesResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/suggestions/substitutes/"+url.PathEscape(productID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches the shopper's most purchased products.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryItem, error) {
	path := "/api/v1/suggestions/history"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var items []HistoryItem
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Deals fetches current deals, biggest savings first.
func (c *Client) Deals(ctx context.Context, limit int) ([]PricedProduct, error) {
	path := "/api/v1/suggestions/deals"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}
	var deals []PricedProduct
	if err := c.do(ctx, http.MethodGet, path, nil, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// Health checks API availability.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Message = errBody.Error
			apiErr.Details = errBody.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
