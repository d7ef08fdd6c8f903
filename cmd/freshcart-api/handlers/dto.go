// Package handlers provides HTTP handlers for the FreshCart API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
	"github.com/freshcart/freshcart/internal/suggest"
	"github.com/freshcart/freshcart/internal/voice"
)

// ProductDTO represents a catalog product on the wire.
type ProductDTO struct {
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

// AppliedDiscountDTO represents the winning discount for a product.
type AppliedDiscountDTO struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	SavedAmount float64 `json:"savedAmount"`
}

// PricedProductDTO represents a product with its effective price.
type PricedProductDTO struct {
	Product    ProductDTO          `json:"product"`
	FinalPrice float64             `json:"finalPrice"`
	Discount   *AppliedDiscountDTO `json:"discount,omitempty"`
}

// CartItemDTO represents one cart line.
type CartItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes,omitempty"`
}

// CartDTO represents a shopper's cart.
type CartDTO struct {
	UserID    string        `json:"userId"`
	Revision  int64         `json:"revision"`
	Items     []CartItemDTO `json:"items"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ComparisonDTO relates a substitute's price to the original product.
type ComparisonDTO struct {
	PriceDifference      float64 `json:"priceDifference"`
	PercentageDifference float64 `json:"percentageDifference"`
	Cheaper              bool    `json:"cheaper"`
}

// SubstituteDTO is one ranked substitute suggestion.
type SubstituteDTO struct {
	Product    PricedProductDTO `json:"product"`
	Comparison ComparisonDTO    `json:"comparison"`
}

// HistoryItemDTO is a previously purchased product with its purchase count.
type HistoryItemDTO struct {
	Product        PricedProductDTO `json:"product"`
	TimesPurchased int              `json:"timesPurchased"`
}

// ParsedCommandDTO is the structured form of an utterance.
type ParsedCommandDTO struct {
	Intent   string `json:"intent"`
	Product  string `json:"product,omitempty"`
	Quantity int    `json:"quantity"`
	Brand    string `json:"brand,omitempty"`
	RawText  string `json:"rawText"`
}

// ErrorDTO is the uniform error body.
type ErrorDTO struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toProductDTO(p *storage.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		BasePrice:   p.BasePrice,
		Unit:        p.Unit,
		SKU:         p.SKU,
		Stock:       p.Stock,
		CategoryID:  p.CategoryID.String(),
		Tags:        p.Tags,
		ImageURL:    p.ImageURL,
		IsSeasonal:  p.IsSeasonal,
	}
	for _, s := range p.Substitutes {
		dto.Substitutes = append(dto.Substitutes, s.String())
	}
	return dto
}

func toPricedDTO(pp *pricing.PricedProduct) PricedProductDTO {
	dto := PricedProductDTO{
		Product:    toProductDTO(pp.Product),
		FinalPrice: pp.FinalPrice,
	}
	if pp.Discount != nil {
		dto.Discount = &AppliedDiscountDTO{
			Name:        pp.Discount.Name,
			Type:        string(pp.Discount.Type),
			Value:       pp.Discount.Value,
			SavedAmount: pp.Discount.SavedAmount,
		}
	}
	return dto
}

func toPricedDTOs(priced []*pricing.PricedProduct) []PricedProductDTO {
	dtos := make([]PricedProductDTO, 0, len(priced))
	for _, pp := range priced {
		dtos = append(dtos, toPricedDTO(pp))
	}
	return dtos
}

func toCartDTO(c *storage.Cart) CartDTO {
	dto := CartDTO{
		UserID:    c.UserID,
		Revision:  c.Revision,
		Items:     make([]CartItemDTO, 0, len(c.Items)),
		UpdatedAt: c.UpdatedAt,
	}
	for _, item := range c.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID: item.ProductID.String(),
			Name:      item.NameSnapshot,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			Notes:     item.Notes,
		})
	}
	return dto
}

func toSubstituteDTOs(subs []suggest.Substitute) []SubstituteDTO {
	dtos := make([]SubstituteDTO, 0, len(subs))
	for _, s := range subs {
		dtos = append(dtos, SubstituteDTO{
			Product: toPricedDTO(s.Priced),
			Comparison: ComparisonDTO{
				PriceDifference:      s.Comparison.PriceDifference,
				PercentageDifference: s.Comparison.PercentageDifference,
				Cheaper:              s.Comparison.Cheaper,
			},
		})
	}
	return dtos
}

func toParsedDTO(p voice.ParsedCommand) ParsedCommandDTO {
	return ParsedCommandDTO{
		Intent:   string(p.Intent),
		Product:  p.Product,
		Quantity: p.Quantity,
		Brand:    p.Brand,
		RawText:  p.RawText,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorDTO{Error: message, Details: details})
}
