// Package storage provides database models and repositories for FreshCart.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType represents how a discount value is applied.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// DiscountScope represents what a discount targets.
type DiscountScope string

const (
	DiscountScopeProduct  DiscountScope = "product"
	DiscountScopeCategory DiscountScope = "category"
)

// Category represents a product category.
type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Product represents a catalog entry.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Brand       string
	BasePrice   float64
	Unit        string // e.g. "lb", "kg", "gallon", "item"
	SKU         string
	Stock       int
	CategoryID  uuid.UUID
	Tags        []string
	ImageURL    string
	IsSeasonal  bool
	Substitutes []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Discount represents a time-bounded price reduction for products or
// categories.
type Discount struct {
	ID          uuid.UUID
	Name        string
	Description string
	Type        DiscountType
	Value       float64
	AppliesTo   DiscountScope
	Targets     []uuid.UUID
	ValidFrom   time.Time
	ValidUntil  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether the discount is in effect at the given time.
func (d *Discount) Active(now time.Time) bool {
	return !now.Before(d.ValidFrom) && !now.After(d.ValidUntil)
}

// CartItem represents one line of a user's cart.
type CartItem struct {
	ProductID    uuid.UUID
	NameSnapshot string
	Quantity     int
	Unit         string
	Notes        string
}

// Cart represents a user's cart document. Revision is the optimistic
// concurrency token: every mutation bumps it and writers compare-and-swap
// against the value they read.
type Cart struct {
	UserID    string
	Revision  int64
	Items     []CartItem
	UpdatedAt time.Time
}

// OrderItem represents a purchased line on a past order.
type OrderItem struct {
	ProductID       uuid.UUID
	Quantity        int
	PriceAtPurchase float64
}

// Order is the read model for past purchases, consumed by history
// suggestions.
type Order struct {
	ID        uuid.UUID
	UserID    string
	Items     []OrderItem
	CreatedAt time.Time
}
