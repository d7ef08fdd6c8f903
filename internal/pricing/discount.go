// Package pricing applies discount rules to catalog products.
package pricing

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/freshcart/freshcart/internal/cache"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
)

// DiscountStore is the discount lookup the resolver needs.
type DiscountStore interface {
	FindActive(ctx context.Context, scope storage.DiscountScope, targetID uuid.UUID, now time.Time) ([]*storage.Discount, error)
}

// AppliedDiscount describes the discount that won for a product.
type AppliedDiscount struct {
	Name        string               `json:"name"`
	Type        storage.DiscountType `json:"type"`
	Value       float64              `json:"value"`
	SavedAmount float64              `json:"savedAmount"`
}

// PricedProduct pairs a product with its effective price. Discount is nil
// when the base price stands.
type PricedProduct struct {
	Product    *storage.Product `json:"product"`
	FinalPrice float64          `json:"finalPrice"`
	Discount   *AppliedDiscount `json:"discount,omitempty"`
}

// Config bounds pricing behavior.
type Config struct {
	CacheResults bool
	CacheTTL     time.Duration
	MaxBatch     int
}

// Resolver computes effective prices. Discount store failures degrade to the
// base price; pricing never fails a read path.
type Resolver struct {
	discounts DiscountStore
	cache     cache.Client
	logger    *observability.Logger
	cfg       Config
	now       func() time.Time
}

// NewResolver creates a pricing resolver. The cache client may be nil.
func NewResolver(discounts DiscountStore, cacheClient cache.Client, logger *observability.Logger, cfg Config) *Resolver {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 8
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &Resolver{
		discounts: discounts,
		cache:     cacheClient,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Price returns the effective price for a product. The lowest candidate
// price wins; among equals the earlier discount in enumeration order keeps
// the win. Product discounts enumerate before category discounts, each group
// highest value first.
func (r *Resolver) Price(ctx context.Context, p *storage.Product) *PricedProduct {
	if cached := r.fromCache(ctx, p.ID); cached != nil {
		return cached
	}

	now := r.now()
	priced := &PricedProduct{Product: p, FinalPrice: round2(p.BasePrice)}

	for _, d := range r.activeDiscounts(ctx, p, now) {
		candidate := applyDiscount(p.BasePrice, d)
		if candidate < priced.FinalPrice {
			priced.FinalPrice = candidate
			priced.Discount = &AppliedDiscount{
				Name:        d.Name,
				Type:        d.Type,
				Value:       d.Value,
				SavedAmount: round2(p.BasePrice - candidate),
			}
		}
	}

	r.toCache(ctx, p.ID, priced)
	return priced
}

// PriceAll prices products concurrently, preserving input order.
func (r *Resolver) PriceAll(ctx context.Context, products []*storage.Product) []*PricedProduct {
	priced := make([]*PricedProduct, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxBatch)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			priced[i] = r.Price(gctx, p)
			return nil
		})
	}
	// Workers never return errors; pricing degrades instead of failing.
	_ = g.Wait()
	return priced
}

// Invalidate drops a product's cached price.
func (r *Resolver) Invalidate(ctx context.Context, productID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cache.PriceKey(productID.String())); err != nil {
		r.logger.Warn().Err(err).Str("productId", productID.String()).Msg("price cache invalidation failed")
	}
}

// activeDiscounts enumerates product-targeted discounts before
// category-targeted ones. The store orders each group by value descending.
func (r *Resolver) activeDiscounts(ctx context.Context, p *storage.Product, now time.Time) []*storage.Discount {
	var all []*storage.Discount

	byProduct, err := r.discounts.FindActive(ctx, storage.DiscountScopeProduct, p.ID, now)
	if err != nil {
		r.logger.Warn().Err(err).Str("productId", p.ID.String()).Msg("product discount lookup failed")
	} else {
		all = append(all, byProduct...)
	}

	if p.CategoryID != uuid.Nil {
		byCategory, err := r.discounts.FindActive(ctx, storage.DiscountScopeCategory, p.CategoryID, now)
		if err != nil {
			r.logger.Warn().Err(err).Str("productId", p.ID.String()).Msg("category discount lookup failed")
		} else {
			all = append(all, byCategory...)
		}
	}

	active := all[:0]
	for _, d := range all {
		if d.Active(now) {
			active = append(active, d)
		}
	}
	return active
}

func (r *Resolver) fromCache(ctx context.Context, productID uuid.UUID) *PricedProduct {
	if !r.cfg.CacheResults || r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, cache.PriceKey(productID.String()))
	if err != nil {
		return nil
	}
	var priced PricedProduct
	if err := json.Unmarshal(raw, &priced); err != nil {
		return nil
	}
	return &priced
}

func (r *Resolver) toCache(ctx context.Context, productID uuid.UUID, priced *PricedProduct) {
	if !r.cfg.CacheResults || r.cache == nil {
		return
	}
	raw, err := json.Marshal(priced)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cache.PriceKey(productID.String()), raw, r.cfg.CacheTTL); err != nil {
		r.logger.Warn().Err(err).Msg("price cache write failed")
	}
}

// applyDiscount computes the candidate price for one discount, floored at
// zero and rounded to cents.
func applyDiscount(basePrice float64, d *storage.Discount) float64 {
	var price float64
	switch d.Type {
	case storage.DiscountTypePercentage:
		price = basePrice * (1 - d.Value/100)
	case storage.DiscountTypeFixedAmount:
		price = basePrice - d.Value
	default:
		price = basePrice
	}
	if price < 0 {
		price = 0
	}
	return round2(price)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
