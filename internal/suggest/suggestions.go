// Package suggest produces shopping suggestions: cheaper substitutes,
// purchase history, and current deals.
package suggest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
)

// CatalogStore is the catalog access suggestions need.
type CatalogStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*storage.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*storage.Product, error)
	ListDeals(ctx context.Context, productIDs, categoryIDs []uuid.UUID, limit int) ([]*storage.Product, error)
}

// OrderStore reads past purchases.
type OrderStore interface {
	ListByUser(ctx context.Context, userID string) ([]*storage.Order, error)
}

// DiscountStore lists currently active discounts.
type DiscountStore interface {
	FindAllActive(ctx context.Context, now time.Time) ([]*storage.Discount, error)
}

// Pricer computes effective prices.
type Pricer interface {
	Price(ctx context.Context, p *storage.Product) *pricing.PricedProduct
	PriceAll(ctx context.Context, products []*storage.Product) []*pricing.PricedProduct
}

// Comparison relates a substitute's effective price to the original
// product's base price.
type Comparison struct {
	PriceDifference      float64 `json:"priceDifference"`
	PercentageDifference float64 `json:"percentageDifference"`
	Cheaper              bool    `json:"cheaper"`
}

// Substitute is one ranked substitute suggestion.
type Substitute struct {
	Priced     *pricing.PricedProduct `json:"product"`
	Comparison Comparison             `json:"comparison"`
}

// HistoryItem is a previously purchased product with its purchase count.
type HistoryItem struct {
	Priced         *pricing.PricedProduct `json:"product"`
	TimesPurchased int                    `json:"timesPurchased"`
}

// Service assembles suggestions from catalog, orders and pricing.
type Service struct {
	catalog   CatalogStore
	orders    OrderStore
	discounts DiscountStore
	pricer    Pricer
	logger    *observability.Logger
	now       func() time.Time
}

// NewService creates a suggestion service.
func NewService(catalog CatalogStore, orders OrderStore, discounts DiscountStore, pricer Pricer, logger *observability.Logger) *Service {
	return &Service{
		catalog:   catalog,
		orders:    orders,
		discounts: discounts,
		pricer:    pricer,
		logger:    logger,
		now:       time.Now,
	}
}

// Substitutes returns the priced original product and its substitutes ranked
// by effective price, cheapest first. Links are read as stored; nothing is
// recomputed here.
func (s *Service) Substitutes(ctx context.Context, productID uuid.UUID) (*pricing.PricedProduct, []Substitute, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	original := s.pricer.Price(ctx, product)

	linked, err := s.catalog.FindByIDs(ctx, product.Substitutes)
	if err != nil {
		return nil, nil, err
	}

	priced := s.pricer.PriceAll(ctx, linked)
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].FinalPrice < priced[j].FinalPrice
	})

	subs := make([]Substitute, 0, len(priced))
	for _, pp := range priced {
		subs = append(subs, Substitute{
			Priced:     pp,
			Comparison: compare(product.BasePrice, pp.FinalPrice),
		})
	}
	return original, subs, nil
}

// History returns the user's most frequently purchased products, priced at
// current rates. Equal purchase counts keep order recency.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 10
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts := map[uuid.UUID]int{}
	var order []uuid.UUID
	for _, o := range orders {
		for _, item := range o.Items {
			if counts[item.ProductID] == 0 {
				order = append(order, item.ProductID)
			}
			counts[item.ProductID] += item.Quantity
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	products, err := s.catalog.FindByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := map[uuid.UUID]*pricing.PricedProduct{}
	for _, pp := range s.pricer.PriceAll(ctx, products) {
		byID[pp.Product.ID] = pp
	}

	items := make([]HistoryItem, 0, len(order))
	for _, id := range order {
		pp, ok := byID[id]
		if !ok {
			continue
		}
		items = append(items, HistoryItem{Priced: pp, TimesPurchased: counts[id]})
	}
	return items, nil
}

// Deals returns discounted and seasonal products ranked by amount saved,
// largest first.
func (s *Service) Deals(ctx context.Context, limit int) ([]*pricing.PricedProduct, error) {
	if limit <= 0 {
		limit = 20
	}

	active, err := s.discounts.FindAllActive(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var productIDs, categoryIDs []uuid.UUID
	for _, d := range active {
		switch d.AppliesTo {
		case storage.DiscountScopeProduct:
			productIDs = append(productIDs, d.Targets...)
		case storage.DiscountScopeCategory:
			categoryIDs = append(categoryIDs, d.Targets...)
		}
	}

	candidates, err := s.catalog.ListDeals(ctx, productIDs, categoryIDs, limit)
	if err != nil {
		return nil, err
	}

	priced := s.pricer.PriceAll(ctx, candidates)
	deals := priced[:0]
	for _, pp := range priced {
		if pp.Discount != nil || pp.Product.IsSeasonal {
			deals = append(deals, pp)
		}
	}
	sort.SliceStable(deals, func(i, j int) bool {
		return savedAmount(deals[i]) > savedAmount(deals[j])
	})
	return deals, nil
}

func savedAmount(pp *pricing.PricedProduct) float64 {
	if pp.Discount == nil {
		return 0
	}
	return pp.Discount.SavedAmount
}

func compare(basePrice, finalPrice float64) Comparison {
	diff := round2(basePrice - finalPrice)
	var pct float64
	if basePrice > 0 {
		pct = round2(diff / basePrice * 100)
	}
	return Comparison{
		PriceDifference:      diff,
		PercentageDifference: pct,
		Cheaper:              finalPrice < basePrice,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
