package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/cache"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
)

// fakeDiscountStore serves discounts keyed by scope and target.
type fakeDiscountStore struct {
	discounts map[storage.DiscountScope]map[uuid.UUID][]*storage.Discount
	err       error
}

func (f *fakeDiscountStore) FindActive(_ context.Context, scope storage.DiscountScope, targetID uuid.UUID, _ time.Time) ([]*storage.Discount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.discounts[scope][targetID], nil
}

func activeWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func discount(name string, dType storage.DiscountType, value float64) *storage.Discount {
	from, until := activeWindow()
	return &storage.Discount{
		ID:         uuid.New(),
		Name:       name,
		Type:       dType,
		Value:      value,
		ValidFrom:  from,
		ValidUntil: until,
	}
}

func pricedProduct(price float64) *storage.Product {
	return &storage.Product{ID: uuid.New(), Name: "Test", BasePrice: price, CategoryID: uuid.New()}
}

func newTestResolver(store *fakeDiscountStore) *Resolver {
	return NewResolver(store, nil, observability.DefaultLogger(), Config{})
}

func storeFor(p *storage.Product, productDiscounts, categoryDiscounts []*storage.Discount) *fakeDiscountStore {
	return &fakeDiscountStore{
		discounts: map[storage.DiscountScope]map[uuid.UUID][]*storage.Discount{
			storage.DiscountScopeProduct:  {p.ID: productDiscounts},
			storage.DiscountScopeCategory: {p.CategoryID: categoryDiscounts},
		},
	}
}

func TestResolver_PercentageDiscount(t *testing.T) {
	p := pricedProduct(3.49)
	r := newTestResolver(storeFor(p, []*storage.Discount{
		discount("Dairy Sale", storage.DiscountTypePercentage, 20),
	}, nil))

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 2.79, priced.FinalPrice)
	require.NotNil(t, priced.Discount)
	assert.Equal(t, "Dairy Sale", priced.Discount.Name)
	assert.Equal(t, 0.70, priced.Discount.SavedAmount)
}

func TestResolver_FixedAmountDiscount(t *testing.T) {
	p := pricedProduct(5.00)
	r := newTestResolver(storeFor(p, []*storage.Discount{
		discount("Dollar Off", storage.DiscountTypeFixedAmount, 1),
	}, nil))

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 4.00, priced.FinalPrice)
	assert.Equal(t, 1.00, priced.Discount.SavedAmount)
}

func TestResolver_PriceFlooredAtZero(t *testing.T) {
	p := pricedProduct(2.00)
	r := newTestResolver(storeFor(p, []*storage.Discount{
		discount("Big Off", storage.DiscountTypeFixedAmount, 5),
	}, nil))

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 0.0, priced.FinalPrice)
	assert.Equal(t, 2.00, priced.Discount.SavedAmount)
}

func TestResolver_LowestCandidateWins(t *testing.T) {
	// Base 100: 20% off yields 80, $5 off yields 95. The 80 candidate wins.
	p := pricedProduct(100)
	r := newTestResolver(storeFor(p,
		[]*storage.Discount{discount("Percent", storage.DiscountTypePercentage, 20)},
		[]*storage.Discount{discount("Fixed", storage.DiscountTypeFixedAmount, 5)},
	))

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 80.0, priced.FinalPrice)
	assert.Equal(t, "Percent", priced.Discount.Name)
}

func TestResolver_TieKeepsEarlierDiscount(t *testing.T) {
	// Both candidates price at 80; the product-scoped discount enumerates
	// first and keeps the win.
	p := pricedProduct(100)
	r := newTestResolver(storeFor(p,
		[]*storage.Discount{discount("Product Deal", storage.DiscountTypePercentage, 20)},
		[]*storage.Discount{discount("Category Deal", storage.DiscountTypeFixedAmount, 20)},
	))

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 80.0, priced.FinalPrice)
	assert.Equal(t, "Product Deal", priced.Discount.Name)
}

func TestResolver_ExpiredDiscountIgnored(t *testing.T) {
	p := pricedProduct(10)
	expired := discount("Old Sale", storage.DiscountTypePercentage, 50)
	expired.ValidFrom = time.Now().Add(-48 * time.Hour)
	expired.ValidUntil = time.Now().Add(-24 * time.Hour)

	r := newTestResolver(storeFor(p, []*storage.Discount{expired}, nil))
	priced := r.Price(context.Background(), p)

	assert.Equal(t, 10.0, priced.FinalPrice)
	assert.Nil(t, priced.Discount)
}

func TestResolver_StoreFailureDegradesToBasePrice(t *testing.T) {
	p := pricedProduct(7.50)
	r := newTestResolver(&fakeDiscountStore{err: errors.New("connection refused")})

	priced := r.Price(context.Background(), p)

	assert.Equal(t, 7.50, priced.FinalPrice)
	assert.Nil(t, priced.Discount)
}

func TestResolver_PriceAllPreservesOrder(t *testing.T) {
	products := []*storage.Product{
		pricedProduct(1.00),
		pricedProduct(2.00),
		pricedProduct(3.00),
	}
	r := newTestResolver(&fakeDiscountStore{})

	priced := r.PriceAll(context.Background(), products)

	require.Len(t, priced, 3)
	for i, pp := range priced {
		assert.Equal(t, products[i].ID, pp.Product.ID)
	}
}

func TestResolver_CachesPricedResults(t *testing.T) {
	p := pricedProduct(100)
	store := storeFor(p, []*storage.Discount{
		discount("Sale", storage.DiscountTypePercentage, 10),
	}, nil)

	memCache := cache.NewMemoryClient(100)
	defer memCache.Close()

	r := NewResolver(store, memCache, observability.DefaultLogger(), Config{
		CacheResults: true,
		CacheTTL:     time.Minute,
	})

	first := r.Price(context.Background(), p)
	assert.Equal(t, 90.0, first.FinalPrice)

	// A second read with a failing store comes from the cache.
	store.err = errors.New("down")
	second := r.Price(context.Background(), p)
	assert.Equal(t, 90.0, second.FinalPrice)
	require.NotNil(t, second.Discount)
	assert.Equal(t, "Sale", second.Discount.Name)
}
