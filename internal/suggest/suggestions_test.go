package suggest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
)

type fakeCatalog struct {
	products map[uuid.UUID]*storage.Product
	deals    []*storage.Product
}

func (f *fakeCatalog) FindByID(_ context.Context, id uuid.UUID) (*storage.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*storage.Product, error) {
	var out []*storage.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListDeals(_ context.Context, _, _ []uuid.UUID, _ int) ([]*storage.Product, error) {
	return f.deals, nil
}

type fakeOrders struct {
	orders []*storage.Order
}

func (f *fakeOrders) ListByUser(_ context.Context, _ string) ([]*storage.Order, error) {
	return f.orders, nil
}

type fakeDiscounts struct {
	active []*storage.Discount
}

func (f *fakeDiscounts) FindAllActive(_ context.Context, _ time.Time) ([]*storage.Discount, error) {
	return f.active, nil
}

// fakePricer discounts products listed in off by the given amount.
type fakePricer struct {
	off map[uuid.UUID]float64
}

func (f *fakePricer) Price(_ context.Context, p *storage.Product) *pricing.PricedProduct {
	pp := &pricing.PricedProduct{Product: p, FinalPrice: p.BasePrice}
	if saved, ok := f.off[p.ID]; ok {
		pp.FinalPrice = p.BasePrice - saved
		pp.Discount = &pricing.AppliedDiscount{Name: "Deal", SavedAmount: saved}
	}
	return pp
}

func (f *fakePricer) PriceAll(ctx context.Context, products []*storage.Product) []*pricing.PricedProduct {
	out := make([]*pricing.PricedProduct, len(products))
	for i, p := range products {
		out[i] = f.Price(ctx, p)
	}
	return out
}

func catalogProduct(name string, price float64, substitutes ...uuid.UUID) *storage.Product {
	return &storage.Product{ID: uuid.New(), Name: name, BasePrice: price, Substitutes: substitutes}
}

func TestService_SubstitutesRankedByPrice(t *testing.T) {
	cheap := catalogProduct("Store Milk", 2.99)
	mid := catalogProduct("Oat Milk", 3.99)
	original := catalogProduct("Organic Milk", 4.49, mid.ID, cheap.ID)

	cat := &fakeCatalog{products: map[uuid.UUID]*storage.Product{
		cheap.ID: cheap, mid.ID: mid, original.ID: original,
	}}
	svc := NewService(cat, &fakeOrders{}, &fakeDiscounts{}, &fakePricer{}, observability.DefaultLogger())

	priced, subs, err := svc.Substitutes(context.Background(), original.ID)
	require.NoError(t, err)

	assert.Equal(t, original.ID, priced.Product.ID)
	require.Len(t, subs, 2)
	assert.Equal(t, cheap.ID, subs[0].Priced.Product.ID)
	assert.Equal(t, mid.ID, subs[1].Priced.Product.ID)

	assert.Equal(t, 1.50, subs[0].Comparison.PriceDifference)
	assert.InDelta(t, 33.41, subs[0].Comparison.PercentageDifference, 0.01)
	assert.True(t, subs[0].Comparison.Cheaper)
}

func TestService_SubstitutesUnknownProduct(t *testing.T) {
	svc := NewService(&fakeCatalog{products: map[uuid.UUID]*storage.Product{}}, &fakeOrders{}, &fakeDiscounts{}, &fakePricer{}, observability.DefaultLogger())

	_, _, err := svc.Substitutes(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_HistoryRankedByFrequency(t *testing.T) {
	milk := catalogProduct("Milk", 3.49)
	bread := catalogProduct("Bread", 2.49)

	orders := []*storage.Order{
		{Items: []storage.OrderItem{{ProductID: bread.ID, Quantity: 1}}},
		{Items: []storage.OrderItem{
			{ProductID: milk.ID, Quantity: 2},
			{ProductID: bread.ID, Quantity: 1},
		}},
		{Items: []storage.OrderItem{{ProductID: milk.ID, Quantity: 3}}},
	}
	cat := &fakeCatalog{products: map[uuid.UUID]*storage.Product{milk.ID: milk, bread.ID: bread}}
	svc := NewService(cat, &fakeOrders{orders: orders}, &fakeDiscounts{}, &fakePricer{}, observability.DefaultLogger())

	items, err := svc.History(context.Background(), "u1", 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, milk.ID, items[0].Priced.Product.ID)
	assert.Equal(t, 5, items[0].TimesPurchased)
	assert.Equal(t, 2, items[1].TimesPurchased)
}

func TestService_HistoryRespectsLimit(t *testing.T) {
	products := map[uuid.UUID]*storage.Product{}
	var items []storage.OrderItem
	for range [5]struct{}{} {
		p := catalogProduct("Item", 1.00)
		products[p.ID] = p
		items = append(items, storage.OrderItem{ProductID: p.ID, Quantity: 1})
	}
	svc := NewService(
		&fakeCatalog{products: products},
		&fakeOrders{orders: []*storage.Order{{Items: items}}},
		&fakeDiscounts{}, &fakePricer{}, observability.DefaultLogger(),
	)

	got, err := svc.History(context.Background(), "u1", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestService_DealsRankedBySavings(t *testing.T) {
	small := catalogProduct("Small Deal", 5.00)
	big := catalogProduct("Big Deal", 20.00)
	seasonal := catalogProduct("Pumpkin", 3.00)
	seasonal.IsSeasonal = true
	plain := catalogProduct("Plain", 1.00)

	cat := &fakeCatalog{deals: []*storage.Product{small, plain, seasonal, big}}
	pricer := &fakePricer{off: map[uuid.UUID]float64{
		small.ID: 0.50,
		big.ID:   4.00,
	}}
	svc := NewService(cat, &fakeOrders{}, &fakeDiscounts{}, pricer, observability.DefaultLogger())

	deals, err := svc.Deals(context.Background(), 10)
	require.NoError(t, err)

	// Plain has no discount and is not seasonal, so it drops out.
	require.Len(t, deals, 3)
	assert.Equal(t, big.ID, deals[0].Product.ID)
	assert.Equal(t, small.ID, deals[1].Product.ID)
	assert.Equal(t, seasonal.ID, deals[2].Product.ID)
}
