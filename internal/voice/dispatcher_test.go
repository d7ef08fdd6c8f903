package voice

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/catalog"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
)

// fakeResolver resolves against a fixed product list by substring match in
// either direction, so plural phrases still hit singular names.
type fakeResolver struct {
	products []*storage.Product
}

func fuzzyMatches(name, phrase string) bool {
	name = strings.ToLower(name)
	phrase = strings.ToLower(phrase)
	return strings.Contains(name, phrase) || strings.Contains(phrase, name)
}

func brandMatches(p *storage.Product, brandHint string) bool {
	return brandHint == "" || strings.Contains(strings.ToLower(p.Brand), strings.ToLower(brandHint))
}

func (f *fakeResolver) Resolve(_ context.Context, phrase, brandHint string) (*storage.Product, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, catalog.ErrEntityMissing
	}
	for _, p := range f.products {
		if fuzzyMatches(p.Name, phrase) && brandMatches(p, brandHint) {
			return p, nil
		}
	}
	return nil, catalog.ErrNoMatch
}

func (f *fakeResolver) Search(_ context.Context, phrase, brandHint string) ([]*storage.Product, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, catalog.ErrEntityMissing
	}
	var matches []*storage.Product
	for _, p := range f.products {
		if fuzzyMatches(p.Name, phrase) && brandMatches(p, brandHint) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return nil, catalog.ErrNoMatch
	}
	return matches, nil
}

// fakeCartStore keeps carts in memory keyed by user.
type fakeCartStore struct {
	carts map[string]*storage.Cart
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]*storage.Cart{}}
}

func (f *fakeCartStore) cart(userID string) *storage.Cart {
	if c, ok := f.carts[userID]; ok {
		return c
	}
	c := &storage.Cart{UserID: userID}
	f.carts[userID] = c
	return c
}

func (f *fakeCartStore) GetCart(_ context.Context, userID string) (*storage.Cart, error) {
	return f.cart(userID), nil
}

func (f *fakeCartStore) AppendOrIncrement(_ context.Context, userID string, item storage.CartItem) (*storage.Cart, error) {
	c := f.cart(userID)
	c.Revision++
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			c.Items[i].Notes = item.Notes
			return c, nil
		}
	}
	c.Items = append(c.Items, item)
	return c, nil
}

func (f *fakeCartStore) DecrementOrRemove(_ context.Context, userID string, productID uuid.UUID, quantity int) (*storage.Cart, error) {
	c := f.cart(userID)
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		c.Revision++
		if quantity < c.Items[i].Quantity {
			c.Items[i].Quantity -= quantity
		} else {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return c, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeCartStore) Clear(_ context.Context, userID string) (int, error) {
	c := f.cart(userID)
	n := len(c.Items)
	c.Items = nil
	c.Revision++
	return n, nil
}

// fakePricer returns base prices unchanged.
type fakePricer struct{}

func (fakePricer) PriceAll(_ context.Context, products []*storage.Product) []*pricing.PricedProduct {
	priced := make([]*pricing.PricedProduct, len(products))
	for i, p := range products {
		priced[i] = &pricing.PricedProduct{Product: p, FinalPrice: p.BasePrice}
	}
	return priced
}

func testProduct(name string, price float64) *storage.Product {
	return &storage.Product{
		ID:        uuid.New(),
		Name:      name,
		BasePrice: price,
		Unit:      "each",
	}
}

func newTestDispatcher(products ...*storage.Product) (*Dispatcher, *fakeCartStore) {
	carts := newFakeCartStore()
	d := NewDispatcher(
		&fakeResolver{products: products},
		carts,
		fakePricer{},
		observability.DefaultLogger(),
		DispatcherConfig{MaxQuantity: 100},
	)
	return d, carts
}

func TestDispatcher_AddCommand(t *testing.T) {
	apple := testProduct("Apple", 0.89)
	d, _ := newTestDispatcher(apple)

	result, err := d.Execute(context.Background(), "u1", "add 2 apples to my list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "added", result.Action)
	assert.Equal(t, IntentAdd, result.Parsed.Intent)
	require.NotNil(t, result.Cart)
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, apple.ID, result.Cart.Items[0].ProductID)
	assert.Equal(t, 2, result.Cart.Items[0].Quantity)
	assert.Equal(t, "add 2 apples to my list", result.Cart.Items[0].Notes)
}

func TestDispatcher_AddMergesQuantities(t *testing.T) {
	apple := testProduct("Apple", 0.89)
	d, _ := newTestDispatcher(apple)
	ctx := context.Background()

	_, err := d.Execute(ctx, "u1", "add 2 apples")
	require.NoError(t, err)
	result, err := d.Execute(ctx, "u1", "add 3 apples")
	require.NoError(t, err)

	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 5, result.Cart.Items[0].Quantity)
}

func TestDispatcher_RemovePartial(t *testing.T) {
	milk := testProduct("Whole Milk", 3.49)
	d, carts := newTestDispatcher(milk)
	ctx := context.Background()

	_, err := d.Execute(ctx, "u1", "add 3 milk")
	require.NoError(t, err)

	result, err := d.Execute(ctx, "u1", "remove milk from my list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "removed", result.Action)
	assert.Contains(t, result.Message, "Reduced")
	cart := carts.cart("u1")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestDispatcher_RemoveWholeLine(t *testing.T) {
	milk := testProduct("Whole Milk", 3.49)
	d, carts := newTestDispatcher(milk)
	ctx := context.Background()

	_, err := d.Execute(ctx, "u1", "add milk")
	require.NoError(t, err)

	result, err := d.Execute(ctx, "u1", "remove milk from my list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Removed")
	assert.Empty(t, carts.cart("u1").Items)
}

func TestDispatcher_RemoveIgnoresSpuriousBrandHint(t *testing.T) {
	milk := testProduct("Whole Milk", 3.49)
	milk.Brand = "FarmFresh"
	d, carts := newTestDispatcher(milk)
	ctx := context.Background()

	_, err := d.Execute(ctx, "u1", "add milk")
	require.NoError(t, err)

	// "from my list" extracts brand "my"; removal must still resolve.
	result, err := d.Execute(ctx, "u1", "remove milk from my list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, carts.cart("u1").Items)
}

func TestDispatcher_AddBrandHintFilters(t *testing.T) {
	store := testProduct("Corn Flakes", 3.19)
	store.Brand = "Store Brand"
	kellogg := testProduct("Corn Flakes", 4.29)
	kellogg.Brand = "Kellogg"
	d, carts := newTestDispatcher(store, kellogg)

	result, err := d.Execute(context.Background(), "u1", "add corn flakes brand kellogg")
	require.NoError(t, err)

	assert.True(t, result.Success)
	cart := carts.cart("u1")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, kellogg.ID, cart.Items[0].ProductID)
}

func TestDispatcher_RemoveNotInCart(t *testing.T) {
	milk := testProduct("Whole Milk", 3.49)
	d, _ := newTestDispatcher(milk)

	result, err := d.Execute(context.Background(), "u1", "remove milk from my list")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "not in your shopping list")
}

func TestDispatcher_ClearReportsCount(t *testing.T) {
	products := []*storage.Product{
		testProduct("Apple", 0.89),
		testProduct("Bread", 2.49),
		testProduct("Cheese", 4.99),
		testProduct("Milk", 3.49),
	}
	d, _ := newTestDispatcher(products...)
	ctx := context.Background()

	for _, p := range products {
		_, err := d.Execute(ctx, "u1", "add "+strings.ToLower(p.Name))
		require.NoError(t, err)
	}

	result, err := d.Execute(ctx, "u1", "clear my shopping list")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "cleared", result.Action)
	assert.Equal(t, 4, result.ItemsCleared)

	view, err := d.Execute(ctx, "u1", "view my list")
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
}

func TestDispatcher_SearchReturnsPricedMatches(t *testing.T) {
	d, _ := newTestDispatcher(
		testProduct("Organic Banana", 0.59),
		testProduct("Banana Bread", 5.99),
		testProduct("Apple", 0.89),
	)

	result, err := d.Execute(context.Background(), "u1", "find banana")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "found", result.Action)
	assert.Len(t, result.Products, 2)
}

func TestDispatcher_NoMatchIsNotAnError(t *testing.T) {
	d, _ := newTestDispatcher(testProduct("Apple", 0.89))

	result, err := d.Execute(context.Background(), "u1", "add dragonfruit")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "dragonfruit")
	assert.Equal(t, "none", result.Action)
}

func TestDispatcher_MissingProductPhrase(t *testing.T) {
	d, _ := newTestDispatcher(testProduct("Apple", 0.89))

	result, err := d.Execute(context.Background(), "u1", "add some to the list")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "which product")
}

func TestDispatcher_QuantityAboveCapRejected(t *testing.T) {
	d, carts := newTestDispatcher(testProduct("Apple", 0.89))

	result, err := d.Execute(context.Background(), "u1", "add 500 apples")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "100")
	assert.Empty(t, carts.cart("u1").Items)
}

func TestDispatcher_UnknownCommandSuggestsUsage(t *testing.T) {
	d, _ := newTestDispatcher()

	result, err := d.Execute(context.Background(), "u1", "abracadabra")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, IntentUnknown, result.Parsed.Intent)
	assert.Equal(t, usageSuggestions, result.Suggestions)
}

func TestDispatcher_EmptyTextIsClientError(t *testing.T) {
	d, _ := newTestDispatcher()

	_, err := d.Execute(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, ErrEmptyCommand)
}
