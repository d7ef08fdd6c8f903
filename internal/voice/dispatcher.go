package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/freshcart/freshcart/internal/catalog"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
)

// ErrEmptyCommand marks a request with no command text at all. It is the
// only dispatcher outcome reported as a client error; everything the parser
// recognizes comes back as a Result.
var ErrEmptyCommand = errors.New("command text is required")

// CartStore is the cart access the dispatcher needs.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*storage.Cart, error)
	AppendOrIncrement(ctx context.Context, userID string, item storage.CartItem) (*storage.Cart, error)
	DecrementOrRemove(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*storage.Cart, error)
	Clear(ctx context.Context, userID string) (int, error)
}

// ProductResolver matches product phrases against the catalog.
type ProductResolver interface {
	Resolve(ctx context.Context, phrase, brandHint string) (*storage.Product, error)
	Search(ctx context.Context, phrase, brandHint string) ([]*storage.Product, error)
}

// Pricer prices search results.
type Pricer interface {
	PriceAll(ctx context.Context, products []*storage.Product) []*pricing.PricedProduct
}

// Result is the uniform outcome envelope for every dispatched command.
// Success false with a populated Message means the command was understood
// but could not be fulfilled; such outcomes are ordinary values, not errors.
type Result struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message"`
	Parsed       ParsedCommand            `json:"parsed"`
	Action       string                   `json:"action"`
	Product      *storage.Product         `json:"product,omitempty"`
	Cart         *storage.Cart            `json:"cart,omitempty"`
	Products     []*pricing.PricedProduct `json:"products,omitempty"`
	Suggestions  []string                 `json:"suggestions,omitempty"`
	ItemsCleared int                      `json:"itemsCleared,omitempty"`
}

// usageSuggestions is returned verbatim for unrecognized commands.
var usageSuggestions = []string{
	"Add [quantity] [product name]",
	"Remove [product name]",
	"Clear shopping list",
	"Find [product name]",
	"Show my shopping list",
}

// DispatcherConfig bounds command execution.
type DispatcherConfig struct {
	MaxQuantity int
}

// Dispatcher parses utterances and executes them against the cart and
// catalog.
type Dispatcher struct {
	parser   *Parser
	resolver ProductResolver
	carts    CartStore
	pricer   Pricer
	logger   *observability.Logger
	cfg      DispatcherConfig
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(resolver ProductResolver, carts CartStore, pricer Pricer, logger *observability.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 100
	}
	return &Dispatcher{
		parser:   NewParser(),
		resolver: resolver,
		carts:    carts,
		pricer:   pricer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Execute runs one voice command for a user. Infrastructure failures are the
// only returned errors; every recognized-but-unfulfillable command yields a
// Result with Success false.
func (d *Dispatcher) Execute(ctx context.Context, userID, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCommand
	}

	parsed := d.parser.Parse(text)
	d.logger.Debug().
		Str("userId", userID).
		Str("intent", string(parsed.Intent)).
		Str("product", parsed.Product).
		Int("quantity", parsed.Quantity).
		Msg("command parsed")

	switch parsed.Intent {
	case IntentAdd:
		return d.executeAdd(ctx, userID, parsed)
	case IntentRemove:
		return d.executeRemove(ctx, userID, parsed)
	case IntentClear:
		return d.executeClear(ctx, userID, parsed)
	case IntentSearch:
		return d.executeSearch(ctx, parsed)
	case IntentView:
		return d.executeView(ctx, userID, parsed)
	default:
		return &Result{
			Success:     false,
			Message:     "Sorry, I didn't understand that command. Try one of these:",
			Parsed:      parsed,
			Action:      "none",
			Suggestions: usageSuggestions,
		}, nil
	}
}

func (d *Dispatcher) executeAdd(ctx context.Context, userID string, parsed ParsedCommand) (*Result, error) {
	if parsed.Quantity > d.cfg.MaxQuantity {
		return &Result{
			Success: false,
			Message: fmt.Sprintf("Quantities above %d aren't supported.", d.cfg.MaxQuantity),
			Parsed:  parsed,
			Action:  "none",
		}, nil
	}

	product, res, err := d.resolveProduct(ctx, parsed, parsed.Brand)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}

	cart, err := d.carts.AppendOrIncrement(ctx, userID, storage.CartItem{
		ProductID:    product.ID,
		NameSnapshot: product.Name,
		Quantity:     parsed.Quantity,
		Unit:         product.Unit,
		Notes:        parsed.RawText,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "add to cart")
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Added %d x %s to your shopping list.", parsed.Quantity, product.Name),
		Parsed:  parsed,
		Action:  "added",
		Product: product,
		Cart:    cart,
	}, nil
}

func (d *Dispatcher) executeRemove(ctx context.Context, userID string, parsed ParsedCommand) (*Result, error) {
	// No brand hint here: "from my list" extracts a bogus hint ("my") that
	// would filter out the product being removed.
	product, res, err := d.resolveProduct(ctx, parsed, "")
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}

	cart, err := d.carts.DecrementOrRemove(ctx, userID, product.ID, parsed.Quantity)
	if errors.Is(err, storage.ErrNotFound) {
		return &Result{
			Success: false,
			Message: fmt.Sprintf("%s is not in your shopping list.", product.Name),
			Parsed:  parsed,
			Action:  "none",
			Product: product,
		}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "remove from cart")
	}

	message := fmt.Sprintf("Removed %s from your shopping list.", product.Name)
	for _, item := range cart.Items {
		if item.ProductID == product.ID {
			message = fmt.Sprintf("Reduced %s to %d in your shopping list.", product.Name, item.Quantity)
			break
		}
	}

	return &Result{
		Success: true,
		Message: message,
		Parsed:  parsed,
		Action:  "removed",
		Product: product,
		Cart:    cart,
	}, nil
}

func (d *Dispatcher) executeClear(ctx context.Context, userID string, parsed ParsedCommand) (*Result, error) {
	cleared, err := d.carts.Clear(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "clear cart")
	}

	return &Result{
		Success:      true,
		Message:      fmt.Sprintf("Cleared %d items from your shopping list.", cleared),
		Parsed:       parsed,
		Action:       "cleared",
		ItemsCleared: cleared,
	}, nil
}

func (d *Dispatcher) executeSearch(ctx context.Context, parsed ParsedCommand) (*Result, error) {
	matches, err := d.resolver.Search(ctx, parsed.Product, parsed.Brand)
	switch {
	case errors.Is(err, catalog.ErrEntityMissing):
		return d.entityMissing(parsed), nil
	case errors.Is(err, catalog.ErrNoMatch):
		return &Result{
			Success: false,
			Message: fmt.Sprintf("No products found matching \"%s\".", parsed.Product),
			Parsed:  parsed,
			Action:  "none",
		}, nil
	case err != nil:
		return nil, pkgerrors.Wrap(err, "search products")
	}

	return &Result{
		Success:  true,
		Message:  fmt.Sprintf("Found %d products matching \"%s\".", len(matches), parsed.Product),
		Parsed:   parsed,
		Action:   "found",
		Products: d.pricer.PriceAll(ctx, matches),
	}, nil
}

func (d *Dispatcher) executeView(ctx context.Context, userID string, parsed ParsedCommand) (*Result, error) {
	cart, err := d.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load cart")
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Your shopping list has %d items.", len(cart.Items)),
		Parsed:  parsed,
		Action:  "viewed",
		Cart:    cart,
	}, nil
}

// resolveProduct maps resolution failures to unfulfillable Results. A nil
// Result with a nil error means the product was found.
func (d *Dispatcher) resolveProduct(ctx context.Context, parsed ParsedCommand, brandHint string) (*storage.Product, *Result, error) {
	product, err := d.resolver.Resolve(ctx, parsed.Product, brandHint)
	switch {
	case errors.Is(err, catalog.ErrEntityMissing):
		return nil, d.entityMissing(parsed), nil
	case errors.Is(err, catalog.ErrNoMatch):
		return nil, &Result{
			Success: false,
			Message: fmt.Sprintf("I couldn't find \"%s\" in the catalog.", parsed.Product),
			Parsed:  parsed,
			Action:  "none",
		}, nil
	case err != nil:
		return nil, nil, pkgerrors.Wrap(err, "resolve product")
	}
	return product, nil, nil
}

func (d *Dispatcher) entityMissing(parsed ParsedCommand) *Result {
	return &Result{
		Success: false,
		Message: "I couldn't tell which product you meant. Try naming it, like \"add milk\".",
		Parsed:  parsed,
		Action:  "none",
	}
}
