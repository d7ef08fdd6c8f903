package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/storage"
)

// ErrValidation marks rejected input. Callers report it as a client error.
var ErrValidation = fmt.Errorf("invalid input")

// ProductInput carries the writable fields of a product. The category is
// named, not referenced: unknown names create the category on the fly.
type ProductInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Brand       string      `json:"brand"`
	BasePrice   float64     `json:"basePrice"`
	Unit        string      `json:"unit"`
	SKU         string      `json:"sku"`
	Stock       int         `json:"stock"`
	Category    string      `json:"category"`
	Tags        []string    `json:"tags"`
	ImageURL    string      `json:"imageUrl"`
	IsSeasonal  bool        `json:"isSeasonal"`
	Substitutes []uuid.UUID `json:"substitutes"`
}

// Service handles product lifecycle: creation with category resolution and
// substitute linking, and updates without re-linking.
type Service struct {
	catalog    *storage.CatalogRepository
	categories *storage.CategoryRepository
	linker     *Linker
	logger     *observability.Logger
}

// NewService creates a catalog service.
func NewService(catalog *storage.CatalogRepository, categories *storage.CategoryRepository, linker *Linker, logger *observability.Logger) *Service {
	return &Service{
		catalog:    catalog,
		categories: categories,
		linker:     linker,
		logger:     logger,
	}
}

// CreateProduct creates a product. Explicitly supplied substitutes must
// exist; beyond those, similar products are discovered and linked
// automatically.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*storage.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	category, err := s.categories.FindOrCreateByName(ctx, input.Category)
	if err != nil {
		return nil, errors.Wrap(err, "resolve category")
	}

	if len(input.Substitutes) > 0 {
		found, err := s.catalog.FindByIDs(ctx, input.Substitutes)
		if err != nil {
			return nil, errors.Wrap(err, "validate substitutes")
		}
		if len(found) != len(input.Substitutes) {
			return nil, fmt.Errorf("%w: unknown substitute product", ErrValidation)
		}
	}

	product := &storage.Product{
		Name:        input.Name,
		Description: input.Description,
		Brand:       input.Brand,
		BasePrice:   input.BasePrice,
		Unit:        defaultUnit(input.Unit),
		SKU:         input.SKU,
		Stock:       input.Stock,
		CategoryID:  category.ID,
		Tags:        input.Tags,
		ImageURL:    input.ImageURL,
		IsSeasonal:  input.IsSeasonal,
		Substitutes: input.Substitutes,
	}
	if err := s.catalog.Create(ctx, product); err != nil {
		return nil, errors.Wrap(err, "create product")
	}

	linked, err := s.linker.Link(ctx, product)
	if err != nil {
		// The product exists; a partial link set is acceptable.
		s.logger.Warn().
			Str("productId", product.ID.String()).
			Err(err).
			Msg("substitute linking incomplete")
	}
	product.Substitutes = append(product.Substitutes, linked...)

	s.logger.Info().
		Str("productId", product.ID.String()).
		Str("name", product.Name).
		Int("substitutes", len(product.Substitutes)).
		Msg("product created")
	return product, nil
}

// UpdateProduct modifies a product's fields. Substitute links stay as they
// were written at creation.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*storage.Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category, err := s.categories.FindOrCreateByName(ctx, input.Category)
	if err != nil {
		return nil, errors.Wrap(err, "resolve category")
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Brand = input.Brand
	product.BasePrice = input.BasePrice
	product.Unit = defaultUnit(input.Unit)
	product.SKU = input.SKU
	product.Stock = input.Stock
	product.CategoryID = category.ID
	product.Tags = input.Tags
	product.ImageURL = input.ImageURL
	product.IsSeasonal = input.IsSeasonal

	if err := s.catalog.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*storage.Product, error) {
	return s.catalog.FindByID(ctx, id)
}

func validateInput(input ProductInput) error {
	if input.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Category == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if input.BasePrice < 0 {
		return fmt.Errorf("%w: base price cannot be negative", ErrValidation)
	}
	return nil
}

func defaultUnit(unit string) string {
	if unit == "" {
		return "each"
	}
	return unit
}
