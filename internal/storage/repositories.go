package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxDB is a DB that can also open transactions. *sql.DB satisfies it.
type TxDB interface {
	DB
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// CategoryRepository handles category operations.
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByID retrieves a category by ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories WHERE id = $1
	`
	cat := &Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return cat, err
}

// FindOrCreateByName retrieves a category by name, case-insensitively,
// creating it when absent.
func (r *CategoryRepository) FindOrCreateByName(ctx context.Context, name string) (*Category, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM categories WHERE LOWER(name) = LOWER($1)
	`
	cat := &Category{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&cat.ID, &cat.Name, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	cat = &Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	insert := `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, insert, cat.ID, cat.Name, cat.CreatedAt, cat.UpdatedAt); err != nil {
		return nil, err
	}
	return cat, nil
}

// CatalogRepository handles product catalog operations.
type CatalogRepository struct {
	db TxDB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db TxDB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const productColumns = `
	p.id, p.name, p.description, p.brand, p.base_price, p.unit, p.sku,
	p.stock, p.category_id, p.image_url, p.is_seasonal, p.created_at, p.updated_at
`

func scanProduct(scan func(dest ...interface{}) error) (*Product, error) {
	p := &Product{}
	err := scan(
		&p.ID, &p.Name, &p.Description, &p.Brand, &p.BasePrice, &p.Unit, &p.SKU,
		&p.Stock, &p.CategoryID, &p.ImageURL, &p.IsSeasonal, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts a product along with its tags and substitute links. The
// substitute links are written in both directions inside one transaction.
func (r *CatalogRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO products (id, name, description, brand, base_price, unit, sku,
			stock, category_id, image_url, is_seasonal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := tx.ExecContext(ctx, insert,
		p.ID, p.Name, p.Description, p.Brand, p.BasePrice, p.Unit, p.SKU,
		p.Stock, p.CategoryID, p.ImageURL, p.IsSeasonal, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return err
	}

	for _, tag := range p.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_tags (product_id, tag) VALUES ($1, $2)`,
			p.ID, tag,
		); err != nil {
			return err
		}
	}

	for _, sub := range p.Substitutes {
		if err := insertSubstituteLink(ctx, tx, p.ID, sub); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update modifies the mutable fields of a product. Substitute links are
// deliberately not touched: linking happens once at creation.
func (r *CatalogRepository) Update(ctx context.Context, p *Product) error {
	p.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE products SET
			name = $1, description = $2, brand = $3, base_price = $4, unit = $5,
			sku = $6, stock = $7, category_id = $8, image_url = $9,
			is_seasonal = $10, updated_at = $11
		WHERE id = $12
	`
	result, err := tx.ExecContext(ctx, query,
		p.Name, p.Description, p.Brand, p.BasePrice, p.Unit,
		p.SKU, p.Stock, p.CategoryID, p.ImageURL,
		p.IsSeasonal, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for _, tag := range p.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_tags (product_id, tag) VALUES ($1, $2)`,
			p.ID, tag,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindByID retrieves a product by ID with tags and substitute links loaded.
func (r *CatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, []*Product{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByIDs retrieves products by IDs. Missing IDs are skipped silently.
func (r *CatalogRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + productColumns + ` FROM products p WHERE p.id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY p.name`

	return r.queryProducts(ctx, query, args...)
}

// FindByNamePattern returns catalog candidates for fuzzy resolution: products
// whose name contains the phrase or any of the individual words. A brand hint
// narrows the set to products whose brand contains it. Results come back in
// name order, capped at limit.
func (r *CatalogRepository) FindByNamePattern(ctx context.Context, phrase string, words []string, brand string, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 10
	}

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if phrase != "" {
		conds = append(conds, fmt.Sprintf(`LOWER(p.name) LIKE %s ESCAPE '\'`, arg(likePattern(phrase))))
	}
	for _, w := range words {
		conds = append(conds, fmt.Sprintf(`LOWER(p.name) LIKE %s ESCAPE '\'`, arg(likePattern(w))))
	}
	if len(conds) == 0 {
		return nil, nil
	}

	where := `(` + strings.Join(conds, " OR ") + `)`
	if brand != "" {
		where += fmt.Sprintf(` AND LOWER(p.brand) LIKE %s ESCAPE '\'`, arg(likePattern(brand)))
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE ` + where +
		fmt.Sprintf(" ORDER BY p.name LIMIT %s", arg(limit))

	return r.queryProducts(ctx, query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lowercase containment pattern with LIKE metacharacters
// escaped, to pair with ESCAPE '\'.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// FindSimilar returns IDs of products related to the given attributes: name
// token overlap, same brand, same category, or tag intersection. Used by the
// substitute linker at creation time.
func (r *CatalogRepository) FindSimilar(ctx context.Context, nameWords []string, brand string, categoryID uuid.UUID, tags []string, excludeID uuid.UUID) ([]uuid.UUID, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, w := range nameWords {
		conds = append(conds, fmt.Sprintf(`LOWER(p.name) LIKE %s ESCAPE '\'`, arg(likePattern(w))))
	}
	if brand != "" {
		conds = append(conds, fmt.Sprintf("LOWER(p.brand) = %s", arg(strings.ToLower(brand))))
	}
	if categoryID != uuid.Nil {
		conds = append(conds, fmt.Sprintf("p.category_id = %s", arg(categoryID)))
	}
	if len(tags) > 0 {
		placeholders := make([]string, len(tags))
		for i, t := range tags {
			placeholders[i] = arg(t)
		}
		conds = append(conds, `p.id IN (SELECT product_id FROM product_tags WHERE tag IN (`+
			strings.Join(placeholders, ", ")+`))`)
	}
	if len(conds) == 0 {
		return nil, nil
	}

	query := `SELECT p.id FROM products p WHERE (` + strings.Join(conds, " OR ") + `)`
	if excludeID != uuid.Nil {
		query += fmt.Sprintf(" AND p.id != %s", arg(excludeID))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddSubstituteLink stores a symmetric substitute relation between two
// products.
func (r *CatalogRepository) AddSubstituteLink(ctx context.Context, a, b uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSubstituteLink(ctx, tx, a, b); err != nil {
		return err
	}
	return tx.Commit()
}

// ListDeals returns products that are seasonal or targeted by any of the
// given discounts, newest first.
func (r *CatalogRepository) ListDeals(ctx context.Context, productIDs, categoryIDs []uuid.UUID, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 20
	}

	conds := []string{"p.is_seasonal = TRUE"}
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(productIDs) > 0 {
		placeholders := make([]string, len(productIDs))
		for i, id := range productIDs {
			placeholders[i] = arg(id)
		}
		conds = append(conds, "p.id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(categoryIDs) > 0 {
		placeholders := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			placeholders[i] = arg(id)
		}
		conds = append(conds, "p.category_id IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + productColumns + ` FROM products p WHERE ` +
		strings.Join(conds, " OR ") +
		fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT %s", arg(limit))

	return r.queryProducts(ctx, query, args...)
}

func (r *CatalogRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadAssociations(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// loadAssociations fills tags and substitute links for the given products.
func (r *CatalogRepository) loadAssociations(ctx context.Context, products []*Product) error {
	for _, p := range products {
		tagRows, err := r.db.QueryContext(ctx,
			`SELECT tag FROM product_tags WHERE product_id = $1 ORDER BY tag`, p.ID)
		if err != nil {
			return err
		}
		for tagRows.Next() {
			var tag string
			if err := tagRows.Scan(&tag); err != nil {
				tagRows.Close()
				return err
			}
			p.Tags = append(p.Tags, tag)
		}
		if err := tagRows.Err(); err != nil {
			tagRows.Close()
			return err
		}
		tagRows.Close()

		subRows, err := r.db.QueryContext(ctx,
			`SELECT substitute_id FROM product_substitutes WHERE product_id = $1`, p.ID)
		if err != nil {
			return err
		}
		for subRows.Next() {
			var id uuid.UUID
			if err := subRows.Scan(&id); err != nil {
				subRows.Close()
				return err
			}
			p.Substitutes = append(p.Substitutes, id)
		}
		if err := subRows.Err(); err != nil {
			subRows.Close()
			return err
		}
		subRows.Close()
	}
	return nil
}

func insertSubstituteLink(ctx context.Context, tx *sql.Tx, a, b uuid.UUID) error {
	// Both directions; the relation is symmetric by construction.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO product_substitutes (product_id, substitute_id) VALUES ($1, $2)`,
		a, b,
	); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO product_substitutes (product_id, substitute_id) VALUES ($1, $2)`,
		b, a,
	)
	return err
}

// DiscountRepository handles discount operations.
type DiscountRepository struct {
	db DB
}

// NewDiscountRepository creates a new discount repository.
func NewDiscountRepository(db DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

// Create inserts a discount with its targets.
func (r *DiscountRepository) Create(ctx context.Context, d *Discount) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()

	insert := `
		INSERT INTO discounts (id, name, description, discount_type, discount_value,
			applies_to, valid_from, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := r.db.ExecContext(ctx, insert,
		d.ID, d.Name, d.Description, d.Type, d.Value,
		d.AppliesTo, d.ValidFrom, d.ValidUntil, d.CreatedAt, d.UpdatedAt,
	); err != nil {
		return err
	}

	for _, t := range d.Targets {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO discount_targets (discount_id, target_id) VALUES ($1, $2)`,
			d.ID, t,
		); err != nil {
			return err
		}
	}
	return nil
}

const discountColumns = `
	d.id, d.name, d.description, d.discount_type, d.discount_value,
	d.applies_to, d.valid_from, d.valid_until, d.created_at, d.updated_at
`

// FindActive returns discounts of the given scope targeting the given ID and
// valid at now, ordered by value descending.
func (r *DiscountRepository) FindActive(ctx context.Context, scope DiscountScope, targetID uuid.UUID, now time.Time) ([]*Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts d
		JOIN discount_targets t ON t.discount_id = d.id
		WHERE d.applies_to = $1 AND t.target_id = $2
			AND d.valid_from <= $3 AND d.valid_until >= $3
		ORDER BY d.discount_value DESC
	`
	return r.queryDiscounts(ctx, query, scope, targetID, now)
}

// FindAllActive returns every discount valid at now, with targets loaded.
func (r *DiscountRepository) FindAllActive(ctx context.Context, now time.Time) ([]*Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts d
		WHERE d.valid_from <= $1 AND d.valid_until >= $1
		ORDER BY d.discount_value DESC
	`
	return r.queryDiscounts(ctx, query, now)
}

func (r *DiscountRepository) queryDiscounts(ctx context.Context, query string, args ...interface{}) ([]*Discount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discounts []*Discount
	for rows.Next() {
		d := &Discount{}
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Description, &d.Type, &d.Value,
			&d.AppliesTo, &d.ValidFrom, &d.ValidUntil, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, d := range discounts {
		targetRows, err := r.db.QueryContext(ctx,
			`SELECT target_id FROM discount_targets WHERE discount_id = $1`, d.ID)
		if err != nil {
			return nil, err
		}
		for targetRows.Next() {
			var id uuid.UUID
			if err := targetRows.Scan(&id); err != nil {
				targetRows.Close()
				return nil, err
			}
			d.Targets = append(d.Targets, id)
		}
		if err := targetRows.Err(); err != nil {
			targetRows.Close()
			return nil, err
		}
		targetRows.Close()
	}
	return discounts, nil
}

// OrderRepository reads past orders for history suggestions.
type OrderRepository struct {
	db DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// ListByUser returns all orders placed by a user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		itemRows, err := r.db.QueryContext(ctx, `
			SELECT product_id, quantity, price_at_purchase
			FROM order_items WHERE order_id = $1
		`, o.ID)
		if err != nil {
			return nil, err
		}
		for itemRows.Next() {
			var item OrderItem
			if err := itemRows.Scan(&item.ProductID, &item.Quantity, &item.PriceAtPurchase); err != nil {
				itemRows.Close()
				return nil, err
			}
			o.Items = append(o.Items, item)
		}
		if err := itemRows.Err(); err != nil {
			itemRows.Close()
			return nil, err
		}
		itemRows.Close()
	}
	return orders, nil
}
