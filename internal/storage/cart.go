package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const casMaxRetries = 3

// CartRepository handles shopping cart persistence. Mutations run inside a
// transaction guarded by a revision compare-and-swap on the cart row, with a
// bounded retry on conflict.
type CartRepository struct {
	db TxDB
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(db TxDB) *CartRepository {
	return &CartRepository{db: db}
}

// GetCart returns the cart for a user. A user without a cart gets an empty
// one; no row is created until the first mutation.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (*Cart, error) {
	cart := &Cart{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT revision, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.Revision, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name_snapshot, quantity, unit, notes
		FROM cart_items WHERE user_id = $1
		ORDER BY added_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ProductID, &item.NameSnapshot, &item.Quantity, &item.Unit, &item.Notes); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, rows.Err()
}

// AppendOrIncrement adds an item to the cart, merging quantities when the
// product is already present. The notes field always reflects the latest add.
func (r *CartRepository) AppendOrIncrement(ctx context.Context, userID string, item CartItem) (*Cart, error) {
	return r.mutate(ctx, userID, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
			userID, item.ProductID,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cart_items (user_id, product_id, name_snapshot, quantity, unit, notes, added_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, userID, item.ProductID, item.NameSnapshot, item.Quantity, item.Unit, item.Notes, time.Now())
			return err
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE cart_items SET quantity = $1, notes = $2
			WHERE user_id = $3 AND product_id = $4
		`, current+item.Quantity, item.Notes, userID, item.ProductID)
		return err
	})
}

// DecrementOrRemove lowers an item's quantity by the requested amount, or
// deletes the line when the request covers it. Returns ErrNotFound when the
// product is not in the cart.
func (r *CartRepository) DecrementOrRemove(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*Cart, error) {
	return r.mutate(ctx, userID, func(tx *sql.Tx) error {
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
			userID, productID,
		).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if quantity < current {
			_, err = tx.ExecContext(ctx, `
				UPDATE cart_items SET quantity = $1
				WHERE user_id = $2 AND product_id = $3
			`, current-quantity, userID, productID)
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
			userID, productID)
		return err
	})
}

// Clear removes every item from the cart and returns the number of lines
// removed.
func (r *CartRepository) Clear(ctx context.Context, userID string) (int, error) {
	var cleared int
	_, err := r.mutate(ctx, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		cleared = int(n)
		return nil
	})
	return cleared, err
}

// mutate runs fn inside a transaction and bumps the cart revision with a
// compare-and-swap. A concurrent writer makes the swap miss; the whole
// mutation is retried up to casMaxRetries times before giving up with
// ErrConflict.
func (r *CartRepository) mutate(ctx context.Context, userID string, fn func(tx *sql.Tx) error) (*Cart, error) {
	var lastErr error
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		cart, err := r.tryMutate(ctx, userID, fn)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *CartRepository) tryMutate(ctx context.Context, userID string, fn func(tx *sql.Tx) error) (*Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var revision int64
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM carts WHERE user_id = $1`, userID,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO carts (user_id, revision, updated_at) VALUES ($1, 0, $2)`,
			userID, time.Now(),
		); err != nil {
			return nil, err
		}
		revision = 0
	} else if err != nil {
		return nil, err
	}

	if err := fn(tx); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE carts SET revision = $1, updated_at = $2
		WHERE user_id = $3 AND revision = $4
	`, revision+1, time.Now(), userID, revision)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetCart(ctx, userID)
}
