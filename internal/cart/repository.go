package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/inventory"
)

type CartRepository struct {
	db    *sql.DB
	guard *inventory.Guard
}

func NewCartRepository(db *sql.DB, guard *inventory.Guard) *CartRepository {
	return &CartRepository{db: db, guard: guard}
}

// AddOrIncrement adds quantity of a crop to the actor's cart, incrementing an
// existing line rather than overwriting it.
func (r *CartRepository) AddOrIncrement(ctx context.Context, actor domain.Actor, cropID int64, quantity int) error {
	if cropID <= 0 || quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	if err := r.guard.CheckPurchasable(ctx, r.db, actor, cropID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, crop_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, crop_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, actor.ID, cropID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}

	return nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, cartItemID int64, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	var available bool
	err := r.db.QueryRowContext(ctx, `
		SELECT p.is_available
		FROM cart_items c
		JOIN crops p ON p.crop_id = c.crop_id
		WHERE c.cart_item_id = $1 AND c.user_id = $2
	`, cartItemID, userID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCartItemNotFound
		}
		return fmt.Errorf("read cart item: %w", err)
	}
	if !available {
		return domain.ErrNotAvailable
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE cart_item_id = $1 AND user_id = $2
	`, cartItemID, userID, quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID, cartItemID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_item_id = $1 AND user_id = $2
	`, cartItemID, userID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}

	return nil
}

// Clear empties the cart; clearing an empty cart is not an error.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// List returns the cart newest first, each line priced at the crop's current price.
func (r *CartRepository) List(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.cart_item_id, c.quantity, c.added_at,
		       p.crop_id, p.name, p.price, p.is_available, p.farmer_id,
		       COALESCE(u.username, '')
		FROM cart_items c
		JOIN crops p ON p.crop_id = c.crop_id
		LEFT JOIN users u ON u.user_id = p.farmer_id
		WHERE c.user_id = $1
		ORDER BY c.added_at DESC, c.cart_item_id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer func() { _ = rows.Close() }()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.CartItemID, &l.Quantity, &l.AddedAt,
			&l.CropID, &l.Name, &l.Price, &l.IsAvailable, &l.FarmerID, &l.FarmerName); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		l.LineTotal = domain.LineTotal(l.Quantity, l.Price)
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	return lines, nil
}

func (r *CartRepository) Summarize(ctx context.Context, userID int64) (domain.CartSummary, error) {
	lines, err := r.List(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return domain.Summarize(lines), nil
}
