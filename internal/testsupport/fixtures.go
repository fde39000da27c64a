package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

func InsertUser(ctx context.Context, t *testing.T, db *sql.DB, username string, role domain.Role) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, role)
		VALUES ($1, $2, $3)
		RETURNING user_id
	`, username, username+"@example.com", role).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert user %s: %v", username, err)
	}
	return id
}

func InsertCrop(ctx context.Context, t *testing.T, db *sql.DB, farmerID int64, name, price string, available bool) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO crops (farmer_id, name, price, is_available)
		VALUES ($1, $2, $3, $4)
		RETURNING crop_id
	`, farmerID, name, price, available).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert crop %s: %v", name, err)
	}
	return id
}

func AddToCart(ctx context.Context, t *testing.T, db *sql.DB, userID, cropID int64, quantity int) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, crop_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING cart_item_id
	`, userID, cropID, quantity).Scan(&id)
	if err != nil {
		t.Fatalf("failed to insert cart item: %v", err)
	}
	return id
}

func SetAvailability(ctx context.Context, t *testing.T, db *sql.DB, cropID int64, available bool) {
	t.Helper()

	if _, err := db.ExecContext(ctx, `UPDATE crops SET is_available = $2 WHERE crop_id = $1`, cropID, available); err != nil {
		t.Fatalf("failed to update crop %d: %v", cropID, err)
	}
}

func CountRows(ctx context.Context, t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
