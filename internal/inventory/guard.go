package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

// Guard checks crop availability and ownership at decision time. Nothing is
// cached: every call reads the crops table through the caller's Querier, so
// inside a transaction it sees the state the transaction will commit against.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// CheckPurchasable reports whether actor may put cropID in a cart.
func (g *Guard) CheckPurchasable(ctx context.Context, q Querier, actor domain.Actor, cropID int64) error {
	var (
		farmerID  int64
		available bool
	)
	err := q.QueryRowContext(ctx, `
		SELECT farmer_id, is_available
		FROM crops
		WHERE crop_id = $1
	`, cropID).Scan(&farmerID, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotAvailable
		}
		return fmt.Errorf("read crop %d: %w", cropID, err)
	}

	if !available {
		return domain.ErrNotAvailable
	}
	if actor.Role == domain.RoleFarmer && farmerID != actor.ID {
		return domain.ErrForeignCropInCart
	}
	return nil
}

type cropSnapshot struct {
	name      string
	price     domain.Money
	farmerID  int64
	available bool
}

// ResolveForOrder turns requested lines into order items priced at the crops'
// current price. Every failing crop is reported in one CropValidationError.
func (g *Guard) ResolveForOrder(ctx context.Context, q Querier, actor domain.Actor, items []domain.ItemInput) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.CropID <= 0 || item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		ids = append(ids, item.CropID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT crop_id, name, price, farmer_id, is_available
		FROM crops
		WHERE crop_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("read crops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshots := make(map[int64]cropSnapshot, len(ids))
	for rows.Next() {
		var (
			id int64
			s  cropSnapshot
		)
		if err := rows.Scan(&id, &s.name, &s.price, &s.farmerID, &s.available); err != nil {
			return nil, fmt.Errorf("scan crop: %w", err)
		}
		snapshots[id] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read crops: %w", err)
	}

	var (
		issues   []domain.CropIssue
		reported = make(map[int64]bool)
		resolved = make([]domain.OrderItem, 0, len(items))
	)
	for _, item := range items {
		s, ok := snapshots[item.CropID]
		var reason domain.CropIssueReason
		switch {
		case !ok:
			reason = domain.ReasonNonexistent
		case !s.available:
			reason = domain.ReasonUnavailable
		case actor.Role == domain.RoleFarmer && s.farmerID != actor.ID:
			reason = domain.ReasonNotOwned
		}
		if reason != "" {
			if !reported[item.CropID] {
				reported[item.CropID] = true
				issues = append(issues, domain.CropIssue{CropID: item.CropID, Reason: reason})
			}
			continue
		}
		resolved = append(resolved, domain.OrderItem{
			CropID:    item.CropID,
			Name:      s.name,
			FarmerID:  s.farmerID,
			Quantity:  item.Quantity,
			UnitPrice: s.price,
			LineTotal: domain.LineTotal(item.Quantity, s.price),
		})
	}

	if len(issues) > 0 {
		return nil, &domain.CropValidationError{Issues: issues}
	}
	return resolved, nil
}
