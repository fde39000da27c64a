package checkout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/outbox"
)

var tracer = otel.Tracer("checkout")

type Options struct {
	// LockCrops takes a row lock on the crops read during checkout, so two
	// concurrent checkouts of the same crop serialize instead of both
	// observing it as available.
	LockCrops bool
	// EventsTopic is the outbox topic order.placed events are written to.
	EventsTopic string
}

type Engine struct {
	db      *sql.DB
	opts    Options
	metrics *Metrics
	logger  *slog.Logger
}

func NewEngine(db *sql.DB, opts Options, metrics *Metrics, logger *slog.Logger) *Engine {
	if opts.EventsTopic == "" {
		opts.EventsTopic = domain.EventOrderPlaced
	}
	return &Engine{
		db:      db,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

// Checkout converts the actor's cart into a pending order. The cart read,
// order and item inserts, cart drain and outbox event all commit in one
// transaction; on any failure nothing is written and the cart is untouched.
func (e *Engine) Checkout(ctx context.Context, actor domain.Actor) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(attribute.Int64("actor.id", actor.ID), attribute.String("actor.role", string(actor.Role)))

	order, err := e.checkout(ctx, actor)
	e.metrics.record(ctx, order, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	return order, nil
}

func (e *Engine) checkout(ctx context.Context, actor domain.Actor) (*domain.Order, error) {
	if !actor.Is(domain.RoleCustomer, domain.RoleFarmer) {
		return nil, domain.ErrForbidden
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin checkout: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	items, err := e.readCart(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	if actor.Role == domain.RoleFarmer {
		for _, item := range items {
			if item.FarmerID != actor.ID {
				return nil, domain.ErrForeignCropInCart
			}
		}
	}

	order := &domain.Order{
		CustomerID: &actor.ID,
		TotalPrice: domain.OrderTotal(items),
		Status:     domain.OrderStatusPending,
		Items:      items,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, total_price, order_status)
		VALUES ($1, $2, $3)
		RETURNING order_id, created_at
	`, actor.ID, order.TotalPrice, order.Status).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, crop_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`, order.ID, item.CropID, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item for crop %d: %w", item.CropID, err)
		}
	}

	// Unavailable lines skipped by readCart are dropped here too.
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, actor.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	event := domain.OrderPlacedEvent{
		EventID:    outbox.NewEventID(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		TotalPrice: order.TotalPrice,
		Items:      order.Items,
		Source:     "checkout",
		Timestamp:  time.Now().UTC(),
	}
	if err := outbox.Insert(ctx, tx, event.EventID, e.opts.EventsTopic, strconv.FormatInt(order.ID, 10), event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	e.logger.Info("order placed from cart",
		"order_id", order.ID,
		"actor_id", actor.ID,
		"role", actor.Role,
		"items", len(order.Items),
		"total_price", order.TotalPrice.String(),
	)
	return order, nil
}

// readCart returns the actor's cart lines whose crops are available right
// now, priced at the crops' current price.
func (e *Engine) readCart(ctx context.Context, tx *sql.Tx, userID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT c.crop_id, c.quantity, p.price, p.farmer_id, p.name
		FROM cart_items c
		JOIN crops p ON p.crop_id = c.crop_id
		WHERE c.user_id = $1 AND p.is_available
		ORDER BY c.cart_item_id`
	if e.opts.LockCrops {
		query += ` FOR UPDATE OF p`
	}

	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.CropID, &item.Quantity, &item.UnitPrice, &item.FarmerID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		item.LineTotal = domain.LineTotal(item.Quantity, item.UnitPrice)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	return items, nil
}
