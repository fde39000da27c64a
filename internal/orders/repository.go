package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
	"github.com/MomoCodeByte/final-chekelen/internal/inventory"
	"github.com/MomoCodeByte/final-chekelen/internal/outbox"
)

type Options struct {
	// StrictTransitions rejects status changes the order state machine does
	// not allow. When false any canonical status may follow any other.
	StrictTransitions bool
	EventsTopic       string
}

type OrderRepository struct {
	db     *sql.DB
	guard  *inventory.Guard
	opts   Options
	logger *slog.Logger
}

func NewOrderRepository(db *sql.DB, guard *inventory.Guard, opts Options, logger *slog.Logger) *OrderRepository {
	if opts.EventsTopic == "" {
		opts.EventsTopic = domain.EventOrderPlaced
	}
	return &OrderRepository{
		db:     db,
		guard:  guard,
		opts:   opts,
		logger: logger,
	}
}

// CreateForCustomer places an order from explicit lines. Customers always
// order for themselves; farmers must name the customer or pass an explicit
// null, and may only order crops they farm.
func (r *OrderRepository) CreateForCustomer(ctx context.Context, actor domain.Actor, customer domain.OptionalID, items []domain.ItemInput) (*domain.Order, error) {
	var customerID *int64
	switch actor.Role {
	case domain.RoleCustomer:
		customerID = &actor.ID
	case domain.RoleFarmer:
		if !customer.Set {
			return nil, domain.ErrCustomerRequired
		}
		customerID = customer.Ptr()
	default:
		return nil, domain.ErrForbidden
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin create order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if actor.Role == domain.RoleFarmer {
		if err := requireUser(ctx, tx, customerID); err != nil {
			return nil, err
		}
	}

	resolved, err := r.guard.ResolveForOrder(ctx, tx, actor, items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerID: customerID,
		TotalPrice: domain.OrderTotal(resolved),
		Status:     domain.OrderStatusPending,
		Items:      resolved,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, total_price, order_status)
		VALUES ($1, $2, $3)
		RETURNING order_id, created_at
	`, customerID, order.TotalPrice, order.Status).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := insertItems(ctx, tx, order); err != nil {
		return nil, err
	}

	event := domain.OrderPlacedEvent{
		EventID:    outbox.NewEventID(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		TotalPrice: order.TotalPrice,
		Items:      order.Items,
		Source:     "order",
		Timestamp:  time.Now().UTC(),
	}
	if err := outbox.Insert(ctx, tx, event.EventID, r.opts.EventsTopic, strconv.FormatInt(order.ID, 10), event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create order: %w", err)
	}

	r.logger.Info("order created", "order_id", order.ID, "actor_id", actor.ID, "role", actor.Role, "total_price", order.TotalPrice.String())
	return order, nil
}

// Update replaces the full item set of an order containing at least one of
// the farmer's crops, and recomputes its total. An omitted customer keeps the
// order's current customer.
func (r *OrderRepository) Update(ctx context.Context, actor domain.Actor, orderID int64, customer domain.OptionalID, items []domain.ItemInput) (*domain.Order, error) {
	if actor.Role != domain.RoleFarmer {
		return nil, domain.ErrForbidden
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin update order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	order := &domain.Order{}
	row := tx.QueryRowContext(ctx, `
		SELECT order_id, customer_id, total_price, order_status, created_at
		FROM orders
		WHERE order_id = $1
		FOR UPDATE
	`, orderID)
	if err := scanOrder(row, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("read order: %w", err)
	}

	owned, err := containsFarmerCrop(ctx, tx, orderID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, domain.ErrNotOwned
	}

	if customer.Set {
		order.CustomerID = customer.Ptr()
		if err := requireUser(ctx, tx, order.CustomerID); err != nil {
			return nil, err
		}
	}

	resolved, err := r.guard.ResolveForOrder(ctx, tx, actor, items)
	if err != nil {
		return nil, err
	}
	order.Items = resolved
	order.TotalPrice = domain.OrderTotal(resolved)

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET customer_id = $2, total_price = $3
		WHERE order_id = $1
	`, orderID, order.CustomerID, order.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if err := requireAffected(result, domain.ErrOrderNotFound); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update order: %w", err)
	}

	r.logger.Info("order items replaced", "order_id", orderID, "actor_id", actor.ID, "items", len(order.Items), "total_price", order.TotalPrice.String())
	return order, nil
}

// List returns the orders visible to actor, newest first, each with its
// items in insertion order. Customers see their own orders, farmers see
// orders containing any of their crops and admins see all orders.
func (r *OrderRepository) List(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	where, args := visibility(actor, 1)
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.order_id, o.customer_id, o.total_price, o.order_status, o.created_at
		FROM orders o
		`+where+`
		ORDER BY o.created_at DESC, o.order_id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.attachItems(ctx, orderIDs, orderMap); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

func (r *OrderRepository) Get(ctx context.Context, actor domain.Actor, orderID int64) (*domain.Order, error) {
	where, args := visibility(actor, 2)
	if where == "" {
		where = "WHERE o.order_id = $1"
	} else {
		where += " AND o.order_id = $1"
	}

	order := &domain.Order{}
	row := r.db.QueryRowContext(ctx, `
		SELECT o.order_id, o.customer_id, o.total_price, o.order_status, o.created_at
		FROM orders o
		`+where, append([]any{orderID}, args...)...)
	if err := scanOrder(row, order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	order.Items = []domain.OrderItem{}
	if err := r.attachItems(ctx, []int64{order.ID}, map[int64]*domain.Order{order.ID: order}); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus sets a new canonical status. Admins may update any order,
// farmers only orders containing their crops.
func (r *OrderRepository) UpdateStatus(ctx context.Context, actor domain.Actor, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if !actor.Is(domain.RoleAdmin, domain.RoleFarmer) {
		return nil, domain.ErrForbidden
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin update status: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var readScope, writeScope string
	readArgs, writeArgs := []any{orderID}, []any{orderID, status}
	if actor.Role == domain.RoleFarmer {
		readScope, writeScope = farmerScope(2), farmerScope(3)
		readArgs = append(readArgs, actor.ID)
		writeArgs = append(writeArgs, actor.ID)
	}

	if r.opts.StrictTransitions {
		var current domain.OrderStatus
		err := tx.QueryRowContext(ctx, `
			SELECT order_status FROM orders o
			WHERE o.order_id = $1`+readScope+`
			FOR UPDATE
		`, readArgs...).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.ErrOrderNotFound
			}
			return nil, fmt.Errorf("read order status: %w", err)
		}
		if !current.CanTransitionTo(status) {
			return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current, status)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE orders o SET order_status = $2
		WHERE o.order_id = $1`+writeScope, writeArgs...)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if err := requireAffected(result, domain.ErrOrderNotFound); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update status: %w", err)
	}

	r.logger.Info("order status updated", "order_id", orderID, "actor_id", actor.ID, "role", actor.Role, "status", status)
	return r.Get(ctx, actor, orderID)
}

// Delete removes an order and its items. Customers may delete their own
// pending orders; farmers may delete, in any status, orders whose every item
// is one of their crops.
func (r *OrderRepository) Delete(ctx context.Context, actor domain.Actor, orderID int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin delete order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		customerID sql.NullInt64
		status     domain.OrderStatus
	)
	err = tx.QueryRowContext(ctx, `
		SELECT customer_id, order_status FROM orders
		WHERE order_id = $1
		FOR UPDATE
	`, orderID).Scan(&customerID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("read order: %w", err)
	}

	switch actor.Role {
	case domain.RoleCustomer:
		if !customerID.Valid || customerID.Int64 != actor.ID {
			return domain.ErrOrderNotFound
		}
		if status != domain.OrderStatusPending {
			return domain.ErrNotPending
		}
	case domain.RoleFarmer:
		var total, owned int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*), COUNT(*) FILTER (WHERE c.farmer_id = $2)
			FROM order_items oi
			JOIN crops c ON c.crop_id = oi.crop_id
			WHERE oi.order_id = $1
		`, orderID, actor.ID).Scan(&total, &owned)
		if err != nil {
			return fmt.Errorf("check order ownership: %w", err)
		}
		if total == 0 || owned != total {
			return domain.ErrNotOwned
		}
	default:
		return domain.ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if err := requireAffected(result, domain.ErrOrderNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete order: %w", err)
	}

	r.logger.Info("order deleted", "order_id", orderID, "actor_id", actor.ID, "role", actor.Role, "status", status)
	return nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orderIDs []int64, orderMap map[int64]*domain.Order) error {
	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.order_item_id, oi.crop_id, c.name, c.farmer_id, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN crops c ON c.crop_id = oi.crop_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_item_id
	`, pq.Array(orderIDs))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID int64
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ID, &item.CropID, &item.Name, &item.FarmerID, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		item.LineTotal = domain.LineTotal(item.Quantity, item.UnitPrice)
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	return nil
}

// visibility returns the WHERE clause restricting orders to those actor may
// see, numbering its placeholder from n.
func visibility(actor domain.Actor, n int) (string, []any) {
	p := "$" + strconv.Itoa(n)
	switch actor.Role {
	case domain.RoleCustomer:
		return "WHERE o.customer_id = " + p, []any{actor.ID}
	case domain.RoleFarmer:
		return "WHERE TRUE" + farmerScope(n), []any{actor.ID}
	default:
		return "", nil
	}
}

// farmerScope restricts orders aliased o to those containing a crop of the
// farmer bound to placeholder n.
func farmerScope(n int) string {
	return ` AND EXISTS (
		SELECT 1 FROM order_items oi
		JOIN crops c ON c.crop_id = oi.crop_id
		WHERE oi.order_id = o.order_id AND c.farmer_id = $` + strconv.Itoa(n) + `
	)`
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner, order *domain.Order) error {
	var customerID sql.NullInt64
	if err := s.Scan(&order.ID, &customerID, &order.TotalPrice, &order.Status, &order.CreatedAt); err != nil {
		return err
	}
	if customerID.Valid {
		order.CustomerID = &customerID.Int64
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, crop_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING order_item_id
		`, order.ID, item.CropID, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item for crop %d: %w", item.CropID, err)
		}
	}
	return nil
}

func containsFarmerCrop(ctx context.Context, tx *sql.Tx, orderID, farmerID int64) (bool, error) {
	var owned bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN crops c ON c.crop_id = oi.crop_id
			WHERE oi.order_id = $1 AND c.farmer_id = $2
		)
	`, orderID, farmerID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("check order ownership: %w", err)
	}
	return owned, nil
}

// requireUser accepts a nil id and otherwise requires the user to exist.
func requireUser(ctx context.Context, tx *sql.Tx, id *int64) error {
	if id == nil {
		return nil
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, *id).Scan(&exists); err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return domain.ErrUnknownCustomer
	}
	return nil
}

func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
