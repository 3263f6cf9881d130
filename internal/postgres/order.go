package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/droidtel/bss/internal/domain"
	"github.com/droidtel/bss/internal/service"
)

// OrderRepository is the PostgreSQL implementation of service.OrderRepository.
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ service.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_number, customer_id, order_type, priority, status, currency,
	requested_date, promised_date, order_channel, sales_rep_id, notes,
	created_at, updated_at, revision`

const orderItemColumns = `id, product_id, item_type, item_code, item_name, quantity,
	unit_price, discount_amount, tax_rate, status, activation_date, expiry_date, revision`

// Create inserts the order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	const op = "order.create"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		order.ID, order.OrderNumber, order.CustomerID, order.OrderType, order.Priority,
		order.Status, order.Currency, order.RequestedDate, order.PromisedDate,
		order.OrderChannel, order.SalesRepID, order.Notes,
		order.CreatedAt, order.UpdatedAt, order.Revision)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict(op, "Order number already exists: "+order.OrderNumber)
		}
		return domain.Internal(err, op, "failed to insert order")
	}

	if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Internal(err, op, "failed to insert order items")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "failed to commit transaction")
	}
	return nil
}

// Get loads one order with its items.
func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	const op = "order.get"

	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.NotFound(op, "order", id.String())
		}
		return domain.Order{}, domain.Internal(err, op, "failed to load order")
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, domain.Internal(err, op, "failed to load order items")
	}
	return order, nil
}

// GetByNumber loads one order by its unique order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	const op = "order.getByNumber"

	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.NotFound(op, "order", orderNumber)
		}
		return domain.Order{}, domain.Internal(err, op, "failed to load order")
	}

	order.Items, err = r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, domain.Internal(err, op, "failed to load order items")
	}
	return order, nil
}

// Update replaces the order row and its items, guarded by the revision check.
// The items are rewritten wholesale; item-level diffing is not worth the
// complexity at the sizes orders reach.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	const op = "order.update"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET
			order_number = $2, customer_id = $3, order_type = $4, priority = $5,
			status = $6, currency = $7, requested_date = $8, promised_date = $9,
			order_channel = $10, sales_rep_id = $11, notes = $12,
			updated_at = $13, revision = $14
		WHERE id = $1 AND revision = $14 - 1`,
		order.ID, order.OrderNumber, order.CustomerID, order.OrderType, order.Priority,
		order.Status, order.Currency, order.RequestedDate, order.PromisedDate,
		order.OrderChannel, order.SalesRepID, order.Notes,
		order.UpdatedAt, order.Revision)
	if err != nil {
		return domain.Internal(err, op, "failed to update order")
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMiss(ctx, op, order.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return domain.Internal(err, op, "failed to clear order items")
	}
	if err := insertItems(ctx, tx, order.ID, order.Items); err != nil {
		return domain.Internal(err, op, "failed to insert order items")
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "failed to commit transaction")
	}
	return nil
}

// ListByCustomer returns all orders for a customer, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Order, error) {
	const op = "order.listByCustomer"

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan order")
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}

	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load order items")
		}
	}
	return orders, nil
}

// classifyMiss distinguishes a stale revision from a missing row after an
// UPDATE matched nothing.
func (r *OrderRepository) classifyMiss(ctx context.Context, op string, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return domain.Internal(err, op, "failed to check order existence")
	}
	if !exists {
		return domain.NotFound(op, "order", id.String())
	}
	return domain.Conflict(op, "Order was modified concurrently")
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderItemColumns+` FROM order_items
		WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID, &item.ProductID, &item.ItemType, &item.ItemCode, &item.ItemName,
			&item.Quantity, &item.UnitPrice, &item.DiscountAmount, &item.TaxRate,
			&item.Status, &item.ActivationDate, &item.ExpiryDate, &item.Revision)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []domain.OrderItem) error {
	for pos, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, item_type, item_code, item_name,
				quantity, unit_price, discount_amount, tax_rate, status,
				activation_date, expiry_date, position, revision)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			item.ID, orderID, item.ProductID, item.ItemType, item.ItemCode, item.ItemName,
			item.Quantity, item.UnitPrice, item.DiscountAmount, item.TaxRate, item.Status,
			item.ActivationDate, item.ExpiryDate, pos, item.Revision)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.OrderType, &order.Priority,
		&order.Status, &order.Currency, &order.RequestedDate, &order.PromisedDate,
		&order.OrderChannel, &order.SalesRepID, &order.Notes,
		&order.CreatedAt, &order.UpdatedAt, &order.Revision)
	return order, err
}
