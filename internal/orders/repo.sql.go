package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
	"github.com/stockpilot/stockpilot/internal/platform/db"
)

// TxRepository is the transactional slice of the repository.
type TxRepository interface {
	CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) error
	UpdateStatus(ctx context.Context, orderID int64, from, to Status) error
	SetConfirmed(ctx context.Context, orderID int64, at time.Time) error
	SetShipped(ctx context.Context, orderID int64, carrier, trackingNumber string, at time.Time) error
	FinalizeReceipt(ctx context.Context, orderID int64, from, to Status, receivedAt time.Time) error
	InsertDiscrepancy(ctx context.Context, orderID int64, disc reconcile.LineDiscrepancy) error
}

// Repository is the pgx implementation backed by purchase_orders,
// purchase_order_lines and order_discrepancies.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, []OrderLine, error) {
	var order PurchaseOrder
	err := r.pool.QueryRow(ctx, `
        SELECT id, number, supplier_id, warehouse_id, status, total_amount,
               COALESCE(tracking_carrier, ''), COALESCE(tracking_number, ''),
               created_at, confirmed_at, shipped_at, received_at
        FROM purchase_orders WHERE id = $1`, id).
		Scan(&order.ID, &order.Number, &order.SupplierID, &order.WarehouseID, &order.Status, &order.TotalAmount,
			&order.TrackingCarrier, &order.TrackingNumber,
			&order.CreatedAt, &order.ConfirmedAt, &order.ShippedAt, &order.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	if err != nil {
		return PurchaseOrder{}, nil, err
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, order_id, sku, qty, unit_price
        FROM purchase_order_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.SKU, &line.Qty, &line.UnitPrice); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, line)
	}
	return order, lines, rows.Err()
}

func (r *Repository) ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.SupplierID > 0 {
		args = append(args, filters.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
        SELECT id, number, supplier_id, warehouse_id, status, total_amount,
               COALESCE(tracking_carrier, ''), COALESCE(tracking_number, ''),
               created_at, confirmed_at, shipped_at, received_at
        FROM purchase_orders WHERE %s
        ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		var order PurchaseOrder
		if err := rows.Scan(&order.ID, &order.Number, &order.SupplierID, &order.WarehouseID, &order.Status, &order.TotalAmount,
			&order.TrackingCarrier, &order.TrackingNumber,
			&order.CreatedAt, &order.ConfirmedAt, &order.ShippedAt, &order.ReceivedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
        INSERT INTO purchase_orders (number, supplier_id, warehouse_id, status, total_amount, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id`,
		order.Number, order.SupplierID, order.WarehouseID, order.Status, order.TotalAmount).Scan(&id)
	return id, err
}

func (t *txRepository) InsertLine(ctx context.Context, line OrderLine) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO purchase_order_lines (order_id, sku, qty, unit_price)
        VALUES ($1, $2, $3, $4)`,
		line.OrderID, line.SKU, line.Qty, line.UnitPrice)
	return err
}

// UpdateStatus only moves the order when it is still in the expected status.
// Zero affected rows means another request won the race.
func (t *txRepository) UpdateStatus(ctx context.Context, orderID int64, from, to Status) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE purchase_orders SET status = $1 WHERE id = $2 AND status = $3`,
		to, orderID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d no longer %s", ErrInvalidState, orderID, from)
	}
	return nil
}

func (t *txRepository) SetConfirmed(ctx context.Context, orderID int64, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET confirmed_at = $1 WHERE id = $2`, at, orderID)
	return err
}

func (t *txRepository) SetShipped(ctx context.Context, orderID int64, carrier, trackingNumber string, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
        UPDATE purchase_orders SET tracking_carrier = $1, tracking_number = $2, shipped_at = $3
        WHERE id = $4`,
		carrier, trackingNumber, at, orderID)
	return err
}

func (t *txRepository) FinalizeReceipt(ctx context.Context, orderID int64, from, to Status, receivedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `
        UPDATE purchase_orders SET status = $1, received_at = $2 WHERE id = $3 AND status = $4`,
		to, receivedAt, orderID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d no longer %s", ErrInvalidState, orderID, from)
	}
	return nil
}

func (t *txRepository) InsertDiscrepancy(ctx context.Context, orderID int64, disc reconcile.LineDiscrepancy) error {
	_, err := t.tx.Exec(ctx, `
        INSERT INTO order_discrepancies
            (order_id, sku, ordered_qty, received_good_qty, received_damaged_qty,
             missing_qty, excess_qty, kind, loss_missing, loss_damaged, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
		orderID, disc.SKU, disc.OrderedQty, disc.ReceivedGoodQty, disc.ReceivedDamagedQty,
		disc.MissingQty, disc.ExcessQty, disc.Kind, disc.LossMissing, disc.LossDamaged)
	return err
}
