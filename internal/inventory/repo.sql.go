package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	IncrementOnHand(ctx context.Context, warehouseID int64, sku string, delta int64) error
	InsertMovement(ctx context.Context, movement Movement) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// ListLevels returns stock levels for one warehouse.
func (r *Repository) ListLevels(ctx context.Context, warehouseID int64) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT warehouse_id, sku, on_hand, reorder_point, reorder_qty, updated_at
FROM stock_levels WHERE warehouse_id=$1 ORDER BY sku`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []StockLevel
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.WarehouseID, &level.SKU, &level.OnHand, &level.ReorderPoint, &level.ReorderQty, &level.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// ListMovements returns recent ledger rows, newest first.
func (r *Repository) ListMovements(ctx context.Context, warehouseID int64, sku string, limit int) ([]Movement, error) {
	query := `SELECT id, warehouse_id, sku, qty, ref_module, ref_id, note, posted_at
FROM stock_movements WHERE warehouse_id=$1 AND ($2 = '' OR sku=$2) ORDER BY posted_at DESC, id DESC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, warehouseID, sku, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.WarehouseID, &m.SKU, &m.Qty, &m.RefModule, &m.RefID, &m.Note, &m.PostedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListBelowReorderPoint returns levels where on-hand stock has reached the
// reorder point.
func (r *Repository) ListBelowReorderPoint(ctx context.Context) ([]StockLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT warehouse_id, sku, on_hand, reorder_point, reorder_qty, updated_at
FROM stock_levels WHERE reorder_point > 0 AND on_hand <= reorder_point ORDER BY warehouse_id, sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var levels []StockLevel
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.WarehouseID, &level.SKU, &level.OnHand, &level.ReorderPoint, &level.ReorderQty, &level.UpdatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

func (tx *txRepo) IncrementOnHand(ctx context.Context, warehouseID int64, sku string, delta int64) error {
	// Atomic in-place increment; the row is created on first receipt.
	_, err := tx.tx.Exec(ctx, `INSERT INTO stock_levels (warehouse_id, sku, on_hand, reorder_point, reorder_qty, updated_at)
VALUES ($1, $2, $3, 0, 0, NOW())
ON CONFLICT (warehouse_id, sku) DO UPDATE SET on_hand = stock_levels.on_hand + EXCLUDED.on_hand, updated_at = NOW()`,
		warehouseID, sku, delta)
	return err
}

func (tx *txRepo) InsertMovement(ctx context.Context, m Movement) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO stock_movements (warehouse_id, sku, qty, ref_module, ref_id, note, posted_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`, m.WarehouseID, m.SKU, m.Qty, m.RefModule, m.RefID, m.Note)
	return err
}
