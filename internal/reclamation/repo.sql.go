package reclamation

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores drafts in reclamation_drafts.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Save(ctx context.Context, draft Draft) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO reclamation_drafts
            (order_id, order_number, supplier_id, supplier_email, subject, body, total_loss, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		draft.OrderID, draft.OrderNumber, draft.SupplierID, draft.SupplierEmail,
		draft.Subject, draft.Body, draft.TotalLoss, draft.CreatedAt)
	return err
}

// ListByOrder returns drafts for one order, newest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]Draft, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT order_id, order_number, supplier_id, supplier_email, subject, body, total_loss, created_at
        FROM reclamation_drafts WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.OrderID, &d.OrderNumber, &d.SupplierID, &d.SupplierEmail,
			&d.Subject, &d.Body, &d.TotalLoss, &d.CreatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
