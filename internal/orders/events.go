package orders

import (
	"context"

	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
)

// ReconciliationCompletedEvent is emitted after a reconciliation result has
// been persisted and the stock deltas applied.
type ReconciliationCompletedEvent struct {
	Order  PurchaseOrder
	Result reconcile.Result
}

// NotifierPort receives reconciliation outcomes that need a supplier
// reclamation, i.e. any result with a discrepancy or damage.
type NotifierPort interface {
	HandleReconciliationCompleted(ctx context.Context, evt ReconciliationCompletedEvent) error
}
