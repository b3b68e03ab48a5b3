package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase order lifecycle statuses. Reconciliation moves an order from
// StatusInTransit to exactly one of the two terminal statuses.
type Status string

const (
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	StatusPreparing           Status = "PREPARING"
	StatusInTransit           Status = "IN_TRANSIT"
	StatusCompleted           Status = "COMPLETED"
	StatusReconciliation      Status = "RECONCILIATION"
)

// PurchaseOrder domain model. The reconciliation engine receives it by value
// and never mutates it.
type PurchaseOrder struct {
	ID              int64           `json:"id"`
	Number          string          `json:"number"`
	SupplierID      int64           `json:"supplier_id"`
	WarehouseID     int64           `json:"warehouse_id"`
	Status          Status          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TrackingCarrier string          `json:"tracking_carrier,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	ReceivedAt      *time.Time      `json:"received_at,omitempty"`
}

// OrderLine is one SKU within the order. Lines are immutable once the order
// exists; changing quantities requires a new order.
type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	SKU       string          `json:"sku"`
	Qty       int64           `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status     string
	SupplierID int64
	Search     string
}

var (
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = errors.New("orders: invalid state transition")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("orders: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("orders: invalid input")
)
