// Package reconcile implements the order reconciliation engine: given a
// purchase order and the quantities that actually arrived, it derives per-line
// discrepancies, the order's next status, the monetary loss and the stock
// deltas to apply. The package performs no I/O; callers persist the result.
package reconcile

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DiscrepancyKind classifies the mismatch on a single order line.
type DiscrepancyKind string

const (
	KindNone              DiscrepancyKind = "NONE"
	KindMissing           DiscrepancyKind = "MISSING"
	KindExcess            DiscrepancyKind = "EXCESS"
	KindDamaged           DiscrepancyKind = "DAMAGED"
	KindMissingAndDamaged DiscrepancyKind = "MISSING_AND_DAMAGED"
)

// Next statuses an order can take after reconciliation. No other value is
// ever produced.
const (
	StatusCompleted      = "COMPLETED"
	StatusReconciliation = "RECONCILIATION"
)

// StatusEligible is the only order status reconciliation accepts.
const StatusEligible = "IN_TRANSIT"

// Order is the snapshot of a purchase order handed to the engine. The engine
// never mutates it.
type Order struct {
	ID     int64
	Number string
	Status string
	Lines  []OrderLine
}

// OrderLine is one SKU within the order with its ordered quantity and unit
// price. Lines are immutable once the order exists.
type OrderLine struct {
	SKU       string
	Qty       int64
	UnitPrice decimal.Decimal
}

// ReceivedLine reports what arrived for one SKU. Nil Good means "the full
// ordered quantity arrived in sellable condition"; nil Damaged means zero
// damaged units. Operators therefore only have to report exceptions.
type ReceivedLine struct {
	SKU     string
	Good    *int64
	Damaged *int64
}

// LineDiscrepancy is the derived record for one order line.
type LineDiscrepancy struct {
	SKU                string
	OrderedQty         int64
	ReceivedGoodQty    int64
	ReceivedDamagedQty int64
	TotalReceivedQty   int64
	MissingQty         int64
	ExcessQty          int64
	Kind               DiscrepancyKind
	LossMissing        decimal.Decimal
	LossDamaged        decimal.Decimal
}

// Result is the immutable outcome of reconciling one order.
type Result struct {
	OrderID        int64
	Lines          []LineDiscrepancy
	HasDiscrepancy bool
	HasDamage      bool
	NextStatus     string
	StockDeltas    map[string]int64
	TotalLoss      decimal.Decimal
}

// Deterministic, input-validation-class failures. None are transient and none
// should be retried without changing the input.
var (
	// ErrInvalidQuantity indicates a received or damaged quantity that is
	// negative or unparseable.
	ErrInvalidQuantity = errors.New("reconcile: invalid quantity")
	// ErrInvalidOrderLine indicates an order line with non-positive ordered
	// quantity, which points at upstream data corruption.
	ErrInvalidOrderLine = errors.New("reconcile: invalid order line")
	// ErrUnknownLineItem indicates a received record for a SKU that is not on
	// the order.
	ErrUnknownLineItem = errors.New("reconcile: unknown line item")
	// ErrInvalidOrderState indicates the order is not eligible for
	// reconciliation.
	ErrInvalidOrderState = errors.New("reconcile: order not eligible for reconciliation")
)
