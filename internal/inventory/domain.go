package inventory

import (
	"errors"
	"time"
)

// StockLevel summarises sellable stock for one SKU in one warehouse.
type StockLevel struct {
	WarehouseID  int64     `json:"warehouse_id"`
	SKU          string    `json:"sku"`
	OnHand       int64     `json:"on_hand"`
	ReorderPoint int64     `json:"reorder_point"`
	ReorderQty   int64     `json:"reorder_qty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Movement is one row of the stock movement ledger. Qty is signed: positive
// for inbound, negative for outbound adjustments.
type Movement struct {
	ID          int64     `json:"id"`
	WarehouseID int64     `json:"warehouse_id"`
	SKU         string    `json:"sku"`
	Qty         int64     `json:"qty"`
	RefModule   string    `json:"ref_module"`
	RefID       string    `json:"ref_id"`
	Note        string    `json:"note"`
	PostedAt    time.Time `json:"posted_at"`
}

// MovementRef ties applied deltas back to the document that caused them.
type MovementRef struct {
	Module string
	ID     string
	Note   string
}

// ReorderSuggestion flags a SKU at or below its reorder point.
type ReorderSuggestion struct {
	WarehouseID  int64  `json:"warehouse_id"`
	SKU          string `json:"sku"`
	OnHand       int64  `json:"on_hand"`
	ReorderPoint int64  `json:"reorder_point"`
	SuggestedQty int64  `json:"suggested_qty"`
}

var (
	// ErrInvalidWarehouse indicates a missing warehouse reference.
	ErrInvalidWarehouse = errors.New("inventory: warehouse required")
	// ErrEmptyDelta indicates an ApplyDeltas call with nothing to apply.
	ErrEmptyDelta = errors.New("inventory: no deltas to apply")
	// ErrInvalidRef indicates a movement reference without module or id.
	ErrInvalidRef = errors.New("inventory: movement reference requires module and id")
)
