package orders

// CreateOrderRequest is the JSON payload for creating a purchase order.
type CreateOrderRequest struct {
	Number      string             `json:"number"`
	SupplierID  int64              `json:"supplier_id" validate:"required,gt=0"`
	WarehouseID int64              `json:"warehouse_id" validate:"required,gt=0"`
	Lines       []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineRequest is one requested line.
type OrderLineRequest struct {
	SKU       string `json:"sku" validate:"required"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price" validate:"required"`
}

// ShipOrderRequest records tracking metadata when the supplier ships.
type ShipOrderRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// ReceiveOrderRequest carries the operator-entered received quantities.
// Quantities are strings straight from the form: empty received-good means
// the full ordered quantity arrived, empty damaged means zero.
type ReceiveOrderRequest struct {
	Lines []ReceivedLineForm `json:"lines" validate:"dive"`
}

// ReceivedLineForm is the raw per-SKU input.
type ReceivedLineForm struct {
	SKU     string `json:"sku" validate:"required"`
	Good    string `json:"received_good"`
	Damaged string `json:"received_damaged"`
}
