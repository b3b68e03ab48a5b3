package orders

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
	"github.com/stockpilot/stockpilot/internal/platform/httpx"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// Handler exposes the purchase order JSON API.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Post("/confirm", h.confirm)
		r.Post("/ship", h.ship)
		r.Post("/receive", h.receive)
	})
	return r
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, orderView(order, nil))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	supplierID, _ := strconv.ParseInt(r.URL.Query().Get("supplier_id"), 10, 64)
	filters := ListFilters{
		Status:     r.URL.Query().Get("status"),
		SupplierID: supplierID,
	}
	orders, total, err := h.service.List(r.Context(), limit, offset, filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]map[string]any, 0, len(orders))
	for _, order := range orders {
		views = append(views, orderView(order, nil))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": views, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	order, lines, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderView(order, lines))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.Confirm(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(StatusPreparing)})
}

func (h *Handler) ship(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req ShipOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Ship(r.Context(), id, req); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(StatusInTransit)})
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req ReceiveOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Receive(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resultView(result))
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "order id must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondError keeps the public messages deliberately uneven: bad quantities
// tell the operator which field to fix, while an unknown SKU in the payload
// gets a generic message since it signals a stale or tampered client.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcile.ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Quantity", err.Error())
	case errors.Is(err, reconcile.ErrUnknownLineItem):
		httpx.Problem(w, http.StatusBadRequest, "Cannot Reconcile", "cannot reconcile this order")
	case errors.Is(err, reconcile.ErrInvalidOrderState), errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid Order State", err.Error())
	case errors.Is(err, shared.ErrOrderLocked):
		httpx.Problem(w, http.StatusConflict, "Order Locked", "a receipt for this order is already in progress")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Already Reconciled", "this order has already been reconciled")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, reconcile.ErrInvalidOrderLine):
		// Order data itself is corrupt; nothing the caller can fix.
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		httpx.RespondError(w, err)
	}
}

func orderView(order PurchaseOrder, lines []OrderLine) map[string]any {
	view := map[string]any{
		"id":           order.ID,
		"number":       order.Number,
		"supplier_id":  order.SupplierID,
		"warehouse_id": order.WarehouseID,
		"status":       order.Status,
		"total_amount": order.TotalAmount.StringFixed(2),
		"created_at":   order.CreatedAt,
	}
	if order.TrackingNumber != "" {
		view["tracking_carrier"] = order.TrackingCarrier
		view["tracking_number"] = order.TrackingNumber
	}
	if order.ReceivedAt != nil {
		view["received_at"] = order.ReceivedAt
	}
	if lines != nil {
		lineViews := make([]map[string]any, 0, len(lines))
		for _, line := range lines {
			lineViews = append(lineViews, map[string]any{
				"sku":        line.SKU,
				"qty":        line.Qty,
				"unit_price": line.UnitPrice.StringFixed(2),
			})
		}
		view["lines"] = lineViews
	}
	return view
}

func resultView(result reconcile.Result) map[string]any {
	lines := make([]map[string]any, 0, len(result.Lines))
	for _, disc := range result.Lines {
		lines = append(lines, map[string]any{
			"sku":                  disc.SKU,
			"ordered_qty":          disc.OrderedQty,
			"received_good_qty":    disc.ReceivedGoodQty,
			"received_damaged_qty": disc.ReceivedDamagedQty,
			"missing_qty":          disc.MissingQty,
			"excess_qty":           disc.ExcessQty,
			"kind":                 disc.Kind,
		})
	}
	return map[string]any{
		"order_id":        result.OrderID,
		"next_status":     result.NextStatus,
		"has_discrepancy": result.HasDiscrepancy,
		"has_damage":      result.HasDamage,
		"total_loss":      result.TotalLoss.StringFixed(2),
		"lines":           lines,
	}
}
