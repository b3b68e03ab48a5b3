package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/inventory"
	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
	"github.com/stockpilot/stockpilot/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, []OrderLine, error)
	ListOrders(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error)
}

// InventoryPort exposes required inventory integration.
type InventoryPort interface {
	ApplyDeltas(ctx context.Context, warehouseID int64, deltas map[string]int64, ref inventory.MovementRef) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts reconciliation outcomes.
type MetricsPort interface {
	ObserveReconciliation(status string)
}

// Service orchestrates the purchase order lifecycle and goods receipt.
type Service struct {
	repo        RepositoryPort
	inventory   InventoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	locker      *shared.OrderLocker
	notifier    NotifierPort
	metrics     MetricsPort
	logger      *slog.Logger
}

// NewService constructs the orders service. Locker, notifier, metrics and
// audit may be nil in tests.
func NewService(repo RepositoryPort, inv InventoryPort, audit AuditPort, idem *shared.IdempotencyStore, locker *shared.OrderLocker, notifier NotifierPort, metrics MetricsPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, inventory: inv, audit: audit, idempotency: idem, locker: locker, notifier: notifier, metrics: metrics, logger: logger}
}

// Create persists a purchase order with its lines in pending confirmation.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: at least one line required", ErrValidation)
	}
	number := req.Number
	if number == "" {
		number = generateNumber("PO")
	}
	total := decimal.Zero
	lines := make([]OrderLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.SKU == "" || line.Qty <= 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: line requires sku and positive qty", ErrValidation)
		}
		price, err := decimal.NewFromString(line.UnitPrice)
		if err != nil || price.IsNegative() {
			return PurchaseOrder{}, fmt.Errorf("%w: invalid unit price for SKU %s", ErrValidation, line.SKU)
		}
		lines = append(lines, OrderLine{SKU: line.SKU, Qty: line.Qty, UnitPrice: price})
		total = total.Add(price.Mul(decimal.NewFromInt(line.Qty)))
	}
	order := PurchaseOrder{
		Number:      number,
		SupplierID:  req.SupplierID,
		WarehouseID: req.WarehouseID,
		Status:      StatusPendingConfirmation,
		TotalAmount: total.Round(2),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orderID, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID
		for _, line := range lines {
			line.OrderID = orderID
			if err := tx.InsertLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "ORDER_CREATE", order.ID, map[string]any{"number": order.Number, "total": order.TotalAmount.String()})
	return order, nil
}

// Confirm transitions a pending order to preparing.
func (s *Service) Confirm(ctx context.Context, orderID int64) error {
	return s.transition(ctx, orderID, StatusPendingConfirmation, StatusPreparing, "ORDER_CONFIRM", func(ctx context.Context, tx TxRepository, now time.Time) error {
		return tx.SetConfirmed(ctx, orderID, now)
	})
}

// Ship transitions a preparing order to in transit and records tracking.
func (s *Service) Ship(ctx context.Context, orderID int64, req ShipOrderRequest) error {
	return s.transition(ctx, orderID, StatusPreparing, StatusInTransit, "ORDER_SHIP", func(ctx context.Context, tx TxRepository, now time.Time) error {
		return tx.SetShipped(ctx, orderID, req.Carrier, req.TrackingNumber, now)
	})
}

// Receive reconciles an in-transit order against the reported quantities and
// persists the outcome: the order's terminal status, the per-line discrepancy
// records for audit, and the stock deltas. The status update is guarded by
// the current status so a concurrent second receipt cannot double-apply.
func (s *Service) Receive(ctx context.Context, orderID int64, req ReceiveOrderRequest) (reconcile.Result, error) {
	order, lines, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return reconcile.Result{}, err
	}
	if order.Status != StatusInTransit {
		return reconcile.Result{}, fmt.Errorf("%w: status %s", reconcile.ErrInvalidOrderState, order.Status)
	}

	if s.locker != nil {
		if err := s.locker.Acquire(ctx, orderID); err != nil {
			return reconcile.Result{}, err
		}
		defer s.locker.Release(ctx, orderID)
	}

	received, err := parseReceivedLines(lines, req.Lines)
	if err != nil {
		return reconcile.Result{}, err
	}

	engineOrder := reconcile.Order{
		ID:     order.ID,
		Number: order.Number,
		Status: reconcile.StatusEligible,
		Lines:  make([]reconcile.OrderLine, 0, len(lines)),
	}
	for _, line := range lines {
		engineOrder.Lines = append(engineOrder.Lines, reconcile.OrderLine{SKU: line.SKU, Qty: line.Qty, UnitPrice: line.UnitPrice})
	}
	result, err := reconcile.Reconcile(engineOrder, received)
	if err != nil {
		return reconcile.Result{}, err
	}

	key := fmt.Sprintf("RECON:%s", order.Number)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "orders.reconcile"); err != nil {
			return reconcile.Result{}, err
		}
		inserted = true
	}
	now := time.Now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.FinalizeReceipt(ctx, orderID, StatusInTransit, Status(result.NextStatus), now); err != nil {
			return err
		}
		for _, disc := range result.Lines {
			if err := tx.InsertDiscrepancy(ctx, orderID, disc); err != nil {
				return err
			}
		}
		if s.inventory == nil {
			return errors.New("orders: inventory integration not configured")
		}
		// A fully missing or fully damaged shipment moves no stock.
		if !hasPositiveDelta(result.StockDeltas) {
			return nil
		}
		// Deterministic ref so a replayed receipt maps to the same movement.
		refID := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("GRN:%s", order.Number)))
		return s.inventory.ApplyDeltas(ctx, order.WarehouseID, result.StockDeltas, inventory.MovementRef{
			Module: "ORDERS",
			ID:     refID.String(),
			Note:   fmt.Sprintf("goods receipt %s", order.Number),
		})
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return reconcile.Result{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveReconciliation(result.NextStatus)
	}
	s.recordAudit(ctx, "ORDER_RECEIVE", orderID, map[string]any{
		"number":      order.Number,
		"next_status": result.NextStatus,
		"total_loss":  result.TotalLoss.String(),
		"has_damage":  result.HasDamage,
	})

	if s.notifier != nil && (result.HasDiscrepancy || result.HasDamage) {
		order.Status = Status(result.NextStatus)
		order.ReceivedAt = &now
		if err := s.notifier.HandleReconciliationCompleted(ctx, ReconciliationCompletedEvent{Order: order, Result: result}); err != nil {
			// The result is already durable; a failed draft is logged, not fatal.
			s.log().Warn("reclamation notify", slog.Any("error", err), slog.Int64("order_id", orderID))
		}
	}
	return result, nil
}

// Get returns one order with its lines.
func (s *Service) Get(ctx context.Context, orderID int64) (PurchaseOrder, []OrderLine, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListOrders(ctx, limit, offset, filters)
}

func (s *Service) transition(ctx context.Context, orderID int64, from, to Status, action string, extra func(context.Context, TxRepository, time.Time) error) error {
	order, _, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, order.Status, to)
	}
	now := time.Now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStatus(ctx, orderID, from, to); err != nil {
			return err
		}
		if extra != nil {
			return extra(ctx, tx, now)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, action, orderID, map[string]any{"number": order.Number, "status": string(to)})
	return nil
}

// parseReceivedLines validates the raw form input against the order lines
// before the engine runs, so a bad quantity is reported per SKU.
func parseReceivedLines(lines []OrderLine, forms []ReceivedLineForm) ([]reconcile.ReceivedLine, error) {
	qtyBySKU := make(map[string]int64, len(lines))
	for _, line := range lines {
		qtyBySKU[line.SKU] = line.Qty
	}
	received := make([]reconcile.ReceivedLine, 0, len(forms))
	for _, form := range forms {
		orderedQty, onOrder := qtyBySKU[form.SKU]
		if !onOrder {
			return nil, fmt.Errorf("%w: SKU %s", reconcile.ErrUnknownLineItem, form.SKU)
		}
		good, err := reconcile.ParseQuantity(form.Good, orderedQty)
		if err != nil {
			return nil, fmt.Errorf("received-good for SKU %s: %w", form.SKU, err)
		}
		damaged, err := reconcile.ParseQuantity(form.Damaged, 0)
		if err != nil {
			return nil, fmt.Errorf("received-damaged for SKU %s: %w", form.SKU, err)
		}
		received = append(received, reconcile.ReceivedLine{SKU: form.SKU, Good: &good, Damaged: &damaged})
	}
	return received, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "purchase_orders", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func hasPositiveDelta(deltas map[string]int64) bool {
	for _, qty := range deltas {
		if qty > 0 {
			return true
		}
	}
	return false
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
