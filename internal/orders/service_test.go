package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/inventory"
	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
)

type memoryOrderRepo struct {
	orders  map[int64]PurchaseOrder
	lines   map[int64][]OrderLine
	discs   map[int64][]reconcile.LineDiscrepancy
	nextID  int64
	failTx  error
	txCalls int
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders: map[int64]PurchaseOrder{},
		lines:  map[int64][]OrderLine{},
		discs:  map[int64][]reconcile.LineDiscrepancy{},
		nextID: 1,
	}
}

func (m *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.txCalls++
	if m.failTx != nil {
		return m.failTx
	}
	return fn(ctx, &memoryOrderTx{repo: m})
}

func (m *memoryOrderRepo) GetOrder(_ context.Context, id int64) (PurchaseOrder, []OrderLine, error) {
	order, ok := m.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return order, m.lines[id], nil
}

func (m *memoryOrderRepo) ListOrders(_ context.Context, limit, offset int, _ ListFilters) ([]PurchaseOrder, int, error) {
	out := make([]PurchaseOrder, 0, len(m.orders))
	for _, order := range m.orders {
		out = append(out, order)
	}
	return out, len(out), nil
}

type memoryOrderTx struct {
	repo *memoryOrderRepo
}

func (t *memoryOrderTx) CreateOrder(_ context.Context, order PurchaseOrder) (int64, error) {
	id := t.repo.nextID
	t.repo.nextID++
	order.ID = id
	order.CreatedAt = time.Now()
	t.repo.orders[id] = order
	return id, nil
}

func (t *memoryOrderTx) InsertLine(_ context.Context, line OrderLine) error {
	t.repo.lines[line.OrderID] = append(t.repo.lines[line.OrderID], line)
	return nil
}

func (t *memoryOrderTx) UpdateStatus(_ context.Context, orderID int64, from, to Status) error {
	order, ok := t.repo.orders[orderID]
	if !ok || order.Status != from {
		return ErrInvalidState
	}
	order.Status = to
	t.repo.orders[orderID] = order
	return nil
}

func (t *memoryOrderTx) SetConfirmed(_ context.Context, orderID int64, at time.Time) error {
	order := t.repo.orders[orderID]
	order.ConfirmedAt = &at
	t.repo.orders[orderID] = order
	return nil
}

func (t *memoryOrderTx) SetShipped(_ context.Context, orderID int64, carrier, trackingNumber string, at time.Time) error {
	order := t.repo.orders[orderID]
	order.TrackingCarrier = carrier
	order.TrackingNumber = trackingNumber
	order.ShippedAt = &at
	t.repo.orders[orderID] = order
	return nil
}

func (t *memoryOrderTx) FinalizeReceipt(_ context.Context, orderID int64, from, to Status, receivedAt time.Time) error {
	if err := t.UpdateStatus(nil, orderID, from, to); err != nil {
		return err
	}
	order := t.repo.orders[orderID]
	order.ReceivedAt = &receivedAt
	t.repo.orders[orderID] = order
	return nil
}

func (t *memoryOrderTx) InsertDiscrepancy(_ context.Context, orderID int64, disc reconcile.LineDiscrepancy) error {
	t.repo.discs[orderID] = append(t.repo.discs[orderID], disc)
	return nil
}

type recordingInventory struct {
	warehouseID int64
	deltas      map[string]int64
	ref         inventory.MovementRef
	calls       int
}

func (r *recordingInventory) ApplyDeltas(_ context.Context, warehouseID int64, deltas map[string]int64, ref inventory.MovementRef) error {
	r.calls++
	r.warehouseID = warehouseID
	r.deltas = deltas
	r.ref = ref
	return nil
}

type recordingNotifier struct {
	events []ReconciliationCompletedEvent
}

func (r *recordingNotifier) HandleReconciliationCompleted(_ context.Context, evt ReconciliationCompletedEvent) error {
	r.events = append(r.events, evt)
	return nil
}

type recordingMetrics struct {
	statuses []string
}

func (r *recordingMetrics) ObserveReconciliation(status string) {
	r.statuses = append(r.statuses, status)
}

func newTestService(repo *memoryOrderRepo) (*Service, *recordingInventory, *recordingNotifier, *recordingMetrics) {
	inv := &recordingInventory{}
	notif := &recordingNotifier{}
	metrics := &recordingMetrics{}
	svc := NewService(repo, inv, nil, nil, nil, notif, metrics, nil)
	return svc, inv, notif, metrics
}

func seedInTransitOrder(t *testing.T, repo *memoryOrderRepo, svc *Service) PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	order, err := svc.Create(ctx, CreateOrderRequest{
		SupplierID:  7,
		WarehouseID: 3,
		Lines: []OrderLineRequest{
			{SKU: "SKU-RED", Qty: 10, UnitPrice: "5.00"},
			{SKU: "SKU-BLUE", Qty: 4, UnitPrice: "12.50"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, order.ID))
	require.NoError(t, svc.Ship(ctx, order.ID, ShipOrderRequest{Carrier: "DHL", TrackingNumber: "TRK-1"}))
	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, stored.Status)
	return stored
}

func TestCreateComputesTotal(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, _, _, _ := newTestService(repo)

	order, err := svc.Create(context.Background(), CreateOrderRequest{
		SupplierID:  1,
		WarehouseID: 1,
		Lines: []OrderLineRequest{
			{SKU: "A", Qty: 3, UnitPrice: "2.50"},
			{SKU: "B", Qty: 1, UnitPrice: "0.99"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusPendingConfirmation, order.Status)
	require.Equal(t, "8.49", order.TotalAmount.StringFixed(2))
	require.Contains(t, order.Number, "PO-")
	require.Len(t, repo.lines[order.ID], 2)
}

func TestCreateRejectsBadPrice(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		SupplierID:  1,
		WarehouseID: 1,
		Lines:       []OrderLineRequest{{SKU: "A", Qty: 1, UnitPrice: "-3"}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, _, _, _ := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateOrderRequest{
		SupplierID:  1,
		WarehouseID: 1,
		Lines:       []OrderLineRequest{{SKU: "A", Qty: 1, UnitPrice: "1.00"}},
	})
	require.NoError(t, err)

	// Shipping before confirmation is refused.
	require.ErrorIs(t, svc.Ship(ctx, order.ID, ShipOrderRequest{}), ErrInvalidState)

	require.NoError(t, svc.Confirm(ctx, order.ID))
	require.ErrorIs(t, svc.Confirm(ctx, order.ID), ErrInvalidState)

	require.NoError(t, svc.Ship(ctx, order.ID, ShipOrderRequest{Carrier: "UPS", TrackingNumber: "1Z"}))
	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, stored.Status)
	require.Equal(t, "UPS", stored.TrackingCarrier)
}

func TestReceivePerfectOrderCompletes(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, inv, notif, metrics := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)
	ctx := context.Background()

	// Empty quantities mean everything arrived intact.
	result, err := svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED"},
		{SKU: "SKU-BLUE"},
	}})
	require.NoError(t, err)
	require.Equal(t, reconcile.StatusCompleted, result.NextStatus)
	require.False(t, result.HasDiscrepancy)
	require.True(t, result.TotalLoss.IsZero())

	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, stored.Status)
	require.NotNil(t, stored.ReceivedAt)

	require.Equal(t, 1, inv.calls)
	require.Equal(t, order.WarehouseID, inv.warehouseID)
	require.Equal(t, map[string]int64{"SKU-RED": 10, "SKU-BLUE": 4}, inv.deltas)
	require.Equal(t, "ORDERS", inv.ref.Module)

	require.Empty(t, notif.events)
	require.Equal(t, []string{reconcile.StatusCompleted}, metrics.statuses)
}

func TestReceiveShortageOpensReconciliation(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, inv, notif, _ := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)
	ctx := context.Background()

	result, err := svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED", Good: "8", Damaged: "1"},
		{SKU: "SKU-BLUE"},
	}})
	require.NoError(t, err)
	require.Equal(t, reconcile.StatusReconciliation, result.NextStatus)
	require.True(t, result.HasDiscrepancy)
	require.True(t, result.HasDamage)
	// 1 missing + 1 damaged at 5.00 each.
	require.Equal(t, "10.00", result.TotalLoss.StringFixed(2))

	// Only the sellable units reach stock.
	require.Equal(t, map[string]int64{"SKU-RED": 8, "SKU-BLUE": 4}, inv.deltas)

	require.Len(t, repo.discs[order.ID], 2)
	require.Len(t, notif.events, 1)
	require.Equal(t, result.TotalLoss, notif.events[0].Result.TotalLoss)

	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReconciliation, stored.Status)
}

func TestReceiveExcessIsLossless(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, inv, notif, _ := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)

	result, err := svc.Receive(context.Background(), order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED", Good: "12"},
		{SKU: "SKU-BLUE"},
	}})
	require.NoError(t, err)
	require.Equal(t, reconcile.StatusReconciliation, result.NextStatus)
	require.True(t, result.TotalLoss.IsZero())
	require.Equal(t, int64(12), inv.deltas["SKU-RED"])
	require.Len(t, notif.events, 1)
}

func TestReceiveFullyDamagedMovesNoStock(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, inv, notif, _ := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)
	ctx := context.Background()

	result, err := svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED", Good: "0", Damaged: "10"},
		{SKU: "SKU-BLUE", Good: "0", Damaged: "4"},
	}})
	require.NoError(t, err)
	require.Equal(t, reconcile.StatusReconciliation, result.NextStatus)
	require.True(t, result.HasDamage)
	// 10 x 5.00 + 4 x 12.50 damaged.
	require.Equal(t, "100.00", result.TotalLoss.StringFixed(2))

	require.Equal(t, 0, inv.calls)
	require.Len(t, notif.events, 1)

	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReconciliation, stored.Status)
}

func TestReceiveRejectsBadInput(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, inv, _, _ := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)
	ctx := context.Background()

	_, err := svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED", Good: "-1"},
	}})
	require.ErrorIs(t, err, reconcile.ErrInvalidQuantity)

	_, err = svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-GREEN", Good: "5"},
	}})
	require.ErrorIs(t, err, reconcile.ErrUnknownLineItem)

	// Nothing persisted, nothing posted to stock.
	require.Equal(t, 0, inv.calls)
	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, stored.Status)
}

func TestReceiveWrongStateRejected(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, _, _, _ := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, CreateOrderRequest{
		SupplierID:  1,
		WarehouseID: 1,
		Lines:       []OrderLineRequest{{SKU: "A", Qty: 1, UnitPrice: "1.00"}},
	})
	require.NoError(t, err)

	_, err = svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{{SKU: "A"}}})
	require.ErrorIs(t, err, reconcile.ErrInvalidOrderState)
}

func TestReceiveSecondAttemptRejected(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc, _, _, _ := newTestService(repo)
	order := seedInTransitOrder(t, repo, svc)
	ctx := context.Background()

	_, err := svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED"}, {SKU: "SKU-BLUE"},
	}})
	require.NoError(t, err)

	// Order left IN_TRANSIT, so another receipt is a state error.
	_, err = svc.Receive(ctx, order.ID, ReceiveOrderRequest{Lines: []ReceivedLineForm{
		{SKU: "SKU-RED"}, {SKU: "SKU-BLUE"},
	}})
	require.ErrorIs(t, err, reconcile.ErrInvalidOrderState)
}
