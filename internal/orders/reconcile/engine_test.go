package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(v int64) *int64 { return &v }

func singleLineOrder(qty int64, unitPrice string) Order {
	return Order{
		ID:     1,
		Number: "PO-1001",
		Status: StatusEligible,
		Lines:  []OrderLine{{SKU: "SKU-A", Qty: qty, UnitPrice: price(unitPrice)}},
	}
}

func TestReconcilePerfectReceipt(t *testing.T) {
	res, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(10), Damaged: ptr(0)},
	})
	require.NoError(t, err)
	require.Equal(t, KindNone, res.Lines[0].Kind)
	require.Equal(t, int64(10), res.StockDeltas["SKU-A"])
	require.Equal(t, StatusCompleted, res.NextStatus)
	require.False(t, res.HasDiscrepancy)
	require.False(t, res.HasDamage)
	require.True(t, res.TotalLoss.IsZero())
}

func TestReconcileMissingUnits(t *testing.T) {
	res, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(8), Damaged: ptr(0)},
	})
	require.NoError(t, err)
	line := res.Lines[0]
	require.Equal(t, int64(2), line.MissingQty)
	require.Equal(t, KindMissing, line.Kind)
	require.Equal(t, int64(8), res.StockDeltas["SKU-A"])
	require.Equal(t, StatusReconciliation, res.NextStatus)
	require.Equal(t, "10", res.TotalLoss.String())
}

func TestReconcileDamagedOnly(t *testing.T) {
	res, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(8), Damaged: ptr(2)},
	})
	require.NoError(t, err)
	line := res.Lines[0]
	require.Equal(t, int64(0), line.MissingQty)
	require.Equal(t, KindDamaged, line.Kind)
	require.Equal(t, int64(8), res.StockDeltas["SKU-A"], "damaged units never enter stock")
	require.Equal(t, StatusReconciliation, res.NextStatus)
	require.True(t, res.HasDamage)
	require.Equal(t, "10", res.TotalLoss.String())
}

func TestReconcileMissingAndDamaged(t *testing.T) {
	res, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(7), Damaged: ptr(1)},
	})
	require.NoError(t, err)
	line := res.Lines[0]
	require.Equal(t, int64(8), line.TotalReceivedQty)
	require.Equal(t, int64(2), line.MissingQty)
	require.Equal(t, KindMissingAndDamaged, line.Kind)
	require.Equal(t, int64(7), res.StockDeltas["SKU-A"])
	require.Equal(t, "15", res.TotalLoss.String())
}

func TestReconcileExcessIsLossless(t *testing.T) {
	res, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(12), Damaged: ptr(0)},
	})
	require.NoError(t, err)
	line := res.Lines[0]
	require.Equal(t, int64(2), line.ExcessQty)
	require.Equal(t, int64(0), line.MissingQty)
	require.Equal(t, KindExcess, line.Kind)
	require.Equal(t, int64(12), res.StockDeltas["SKU-A"])
	require.Equal(t, StatusReconciliation, res.NextStatus)
	require.True(t, res.TotalLoss.IsZero(), "excess inventory is not a loss to the buyer")
}

func TestReconcileNegativeQuantityRejected(t *testing.T) {
	_, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(-1)},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReconcileDefaultsToFullReceipt(t *testing.T) {
	// No received records at all: everything arrived fine.
	res, err := Reconcile(singleLineOrder(10, "5.00"), nil)
	require.NoError(t, err)
	require.Equal(t, KindNone, res.Lines[0].Kind)
	require.Equal(t, int64(10), res.StockDeltas["SKU-A"])
	require.Equal(t, StatusCompleted, res.NextStatus)
}

func TestReconcileDamagedReplacedInFullShipment(t *testing.T) {
	// Supplier shipped replacements already: quantities reconcile but damage
	// still drives the reclamation flag.
	order := singleLineOrder(10, "0")
	res, err := Reconcile(order, []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(9), Damaged: ptr(1)},
	})
	require.NoError(t, err)
	require.True(t, res.HasDamage)
	require.True(t, res.HasDiscrepancy)
	require.True(t, res.TotalLoss.IsZero(), "zero unit price yields zero loss but the discrepancy is still recorded")
}

func TestReconcileUnknownSKU(t *testing.T) {
	_, err := Reconcile(singleLineOrder(10, "5.00"), []ReceivedLine{
		{SKU: "SKU-B", Good: ptr(5)},
	})
	require.ErrorIs(t, err, ErrUnknownLineItem)
}

func TestReconcileWrongOrderState(t *testing.T) {
	order := singleLineOrder(10, "5.00")
	order.Status = "PREPARING"
	_, err := Reconcile(order, nil)
	require.ErrorIs(t, err, ErrInvalidOrderState)
}

func TestReconcileZeroOrderedQtyFails(t *testing.T) {
	_, err := Reconcile(singleLineOrder(0, "5.00"), nil)
	require.ErrorIs(t, err, ErrInvalidOrderLine)
}

func TestReconcileDuplicateSKUSumsDeltas(t *testing.T) {
	order := Order{
		ID:     2,
		Number: "PO-1002",
		Status: StatusEligible,
		Lines: []OrderLine{
			{SKU: "SKU-A", Qty: 4, UnitPrice: price("2.50")},
			{SKU: "SKU-A", Qty: 6, UnitPrice: price("2.50")},
		},
	}
	res, err := Reconcile(order, nil)
	require.NoError(t, err)
	require.Equal(t, int64(10), res.StockDeltas["SKU-A"])
}

func TestReconcileMultiLineAggregation(t *testing.T) {
	order := Order{
		ID:     3,
		Number: "PO-1003",
		Status: StatusEligible,
		Lines: []OrderLine{
			{SKU: "SKU-A", Qty: 10, UnitPrice: price("5.00")},
			{SKU: "SKU-B", Qty: 3, UnitPrice: price("19.99")},
			{SKU: "SKU-C", Qty: 5, UnitPrice: price("1.25")},
		},
	}
	res, err := Reconcile(order, []ReceivedLine{
		{SKU: "SKU-A", Good: ptr(9)},                  // 1 missing -> 5.00
		{SKU: "SKU-B", Good: ptr(2), Damaged: ptr(1)}, // 1 damaged -> 19.99
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)
	require.Equal(t, StatusReconciliation, res.NextStatus)
	require.True(t, res.HasDamage)
	require.Equal(t, "24.99", res.TotalLoss.StringFixed(2))
	require.Equal(t, map[string]int64{"SKU-A": 9, "SKU-B": 2, "SKU-C": 5}, res.StockDeltas)
	// Result lines keep input order.
	require.Equal(t, "SKU-A", res.Lines[0].SKU)
	require.Equal(t, "SKU-C", res.Lines[2].SKU)
}

func TestReconcileDeterministic(t *testing.T) {
	order := singleLineOrder(10, "5.00")
	received := []ReceivedLine{{SKU: "SKU-A", Good: ptr(7), Damaged: ptr(1)}}
	first, err := Reconcile(order, received)
	require.NoError(t, err)
	second, err := Reconcile(order, received)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestConservationProperty(t *testing.T) {
	// Never both missing and excess on the same line.
	cases := []struct{ good, damaged int64 }{
		{0, 0}, {5, 0}, {10, 0}, {12, 0}, {8, 2}, {9, 3}, {0, 10}, {0, 15},
	}
	line := OrderLine{SKU: "SKU-A", Qty: 10, UnitPrice: price("1.00")}
	for _, tc := range cases {
		disc, err := ComputeLineDiscrepancy(line, tc.good, tc.damaged)
		require.NoError(t, err)
		require.False(t, disc.MissingQty > 0 && disc.ExcessQty > 0,
			"good=%d damaged=%d produced both missing and excess", tc.good, tc.damaged)
		require.LessOrEqual(t, disc.ReceivedGoodQty, disc.TotalReceivedQty)
	}
}

func TestLossNonNegativity(t *testing.T) {
	line := OrderLine{SKU: "SKU-A", Qty: 10, UnitPrice: price("3.33")}
	for good := int64(0); good <= 12; good++ {
		for damaged := int64(0); damaged <= 3; damaged++ {
			disc, err := ComputeLineDiscrepancy(line, good, damaged)
			require.NoError(t, err)
			loss := disc.LossMissing.Add(disc.LossDamaged)
			require.False(t, loss.IsNegative())
			if disc.MissingQty == 0 && disc.ReceivedDamagedQty == 0 {
				require.True(t, loss.IsZero())
			} else {
				require.True(t, loss.IsPositive())
			}
		}
	}
}
