package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ComputeLineDiscrepancy derives the discrepancy record for one order line.
// Missing and excess quantities are mutually exclusive by construction.
// Per-line losses stay unrounded; rounding happens once, on the aggregated
// total, to avoid compounding rounding error.
func ComputeLineDiscrepancy(line OrderLine, receivedGood, receivedDamaged int64) (LineDiscrepancy, error) {
	if line.Qty <= 0 {
		return LineDiscrepancy{}, fmt.Errorf("%w: SKU %s has ordered quantity %d", ErrInvalidOrderLine, line.SKU, line.Qty)
	}
	if receivedGood < 0 || receivedDamaged < 0 {
		return LineDiscrepancy{}, fmt.Errorf("%w: quantity cannot be negative for SKU %s", ErrInvalidQuantity, line.SKU)
	}

	total := receivedGood + receivedDamaged
	missing := line.Qty - total
	if missing < 0 {
		missing = 0
	}
	excess := total - line.Qty
	if excess < 0 {
		excess = 0
	}

	kind := KindNone
	switch {
	case missing > 0 && receivedDamaged > 0:
		kind = KindMissingAndDamaged
	case missing > 0:
		kind = KindMissing
	case receivedDamaged > 0:
		kind = KindDamaged
	case excess > 0:
		kind = KindExcess
	}

	return LineDiscrepancy{
		SKU:                line.SKU,
		OrderedQty:         line.Qty,
		ReceivedGoodQty:    receivedGood,
		ReceivedDamagedQty: receivedDamaged,
		TotalReceivedQty:   total,
		MissingQty:         missing,
		ExcessQty:          excess,
		Kind:               kind,
		LossMissing:        line.UnitPrice.Mul(decimal.NewFromInt(missing)),
		LossDamaged:        line.UnitPrice.Mul(decimal.NewFromInt(receivedDamaged)),
	}, nil
}

// ResolveDisposition aggregates line discrepancies into the order-level
// verdict. Any deviation from perfect receipt routes the order to human
// review; the engine never attempts automated partial resolution.
func ResolveDisposition(lines []LineDiscrepancy) (nextStatus string, hasDiscrepancy, hasDamage bool) {
	nextStatus = StatusCompleted
	for _, line := range lines {
		if line.Kind != KindNone {
			hasDiscrepancy = true
			nextStatus = StatusReconciliation
		}
		if line.ReceivedDamagedQty > 0 {
			hasDamage = true
		}
	}
	return nextStatus, hasDiscrepancy, hasDamage
}

// BuildStockDeltas computes the sellable-stock increment per SKU. Only units
// received in good condition count; damaged and missing units never enter
// stock. Lines sharing a SKU are summed. This is a total function over
// already-validated input.
func BuildStockDeltas(lines []LineDiscrepancy) map[string]int64 {
	deltas := make(map[string]int64, len(lines))
	for _, line := range lines {
		deltas[line.SKU] += line.ReceivedGoodQty
	}
	return deltas
}

// Reconcile runs the full engine for one order: validate the received
// records, compute each line discrepancy, resolve the order disposition and
// build the stock deltas. It is a pure function; for fixed inputs it always
// returns the same Result. Callers must prevent re-invocation for an already
// reconciled order, typically with a status-guarded update.
func Reconcile(order Order, received []ReceivedLine) (Result, error) {
	if order.Status != StatusEligible {
		return Result{}, fmt.Errorf("%w: status %s", ErrInvalidOrderState, order.Status)
	}
	if len(order.Lines) == 0 {
		return Result{}, fmt.Errorf("%w: order %s has no lines", ErrInvalidOrderLine, order.Number)
	}

	bySKU := make(map[string]*ReceivedLine, len(received))
	for i := range received {
		rec := &received[i]
		if _, onOrder := lineIndex(order.Lines, rec.SKU); !onOrder {
			return Result{}, fmt.Errorf("%w: SKU %s is not on order %s", ErrUnknownLineItem, rec.SKU, order.Number)
		}
		bySKU[rec.SKU] = rec
	}

	result := Result{
		OrderID:   order.ID,
		Lines:     make([]LineDiscrepancy, 0, len(order.Lines)),
		TotalLoss: decimal.Zero,
	}
	for _, line := range order.Lines {
		good, damaged, err := resolveReceived(line, bySKU[line.SKU])
		if err != nil {
			return Result{}, err
		}
		disc, err := ComputeLineDiscrepancy(line, good, damaged)
		if err != nil {
			return Result{}, err
		}
		result.Lines = append(result.Lines, disc)
		result.TotalLoss = result.TotalLoss.Add(disc.LossMissing).Add(disc.LossDamaged)
	}

	result.NextStatus, result.HasDiscrepancy, result.HasDamage = ResolveDisposition(result.Lines)
	result.StockDeltas = BuildStockDeltas(result.Lines)
	// Round half-up to cents once, after aggregation.
	result.TotalLoss = result.TotalLoss.Round(2)
	return result, nil
}

func lineIndex(lines []OrderLine, sku string) (int, bool) {
	for i, line := range lines {
		if line.SKU == sku {
			return i, true
		}
	}
	return 0, false
}
