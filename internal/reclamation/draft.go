package reclamation

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockpilot/stockpilot/internal/masterdata/suppliers"
	"github.com/stockpilot/stockpilot/internal/orders/reconcile"
)

// Drafter renders claim drafts in a fixed locale and currency so two drafts
// for the same result are byte-identical.
type Drafter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewDrafter builds a Drafter for the given ISO 4217 currency code. An
// unknown code falls back to USD.
func NewDrafter(currencyCode string) *Drafter {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	return &Drafter{
		printer: message.NewPrinter(language.English),
		unit:    unit,
	}
}

// Draft prepares a supplier claim for a reconciliation result. Results
// without discrepancy or damage return ErrNothingToReclaim.
func (d *Drafter) Draft(orderNumber string, supplier suppliers.Supplier, result reconcile.Result) (Draft, error) {
	if !result.HasDiscrepancy && !result.HasDamage {
		return Draft{}, ErrNothingToReclaim
	}

	var b strings.Builder
	d.printer.Fprintf(&b, "Dear %s,\n\n", supplier.Name)
	d.printer.Fprintf(&b, "During goods receipt of purchase order %s we recorded the following issues:\n\n", orderNumber)

	for _, line := range result.Lines {
		switch line.Kind {
		case reconcile.KindMissing:
			d.printer.Fprintf(&b, "  - %s: %d of %d units missing (%s)\n",
				line.SKU, line.MissingQty, line.OrderedQty, d.amount(line.LossMissing.InexactFloat64()))
		case reconcile.KindDamaged:
			d.printer.Fprintf(&b, "  - %s: %d units arrived damaged (%s)\n",
				line.SKU, line.ReceivedDamagedQty, d.amount(line.LossDamaged.InexactFloat64()))
		case reconcile.KindMissingAndDamaged:
			d.printer.Fprintf(&b, "  - %s: %d units missing and %d damaged (%s)\n",
				line.SKU, line.MissingQty, line.ReceivedDamagedQty,
				d.amount(line.LossMissing.Add(line.LossDamaged).InexactFloat64()))
		case reconcile.KindExcess:
			d.printer.Fprintf(&b, "  - %s: %d units over the ordered quantity of %d, held for your instruction\n",
				line.SKU, line.ExcessQty, line.OrderedQty)
		}
	}

	d.printer.Fprintf(&b, "\nTotal amount reclaimed: %s\n", d.amount(result.TotalLoss.InexactFloat64()))
	b.WriteString("\nPlease confirm how you wish to settle this claim.\n")

	return Draft{
		OrderID:       result.OrderID,
		OrderNumber:   orderNumber,
		SupplierID:    supplier.ID,
		SupplierName:  supplier.Name,
		SupplierEmail: supplier.Email,
		Subject:       fmt.Sprintf("Reclamation for purchase order %s", orderNumber),
		Body:          b.String(),
		TotalLoss:     result.TotalLoss,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

func (d *Drafter) amount(v float64) string {
	return d.printer.Sprintf("%v", currency.Symbol(d.unit.Amount(v)))
}
