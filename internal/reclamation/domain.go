// Package reclamation turns reconciliation outcomes into supplier claim
// drafts: a human-readable summary of what was missing or damaged and the
// amount being reclaimed.
package reclamation

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is a prepared supplier claim awaiting review before it is sent.
type Draft struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	SupplierID    int64           `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	SupplierEmail string          `json:"supplier_email"`
	Subject       string          `json:"subject"`
	Body          string          `json:"body"`
	TotalLoss     decimal.Decimal `json:"total_loss"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ErrNothingToReclaim is returned for results with neither discrepancy nor
// damage; such orders complete silently.
var ErrNothingToReclaim = errors.New("reclamation: result has nothing to reclaim")
