package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseQuantity sanitises one user-entered quantity field. Empty input yields
// the fallback: the line's ordered quantity for the received-good field, zero
// for the received-damaged field. Anything that is not a non-negative base-10
// integer fails with ErrInvalidQuantity.
func ParseQuantity(raw string, fallback int64) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidQuantity, raw)
	}
	if qty < 0 {
		return 0, fmt.Errorf("%w: quantity cannot be negative (%d)", ErrInvalidQuantity, qty)
	}
	return qty, nil
}

// resolveReceived applies the defaulting rule to one line's received record.
// A missing record, or a record with nil fields, means the operator reported
// nothing unusual: the full ordered quantity arrived and nothing was damaged.
func resolveReceived(line OrderLine, rec *ReceivedLine) (good, damaged int64, err error) {
	good = line.Qty
	if rec != nil && rec.Good != nil {
		good = *rec.Good
	}
	if rec != nil && rec.Damaged != nil {
		damaged = *rec.Damaged
	}
	if good < 0 || damaged < 0 {
		return 0, 0, fmt.Errorf("%w: quantity cannot be negative for SKU %s", ErrInvalidQuantity, line.SKU)
	}
	return good, damaged, nil
}
