package products

import (
	"fmt"
	"strings"

	"github.com/stockpilot/stockpilot/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product SKU is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if p.UnitPrice.IsNegative() || p.UnitCost.IsNegative() {
		return fmt.Errorf("%w: prices must be non-negative", shared.ErrValidation)
	}
	return nil
}
