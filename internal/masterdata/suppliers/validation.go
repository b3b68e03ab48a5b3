package suppliers

import (
	"fmt"
	"strings"

	"github.com/stockpilot/stockpilot/internal/masterdata/shared"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Code) == "" {
		return fmt.Errorf("%w: supplier code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(sup.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", shared.ErrValidation)
	}
	// Reclamation drafts go out by mail, so a contact address is mandatory.
	if strings.TrimSpace(sup.Email) == "" {
		return fmt.Errorf("%w: supplier email is required", shared.ErrValidation)
	}
	return nil
}
