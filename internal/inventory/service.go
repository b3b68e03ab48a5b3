package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/stockpilot/stockpilot/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLevels(ctx context.Context, warehouseID int64) ([]StockLevel, error)
	ListMovements(ctx context.Context, warehouseID int64, sku string, limit int) ([]Movement, error)
	ListBelowReorderPoint(ctx context.Context) ([]StockLevel, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock level reads and delta application.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ApplyDeltas applies per-SKU sellable-stock increments in one transaction.
// Each SKU is updated with an atomic in-place increment, never a
// read-modify-write, so concurrent orders touching the same SKU stay correct.
// A ledger movement row is written for every non-zero delta.
func (s *Service) ApplyDeltas(ctx context.Context, warehouseID int64, deltas map[string]int64, ref MovementRef) error {
	if warehouseID == 0 {
		return ErrInvalidWarehouse
	}
	if ref.Module == "" || ref.ID == "" {
		return ErrInvalidRef
	}
	skus := make([]string, 0, len(deltas))
	for sku, qty := range deltas {
		if qty == 0 {
			continue
		}
		skus = append(skus, sku)
	}
	if len(skus) == 0 {
		return ErrEmptyDelta
	}
	sort.Strings(skus)

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, sku := range skus {
			if err := tx.IncrementOnHand(ctx, warehouseID, sku, deltas[sku]); err != nil {
				return fmt.Errorf("inventory: increment %s: %w", sku, err)
			}
			if err := tx.InsertMovement(ctx, Movement{
				WarehouseID: warehouseID,
				SKU:         sku,
				Qty:         deltas[sku],
				RefModule:   ref.Module,
				RefID:       ref.ID,
				Note:        ref.Note,
			}); err != nil {
				return fmt.Errorf("inventory: movement %s: %w", sku, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "STOCK_DELTA",
			Entity:   "stock_levels",
			EntityID: ref.ID,
			Meta:     map[string]any{"warehouse_id": warehouseID, "skus": len(skus), "ref_module": ref.Module},
		})
	}
	return nil
}

// Levels lists stock levels for a warehouse.
func (s *Service) Levels(ctx context.Context, warehouseID int64) ([]StockLevel, error) {
	if warehouseID == 0 {
		return nil, ErrInvalidWarehouse
	}
	return s.repo.ListLevels(ctx, warehouseID)
}

// Movements lists recent ledger entries for a warehouse, optionally filtered
// by SKU.
func (s *Service) Movements(ctx context.Context, warehouseID int64, sku string, limit int) ([]Movement, error) {
	if warehouseID == 0 {
		return nil, ErrInvalidWarehouse
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListMovements(ctx, warehouseID, sku, limit)
}

// ReorderSuggestions lists SKUs at or below their reorder point with the
// quantity to order. The suggested quantity refills up to reorder point plus
// the configured reorder batch.
func (s *Service) ReorderSuggestions(ctx context.Context) ([]ReorderSuggestion, error) {
	levels, err := s.repo.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, err
	}
	suggestions := make([]ReorderSuggestion, 0, len(levels))
	for _, level := range levels {
		suggested := level.ReorderPoint - level.OnHand + level.ReorderQty
		if suggested <= 0 {
			continue
		}
		suggestions = append(suggestions, ReorderSuggestion{
			WarehouseID:  level.WarehouseID,
			SKU:          level.SKU,
			OnHand:       level.OnHand,
			ReorderPoint: level.ReorderPoint,
			SuggestedQty: suggested,
		})
	}
	return suggestions, nil
}
