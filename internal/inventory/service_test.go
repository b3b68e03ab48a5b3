package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type levelKey struct {
	warehouseID int64
	sku         string
}

type memoryInvRepo struct {
	levels    map[levelKey]StockLevel
	movements []Movement
	nextID    int64
}

type memoryInvTx struct {
	repo *memoryInvRepo
}

func newMemoryInvRepo() *memoryInvRepo {
	return &memoryInvRepo{levels: make(map[levelKey]StockLevel)}
}

func (r *memoryInvRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryInvTx{repo: r})
}

func (r *memoryInvRepo) ListLevels(ctx context.Context, warehouseID int64) ([]StockLevel, error) {
	var levels []StockLevel
	for key, level := range r.levels {
		if key.warehouseID == warehouseID {
			levels = append(levels, level)
		}
	}
	return levels, nil
}

func (r *memoryInvRepo) ListMovements(ctx context.Context, warehouseID int64, sku string, limit int) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.WarehouseID == warehouseID && (sku == "" || m.SKU == sku) {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryInvRepo) ListBelowReorderPoint(ctx context.Context) ([]StockLevel, error) {
	var out []StockLevel
	for _, level := range r.levels {
		if level.ReorderPoint > 0 && level.OnHand <= level.ReorderPoint {
			out = append(out, level)
		}
	}
	return out, nil
}

func (tx *memoryInvTx) IncrementOnHand(ctx context.Context, warehouseID int64, sku string, delta int64) error {
	key := levelKey{warehouseID: warehouseID, sku: sku}
	level, ok := tx.repo.levels[key]
	if !ok {
		level = StockLevel{WarehouseID: warehouseID, SKU: sku}
	}
	level.OnHand += delta
	tx.repo.levels[key] = level
	return nil
}

func (tx *memoryInvTx) InsertMovement(ctx context.Context, m Movement) error {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return nil
}

func TestApplyDeltasIncrementsAndLogs(t *testing.T) {
	repo := newMemoryInvRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	err := svc.ApplyDeltas(ctx, 1, map[string]int64{"SKU-A": 8, "SKU-B": 3, "SKU-C": 0}, MovementRef{
		Module: "ORDERS",
		ID:     "RECON:PO-1001",
		Note:   "goods receipt PO-1001",
	})
	require.NoError(t, err)

	require.Equal(t, int64(8), repo.levels[levelKey{1, "SKU-A"}].OnHand)
	require.Equal(t, int64(3), repo.levels[levelKey{1, "SKU-B"}].OnHand)
	_, hasC := repo.levels[levelKey{1, "SKU-C"}]
	require.False(t, hasC, "zero deltas are skipped")
	require.Len(t, repo.movements, 2)
	require.Equal(t, "ORDERS", repo.movements[0].RefModule)

	// Applying again accumulates, two orders for the same SKU sum up.
	require.NoError(t, svc.ApplyDeltas(ctx, 1, map[string]int64{"SKU-A": 2}, MovementRef{Module: "ORDERS", ID: "RECON:PO-1002"}))
	require.Equal(t, int64(10), repo.levels[levelKey{1, "SKU-A"}].OnHand)
}

func TestApplyDeltasValidation(t *testing.T) {
	svc := NewService(newMemoryInvRepo(), nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.ApplyDeltas(ctx, 0, map[string]int64{"SKU-A": 1}, MovementRef{Module: "ORDERS", ID: "x"}), ErrInvalidWarehouse)
	require.ErrorIs(t, svc.ApplyDeltas(ctx, 1, map[string]int64{"SKU-A": 1}, MovementRef{}), ErrInvalidRef)
	require.ErrorIs(t, svc.ApplyDeltas(ctx, 1, nil, MovementRef{Module: "ORDERS", ID: "x"}), ErrEmptyDelta)
	require.ErrorIs(t, svc.ApplyDeltas(ctx, 1, map[string]int64{"SKU-A": 0}, MovementRef{Module: "ORDERS", ID: "x"}), ErrEmptyDelta)
}

func TestReorderSuggestions(t *testing.T) {
	repo := newMemoryInvRepo()
	repo.levels[levelKey{1, "SKU-LOW"}] = StockLevel{WarehouseID: 1, SKU: "SKU-LOW", OnHand: 2, ReorderPoint: 10, ReorderQty: 20}
	repo.levels[levelKey{1, "SKU-OK"}] = StockLevel{WarehouseID: 1, SKU: "SKU-OK", OnHand: 50, ReorderPoint: 10, ReorderQty: 20}
	repo.levels[levelKey{1, "SKU-NOPOINT"}] = StockLevel{WarehouseID: 1, SKU: "SKU-NOPOINT", OnHand: 0}

	svc := NewService(repo, nil, nil)
	suggestions, err := svc.ReorderSuggestions(context.Background())
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Equal(t, "SKU-LOW", suggestions[0].SKU)
	require.Equal(t, int64(28), suggestions[0].SuggestedQty, "refill to reorder point plus batch")
}
