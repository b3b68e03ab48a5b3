package suppliers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/masterdata/shared"
)

type memoryRepo struct {
	suppliers map[int64]Supplier
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{suppliers: map[int64]Supplier{}, nextID: 1}
}

func (m *memoryRepo) List(_ context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if filters.Search == "" || strings.Contains(s.Name, filters.Search) {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(_ context.Context, supplier Supplier) (Supplier, error) {
	for _, existing := range m.suppliers {
		if existing.Code == supplier.Code {
			return Supplier{}, shared.ErrDuplicate
		}
	}
	supplier.ID = m.nextID
	m.nextID++
	m.suppliers[supplier.ID] = supplier
	return supplier, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, supplier Supplier) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	supplier.ID = id
	m.suppliers[id] = supplier
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.suppliers, id)
	return nil
}

func TestCreateRequiresCodeNameEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Supplier{Name: "Acme", Email: "po@acme.test"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Supplier{Code: "ACME", Email: "po@acme.test"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Supplier{Code: "ACME", Name: "Acme"})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, Supplier{Code: "ACME", Name: "Acme", Email: "po@acme.test"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, Supplier{Code: "ACME", Name: "Acme", Email: "po@acme.test"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Supplier{Code: "ACME", Name: "Acme Two", Email: "po2@acme.test"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)
}
