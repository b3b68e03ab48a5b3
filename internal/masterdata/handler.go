// Package masterdata mounts the reference data APIs: products, suppliers and
// warehouses.
package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpilot/stockpilot/internal/masterdata/products"
	"github.com/stockpilot/stockpilot/internal/masterdata/suppliers"
	"github.com/stockpilot/stockpilot/internal/masterdata/warehouses"
)

// Module bundles the masterdata services and handlers.
type Module struct {
	Products   *products.Service
	Suppliers  *suppliers.Service
	Warehouses *warehouses.Service

	productsHandler   *products.Handler
	suppliersHandler  *suppliers.Handler
	warehousesHandler *warehouses.Handler
}

// NewModule wires the masterdata stack onto the shared pool.
func NewModule(logger *slog.Logger, pool *pgxpool.Pool) *Module {
	productSvc := products.NewService(products.NewRepository(pool))
	supplierSvc := suppliers.NewService(suppliers.NewRepository(pool))
	warehouseSvc := warehouses.NewService(warehouses.NewRepository(pool))
	return &Module{
		Products:          productSvc,
		Suppliers:         supplierSvc,
		Warehouses:        warehouseSvc,
		productsHandler:   products.NewHandler(logger, productSvc),
		suppliersHandler:  suppliers.NewHandler(logger, supplierSvc),
		warehousesHandler: warehouses.NewHandler(logger, warehouseSvc),
	}
}

// Routes returns the masterdata subrouter.
func (m *Module) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/products", m.productsHandler.MountRoutes)
	r.Route("/suppliers", m.suppliersHandler.MountRoutes)
	r.Route("/warehouses", m.warehousesHandler.MountRoutes)
	return r
}
