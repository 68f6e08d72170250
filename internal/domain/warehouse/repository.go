package warehouse

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseRepository defines persistence operations for warehouses
type WarehouseRepository interface {
	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindActive returns all active warehouses
	FindActive(ctx context.Context) ([]Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, wh *Warehouse) error
}

// StockRepository defines persistence operations for warehouse stock buckets
type StockRepository interface {
	// GetOrCreate returns the bucket for a product-warehouse pair, creating
	// an empty one if none exists
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*WarehouseStock, error)

	// FindByProduct returns all buckets of a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]WarehouseStock, error)

	// SumByProduct returns the sum of all bucket quantities for a product
	SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// Save persists a bucket
	Save(ctx context.Context, stock *WarehouseStock) error
}
