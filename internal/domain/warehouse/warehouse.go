package warehouse

import (
	"strings"

	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// Warehouse is a physical stock location. It only exists as a bucket key when
// multi-warehouse mode is enabled.
type Warehouse struct {
	shared.BaseEntity
	Code     string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(255);not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		IsActive:   true,
	}, nil
}

// WarehouseStock is the per-warehouse stock bucket for a product. In
// multi-warehouse mode the buckets of a product must always sum to the
// product's CurrentStock.
type WarehouseStock struct {
	shared.BaseEntity
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_bucket,priority:1"`
	WarehouseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouse_stock_bucket,priority:2"`
	CurrentStock int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (WarehouseStock) TableName() string {
	return "warehouse_stock"
}

// NewWarehouseStock creates an empty bucket for a product-warehouse pair
func NewWarehouseStock(productID, warehouseID uuid.UUID) (*WarehouseStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &WarehouseStock{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		WarehouseID: warehouseID,
	}, nil
}

// CanRelease reports whether the bucket holds at least the requested
// quantity. Bucket availability is independent of reservations.
func (s *WarehouseStock) CanRelease(quantity int64) bool {
	return s.CurrentStock >= quantity
}

// Apply adjusts the bucket by a signed delta
func (s *WarehouseStock) Apply(delta int64) {
	s.CurrentStock += delta
	s.Touch()
}
