package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/warehouse"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWarehouseRepository implements warehouse.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	var wh warehouse.Warehouse
	if err := r.db.WithContext(ctx).First(&wh, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &wh, nil
}

// FindActive returns all active warehouses
func (r *GormWarehouseRepository) FindActive(ctx context.Context) ([]warehouse.Warehouse, error) {
	var warehouses []warehouse.Warehouse
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, wh *warehouse.Warehouse) error {
	return r.db.WithContext(ctx).Save(wh).Error
}

// Ensure GormWarehouseRepository implements WarehouseRepository
var _ warehouse.WarehouseRepository = (*GormWarehouseRepository)(nil)

// GormStockRepository implements warehouse.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// GetOrCreate returns the bucket for a product-warehouse pair, creating an
// empty one if none exists
func (r *GormStockRepository) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*warehouse.WarehouseStock, error) {
	var stock warehouse.WarehouseStock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&stock).Error
	if err == nil {
		return &stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bucket, err := warehouse.NewWarehouseStock(productID, warehouseID)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT handles the race where two callers create the same bucket.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(bucket).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindByProduct returns all buckets of a product
func (r *GormStockRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]warehouse.WarehouseStock, error) {
	var buckets []warehouse.WarehouseStock
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&buckets).Error; err != nil {
		return nil, err
	}
	return buckets, nil
}

// SumByProduct returns the sum of all bucket quantities for a product
func (r *GormStockRepository) SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&warehouse.WarehouseStock{}).
		Select("COALESCE(SUM(current_stock), 0) as total").
		Where("product_id = ?", productID).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// Save persists a bucket
func (r *GormStockRepository) Save(ctx context.Context, stock *warehouse.WarehouseStock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}

// Ensure GormStockRepository implements StockRepository
var _ warehouse.StockRepository = (*GormStockRepository)(nil)
