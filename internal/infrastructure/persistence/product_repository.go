package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindBySKU finds a product by exact SKU match
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var product catalog.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByNameFuzzy finds products matching the identifier by case-insensitive
// containment in either direction, ordered by name so ambiguity resolution
// is deterministic.
func (r *GormProductRepository) FindByNameFuzzy(ctx context.Context, identifier string) ([]catalog.Product, error) {
	var products []catalog.Product
	pattern := "%" + identifier + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(?) LIKE '%' || LOWER(name) || '%'", pattern, identifier).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindActive returns all active products
func (r *GormProductRepository) FindActive(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sku ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]interface{}{
			"current_stock":   product.CurrentStock,
			"reserved_stock":  product.ReservedStock,
			"min_stock_level": product.MinStockLevel,
			"purchase_price":  product.PurchasePrice,
			"sale_price":      product.SalePrice,
			"is_active":       product.IsActive,
			"version":         product.Version,
			"updated_at":      product.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// GormBundleComponentRepository implements catalog.BundleComponentRepository using GORM
type GormBundleComponentRepository struct {
	db *gorm.DB
}

// NewGormBundleComponentRepository creates a new GormBundleComponentRepository
func NewGormBundleComponentRepository(db *gorm.DB) *GormBundleComponentRepository {
	return &GormBundleComponentRepository{db: db}
}

// FindByParent returns the component list of a bundle product
func (r *GormBundleComponentRepository) FindByParent(ctx context.Context, parentProductID uuid.UUID) ([]catalog.BundleComponent, error) {
	var components []catalog.BundleComponent
	if err := r.db.WithContext(ctx).
		Where("parent_product_id = ?", parentProductID).
		Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

// Save creates or updates a bundle component link
func (r *GormBundleComponentRepository) Save(ctx context.Context, component *catalog.BundleComponent) error {
	return r.db.WithContext(ctx).Save(component).Error
}

// DeleteByParent removes all component links of a bundle
func (r *GormBundleComponentRepository) DeleteByParent(ctx context.Context, parentProductID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.BundleComponent{}, "parent_product_id = ?", parentProductID).Error
}

// Ensure GormBundleComponentRepository implements BundleComponentRepository
var _ catalog.BundleComponentRepository = (*GormBundleComponentRepository)(nil)
