package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormMovementRepository implements ledger.MovementRepository using GORM.
// The movement table is append-only; this type deliberately exposes no
// update or delete paths.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append persists a new movement row
func (r *GormMovementRepository) Append(ctx context.Context, movement *ledger.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByProduct returns movements for a product, newest first
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter ledger.MovementFilter) ([]ledger.StockMovement, error) {
	var movements []ledger.StockMovement

	query := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("product_id = ?", productID).
		Order("recorded_at DESC")

	if filter.MovementType != nil {
		query = query.Where("movement_type = ?", *filter.MovementType)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// CountByProduct counts movements for a product
func (r *GormMovementRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByReason reports whether a movement with the exact reason string
// exists for a product
func (r *GormMovementRepository) ExistsByReason(ctx context.Context, productID uuid.UUID, reason string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Where("product_id = ? AND reason = ?", productID, reason).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumSignedByProduct returns the net sum of signed movement deltas for a product
func (r *GormMovementRepository) SumSignedByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Select("COALESCE(SUM(stock_after - stock_before), 0) as total").
		Where("product_id = ?", productID).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// Ensure GormMovementRepository implements MovementRepository
var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
