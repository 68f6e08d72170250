package persistence

import (
	"context"
	"errors"

	"github.com/stockpilot/backend/internal/application/orderflow"
	"github.com/stockpilot/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSettingsRepository implements orderflow.SettingsRepository using GORM.
// The table holds at most one row; Save upserts it.
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Load returns the stored settings row
func (r *GormSettingsRepository) Load(ctx context.Context) (*orderflow.StockDeductionSettings, error) {
	var settings orderflow.StockDeductionSettings
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// Save persists the settings, replacing any previous row
func (r *GormSettingsRepository) Save(ctx context.Context, settings *orderflow.StockDeductionSettings) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.loadTx(tx)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			settings.ID = existing.ID
			settings.CreatedAt = existing.CreatedAt
		}
		return tx.Save(settings).Error
	})
}

func (r *GormSettingsRepository) loadTx(tx *gorm.DB) (*orderflow.StockDeductionSettings, error) {
	var settings orderflow.StockDeductionSettings
	if err := tx.Order("created_at ASC").First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// Ensure GormSettingsRepository implements SettingsRepository
var _ orderflow.SettingsRepository = (*GormSettingsRepository)(nil)
