package persistence

import (
	"fmt"

	"github.com/stockpilot/backend/internal/application/orderflow"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/warehouse"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted models.
// AutoMigrate only adds columns and indexes; it never drops or rewrites
// existing ones, so historical movement rows are preserved verbatim.
func Migrate(db *gorm.DB) error {
	models := []any{
		&catalog.Product{},
		&catalog.BundleComponent{},
		&ledger.StockMovement{},
		&warehouse.Warehouse{},
		&warehouse.WarehouseStock{},
		&integration.SyncJob{},
		&integration.SyncJobLog{},
		&orderflow.StockDeductionSettings{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
