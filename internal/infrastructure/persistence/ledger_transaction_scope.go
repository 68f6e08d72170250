package persistence

import (
	"context"

	appledger "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/warehouse"
	"gorm.io/gorm"
)

// GormTransactionScope implements the ledger TransactionScope using GORM
// transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appledger.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// MovementRepo returns the movement repository scoped to the current transaction
func (r *gormTransactionalRepositories) MovementRepo() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// StockRepo returns the warehouse bucket repository scoped to the current transaction
func (r *gormTransactionalRepositories) StockRepo() warehouse.StockRepository {
	return NewGormStockRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appledger.TransactionScope = (*GormTransactionScope)(nil)
var _ appledger.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
