package ledger

import (
	"context"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/warehouse"
)

// TransactionScope provides transactional access to the repositories a ledger
// append touches. The movement row, the product counter update, and the
// warehouse bucket update must commit or roll back as one unit; the ledger
// invariant (stock_after of the latest movement equals the product counter)
// only holds if no partial write is ever visible.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// MovementRepo returns the movement repository scoped to the current transaction
	MovementRepo() ledger.MovementRepository
	// StockRepo returns the warehouse bucket repository scoped to the current transaction
	StockRepo() warehouse.StockRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful in tests with mock repositories.
type NoOpTransactionScope struct {
	productRepo  catalog.ProductRepository
	movementRepo ledger.MovementRepository
	stockRepo    warehouse.StockRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	movementRepo ledger.MovementRepository,
	stockRepo warehouse.StockRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		stockRepo:    stockRepo,
	}
}

// Execute runs the function directly, without transaction semantics
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// MovementRepo returns the movement repository
func (s *NoOpTransactionScope) MovementRepo() ledger.MovementRepository {
	return s.movementRepo
}

// StockRepo returns the warehouse bucket repository
func (s *NoOpTransactionScope) StockRepo() warehouse.StockRepository {
	return s.stockRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
