package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// AppendInput describes one movement to record
type AppendInput struct {
	ProductID    uuid.UUID
	WarehouseID  *uuid.UUID
	MovementType ledger.MovementType
	Quantity     int64
	UnitPrice    decimal.Decimal
	Reason       string
}

// AppendResult reports the stock counters around the recorded movement
type AppendResult struct {
	MovementID  uuid.UUID
	StockBefore int64
	StockAfter  int64
}

// ProductLocks serializes every stock write per product: ledger appends and
// warehouse transfers share one instance, or stock_before chains and bucket
// counters would interleave across the two write paths. Different products
// may proceed concurrently.
type ProductLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewProductLocks creates an empty lock registry
func NewProductLocks() *ProductLocks {
	return &ProductLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Acquire returns the mutex guarding all stock writes of one product
func (l *ProductLocks) Acquire(productID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[productID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[productID] = lock
	}
	return lock
}

// LedgerService is the single write path for stock. Each append reads the
// product's current counter, derives stock_after, persists the movement row
// and the counter update in one transaction, and publishes the movement
// event after commit.
type LedgerService struct {
	scope  TransactionScope
	events shared.EventPublisher
	locks  *ProductLocks
	logger *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope TransactionScope, events shared.EventPublisher, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		scope:  scope,
		events: events,
		locks:  NewProductLocks(),
		logger: logger.Named("ledger"),
	}
}

// Locks exposes the per-product lock registry so other stock write paths
// (warehouse transfers) serialize against appends.
func (s *LedgerService) Locks() *ProductLocks {
	return s.locks
}

// Append records a movement for a product and returns the surrounding stock
// counters. A movement driving current stock negative is not rejected;
// oversell is a business decision surfaced upstream, so the negative result
// is returned and logged here.
func (s *LedgerService) Append(ctx context.Context, input AppendInput) (*AppendResult, error) {
	if input.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if !input.MovementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}

	lock := s.locks.Acquire(input.ProductID)
	lock.Lock()
	defer lock.Unlock()

	var (
		result   AppendResult
		movement *ledger.StockMovement
	)

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}

		movement, err = ledger.NewStockMovement(
			input.ProductID,
			input.WarehouseID,
			input.MovementType,
			input.Quantity,
			product.CurrentStock,
			input.UnitPrice,
			input.Reason,
		)
		if err != nil {
			return err
		}

		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}

		product.ApplyMovementDelta(movement.SignedDelta())
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return err
		}

		if input.WarehouseID != nil && input.MovementType != ledger.MovementTypeTransfer {
			bucket, err := repos.StockRepo().GetOrCreate(ctx, input.ProductID, *input.WarehouseID)
			if err != nil {
				return err
			}
			bucket.Apply(movement.SignedDelta())
			if err := repos.StockRepo().Save(ctx, bucket); err != nil {
				return err
			}
		}

		result = AppendResult{
			MovementID:  movement.ID,
			StockBefore: movement.StockBefore,
			StockAfter:  movement.StockAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.StockAfter < 0 {
		s.logger.Warn("movement drove stock negative",
			zap.String("product_id", input.ProductID.String()),
			zap.String("movement_type", input.MovementType.String()),
			zap.Int64("stock_after", result.StockAfter),
		)
	}

	if err := s.events.Publish(ctx, ledger.NewMovementRecordedEvent(movement)); err != nil {
		s.logger.Error("failed to publish movement event", zap.Error(err))
	}

	return &result, nil
}

// HasMovementWithReason reports whether a movement with the exact reason
// string already exists for a product. Used by the order state machine to
// suppress replayed transitions across restarts.
func (s *LedgerService) HasMovementWithReason(ctx context.Context, productID uuid.UUID, reason string) (bool, error) {
	var exists bool
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		exists, err = repos.MovementRepo().ExistsByReason(ctx, productID, reason)
		return err
	})
	return exists, err
}

// History returns the movement history of a product, newest first, with the
// total row count for pagination.
func (s *LedgerService) History(ctx context.Context, productID uuid.UUID, filter ledger.MovementFilter) ([]ledger.StockMovement, int64, error) {
	var (
		movements []ledger.StockMovement
		total     int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		movements, err = repos.MovementRepo().FindByProduct(ctx, productID, filter)
		if err != nil {
			return err
		}
		total, err = repos.MovementRepo().CountByProduct(ctx, productID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
