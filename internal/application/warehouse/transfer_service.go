package warehouse

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appledger "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// ErrMultiWarehouseDisabled is returned when transfers are requested while
// multi-warehouse mode is off
var ErrMultiWarehouseDisabled = shared.NewDomainError("MULTI_WAREHOUSE_DISABLED", "Multi-warehouse mode is disabled")

// TransferService moves quantity between two warehouse buckets of a product
// without changing the product's total stock. Transfers are all-or-nothing:
// an insufficient source bucket leaves everything untouched.
//
// Both buckets of a transfer belong to one product, so the transfer runs
// under that product's ledger lock. Sharing the lock registry with the
// ledger keeps bucket updates and the movement chain serialized against
// concurrent appends.
type TransferService struct {
	scope   appledger.TransactionScope
	events  shared.EventPublisher
	enabled bool
	locks   *appledger.ProductLocks
	logger  *zap.Logger
}

// NewTransferService creates a new TransferService. The locks registry must
// be the ledger service's own (LedgerService.Locks). When multiWarehouse is
// false the service is inert and refuses every transfer.
func NewTransferService(
	scope appledger.TransactionScope,
	events shared.EventPublisher,
	locks *appledger.ProductLocks,
	multiWarehouse bool,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		scope:   scope,
		events:  events,
		enabled: multiWarehouse,
		locks:   locks,
		logger:  logger.Named("warehouse"),
	}
}

// Transfer moves quantity from one warehouse bucket to another. The source
// bucket's own stock, independent of reservations, must cover the quantity;
// otherwise InsufficientStock is returned and nothing changes. On success a
// matched pair of transfer movements is recorded and both buckets updated.
func (s *TransferService) Transfer(ctx context.Context, productID, fromWarehouseID, toWarehouseID uuid.UUID, quantity int64) error {
	if !s.enabled {
		return ErrMultiWarehouseDisabled
	}
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if fromWarehouseID == toWarehouseID {
		return shared.NewDomainError("INVALID_TRANSFER", "Source and destination warehouses must differ")
	}

	lock := s.locks.Acquire(productID)
	lock.Lock()
	defer lock.Unlock()

	var out, in *ledger.StockMovement

	err := s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		source, err := repos.StockRepo().GetOrCreate(ctx, productID, fromWarehouseID)
		if err != nil {
			return err
		}
		if !source.CanRelease(quantity) {
			return shared.ErrInsufficientStock
		}

		destination, err := repos.StockRepo().GetOrCreate(ctx, productID, toWarehouseID)
		if err != nil {
			return err
		}

		reason := fmt.Sprintf("transfer:%s->%s", fromWarehouseID, toWarehouseID)
		out, in, err = ledger.NewTransferPair(productID, fromWarehouseID, toWarehouseID, quantity, product.CurrentStock, reason)
		if err != nil {
			return err
		}

		if err := repos.MovementRepo().Append(ctx, out); err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, in); err != nil {
			return err
		}

		source.Apply(-quantity)
		if err := repos.StockRepo().Save(ctx, source); err != nil {
			return err
		}
		destination.Apply(quantity)
		return repos.StockRepo().Save(ctx, destination)
	})
	if err != nil {
		return err
	}

	s.logger.Info("warehouse transfer completed",
		zap.String("product_id", productID.String()),
		zap.String("from", fromWarehouseID.String()),
		zap.String("to", toWarehouseID.String()),
		zap.Int64("quantity", quantity),
	)

	if err := s.events.Publish(ctx,
		ledger.NewMovementRecordedEvent(out),
		ledger.NewMovementRecordedEvent(in),
	); err != nil {
		s.logger.Error("failed to publish transfer events", zap.Error(err))
	}
	return nil
}
