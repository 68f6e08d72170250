package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// StockSyncHandler subscribes to recorded movements and enqueues a stock push
// for the affected product. Transfer rows are net-zero at the product level
// and are skipped; the storefront value would not change.
type StockSyncHandler struct {
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewStockSyncHandler creates a new StockSyncHandler
func NewStockSyncHandler(reconciler *Reconciler, logger *zap.Logger) *StockSyncHandler {
	return &StockSyncHandler{
		reconciler: reconciler,
		logger:     logger.Named("sync"),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StockSyncHandler) EventTypes() []string {
	return []string{ledger.EventTypeMovementRecorded}
}

// Handle enqueues a stock push for the movement's product
func (h *StockSyncHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	recorded, ok := event.(*ledger.MovementRecordedEvent)
	if !ok {
		return nil
	}
	if recorded.StockAfter == recorded.StockBefore {
		return nil
	}
	return h.reconciler.EnqueueStockSync(ctx, recorded.ProductID)
}

var _ shared.EventHandler = (*StockSyncHandler)(nil)
