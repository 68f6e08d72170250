package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// LowStockHandler watches recorded movements and warns when a product has
// fallen below its configured minimum level. Products without a minimum are
// never flagged.
type LowStockHandler struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewLowStockHandler creates a new LowStockHandler
func NewLowStockHandler(products catalog.ProductRepository, logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{
		products: products,
		logger:   logger.Named("catalog"),
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{ledger.EventTypeMovementRecorded}
}

// Handle warns when the movement's product is below its minimum stock level
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	recorded, ok := event.(*ledger.MovementRecordedEvent)
	if !ok {
		return nil
	}
	if recorded.StockAfter >= recorded.StockBefore {
		return nil
	}

	product, err := h.products.FindByID(ctx, recorded.ProductID)
	if err != nil {
		return err
	}
	if !product.IsBelowMinimum() {
		return nil
	}

	h.logger.Warn("product below minimum stock level",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int64("current_stock", product.CurrentStock),
		zap.Int64p("min_stock_level", product.MinStockLevel),
	)
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)
