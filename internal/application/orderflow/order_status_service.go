package orderflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appcatalog "github.com/stockpilot/backend/internal/application/catalog"
	appledger "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// LineItem is one order line as delivered by the order source. The SKU field
// carries the order's catalog number and may be a comma-separated list on
// legacy multi-item orders.
type LineItem struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// OrderStatusService is the reservation/deduction state machine. It reacts to
// order status changes; it never initiates order mutations. Inventory
// bookkeeping failures on single products are contained and logged so order
// processing is never blocked by them.
type OrderStatusService struct {
	settings    *SettingsService
	catalog     *appcatalog.CatalogService
	resolver    *appcatalog.BundleResolver
	ledger      *appledger.LedgerService
	idempotency shared.IdempotencyStore
	keyTTL      time.Duration
	logger      *zap.Logger
}

// NewOrderStatusService creates a new OrderStatusService
func NewOrderStatusService(
	settings *SettingsService,
	catalogSvc *appcatalog.CatalogService,
	resolver *appcatalog.BundleResolver,
	ledgerSvc *appledger.LedgerService,
	idempotency shared.IdempotencyStore,
	keyTTL time.Duration,
	logger *zap.Logger,
) *OrderStatusService {
	return &OrderStatusService{
		settings:    settings,
		catalog:     catalogSvc,
		resolver:    resolver,
		ledger:      ledgerSvc,
		idempotency: idempotency,
		keyTTL:      keyTTL,
		logger:      logger.Named("orderflow"),
	}
}

// transitionKey is the stable idempotency key for one (order, status) pair.
// It doubles as the movement reason so replay suppression survives restarts.
func transitionKey(orderID, status string) string {
	return fmt.Sprintf("order:%s:status:%s", orderID, status)
}

// OnOrderStatusChanged evaluates the state machine for an order whose status
// changed to newStatus. Returns whether any stock effect was applied.
// Re-delivering the same (order, status) pair is a no-op.
func (s *OrderStatusService) OnOrderStatusChanged(ctx context.Context, orderID, newStatus string, items []LineItem) (bool, error) {
	action := s.settings.Current().ActionFor(newStatus)
	if action == ActionNone {
		return false, nil
	}

	key := transitionKey(orderID, newStatus)

	isNew, err := s.idempotency.MarkProcessed(ctx, key, s.keyTTL)
	if err != nil {
		// A broken store falls through to the movement-reason check below
		// rather than blocking the order.
		s.logger.Warn("idempotency store check failed",
			zap.String("key", key), zap.Error(err))
	} else if !isNew {
		s.logger.Debug("duplicate status transition skipped",
			zap.String("order_id", orderID),
			zap.String("status", newStatus),
		)
		return false, nil
	}

	// Components are aggregated per product across every line first. Two
	// lines landing on the same product (a bundle containing it plus a
	// direct line, or a repeated SKU) must yield one combined movement,
	// not a second append that the replay check would swallow.
	applied := false
	for _, component := range s.resolveTransition(ctx, action, items) {
		if s.applyToComponent(ctx, action, component, key) {
			applied = true
		}
	}
	return applied, nil
}

// resolveTransition expands every order line into leaf components and merges
// the quantities per product, preserving first-seen order. Lines that fail to
// resolve are skipped with a warning and never abort the batch.
func (s *OrderStatusService) resolveTransition(ctx context.Context, action StockAction, items []LineItem) []appcatalog.ResolvedComponent {
	totals := make(map[uuid.UUID]int64)
	var order []uuid.UUID

	for _, item := range items {
		// Legacy orders pack several catalog numbers into one field.
		for _, sku := range strings.Split(item.SKU, ",") {
			sku = strings.TrimSpace(sku)
			if sku == "" {
				continue
			}
			for _, component := range s.resolveLine(ctx, action, sku, item.Quantity) {
				if _, seen := totals[component.ProductID]; !seen {
					order = append(order, component.ProductID)
				}
				totals[component.ProductID] += component.Quantity
			}
		}
	}

	components := make([]appcatalog.ResolvedComponent, 0, len(order))
	for _, id := range order {
		components = append(components, appcatalog.ResolvedComponent{ProductID: id, Quantity: totals[id]})
	}
	return components
}

// Reserve applies a reservation for one order line, as called by the order
// collaborator directly.
func (s *OrderStatusService) Reserve(ctx context.Context, sku string, quantity int64, orderID string) (bool, error) {
	return s.applyDirect(ctx, ActionReserve, sku, quantity, orderID)
}

// Deduct ships one order line: an out movement plus release of the matching
// reservation.
func (s *OrderStatusService) Deduct(ctx context.Context, sku string, quantity int64, orderID string) (bool, error) {
	return s.applyDirect(ctx, ActionDeduct, sku, quantity, orderID)
}

// Restore returns one order line to stock.
func (s *OrderStatusService) Restore(ctx context.Context, sku string, quantity int64, orderID string) (bool, error) {
	return s.applyDirect(ctx, ActionRestore, sku, quantity, orderID)
}

func (s *OrderStatusService) applyDirect(ctx context.Context, action StockAction, sku string, quantity int64, orderID string) (bool, error) {
	if quantity <= 0 {
		return false, shared.ErrInvalidQuantity
	}
	key := fmt.Sprintf("order:%s:%s:%s", orderID, action, sku)
	return s.applyToProduct(ctx, action, sku, quantity, key), nil
}

// applyToProduct resolves one SKU and applies the action to all its expanded
// components. Used by the direct per-line entry points, whose idempotency key
// already carries the SKU.
func (s *OrderStatusService) applyToProduct(ctx context.Context, action StockAction, sku string, quantity int64, reason string) bool {
	applied := false
	for _, component := range s.resolveLine(ctx, action, sku, quantity) {
		if s.applyToComponent(ctx, action, component, reason) {
			applied = true
		}
	}
	return applied
}

// resolveLine expands one SKU into its leaf components. Failures are
// contained: an unresolved SKU or a too-deep bundle skips this product with a
// warning and never aborts the batch.
func (s *OrderStatusService) resolveLine(ctx context.Context, action StockAction, sku string, quantity int64) []appcatalog.ResolvedComponent {
	product, matchKind, err := s.catalog.FindBySKUOrName(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrProductNotFound) {
			s.logger.Warn("order line skipped, product not resolved",
				zap.String("sku", sku),
				zap.String("action", string(action)),
			)
		} else {
			s.logger.Error("order line skipped, product lookup failed",
				zap.String("sku", sku), zap.Error(err))
		}
		return nil
	}

	components, err := s.resolver.Expand(ctx, product.ID, quantity)
	if err != nil {
		if errors.Is(err, shared.ErrBundleTooDeep) {
			s.logger.Warn("order line skipped, bundle nesting too deep",
				zap.String("sku", sku))
		} else {
			s.logger.Error("order line skipped, bundle expansion failed",
				zap.String("sku", sku), zap.Error(err))
		}
		return nil
	}

	s.logger.Debug("resolved stock action line",
		zap.String("action", string(action)),
		zap.String("sku", sku),
		zap.String("match_kind", matchKind.String()),
		zap.Int("components", len(components)),
	)
	return components
}

func (s *OrderStatusService) applyToComponent(ctx context.Context, action StockAction, component appcatalog.ResolvedComponent, reason string) bool {
	switch action {
	case ActionReserve:
		if _, err := s.catalog.AdjustReserved(ctx, component.ProductID, component.Quantity); err != nil {
			s.logger.Error("reservation failed",
				zap.String("product_id", component.ProductID.String()), zap.Error(err))
			return false
		}
		return true

	case ActionDeduct:
		if s.movementAlreadyRecorded(ctx, component, reason) {
			return false
		}
		result, err := s.ledger.Append(ctx, appledger.AppendInput{
			ProductID:    component.ProductID,
			MovementType: ledger.MovementTypeOut,
			Quantity:     component.Quantity,
			Reason:       reason,
		})
		if err != nil {
			s.logger.Error("deduction failed",
				zap.String("product_id", component.ProductID.String()), zap.Error(err))
			return false
		}
		if result.StockAfter < 0 {
			s.logger.Warn("deduction oversold product",
				zap.String("product_id", component.ProductID.String()),
				zap.Int64("stock_after", result.StockAfter),
			)
		}
		// Release the matching reservation now that stock physically left.
		if _, err := s.catalog.AdjustReserved(ctx, component.ProductID, -component.Quantity); err != nil {
			s.logger.Error("reservation release failed",
				zap.String("product_id", component.ProductID.String()), zap.Error(err))
		}
		return true

	case ActionRestore:
		if s.movementAlreadyRecorded(ctx, component, reason) {
			return false
		}
		if _, err := s.ledger.Append(ctx, appledger.AppendInput{
			ProductID:    component.ProductID,
			MovementType: ledger.MovementTypeReturn,
			Quantity:     component.Quantity,
			Reason:       reason,
		}); err != nil {
			s.logger.Error("restore failed",
				zap.String("product_id", component.ProductID.String()), zap.Error(err))
			return false
		}
		return true

	default:
		return false
	}
}

// movementAlreadyRecorded suppresses a replayed transition whose movement
// survived a process restart (the in-memory idempotency store does not).
func (s *OrderStatusService) movementAlreadyRecorded(ctx context.Context, component appcatalog.ResolvedComponent, reason string) bool {
	exists, err := s.ledger.HasMovementWithReason(ctx, component.ProductID, reason)
	if err != nil {
		s.logger.Warn("movement replay check failed, applying anyway",
			zap.String("product_id", component.ProductID.String()), zap.Error(err))
		return false
	}
	if exists {
		s.logger.Debug("movement already recorded, skipping",
			zap.String("product_id", component.ProductID.String()),
			zap.String("reason", reason),
		)
	}
	return exists
}
