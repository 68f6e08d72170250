package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// StockView is the read model for a product's stock counters
type StockView struct {
	ProductID     uuid.UUID `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	CurrentStock  int64     `json:"current_stock"`
	ReservedStock int64     `json:"reserved_stock"`
	Available     int64     `json:"available"`
}

// CatalogService is the read/update surface over the product catalog.
// Stock counters themselves only move through the ledger; this service covers
// reservations and lookups.
type CatalogService struct {
	products catalog.ProductRepository
	events   shared.EventPublisher
	logger   *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	products catalog.ProductRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		events:   events,
		logger:   logger.Named("catalog"),
	}
}

// GetStock returns the stock view for a product
func (s *CatalogService) GetStock(ctx context.Context, productID uuid.UUID) (*StockView, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return stockViewOf(product), nil
}

// GetAvailable returns current, reserved and available stock for a product.
// Available may be negative when oversold.
func (s *CatalogService) GetAvailable(ctx context.Context, productID uuid.UUID) (*StockView, error) {
	return s.GetStock(ctx, productID)
}

// AdjustReserved applies a reservation delta to a product. Negative deltas
// release reservations and clamp at zero. Returns the updated view.
func (s *CatalogService) AdjustReserved(ctx context.Context, productID uuid.UUID, delta int64) (*StockView, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.AdjustReserved(delta)

	if err := s.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	if events := product.GetDomainEvents(); len(events) > 0 {
		if err := s.events.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish reservation events", zap.Error(err))
		}
		product.ClearDomainEvents()
	}

	return stockViewOf(product), nil
}

// FindBySKUOrName resolves a product identifier SKU-first with a fuzzy name
// fallback. The match kind tells callers which strategy won; fuzzy matches
// carry false-positive risk and are logged.
func (s *CatalogService) FindBySKUOrName(ctx context.Context, identifier string) (*catalog.Product, catalog.MatchKind, error) {
	product, err := s.products.FindBySKU(ctx, identifier)
	if err == nil {
		return product, catalog.MatchExactSKU, nil
	}
	if !errors.Is(err, shared.ErrProductNotFound) {
		return nil, catalog.MatchNone, err
	}

	candidates, err := s.products.FindByNameFuzzy(ctx, identifier)
	if err != nil {
		return nil, catalog.MatchNone, err
	}
	if len(candidates) == 0 {
		return nil, catalog.MatchNone, shared.ErrProductNotFound
	}

	if len(candidates) > 1 {
		s.logger.Warn("ambiguous fuzzy name match, using first in name order",
			zap.String("identifier", identifier),
			zap.Int("candidates", len(candidates)),
			zap.String("chosen_sku", candidates[0].SKU),
		)
	}
	s.logger.Info("product resolved by fuzzy name match",
		zap.String("identifier", identifier),
		zap.String("sku", candidates[0].SKU),
	)

	return &candidates[0], catalog.MatchFuzzyName, nil
}

func stockViewOf(p *catalog.Product) *StockView {
	return &StockView{
		ProductID:     p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		CurrentStock:  p.CurrentStock,
		ReservedStock: p.ReservedStock,
		Available:     p.AvailableStock(),
	}
}
