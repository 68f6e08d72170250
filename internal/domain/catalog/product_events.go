package catalog

import (
	"github.com/stockpilot/backend/internal/domain/shared"
)

// Event type constants for the catalog aggregate
const (
	EventTypeReservationAdjusted = "catalog.reservation_adjusted"
	EventTypeStockBelowMinimum   = "catalog.stock_below_minimum"
)

const aggregateTypeProduct = "Product"

// ReservationAdjustedEvent is emitted when a product's reserved counter changes
type ReservationAdjustedEvent struct {
	shared.BaseDomainEvent
	SKU            string `json:"sku"`
	ReservedBefore int64  `json:"reserved_before"`
	ReservedAfter  int64  `json:"reserved_after"`
}

// NewReservationAdjustedEvent creates a new ReservationAdjustedEvent
func NewReservationAdjustedEvent(p *Product, before, after int64) *ReservationAdjustedEvent {
	return &ReservationAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReservationAdjusted, aggregateTypeProduct, p.ID),
		SKU:             p.SKU,
		ReservedBefore:  before,
		ReservedAfter:   after,
	}
}

// StockBelowMinimumEvent is emitted when current stock falls below the
// configured minimum level
type StockBelowMinimumEvent struct {
	shared.BaseDomainEvent
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	CurrentStock  int64  `json:"current_stock"`
	MinStockLevel int64  `json:"min_stock_level"`
}

// NewStockBelowMinimumEvent creates a new StockBelowMinimumEvent
func NewStockBelowMinimumEvent(p *Product) *StockBelowMinimumEvent {
	var minLevel int64
	if p.MinStockLevel != nil {
		minLevel = *p.MinStockLevel
	}
	return &StockBelowMinimumEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowMinimum, aggregateTypeProduct, p.ID),
		SKU:             p.SKU,
		Name:            p.Name,
		CurrentStock:    p.CurrentStock,
		MinStockLevel:   minLevel,
	}
}
