package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// Product is the aggregate root for the product catalog. CurrentStock and
// ReservedStock are derived counters: CurrentStock is the net sum of all
// ledger movements for the product, ReservedStock the net sum of reservation
// deltas. Neither may be written except through the ledger or AdjustReserved.
type Product struct {
	shared.BaseAggregateRoot
	SKU           string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(255);not null;index"`
	CurrentStock  int64           `gorm:"not null;default:0"`
	ReservedStock int64           `gorm:"not null;default:0"`
	MinStockLevel *int64          `gorm:""`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsBundle      bool            `gorm:"not null;default:false"`
	IsActive      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock counters
func NewProduct(sku, name string) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		PurchasePrice:     decimal.Zero,
		SalePrice:         decimal.Zero,
		IsActive:          true,
	}, nil
}

// AvailableStock returns current stock minus reserved stock. The result may
// be negative: oversell is an accepted state, not an error.
func (p *Product) AvailableStock() int64 {
	return p.CurrentStock - p.ReservedStock
}

// ApplyMovementDelta applies a signed ledger delta to the derived stock
// counter. Only the ledger may call this; no floor is enforced because
// negative stock (oversell pending replenishment) is permitted.
func (p *Product) ApplyMovementDelta(delta int64) {
	p.CurrentStock += delta
	p.Touch()
	p.IncrementVersion()
}

// AdjustReserved applies a reservation delta. Releases clamp at zero so a
// duplicate or unmatched release never drives the counter negative.
func (p *Product) AdjustReserved(delta int64) {
	before := p.ReservedStock
	p.ReservedStock += delta
	if p.ReservedStock < 0 {
		p.ReservedStock = 0
	}
	p.Touch()
	p.IncrementVersion()

	if p.ReservedStock != before {
		p.AddDomainEvent(NewReservationAdjustedEvent(p, before, p.ReservedStock))
	}
}

// IsBelowMinimum returns true if a minimum level is configured and current
// stock has fallen below it
func (p *Product) IsBelowMinimum() bool {
	return p.MinStockLevel != nil && p.CurrentStock < *p.MinStockLevel
}

// SetPrices updates purchase and sale prices
func (p *Product) SetPrices(purchase, sale decimal.Decimal) error {
	if purchase.IsNegative() || sale.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Prices cannot be negative")
	}
	p.PurchasePrice = purchase
	p.SalePrice = sale
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Deactivate marks the product as inactive. Inactive products keep their
// ledger history but are skipped by the sync reconciler.
func (p *Product) Deactivate() {
	p.IsActive = false
	p.Touch()
	p.IncrementVersion()
}

// MatchKind reports which strategy resolved a product lookup
type MatchKind string

const (
	// MatchExactSKU is a case-sensitive SKU match
	MatchExactSKU MatchKind = "exact_sku"
	// MatchFuzzyName is a case-insensitive name containment match, in either
	// direction. Deliberately loose; callers must log it.
	MatchFuzzyName MatchKind = "fuzzy_name"
	// MatchNone means no product was resolved
	MatchNone MatchKind = "none"
)

// String returns the string representation of MatchKind
func (k MatchKind) String() string {
	return string(k)
}

// NameMatches reports whether the identifier fuzzy-matches the product name:
// case-insensitive containment in either direction.
func (p *Product) NameMatches(identifier string) bool {
	if identifier == "" || p.Name == "" {
		return false
	}
	name := strings.ToLower(p.Name)
	ident := strings.ToLower(identifier)
	return strings.Contains(name, ident) || strings.Contains(ident, name)
}
