package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	// MovementTypeIn represents stock received (purchase, replenishment)
	MovementTypeIn MovementType = "in"
	// MovementTypeOut represents stock leaving (sale shipment)
	MovementTypeOut MovementType = "out"
	// MovementTypeReturn represents stock restored from a returned order
	MovementTypeReturn MovementType = "return"
	// MovementTypeTransfer represents an inter-warehouse move. Transfers are
	// recorded as a matched pair, one row per warehouse, and leave the
	// product-level stock unchanged.
	MovementTypeTransfer MovementType = "transfer"
	// MovementTypeInventory represents an upward adjustment after a physical count
	MovementTypeInventory MovementType = "inventory"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeReturn,
		MovementTypeTransfer, MovementTypeInventory:
		return true
	}
	return false
}

// SignedDelta returns the product-level stock delta for a quantity of this
// movement type: in/return/inventory are positive, out is negative, transfer
// is zero (only the warehouse bucket changes).
func (t MovementType) SignedDelta(quantity int64) int64 {
	switch t {
	case MovementTypeOut:
		return -quantity
	case MovementTypeTransfer:
		return 0
	default:
		return quantity
	}
}

// TransferDirection distinguishes the two rows of a transfer pair
type TransferDirection string

const (
	// TransferDirectionOut is the row recorded against the source warehouse
	TransferDirectionOut TransferDirection = "out"
	// TransferDirectionIn is the row recorded against the destination warehouse
	TransferDirectionIn TransferDirection = "in"
)

// StockMovement is one immutable ledger entry. Movements are append-only:
// they are never updated or deleted, and corrections are recorded as new
// movements. StockAfter must always equal StockBefore plus the signed delta
// of the movement type.
type StockMovement struct {
	shared.BaseEntity
	ProductID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_movement_product_time,priority:1"`
	WarehouseID  *uuid.UUID        `gorm:"type:uuid;index"`
	MovementType MovementType      `gorm:"type:varchar(20);not null;index"`
	Quantity     int64             `gorm:"not null"`
	StockBefore  int64             `gorm:"not null"`
	StockAfter   int64             `gorm:"not null"`
	UnitPrice    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Reason       string            `gorm:"type:varchar(255)"`
	Direction    TransferDirection `gorm:"type:varchar(10)"` // set only on transfer rows
	RecordedAt   time.Time         `gorm:"not null;index:idx_movement_product_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new immutable movement. StockAfter is derived
// from StockBefore and the signed delta, never supplied by the caller.
func NewStockMovement(
	productID uuid.UUID,
	warehouseID *uuid.UUID,
	movementType MovementType,
	quantity int64,
	stockBefore int64,
	unitPrice decimal.Decimal,
	reason string,
) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &StockMovement{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		WarehouseID:  warehouseID,
		MovementType: movementType,
		Quantity:     quantity,
		StockBefore:  stockBefore,
		StockAfter:   stockBefore + movementType.SignedDelta(quantity),
		UnitPrice:    unitPrice,
		Reason:       reason,
		RecordedAt:   time.Now(),
	}, nil
}

// NewTransferPair creates the matched pair of transfer movements for moving
// quantity between two warehouse buckets. Both rows record the same
// product-level stock on both sides of the movement.
func NewTransferPair(
	productID uuid.UUID,
	fromWarehouseID, toWarehouseID uuid.UUID,
	quantity int64,
	productStock int64,
	reason string,
) (*StockMovement, *StockMovement, error) {
	if fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, nil, shared.NewDomainError("INVALID_TRANSFER", "Source and destination warehouses must differ")
	}

	from := fromWarehouseID
	out, err := NewStockMovement(productID, &from, MovementTypeTransfer, quantity, productStock, decimal.Zero, reason)
	if err != nil {
		return nil, nil, err
	}
	out.Direction = TransferDirectionOut

	to := toWarehouseID
	in, err := NewStockMovement(productID, &to, MovementTypeTransfer, quantity, productStock, decimal.Zero, reason)
	if err != nil {
		return nil, nil, err
	}
	in.Direction = TransferDirectionIn

	return out, in, nil
}

// SignedDelta returns the product-level delta of this movement
func (m *StockMovement) SignedDelta() int64 {
	return m.MovementType.SignedDelta(m.Quantity)
}

// Balances reports whether the recorded before/after pair satisfies the
// ledger invariant
func (m *StockMovement) Balances() bool {
	return m.StockAfter == m.StockBefore+m.SignedDelta()
}
