package ledger

import (
	"context"

	"github.com/google/uuid"
)

// MovementFilter narrows movement history queries
type MovementFilter struct {
	MovementType *MovementType
	Page         int
	PageSize     int
}

// MovementRepository is the append-only persistence port for stock movements.
// There are deliberately no update or delete operations: historical rows are
// the reconciliation basis for financial reporting and must survive verbatim.
type MovementRepository interface {
	// Append persists a new movement row
	Append(ctx context.Context, movement *StockMovement) error

	// FindByProduct returns movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter MovementFilter) ([]StockMovement, error)

	// CountByProduct counts movements for a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// ExistsByReason reports whether a movement with the exact reason string
	// exists for a product. Used to suppress replayed order-status transitions.
	ExistsByReason(ctx context.Context, productID uuid.UUID, reason string) (bool, error)

	// SumSignedByProduct returns the net sum of signed movement deltas for a
	// product; used by audits to verify the derived counter
	SumSignedByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
