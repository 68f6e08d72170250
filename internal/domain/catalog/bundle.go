package catalog

import (
	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// MaxBundleDepth bounds recursive bundle resolution. Exceeding it fails
// closed rather than looping on a cyclic component graph introduced by a bad
// external sync.
const MaxBundleDepth = 5

// BundleComponent links a bundle product to one of its components.
// ComponentQuantity is the number of component units consumed per one unit of
// the parent sold. A bundle product itself is never stocked by sale
// movements; only its components are.
type BundleComponent struct {
	shared.BaseEntity
	ParentProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_parent_component,priority:1"`
	ComponentProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bundle_parent_component,priority:2"`
	ComponentQuantity  int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BundleComponent) TableName() string {
	return "bundle_components"
}

// NewBundleComponent creates a new bundle component link
func NewBundleComponent(parentID, componentID uuid.UUID, quantity int64) (*BundleComponent, error) {
	if parentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Parent product ID cannot be empty")
	}
	if componentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Component product ID cannot be empty")
	}
	if parentID == componentID {
		return nil, shared.NewDomainError("INVALID_COMPONENT", "A bundle cannot contain itself")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	return &BundleComponent{
		BaseEntity:         shared.NewBaseEntity(),
		ParentProductID:    parentID,
		ComponentProductID: componentID,
		ComponentQuantity:  quantity,
	}, nil
}

// ComponentQuantityFor scales component consumption by the sale quantity of
// the parent
func (c *BundleComponent) ComponentQuantityFor(saleQuantity int64) int64 {
	return c.ComponentQuantity * saleQuantity
}
