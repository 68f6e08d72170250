package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by exact, case-sensitive SKU match
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// FindByNameFuzzy finds products whose name matches the identifier by
	// case-insensitive containment in either direction, ordered by name
	FindByNameFuzzy(ctx context.Context, identifier string) ([]Product, error)

	// FindActive returns all active products
	FindActive(ctx context.Context) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking on the version column
	SaveWithLock(ctx context.Context, product *Product) error
}

// BundleComponentRepository defines persistence operations for bundle links
type BundleComponentRepository interface {
	// FindByParent returns the component list of a bundle product
	FindByParent(ctx context.Context, parentProductID uuid.UUID) ([]BundleComponent, error)

	// Save creates or updates a bundle component link
	Save(ctx context.Context, component *BundleComponent) error

	// DeleteByParent removes all component links of a bundle
	DeleteByParent(ctx context.Context, parentProductID uuid.UUID) error
}
