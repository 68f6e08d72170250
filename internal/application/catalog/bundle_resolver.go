package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/shared"
)

// ResolvedComponent is one leaf of an expanded bundle: a concrete product and
// the total quantity a sale consumes of it.
type ResolvedComponent struct {
	ProductID uuid.UUID
	Quantity  int64
}

// BundleResolver expands bundle products into their leaf components.
// Sale movements are only ever recorded against leaves; the bundle product
// itself never receives an out movement.
type BundleResolver struct {
	products   catalog.ProductRepository
	components catalog.BundleComponentRepository
}

// NewBundleResolver creates a new BundleResolver
func NewBundleResolver(
	products catalog.ProductRepository,
	components catalog.BundleComponentRepository,
) *BundleResolver {
	return &BundleResolver{
		products:   products,
		components: components,
	}
}

// Expand resolves a product to its leaf components scaled by saleQuantity.
// A non-bundle product expands to itself. Nested bundles are expanded
// recursively up to catalog.MaxBundleDepth; exceeding the limit fails closed
// with BundleTooDeep so a cyclic component graph cannot loop.
func (r *BundleResolver) Expand(ctx context.Context, productID uuid.UUID, saleQuantity int64) ([]ResolvedComponent, error) {
	if saleQuantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	leaves := make(map[uuid.UUID]int64)
	if err := r.expand(ctx, productID, saleQuantity, 0, leaves); err != nil {
		return nil, err
	}

	result := make([]ResolvedComponent, 0, len(leaves))
	for id, qty := range leaves {
		result = append(result, ResolvedComponent{ProductID: id, Quantity: qty})
	}
	return result, nil
}

func (r *BundleResolver) expand(ctx context.Context, productID uuid.UUID, quantity int64, depth int, leaves map[uuid.UUID]int64) error {
	if depth > catalog.MaxBundleDepth {
		return shared.ErrBundleTooDeep
	}

	product, err := r.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	if !product.IsBundle {
		leaves[productID] += quantity
		return nil
	}

	components, err := r.components.FindByParent(ctx, productID)
	if err != nil {
		return err
	}
	// A bundle with no components is treated as a plain product rather than
	// silently consuming nothing.
	if len(components) == 0 {
		leaves[productID] += quantity
		return nil
	}

	for _, component := range components {
		scaled := component.ComponentQuantityFor(quantity)
		if err := r.expand(ctx, component.ComponentProductID, scaled, depth+1, leaves); err != nil {
			return err
		}
	}
	return nil
}
