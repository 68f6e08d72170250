package platform

import (
	"fmt"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
)

// StaticRegistry is a PlatformRegistry built once at startup. Adapters are
// looked up by code; there is no runtime registration.
type StaticRegistry struct {
	adapters map[integration.PlatformCode]integration.PlatformAdapter
	order    []integration.PlatformCode
}

// NewStaticRegistry creates a registry over the given adapters
func NewStaticRegistry(adapters ...integration.PlatformAdapter) *StaticRegistry {
	r := &StaticRegistry{
		adapters: make(map[integration.PlatformCode]integration.PlatformAdapter, len(adapters)),
	}
	for _, adapter := range adapters {
		code := adapter.PlatformCode()
		if _, exists := r.adapters[code]; exists {
			continue
		}
		r.adapters[code] = adapter
		r.order = append(r.order, code)
	}
	return r
}

// NewRegistryFromConfig builds all known adapters from configuration
func NewRegistryFromConfig(cfg config.PlatformsConfig) (*StaticRegistry, error) {
	woo, err := NewWooCommerceAdapter(cfg.WooCommerce)
	if err != nil {
		return nil, fmt.Errorf("building woocommerce adapter: %w", err)
	}
	presta, err := NewPrestaShopAdapter(cfg.PrestaShop)
	if err != nil {
		return nil, fmt.Errorf("building prestashop adapter: %w", err)
	}
	shopify, err := NewShopifyAdapter(cfg.Shopify)
	if err != nil {
		return nil, fmt.Errorf("building shopify adapter: %w", err)
	}

	return NewStaticRegistry(woo, presta, shopify), nil
}

// GetAdapter returns the adapter for the given code
func (r *StaticRegistry) GetAdapter(code integration.PlatformCode) (integration.PlatformAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotConfigured, code)
	}
	return adapter, nil
}

// ListAdapters returns all registered adapters in registration order
func (r *StaticRegistry) ListAdapters() []integration.PlatformAdapter {
	result := make([]integration.PlatformAdapter, 0, len(r.order))
	for _, code := range r.order {
		result = append(result, r.adapters[code])
	}
	return result
}

// ListEnabled returns all enabled adapters in registration order
func (r *StaticRegistry) ListEnabled() []integration.PlatformAdapter {
	result := make([]integration.PlatformAdapter, 0, len(r.order))
	for _, code := range r.order {
		if adapter := r.adapters[code]; adapter.IsEnabled() {
			result = append(result, adapter)
		}
	}
	return result
}

// Ensure StaticRegistry implements PlatformRegistry
var _ integration.PlatformRegistry = (*StaticRegistry)(nil)
