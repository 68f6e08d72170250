package integration

import (
	"context"
	"errors"
)

// Platform errors. Transient errors drive the reconciler's retry policy;
// permanent errors are logged and surfaced without automatic retry.
var (
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformNotEnabled      = errors.New("integration: platform not enabled")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformTimeout         = errors.New("integration: platform request timed out")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformProductNotFound = errors.New("integration: product not found on platform")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
)

// IsTransient reports whether an error is worth retrying: network failures,
// timeouts, rate limits, and 5xx-class unavailability. Auth failures and
// missing products are permanent and must not be retried automatically.
func IsTransient(err error) bool {
	switch {
	case errors.Is(err, ErrPlatformUnavailable),
		errors.Is(err, ErrPlatformTimeout),
		errors.Is(err, ErrPlatformRateLimited):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// PlatformCode represents the type of external storefront platform
type PlatformCode string

const (
	// PlatformCodeWooCommerce represents a WooCommerce storefront
	PlatformCodeWooCommerce PlatformCode = "WOOCOMMERCE"
	// PlatformCodePrestaShop represents a PrestaShop storefront
	PlatformCodePrestaShop PlatformCode = "PRESTASHOP"
	// PlatformCodeShopify represents a Shopify storefront
	PlatformCodeShopify PlatformCode = "SHOPIFY"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeWooCommerce, PlatformCodePrestaShop, PlatformCodeShopify:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// MatchStrategy reports how an adapter resolved a product identifier.
// Name fallbacks are deliberately loose and must stay observable, so the
// strategy travels back with every successful push.
type MatchStrategy string

const (
	// MatchStrategySKU is an exact catalog-number match
	MatchStrategySKU MatchStrategy = "sku"
	// MatchStrategyName is a fuzzy product-name fallback match
	MatchStrategyName MatchStrategy = "fuzzy_name"
)

// PlatformAdapter is the port interface for external storefronts. It is
// defined in the domain layer; concrete REST implementations live in the
// infrastructure layer and are selected through the registry, never by a
// runtime switch on platform name.
type PlatformAdapter interface {
	// PlatformCode returns the platform code this adapter handles
	PlatformCode() PlatformCode

	// IsEnabled returns true if this platform is configured and enabled
	IsEnabled() bool

	// SetStock pushes the authoritative stock quantity for the product
	// identified by SKU or, as a fallback, by name. The value pushed is the
	// then-current absolute stock, never a relative delta. The returned
	// strategy tells callers which lookup matched.
	SetStock(ctx context.Context, identifier string, quantity int64) (MatchStrategy, error)

	// FindProduct reports whether the platform knows a product for the
	// identifier. Optional pre-validation capability; adapters that cannot
	// answer cheaply may return ErrPlatformInvalidResponse.
	FindProduct(ctx context.Context, identifier string) (bool, error)
}

// PlatformRegistry provides access to the configured platform adapters.
// Built once at startup from configuration.
type PlatformRegistry interface {
	// GetAdapter returns the adapter for the given code
	GetAdapter(code PlatformCode) (PlatformAdapter, error)

	// ListAdapters returns all registered adapters
	ListAdapters() []PlatformAdapter

	// ListEnabled returns all enabled adapters
	ListEnabled() []PlatformAdapter
}
