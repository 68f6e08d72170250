package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed platform response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// WooCommerceAdapter implements PlatformAdapter against the WooCommerce
// REST API (wc/v3). Products are resolved by SKU through the products
// endpoint; stock is written with a product update carrying stock_quantity.
type WooCommerceAdapter struct {
	cfg        config.WooCommerceConfig
	httpClient *http.Client
}

// NewWooCommerceAdapter creates a new WooCommerce adapter
func NewWooCommerceAdapter(cfg config.WooCommerceConfig) (*WooCommerceAdapter, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("woocommerce: base_url is required: %w", integration.ErrPlatformNotConfigured)
		}
		if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
			return nil, fmt.Errorf("woocommerce: consumer credentials are required: %w", integration.ErrPlatformNotConfigured)
		}
	}

	return &WooCommerceAdapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *WooCommerceAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeWooCommerce
}

// IsEnabled returns true if this platform is configured and enabled
func (a *WooCommerceAdapter) IsEnabled() bool {
	return a.cfg.Enabled
}

// wooProduct is the subset of the WooCommerce product payload we read
type wooProduct struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// SetStock pushes the absolute stock quantity for the product matching the
// identifier (SKU first, name fallback).
func (a *WooCommerceAdapter) SetStock(ctx context.Context, identifier string, quantity int64) (integration.MatchStrategy, error) {
	if !a.cfg.Enabled {
		return "", integration.ErrPlatformNotEnabled
	}

	product, strategy, err := a.findProduct(ctx, identifier)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"manage_stock":   true,
		"stock_quantity": quantity,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("woocommerce: failed to encode payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/wp-json/wc/v3/products/%d", strings.TrimRight(a.cfg.BaseURL, "/"), product.ID)
	respBody, err := a.doRequest(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	var updated wooProduct
	if err := json.Unmarshal(respBody, &updated); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return strategy, nil
}

// FindProduct reports whether the platform knows a product for the identifier
func (a *WooCommerceAdapter) FindProduct(ctx context.Context, identifier string) (bool, error) {
	if !a.cfg.Enabled {
		return false, integration.ErrPlatformNotEnabled
	}

	_, _, err := a.findProduct(ctx, identifier)
	if errors.Is(err, integration.ErrPlatformProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findProduct resolves the identifier SKU-first, then by a fuzzy name search.
// The returned strategy tells the caller which path matched.
func (a *WooCommerceAdapter) findProduct(ctx context.Context, identifier string) (*wooProduct, integration.MatchStrategy, error) {
	base := strings.TrimRight(a.cfg.BaseURL, "/")

	bySKU := fmt.Sprintf("%s/wp-json/wc/v3/products?sku=%s", base, url.QueryEscape(identifier))
	products, err := a.listProducts(ctx, bySKU)
	if err != nil {
		return nil, "", err
	}
	if len(products) > 0 {
		return &products[0], integration.MatchStrategySKU, nil
	}

	byName := fmt.Sprintf("%s/wp-json/wc/v3/products?search=%s", base, url.QueryEscape(identifier))
	products, err = a.listProducts(ctx, byName)
	if err != nil {
		return nil, "", err
	}
	if len(products) == 0 {
		return nil, "", fmt.Errorf("%w: %s", integration.ErrPlatformProductNotFound, identifier)
	}
	return &products[0], integration.MatchStrategyName, nil
}

func (a *WooCommerceAdapter) listProducts(ctx context.Context, endpoint string) ([]wooProduct, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var products []wooProduct
	if err := json.Unmarshal(respBody, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return products, nil
}

func (a *WooCommerceAdapter) doRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.cfg.ConsumerKey, a.cfg.ConsumerSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("woocommerce", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("woocommerce: failed to read response: %w", err)
	}

	if err := classifyStatus("woocommerce", resp.StatusCode); err != nil {
		return nil, err
	}
	return respBody, nil
}

// Ensure WooCommerceAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*WooCommerceAdapter)(nil)
