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

const shopifyAPIVersion = "2024-04"

// ShopifyAdapter implements PlatformAdapter against the Shopify Admin REST
// API. The identifier is resolved to a variant (SKU first, product title
// fallback); stock is written through inventory_levels/set with the
// configured location.
type ShopifyAdapter struct {
	cfg        config.ShopifyConfig
	httpClient *http.Client
}

// NewShopifyAdapter creates a new Shopify adapter
func NewShopifyAdapter(cfg config.ShopifyConfig) (*ShopifyAdapter, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.ShopDomain) == "" {
			return nil, fmt.Errorf("shopify: shop_domain is required: %w", integration.ErrPlatformNotConfigured)
		}
		if cfg.AccessToken == "" {
			return nil, fmt.Errorf("shopify: access_token is required: %w", integration.ErrPlatformNotConfigured)
		}
		if cfg.LocationID == "" {
			return nil, fmt.Errorf("shopify: location_id is required: %w", integration.ErrPlatformNotConfigured)
		}
	}

	return &ShopifyAdapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *ShopifyAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeShopify
}

// IsEnabled returns true if this platform is configured and enabled
func (a *ShopifyAdapter) IsEnabled() bool {
	return a.cfg.Enabled
}

type shopifyVariant struct {
	ID              int64  `json:"id"`
	SKU             string `json:"sku"`
	InventoryItemID int64  `json:"inventory_item_id"`
}

type shopifyProduct struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Variants []shopifyVariant `json:"variants"`
}

type shopifyProductList struct {
	Products []shopifyProduct `json:"products"`
}

// SetStock pushes the absolute stock quantity for the variant matching the
// identifier.
func (a *ShopifyAdapter) SetStock(ctx context.Context, identifier string, quantity int64) (integration.MatchStrategy, error) {
	if !a.cfg.Enabled {
		return "", integration.ErrPlatformNotEnabled
	}

	variant, strategy, err := a.findVariant(ctx, identifier)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"location_id":       a.cfg.LocationID,
		"inventory_item_id": variant.InventoryItemID,
		"available":         quantity,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("shopify: failed to encode payload: %w", err)
	}

	endpoint := a.apiURL("inventory_levels/set.json")
	if _, err := a.doRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body)); err != nil {
		return "", err
	}
	return strategy, nil
}

// FindProduct reports whether the platform knows a variant for the identifier
func (a *ShopifyAdapter) FindProduct(ctx context.Context, identifier string) (bool, error) {
	if !a.cfg.Enabled {
		return false, integration.ErrPlatformNotEnabled
	}

	_, _, err := a.findVariant(ctx, identifier)
	if errors.Is(err, integration.ErrPlatformProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findVariant scans the product catalog for an exact SKU match, falling back
// to a title search. The REST API has no direct variant-by-SKU lookup. The
// returned strategy tells the caller which path matched.
func (a *ShopifyAdapter) findVariant(ctx context.Context, identifier string) (*shopifyVariant, integration.MatchStrategy, error) {
	list, err := a.listProducts(ctx, a.apiURL("products.json?fields=id,title,variants&limit=250"))
	if err != nil {
		return nil, "", err
	}

	for _, product := range list.Products {
		for _, variant := range product.Variants {
			if variant.SKU != "" && strings.EqualFold(variant.SKU, identifier) {
				v := variant
				return &v, integration.MatchStrategySKU, nil
			}
		}
	}

	byTitle := a.apiURL("products.json?fields=id,title,variants&title=" + url.QueryEscape(identifier))
	list, err = a.listProducts(ctx, byTitle)
	if err != nil {
		return nil, "", err
	}
	for _, product := range list.Products {
		if len(product.Variants) > 0 {
			v := product.Variants[0]
			return &v, integration.MatchStrategyName, nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", integration.ErrPlatformProductNotFound, identifier)
}

func (a *ShopifyAdapter) listProducts(ctx context.Context, endpoint string) (*shopifyProductList, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var list shopifyProductList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return &list, nil
}

func (a *ShopifyAdapter) apiURL(path string) string {
	domain := strings.TrimRight(a.cfg.ShopDomain, "/")
	if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}
	return fmt.Sprintf("%s/admin/api/%s/%s", domain, shopifyAPIVersion, path)
}

func (a *ShopifyAdapter) doRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", a.cfg.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("shopify", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if err := classifyStatus("shopify", resp.StatusCode); err != nil {
		return nil, err
	}
	return respBody, nil
}

// Ensure ShopifyAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*ShopifyAdapter)(nil)
