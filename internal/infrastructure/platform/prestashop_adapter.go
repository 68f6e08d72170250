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

// PrestaShopAdapter implements PlatformAdapter against the PrestaShop
// webservice. Products are resolved by reference (the PrestaShop SKU field)
// through /api/products; quantities live in the separate stock_availables
// resource, which is updated with a PUT.
type PrestaShopAdapter struct {
	cfg        config.PrestaShopConfig
	httpClient *http.Client
}

// NewPrestaShopAdapter creates a new PrestaShop adapter
func NewPrestaShopAdapter(cfg config.PrestaShopConfig) (*PrestaShopAdapter, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("prestashop: base_url is required: %w", integration.ErrPlatformNotConfigured)
		}
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("prestashop: api_key is required: %w", integration.ErrPlatformNotConfigured)
		}
	}

	return &PrestaShopAdapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *PrestaShopAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodePrestaShop
}

// IsEnabled returns true if this platform is configured and enabled
func (a *PrestaShopAdapter) IsEnabled() bool {
	return a.cfg.Enabled
}

type prestaProductList struct {
	Products []struct {
		ID   int64 `json:"id"`
	} `json:"products"`
}

type prestaStockList struct {
	StockAvailables []struct {
		ID int64 `json:"id"`
	} `json:"stock_availables"`
}

// SetStock pushes the absolute stock quantity for the product matching the
// identifier.
func (a *PrestaShopAdapter) SetStock(ctx context.Context, identifier string, quantity int64) (integration.MatchStrategy, error) {
	if !a.cfg.Enabled {
		return "", integration.ErrPlatformNotEnabled
	}

	productID, strategy, err := a.findProductID(ctx, identifier)
	if err != nil {
		return "", err
	}

	stockID, err := a.findStockAvailableID(ctx, productID)
	if err != nil {
		return "", err
	}

	// The webservice only accepts XML bodies for writes.
	payload := fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?><prestashop><stock_available><id>%d</id><id_product>%d</id_product><quantity>%d</quantity><id_product_attribute>0</id_product_attribute><depends_on_stock>0</depends_on_stock><out_of_stock>2</out_of_stock></stock_available></prestashop>`,
		stockID, productID, quantity,
	)

	endpoint := fmt.Sprintf("%s/api/stock_availables/%d", strings.TrimRight(a.cfg.BaseURL, "/"), stockID)
	if _, err := a.doRequest(ctx, http.MethodPut, endpoint, bytes.NewReader([]byte(payload)), "text/xml"); err != nil {
		return "", err
	}
	return strategy, nil
}

// FindProduct reports whether the platform knows a product for the identifier
func (a *PrestaShopAdapter) FindProduct(ctx context.Context, identifier string) (bool, error) {
	if !a.cfg.Enabled {
		return false, integration.ErrPlatformNotEnabled
	}

	_, _, err := a.findProductID(ctx, identifier)
	if errors.Is(err, integration.ErrPlatformProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// findProductID resolves the identifier against the reference field first,
// then against the product name, reporting which path matched.
func (a *PrestaShopAdapter) findProductID(ctx context.Context, identifier string) (int64, integration.MatchStrategy, error) {
	base := strings.TrimRight(a.cfg.BaseURL, "/")

	byReference := fmt.Sprintf("%s/api/products?filter[reference]=%s&output_format=JSON", base, url.QueryEscape(identifier))
	if id, err := a.firstProductID(ctx, byReference); err == nil {
		return id, integration.MatchStrategySKU, nil
	} else if !errors.Is(err, integration.ErrPlatformProductNotFound) {
		return 0, "", err
	}

	byName := fmt.Sprintf("%s/api/products?filter[name]=%%[%s]%%&output_format=JSON", base, url.QueryEscape(identifier))
	id, err := a.firstProductID(ctx, byName)
	if err != nil {
		return 0, "", err
	}
	return id, integration.MatchStrategyName, nil
}

func (a *PrestaShopAdapter) firstProductID(ctx context.Context, endpoint string) (int64, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return 0, err
	}

	var list prestaProductList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return 0, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(list.Products) == 0 {
		return 0, integration.ErrPlatformProductNotFound
	}
	return list.Products[0].ID, nil
}

func (a *PrestaShopAdapter) findStockAvailableID(ctx context.Context, productID int64) (int64, error) {
	endpoint := fmt.Sprintf("%s/api/stock_availables?filter[id_product]=%d&output_format=JSON",
		strings.TrimRight(a.cfg.BaseURL, "/"), productID)

	respBody, err := a.doRequest(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return 0, err
	}

	var list prestaStockList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return 0, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(list.StockAvailables) == 0 {
		return 0, fmt.Errorf("prestashop: no stock_available row for product %d: %w",
			productID, integration.ErrPlatformProductNotFound)
	}
	return list.StockAvailables[0].ID, nil
}

func (a *PrestaShopAdapter) doRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("prestashop: failed to create request: %w", err)
	}
	// The webservice key is passed as the basic auth username.
	req.SetBasicAuth(a.cfg.APIKey, "")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("prestashop", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("prestashop: failed to read response: %w", err)
	}

	if err := classifyStatus("prestashop", resp.StatusCode); err != nil {
		return nil, err
	}
	return respBody, nil
}

// Ensure PrestaShopAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*PrestaShopAdapter)(nil)
