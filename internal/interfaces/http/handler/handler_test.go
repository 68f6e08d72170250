package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcatalog "github.com/stockpilot/backend/internal/application/catalog"
	appledger "github.com/stockpilot/backend/internal/application/ledger"
	"github.com/stockpilot/backend/internal/application/orderflow"
	appwarehouse "github.com/stockpilot/backend/internal/application/warehouse"
	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/warehouse"
	"github.com/stockpilot/backend/internal/infrastructure/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newMemProductRepo(products ...*catalog.Product) *memProductRepo {
	repo := &memProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			copied := *p
			return &copied, nil
		}
	}
	return nil, shared.ErrProductNotFound
}

func (r *memProductRepo) FindByNameFuzzy(_ context.Context, identifier string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.NameMatches(identifier) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindActive(_ context.Context) ([]catalog.Product, error) { return nil, nil }

func (r *memProductRepo) Save(_ context.Context, p *catalog.Product) error {
	copied := *p
	r.products[p.ID] = &copied
	return nil
}

func (r *memProductRepo) SaveWithLock(_ context.Context, p *catalog.Product) error {
	existing, ok := r.products[p.ID]
	if !ok {
		return shared.ErrProductNotFound
	}
	if existing.Version != p.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	copied := *p
	r.products[p.ID] = &copied
	return nil
}

type memMovementRepo struct {
	movements []ledger.StockMovement
}

func (r *memMovementRepo) Append(_ context.Context, m *ledger.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *memMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ ledger.MovementFilter) ([]ledger.StockMovement, error) {
	var out []ledger.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (r *memMovementRepo) ExistsByReason(_ context.Context, productID uuid.UUID, reason string) (bool, error) {
	for _, m := range r.movements {
		if m.ProductID == productID && m.Reason == reason {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMovementRepo) SumSignedByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			sum += m.SignedDelta()
		}
	}
	return sum, nil
}

type memStockRepo struct {
	buckets map[string]*warehouse.WarehouseStock
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{buckets: make(map[string]*warehouse.WarehouseStock)}
}

func (r *memStockRepo) key(productID, warehouseID uuid.UUID) string {
	return productID.String() + "/" + warehouseID.String()
}

func (r *memStockRepo) GetOrCreate(_ context.Context, productID, warehouseID uuid.UUID) (*warehouse.WarehouseStock, error) {
	if b, ok := r.buckets[r.key(productID, warehouseID)]; ok {
		copied := *b
		return &copied, nil
	}
	bucket, err := warehouse.NewWarehouseStock(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.buckets[r.key(productID, warehouseID)] = bucket
	copied := *bucket
	return &copied, nil
}

func (r *memStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]warehouse.WarehouseStock, error) {
	var out []warehouse.WarehouseStock
	for _, b := range r.buckets {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memStockRepo) SumByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	var sum int64
	for _, b := range r.buckets {
		if b.ProductID == productID {
			sum += b.CurrentStock
		}
	}
	return sum, nil
}

func (r *memStockRepo) Save(_ context.Context, stock *warehouse.WarehouseStock) error {
	copied := *stock
	r.buckets[r.key(stock.ProductID, stock.WarehouseID)] = &copied
	return nil
}

type memComponentRepo struct{}

func (memComponentRepo) FindByParent(context.Context, uuid.UUID) ([]catalog.BundleComponent, error) {
	return nil, nil
}

func (memComponentRepo) Save(context.Context, *catalog.BundleComponent) error { return nil }

func (memComponentRepo) DeleteByParent(context.Context, uuid.UUID) error { return nil }

type memWarehouseRepo struct {
	warehouses map[uuid.UUID]*warehouse.Warehouse
}

func newMemWarehouseRepo(warehouses ...*warehouse.Warehouse) *memWarehouseRepo {
	repo := &memWarehouseRepo{warehouses: make(map[uuid.UUID]*warehouse.Warehouse)}
	for _, w := range warehouses {
		repo.warehouses[w.ID] = w
	}
	return repo
}

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *w
	return &copied, nil
}

func (r *memWarehouseRepo) FindActive(_ context.Context) ([]warehouse.Warehouse, error) {
	var out []warehouse.Warehouse
	for _, w := range r.warehouses {
		if w.IsActive {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *memWarehouseRepo) Save(_ context.Context, w *warehouse.Warehouse) error {
	copied := *w
	r.warehouses[w.ID] = &copied
	return nil
}

type memSettingsRepo struct {
	settings *orderflow.StockDeductionSettings
}

func (r *memSettingsRepo) Load(context.Context) (*orderflow.StockDeductionSettings, error) {
	if r.settings == nil {
		return nil, shared.ErrNotFound
	}
	copied := *r.settings
	return &copied, nil
}

func (r *memSettingsRepo) Save(_ context.Context, settings *orderflow.StockDeductionSettings) error {
	copied := *settings
	r.settings = &copied
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

type testEnv struct {
	engine    *gin.Engine
	products  *memProductRepo
	movements *memMovementRepo
	stocks    *memStockRepo
}

func newTestEnv(t *testing.T, products ...*catalog.Product) *testEnv {
	t.Helper()

	productRepo := newMemProductRepo(products...)
	movementRepo := &memMovementRepo{}
	stockRepo := newMemStockRepo()

	scope := appledger.NewNoOpTransactionScope(productRepo, movementRepo, stockRepo)
	ledgerSvc := appledger.NewLedgerService(scope, nopPublisher{}, zap.NewNop())
	catalogSvc := appcatalog.NewCatalogService(productRepo, nopPublisher{}, zap.NewNop())
	resolver := appcatalog.NewBundleResolver(productRepo, memComponentRepo{})

	settings := orderflow.DefaultSettings()
	settings.AutoDeductEnabled = true
	settings.ReservationStatus = "processing"
	settings.DeductionStatus = "shipped"
	settings.RestoreStatus = "cancelled"
	settingsSvc, err := orderflow.NewSettingsService(context.Background(), &memSettingsRepo{settings: settings}, zap.NewNop())
	require.NoError(t, err)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	orderSvc := orderflow.NewOrderStatusService(settingsSvc, catalogSvc, resolver, ledgerSvc, store, time.Hour, zap.NewNop())
	transferSvc := appwarehouse.NewTransferService(scope, nopPublisher{}, ledgerSvc.Locks(), true, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	NewStockHandler(catalogSvc, ledgerSvc).RegisterRoutes(api)
	NewOrderHandler(orderSvc).RegisterRoutes(api)
	NewWarehouseHandler(newMemWarehouseRepo(), stockRepo, transferSvc).RegisterRoutes(api)
	NewSettingsHandler(settingsSvc).RegisterRoutes(api)

	return &testEnv{
		engine:    engine,
		products:  productRepo,
		movements: movementRepo,
		stocks:    stockRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func testProduct(t *testing.T, sku, name string, stock int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name)
	require.NoError(t, err)
	p.CurrentStock = stock
	return p
}

func TestStockHandler(t *testing.T) {
	t.Run("returns stock counters including negative availability", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 3)
		product.ReservedStock = 5
		env := newTestEnv(t, product)

		w := env.do(t, http.MethodGet, "/api/v1/products/"+product.ID.String()+"/stock", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var view appcatalog.StockView
		decodeData(t, w, &view)
		assert.Equal(t, int64(3), view.CurrentStock)
		assert.Equal(t, int64(5), view.ReservedStock)
		assert.Equal(t, int64(-2), view.Available)
	})

	t.Run("unknown product is a 404 with the domain code", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodGet, "/api/v1/products/"+uuid.NewString()+"/stock", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "PRODUCT_NOT_FOUND")
	})

	t.Run("malformed product ID is a 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodGet, "/api/v1/products/not-a-uuid/stock", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("records a manual movement", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 0)
		env := newTestEnv(t, product)

		w := env.do(t, http.MethodPost, "/api/v1/movements", gin.H{
			"product_id":    product.ID.String(),
			"movement_type": "in",
			"quantity":      10,
			"unit_price":    "2.50",
			"reason":        "delivery 5",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var result appledger.AppendResult
		decodeData(t, w, &result)
		assert.Equal(t, int64(0), result.StockBefore)
		assert.Equal(t, int64(10), result.StockAfter)
	})

	t.Run("rejects an invalid movement type", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 0)
		env := newTestEnv(t, product)

		w := env.do(t, http.MethodPost, "/api/v1/movements", gin.H{
			"product_id":    product.ID.String(),
			"movement_type": "sideways",
			"quantity":      1,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lists movement history with pagination meta", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 0)
		env := newTestEnv(t, product)

		for i := 0; i < 3; i++ {
			w := env.do(t, http.MethodPost, "/api/v1/movements", gin.H{
				"product_id":    product.ID.String(),
				"movement_type": "in",
				"quantity":      1,
				"reason":        fmt.Sprintf("delivery %d", i),
			})
			require.Equal(t, http.StatusCreated, w.Code)
		}

		w := env.do(t, http.MethodGet, "/api/v1/products/"+product.ID.String()+"/movements?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var envelope struct {
			Data []MovementResponse `json:"data"`
			Meta struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Len(t, envelope.Data, 3)
		assert.Equal(t, int64(3), envelope.Meta.Total)
	})
}

func TestOrderHandler(t *testing.T) {
	t.Run("order status webhook drives the state machine", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 10)
		env := newTestEnv(t, product)

		w := env.do(t, http.MethodPost, "/api/v1/orders/status-changed", gin.H{
			"order_id":   "1001",
			"new_status": "shipped",
			"line_items": []gin.H{{"sku": "SKU-1", "quantity": 2}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp OrderStatusChangedResponse
		decodeData(t, w, &resp)
		assert.True(t, resp.Applied)

		updated, err := env.products.FindByID(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(8), updated.CurrentStock)
	})

	t.Run("replayed webhook applies nothing", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 10)
		env := newTestEnv(t, product)

		body := gin.H{
			"order_id":   "1001",
			"new_status": "shipped",
			"line_items": []gin.H{{"sku": "SKU-1", "quantity": 2}},
		}
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/orders/status-changed", body).Code)

		w := env.do(t, http.MethodPost, "/api/v1/orders/status-changed", body)
		require.Equal(t, http.StatusOK, w.Code)

		var resp OrderStatusChangedResponse
		decodeData(t, w, &resp)
		assert.False(t, resp.Applied)
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/api/v1/orders/status-changed", gin.H{"order_id": "1001"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWarehouseHandler(t *testing.T) {
	t.Run("transfer moves stock between buckets", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 10)
		env := newTestEnv(t, product)

		fromID, toID := uuid.New(), uuid.New()
		source, err := warehouse.NewWarehouseStock(product.ID, fromID)
		require.NoError(t, err)
		source.CurrentStock = 10
		require.NoError(t, env.stocks.Save(context.Background(), source))

		w := env.do(t, http.MethodPost, "/api/v1/warehouses/transfers", gin.H{
			"product_id":        product.ID.String(),
			"from_warehouse_id": fromID.String(),
			"to_warehouse_id":   toID.String(),
			"quantity":          4,
		})
		require.Equal(t, http.StatusNoContent, w.Code)

		total, err := env.stocks.SumByProduct(context.Background(), product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), total)
	})

	t.Run("insufficient source bucket is a 422", func(t *testing.T) {
		product := testProduct(t, "SKU-1", "Widget", 10)
		env := newTestEnv(t, product)

		w := env.do(t, http.MethodPost, "/api/v1/warehouses/transfers", gin.H{
			"product_id":        product.ID.String(),
			"from_warehouse_id": uuid.NewString(),
			"to_warehouse_id":   uuid.NewString(),
			"quantity":          4,
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "INSUFFICIENT_STOCK")
	})

	t.Run("creates and lists warehouses", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPost, "/api/v1/warehouses", gin.H{
			"code": "WH-1",
			"name": "Main Warehouse",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/warehouses", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var rows []WarehouseResponse
		decodeData(t, w, &rows)
		require.Len(t, rows, 1)
		assert.Equal(t, "WH-1", rows[0].Code)
	})
}

func TestSettingsHandler(t *testing.T) {
	t.Run("round trips the settings", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPut, "/api/v1/settings/stock-deduction", gin.H{
			"auto_deduct_enabled": true,
			"reservation_status":  "В обработка",
			"deduction_status":    "Изпратена",
			"restore_status":      "Отказана",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do(t, http.MethodGet, "/api/v1/settings/stock-deduction", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp SettingsResponse
		decodeData(t, w, &resp)
		assert.True(t, resp.AutoDeductEnabled)
		assert.Equal(t, "Изпратена", resp.DeductionStatus)
	})

	t.Run("contradictory settings are a 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPut, "/api/v1/settings/stock-deduction", gin.H{
			"auto_deduct_enabled": true,
			"deduction_status":    "shipped",
			"restore_status":      "shipped",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
