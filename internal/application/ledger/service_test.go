package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/ledger"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/domain/warehouse"
)

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newStubProductRepo(products ...*catalog.Product) *stubProductRepo {
	repo := &stubProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *stubProductRepo) FindBySKU(context.Context, string) (*catalog.Product, error) {
	return nil, shared.ErrProductNotFound
}

func (r *stubProductRepo) FindByNameFuzzy(context.Context, string) ([]catalog.Product, error) {
	return nil, nil
}

func (r *stubProductRepo) FindActive(context.Context) ([]catalog.Product, error) { return nil, nil }

func (r *stubProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.products[p.ID] = &copied
	return nil
}

func (r *stubProductRepo) SaveWithLock(_ context.Context, p *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *stubProductRepo) currentStock(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].CurrentStock
}

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []ledger.StockMovement
}

func (r *stubMovementRepo) Append(_ context.Context, m *ledger.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ ledger.MovementFilter) ([]ledger.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubMovementRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

func (r *stubMovementRepo) ExistsByReason(_ context.Context, productID uuid.UUID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ProductID == productID && m.Reason == reason {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubMovementRepo) SumSignedByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, m := range r.movements {
		if m.ProductID == productID {
			sum += m.SignedDelta()
		}
	}
	return sum, nil
}

func (r *stubMovementRepo) snapshot() []ledger.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.StockMovement, len(r.movements))
	copy(out, r.movements)
	return out
}

type stubStockRepo struct {
	mu      sync.Mutex
	buckets map[string]*warehouse.WarehouseStock
}

func newStubStockRepo() *stubStockRepo {
	return &stubStockRepo{buckets: make(map[string]*warehouse.WarehouseStock)}
}

func (r *stubStockRepo) GetOrCreate(_ context.Context, productID, warehouseID uuid.UUID) (*warehouse.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := productID.String() + "/" + warehouseID.String()
	if b, ok := r.buckets[key]; ok {
		copied := *b
		return &copied, nil
	}
	bucket, err := warehouse.NewWarehouseStock(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.buckets[key] = bucket
	copied := *bucket
	return &copied, nil
}

func (r *stubStockRepo) FindByProduct(context.Context, uuid.UUID) ([]warehouse.WarehouseStock, error) {
	return nil, nil
}

func (r *stubStockRepo) SumByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, b := range r.buckets {
		if b.ProductID == productID {
			sum += b.CurrentStock
		}
	}
	return sum, nil
}

func (r *stubStockRepo) Save(_ context.Context, stock *warehouse.WarehouseStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *stock
	r.buckets[stock.ProductID.String()+"/"+stock.WarehouseID.String()] = &copied
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func newLedgerFixture(t *testing.T, stock int64) (*LedgerService, *catalog.Product, *stubProductRepo, *stubMovementRepo, *stubStockRepo, *capturingPublisher) {
	t.Helper()

	product, err := catalog.NewProduct("SKU-L-1", "Ledgered Widget")
	require.NoError(t, err)
	product.CurrentStock = stock

	products := newStubProductRepo(product)
	movements := &stubMovementRepo{}
	stocks := newStubStockRepo()
	publisher := &capturingPublisher{}

	scope := NewNoOpTransactionScope(products, movements, stocks)
	svc := NewLedgerService(scope, publisher, zap.NewNop())
	return svc, product, products, movements, stocks, publisher
}

func TestLedgerService_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("chains stock_before to the product counter", func(t *testing.T) {
		svc, product, products, movements, _, publisher := newLedgerFixture(t, 0)

		first, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementTypeIn,
			Quantity:     10,
			UnitPrice:    decimal.NewFromInt(2),
			Reason:       "delivery 77",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), first.StockBefore)
		assert.Equal(t, int64(10), first.StockAfter)

		second, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementTypeOut,
			Quantity:     4,
			Reason:       "order 12",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10), second.StockBefore)
		assert.Equal(t, int64(6), second.StockAfter)

		assert.Equal(t, int64(6), products.currentStock(product.ID))

		rows := movements.snapshot()
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.True(t, row.Balances())
		}

		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		assert.Len(t, publisher.events, 2)
	})

	t.Run("out movements may drive stock negative", func(t *testing.T) {
		svc, product, products, _, _, _ := newLedgerFixture(t, 2)

		result, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementTypeOut,
			Quantity:     5,
			Reason:       "order 13",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(-3), result.StockAfter)
		assert.Equal(t, int64(-3), products.currentStock(product.ID))
	})

	t.Run("updates the warehouse bucket alongside the counter", func(t *testing.T) {
		svc, product, _, _, stocks, _ := newLedgerFixture(t, 0)
		warehouseID := uuid.New()

		_, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			WarehouseID:  &warehouseID,
			MovementType: ledger.MovementTypeIn,
			Quantity:     8,
			Reason:       "delivery 78",
		})
		require.NoError(t, err)

		total, err := stocks.SumByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(8), total)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, product, _, _, _, _ := newLedgerFixture(t, 0)

		_, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementTypeIn,
			Quantity:     0,
		})
		require.ErrorIs(t, err, shared.ErrInvalidQuantity)

		_, err = svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementType("bogus"),
			Quantity:     1,
		})
		require.Error(t, err)
	})

	t.Run("concurrent appends on one product never interleave the chain", func(t *testing.T) {
		svc, product, products, movements, _, _ := newLedgerFixture(t, 0)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Append(ctx, AppendInput{
					ProductID:    product.ID,
					MovementType: ledger.MovementTypeIn,
					Quantity:     1,
					Reason:       "load test",
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(20), products.currentStock(product.ID))

		sum, err := movements.SumSignedByProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(20), sum)
	})
}

func TestLedgerService_HasMovementWithReason(t *testing.T) {
	ctx := context.Background()
	svc, product, _, _, _, _ := newLedgerFixture(t, 0)

	_, err := svc.Append(ctx, AppendInput{
		ProductID:    product.ID,
		MovementType: ledger.MovementTypeIn,
		Quantity:     1,
		Reason:       "order:55:status:shipped",
	})
	require.NoError(t, err)

	exists, err := svc.HasMovementWithReason(ctx, product.ID, "order:55:status:shipped")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.HasMovementWithReason(ctx, product.ID, "order:55:status:cancelled")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLedgerService_History(t *testing.T) {
	ctx := context.Background()
	svc, product, _, _, _, _ := newLedgerFixture(t, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Append(ctx, AppendInput{
			ProductID:    product.ID,
			MovementType: ledger.MovementTypeIn,
			Quantity:     1,
			Reason:       "delivery",
		})
		require.NoError(t, err)
	}

	movements, total, err := svc.History(ctx, product.ID, ledger.MovementFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, movements, 3)
}
