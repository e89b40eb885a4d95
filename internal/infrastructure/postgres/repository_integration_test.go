package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/inventory"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Vendas-api/pkg/config"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// testPool conecta a DATABASE_TEST_URL y aplica las migraciones; sin la
// variable la prueba se omite.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_TEST_URL")
	if url == "" {
		t.Skip("DATABASE_TEST_URL no definido")
	}
	m, err := postgres.NewMigrator(url, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPool(context.Background(), config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

type seed struct {
	companyID, customerID, productID, locationID, paymentID string
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) seed {
	t.Helper()
	ctx := context.Background()
	s := seed{
		companyID:  uuid.NewString(),
		customerID: uuid.NewString(),
		productID:  uuid.NewString(),
		locationID: uuid.NewString(),
		paymentID:  uuid.NewString(),
	}
	_, err := pool.Exec(ctx, `INSERT INTO companies (id, legal_name, cnpj, state, city_code) VALUES ($1, 'Empresa Teste', '11222333000181', 'SP', '3550308')`, s.companyID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO customers (id, name, tax_id, state) VALUES ($1, 'José da Silva', '52998224725', 'SP')`, s.customerID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO products (id, sku, name, ncm, price) VALUES ($1, 'SKU-1', 'Cerveja', '22030000', 100)`, s.productID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO stock_locations (id, name) VALUES ($1, 'Depósito')`, s.locationID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO payment_methods (id, name, type) VALUES ($1, 'PIX', 'PIX')`, s.paymentID)
	require.NoError(t, err)
	return s
}

func newOrder(s seed) *entity.Order {
	d := decimal.RequireFromString
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.Order{
		ID: uuid.NewString(), Code: "PV-" + uuid.NewString()[:8], Status: entity.OrderStatusDraft,
		CustomerID: s.customerID, PaymentMethodID: s.paymentID, Installments: 1,
		Lines: []entity.OrderLine{
			{ID: "l1", ProductID: s.productID, Quantity: d("2"), UnitPrice: d("100"), Subtotal: d("200"), Total: d("200"), StockLocationID: s.locationID},
		},
		Subtotal: d("200"), ShippingCost: d("10"), TotalAmount: d("210"),
		DeliveryAddress: entity.DeliveryAddress{UseCustomerAddress: true},
		CreatedAt:       now, UpdatedAt: now,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos
// ──────────────────────────────────────────────────────────────────────────────

func TestOrderRepo_CicloCompleto(t *testing.T) {
	pool := testPool(t)
	s := seedCatalog(t, pool)
	repo := postgres.NewOrderRepository(pool)
	ctx := context.Background()

	o := newOrder(s)
	require.NoError(t, repo.Create(ctx, o))
	assert.Equal(t, 1, o.Version)

	got, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.Code, got.Code)
	require.Len(t, got.Lines, 1)
	assert.True(t, got.Lines[0].Total.Equal(decimal.NewFromInt(200)))
	assert.True(t, got.DeliveryAddress.UseCustomerAddress)
	assert.Nil(t, got.CreditAnalysis)

	got.Status = entity.OrderStatusPendingApproval
	got.CreditAnalysis = &entity.CreditAnalysisDecision{Status: entity.CreditAnalysisPending}
	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, 2, got.Version)

	// Versión vieja: conflicto.
	o.Status = entity.OrderStatusCanceled
	err = repo.Update(ctx, o)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	reloaded, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendingApproval, reloaded.Status)
	require.NotNil(t, reloaded.CreditAnalysis)
	assert.Equal(t, entity.CreditAnalysisPending, reloaded.CreditAnalysis.Status)

	list, total, err := repo.List(ctx, repository.OrderFilter{CustomerID: s.customerID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Lines, 1)

	require.NoError(t, repo.Delete(ctx, o.ID))
	gone, err := repo.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	assert.ErrorIs(t, repo.Delete(ctx, o.ID), domain.ErrNotFound)
}

func TestOrderRepo_NextCode(t *testing.T) {
	pool := testPool(t)
	repo := postgres.NewOrderRepository(pool)
	a, err := repo.NextCode(context.Background())
	require.NoError(t, err)
	b, err := repo.NextCode(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^PV-\d{6,}$`, a)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock transaccional
// ──────────────────────────────────────────────────────────────────────────────

func TestStockService_SobrePostgres(t *testing.T) {
	pool := testPool(t)
	s := seedCatalog(t, pool)
	ctx := context.Background()

	stockRepo := postgres.NewStockRepository(pool)
	require.NoError(t, stockRepo.Upsert(ctx, &entity.Stock{ProductID: s.productID, LocationID: s.locationID, Quantity: decimal.NewFromInt(5)}))

	svc := inventory.NewStockService(postgres.NewTxRunner(pool), stockRepo, logger.Nop())

	var wg sync.WaitGroup
	var failures int32
	var mu sync.Mutex
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Debit(ctx, s.productID, s.locationID, decimal.NewFromInt(2), "pedido-x"); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), failures)

	avail, err := svc.Available(ctx, s.productID, s.locationID)
	require.NoError(t, err)
	assert.True(t, avail.Equal(decimal.NewFromInt(1)))

	require.NoError(t, svc.Restore(ctx, s.productID, s.locationID, decimal.NewFromInt(4), "pedido-x"))
	require.NoError(t, svc.Restore(ctx, s.productID, s.locationID, decimal.NewFromInt(4), "pedido-x"))
	avail, err = svc.Available(ctx, s.productID, s.locationID)
	require.NoError(t, err)
	assert.True(t, avail.Equal(decimal.NewFromInt(5)))
}

// ──────────────────────────────────────────────────────────────────────────────
// NF-e
// ──────────────────────────────────────────────────────────────────────────────

func TestFiscalSeriesRepo_NumerosConcurrentesUnicos(t *testing.T) {
	pool := testPool(t)
	s := seedCatalog(t, pool)
	repo := postgres.NewFiscalSeriesRepository(pool)

	var mu sync.Mutex
	seen := map[int64]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.NextNumber(context.Background(), s.companyID, "55", 1)
			if assert.NoError(t, err) {
				mu.Lock()
				seen[n] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 8)
	for n := int64(1); n <= 8; n++ {
		assert.True(t, seen[n], "falta %d", n)
	}

	_, err := pool.Exec(context.Background(), `UPDATE fiscal_series SET is_active = false WHERE company_id = $1`, s.companyID)
	require.NoError(t, err)
	_, err = repo.NextNumber(context.Background(), s.companyID, "55", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFiscalDocumentRepo_TerminalEsInmutable(t *testing.T) {
	pool := testPool(t)
	s := seedCatalog(t, pool)
	ctx := context.Background()
	orders := postgres.NewOrderRepository(pool)
	o := newOrder(s)
	require.NoError(t, orders.Create(ctx, o))

	repo := postgres.NewFiscalDocumentRepository(pool)
	now := time.Now().UTC()
	doc := &entity.FiscalDocument{
		ID: uuid.NewString(), SaleID: o.ID, Status: entity.FiscalStatusProcessing, Model: "55", Series: 1,
		Number: time.Now().UnixNano() % 999999999, Environment: 2, OperationNature: "Venda", BuyerPresence: 1,
		FreightModality: 9, TotalAmount: o.TotalAmount, AccessKey: fmt.Sprintf("%044d", time.Now().UnixNano()), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, doc))

	doc.GeneratedXML = "<NFe/>"
	require.NoError(t, repo.UpdateProcessing(ctx, doc))

	doc.Authorize("135260000000001", now, "<nfeProc/>", now)
	require.NoError(t, repo.SaveOutcome(ctx, doc))

	doc.Status = entity.FiscalStatusRejected
	assert.ErrorIs(t, repo.SaveOutcome(ctx, doc), domain.ErrStateConflict)

	list, err := repo.ListBySale(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.FiscalStatusAuthorized, list[0].Status)
	assert.Equal(t, "<NFe/>", list[0].GeneratedXML)
	require.NotNil(t, list[0].AuthorizationTimestamp)
}
