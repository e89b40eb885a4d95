package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/application/inventory"
	"github.com/jhoicas/Vendas-api/internal/application/ledger"
	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

type fixture struct {
	orders      *memory.OrderRepository
	stock       *memory.StockStore
	receivables *memory.ReceivableRepository
	products    *memory.ProductRepository
	uc          *sales.OrderUseCase
	lc          *sales.LifecycleController
}

// newFixture arma los casos de uso con servicios reales sobre repositorios en
// memoria. ledgerOverride reemplaza al servicio de títulos si no es nil.
func newFixture(t *testing.T, ledgerOverride sales.LedgerPostingService) *fixture {
	t.Helper()
	return newFixtureWithOrders(t, ledgerOverride, nil)
}

func newFixtureWithOrders(t *testing.T, ledgerOverride sales.LedgerPostingService, wrap func(*memory.OrderRepository) repository.OrderRepository) *fixture {
	t.Helper()
	return buildFixture(t, ledgerOverride, wrap, nil)
}

// newFixtureWithStock envuelve el servicio de stock real con wrapStock.
func newFixtureWithStock(t *testing.T, wrapStock func(sales.StockCommitmentService) sales.StockCommitmentService) *fixture {
	t.Helper()
	return buildFixture(t, nil, nil, wrapStock)
}

func buildFixture(
	t *testing.T,
	ledgerOverride sales.LedgerPostingService,
	wrap func(*memory.OrderRepository) repository.OrderRepository,
	wrapStock func(sales.StockCommitmentService) sales.StockCommitmentService,
) *fixture {
	t.Helper()
	log := logger.Nop()
	clock := func() time.Time { return fixedNow }

	orders := memory.NewOrderRepository()
	var repo repository.OrderRepository = orders
	if wrap != nil {
		repo = wrap(orders)
	}
	customers := memory.NewCustomerRepository(&entity.Customer{ID: "c1", Name: "Cliente Uno", TaxID: "52998224725"})
	products := memory.NewProductRepository(
		&entity.Product{ID: "p1", SKU: "SKU-1", Name: "Produto 1", Price: dec("100"), Cost: dec("80"), IsActive: true},
		&entity.Product{ID: "p2", SKU: "SKU-2", Name: "Produto 2", Price: dec("50"), Cost: dec("0"), IsActive: true},
	)
	pms := memory.NewPaymentMethodRepository(
		&entity.PaymentMethod{ID: "pix", Name: "PIX", Type: entity.PaymentPix, IsActive: true, MaxInstallments: 1},
		&entity.PaymentMethod{ID: "boleto", Name: "Boleto", Type: entity.PaymentBoleto, IsActive: true,
			MaxInstallments: 3, DaysToFirstDue: 30, IntervalDays: 30},
	)
	locations := memory.NewStockLocationRepository(
		&entity.StockLocation{ID: "loc-1", Name: "Depósito", IsActive: true},
		&entity.StockLocation{ID: "loc-off", Name: "Cerrado", IsActive: false},
	)
	stock := memory.NewStockStore()
	stock.Set("p1", "loc-1", dec("10"))
	stock.Set("p2", "loc-1", dec("5"))
	receivables := memory.NewReceivableRepository()

	var ledgerSvc sales.LedgerPostingService = ledger.NewReceivableService(receivables, pms, log).WithClock(clock)
	if ledgerOverride != nil {
		ledgerSvc = ledgerOverride
	}
	var stockSvc sales.StockCommitmentService = inventory.NewStockService(stock, stock, log)
	if wrapStock != nil {
		stockSvc = wrapStock(stockSvc)
	}
	locker := memory.NewOrderLocker()

	return &fixture{
		orders:      orders,
		stock:       stock,
		receivables: receivables,
		products:    products,
		uc:          sales.NewOrderUseCase(repo, customers, products, pms, locations, locker, log).WithClock(clock),
		lc:          sales.NewLifecycleController(repo, pms, locations, stockSvc, ledgerSvc, locker, log).WithClock(clock),
	}
}

// quote crea un presupuesto de p1 × qty a 100 con flete 10.
func (f *fixture) quote(t *testing.T, paymentMethodID string, qty string) *entity.Order {
	t.Helper()
	lines := []dto.OrderLineInput{{ProductID: "p1", Quantity: dec(qty), UnitPrice: decPtr("100"), StockLocationID: "loc-1"}}
	o, err := f.uc.Create(context.Background(), dto.CreateOrderRequest{
		OrderPatch: dto.OrderPatch{
			CustomerID:      strPtr("c1"),
			PaymentMethodID: strPtr(paymentMethodID),
			Lines:           &lines,
			ShippingCost:    decPtr("10"),
		},
	})
	require.NoError(t, err)
	return o
}

func (f *fixture) reload(t *testing.T, id string) *entity.Order {
	t.Helper()
	o, err := f.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, o)
	return o
}
