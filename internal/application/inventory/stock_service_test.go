package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/inventory"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService() (*inventory.StockService, *memory.StockStore) {
	store := memory.NewStockStore()
	store.Set("p1", "loc-1", dec("10"))
	return inventory.NewStockService(store, store, logger.Nop()), store
}

func TestDebit_RestaYRegistraMovimiento(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, "p1", "loc-1", dec("4"), "order-1"))

	avail, err := svc.Available(ctx, "p1", "loc-1")
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(avail))

	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, "order-1", movs[0].TransactionID)
	assert.True(t, dec("-4").Equal(movs[0].Quantity))
}

func TestDebit_StockInsuficiente(t *testing.T) {
	svc, store := newService()
	err := svc.Debit(context.Background(), "p1", "loc-1", dec("11"), "order-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, dec("10").Equal(store.Quantity("p1", "loc-1")))
	assert.Empty(t, store.Movements())

	// sin fila el saldo es cero
	err = svc.Debit(context.Background(), "p1", "loc-2", dec("1"), "order-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRestore_EsIdempotente(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	require.NoError(t, svc.Debit(ctx, "p1", "loc-1", dec("4"), "order-1"))

	require.NoError(t, svc.Restore(ctx, "p1", "loc-1", dec("4"), "order-1"))
	require.NoError(t, svc.Restore(ctx, "p1", "loc-1", dec("4"), "order-1"))

	assert.True(t, dec("10").Equal(store.Quantity("p1", "loc-1")))
	assert.Len(t, store.Movements(), 2)
}

func TestRestore_NoReponeLoQueOtraReferenciaDebito(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	require.NoError(t, svc.Debit(ctx, "p1", "loc-1", dec("2"), "order-1"))

	require.NoError(t, svc.Restore(ctx, "p1", "loc-1", dec("5"), "order-1"))
	require.NoError(t, svc.Restore(ctx, "p1", "loc-1", dec("5"), "order-2"))

	assert.True(t, dec("10").Equal(store.Quantity("p1", "loc-1")))
}
