package sales_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

func TestCreate_PresupuestoCalculaTotales(t *testing.T) {
	f := newFixture(t, nil)
	o := f.quote(t, "pix", "3")

	assert.Equal(t, entity.OrderStatusQuote, o.Status)
	assert.Equal(t, "PV-000001", o.Code)
	assert.Equal(t, 1, o.Version)
	assert.True(t, dec("300").Equal(o.Subtotal))
	assert.True(t, dec("310").Equal(o.TotalAmount))
	require.Len(t, o.Lines, 1)
	assert.True(t, dec("300").Equal(o.Lines[0].Total))
	assert.NotEmpty(t, o.Lines[0].ID)
}

func TestCreate_PrecioDerivadoDelMargen(t *testing.T) {
	f := newFixture(t, nil)
	lines := []dto.OrderLineInput{{ProductID: "p1", Quantity: dec("1"), MarginPercent: decPtr("50")}}
	o, err := f.uc.Create(context.Background(), dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{Lines: &lines}})
	require.NoError(t, err)
	// costo 80 × 1,5
	assert.True(t, dec("120").Equal(o.Lines[0].UnitPrice))

	lines = []dto.OrderLineInput{{ProductID: "p2", Quantity: dec("1"), MarginPercent: decPtr("50")}}
	_, err = f.uc.Create(context.Background(), dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{Lines: &lines}})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "lines[0].margin_percent", domain.FieldOf(err))
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   dto.CreateOrderRequest
		field string
	}{
		{
			name:  "estado inicial inválido",
			req:   dto.CreateOrderRequest{Status: "CONFIRMED"},
			field: "status",
		},
		{
			name:  "cliente inexistente",
			req:   dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{CustomerID: strPtr("c9")}},
			field: "customer_id",
		},
		{
			name: "producto inexistente",
			req: dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{
				Lines: &[]dto.OrderLineInput{{ProductID: "zzz", Quantity: dec("1")}},
			}},
			field: "lines[0].product_id",
		},
		{
			name: "cantidad cero",
			req: dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{
				Lines: &[]dto.OrderLineInput{{ProductID: "p1", Quantity: dec("0")}},
			}},
			field: "lines[0].quantity",
		},
		{
			name: "descuento en monto y porcentaje",
			req: dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{
				DiscountAmount:  decPtr("1"),
				DiscountPercent: decPtr("1"),
			}},
			field: "discount_amount",
		},
		{
			name: "borrador sin ubicación",
			req: dto.CreateOrderRequest{Status: "DRAFT", OrderPatch: dto.OrderPatch{
				Lines: &[]dto.OrderLineInput{{ProductID: "p1", Quantity: dec("1")}},
			}},
			field: "lines[0].stock_location_id",
		},
		{
			name: "ubicación inactiva",
			req: dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{
				Lines: &[]dto.OrderLineInput{{ProductID: "p1", Quantity: dec("1"), StockLocationID: "loc-off"}},
			}},
			field: "lines[0].stock_location_id",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(ctx, tc.req)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tc.field, domain.FieldOf(err))
		})
	}
}

func TestEditLines_RecalculaYVersiona(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "3")

	o, err := f.uc.EditLines(ctx, q.ID, dto.OrderPatch{DiscountPercent: decPtr("10")})
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(o.DiscountAmount))
	assert.True(t, dec("280").Equal(o.TotalAmount))
	assert.Equal(t, 2, o.Version)

	lines := []dto.OrderLineInput{{ProductID: "p1", Quantity: dec("1"), UnitPrice: decPtr("100"), StockLocationID: "loc-1"}}
	o, err = f.uc.EditLines(ctx, q.ID, dto.OrderPatch{Lines: &lines})
	require.NoError(t, err)
	// el porcentaje manda: 10% de 100
	assert.True(t, dec("10").Equal(o.DiscountAmount))
	assert.True(t, dec("100").Equal(o.TotalAmount))
}

func TestEditLines_DespuesDeConfirmarEsConflicto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "3")
	confirmed, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.uc.EditLines(ctx, q.ID, dto.OrderPatch{ShippingCost: decPtr("99")})
	require.ErrorIs(t, err, domain.ErrStateConflict)

	persisted := f.reload(t, q.ID)
	assert.True(t, confirmed.TotalAmount.Equal(persisted.TotalAmount))
	assert.Equal(t, confirmed.Version, persisted.Version)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q := f.quote(t, "pix", "1")
	require.NoError(t, f.uc.Delete(ctx, q.ID))
	_, err := f.uc.Get(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	q = f.quote(t, "pix", "1")
	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)
	assert.ErrorIs(t, f.uc.Delete(ctx, q.ID), domain.ErrStateConflict)
}

func TestList_FiltraPorEstado(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.quote(t, "pix", "1")
	f.quote(t, "pix", "1")
	_, err := f.lc.Confirm(ctx, a.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	items, total, err := f.uc.List(ctx, repository.OrderFilter{Status: entity.OrderStatusQuote})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	_, total, err = f.uc.List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.uc.List(ctx, repository.OrderFilter{Status: "FOO"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
