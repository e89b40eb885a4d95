package sales_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/memory"
)

// ─── dobles ──────────────────────────────────────────────────────────────────

type failingLedger struct{ reversed int }

func (l *failingLedger) PostReceivables(context.Context, string, string, int, decimal.Decimal) ([]string, error) {
	return nil, errors.New("conexión rechazada")
}

func (l *failingLedger) ReverseReceivables(context.Context, string, []string) error {
	l.reversed++
	return nil
}

// flakyStock delega en el servicio real y falla el débito número failAt.
type flakyStock struct {
	sales.StockCommitmentService
	mu     sync.Mutex
	debits int
	failAt int
}

func (s *flakyStock) Debit(ctx context.Context, productID, locationID string, quantity decimal.Decimal, reference string) error {
	s.mu.Lock()
	s.debits++
	n := s.debits
	s.mu.Unlock()
	if n == s.failAt {
		return errors.New("timeout al debitar")
	}
	return s.StockCommitmentService.Debit(ctx, productID, locationID, quantity, reference)
}

// staleOrders simula que otro proceso escribió el pedido entre la lectura y el Update.
type staleOrders struct {
	*memory.OrderRepository
}

func (s staleOrders) Update(ctx context.Context, o *entity.Order) error {
	if o.Status == entity.OrderStatusConfirmed {
		return domain.ErrConcurrentModification
	}
	return s.OrderRepository.Update(ctx, o)
}

// ─── confirm ─────────────────────────────────────────────────────────────────

func TestConfirm_DebitaStockYGeneraTitulos(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "3")

	o, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusConfirmed, o.Status)
	assert.NotNil(t, o.ConfirmedAt)
	assert.Nil(t, o.CreditAnalysis)
	assert.True(t, dec("7").Equal(f.stock.Quantity("p1", "loc-1")))

	recs, err := f.receivables.ListByOrder(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, dec("310").Equal(recs[0].Amount))
	assert.Equal(t, []string{recs[0].ID}, o.ReceivableIDs)

	persisted := f.reload(t, q.ID)
	assert.Equal(t, entity.OrderStatusConfirmed, persisted.Status)
	assert.Equal(t, o.Version, persisted.Version)
}

func TestConfirm_StockInsuficienteNoModificaNada(t *testing.T) {
	f := newFixture(t, nil)
	q := f.quote(t, "pix", "20")

	_, err := f.lc.Confirm(context.Background(), q.ID, dto.ConfirmOrderRequest{})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, entity.OrderStatusQuote, f.reload(t, q.ID).Status)
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))
	assert.Empty(t, f.stock.Movements())
}

func TestConfirm_FallaDelLedgerReponeStock(t *testing.T) {
	f := newFixture(t, &failingLedger{})
	q := f.quote(t, "pix", "3")

	_, err := f.lc.Confirm(context.Background(), q.ID, dto.ConfirmOrderRequest{})
	require.ErrorIs(t, err, domain.ErrLedger)

	assert.Equal(t, entity.OrderStatusQuote, f.reload(t, q.ID).Status)
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))

	movs := f.stock.Movements()
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.Equal(t, entity.MovementTypeIN, movs[1].Type)
}

func TestConfirm_FallaEnSegundoDebitoReponeElPrimero(t *testing.T) {
	f := newFixtureWithStock(t, func(svc sales.StockCommitmentService) sales.StockCommitmentService {
		return &flakyStock{StockCommitmentService: svc, failAt: 2}
	})
	ctx := context.Background()
	lines := []dto.OrderLineInput{
		{ProductID: "p1", Quantity: dec("3"), UnitPrice: decPtr("100"), StockLocationID: "loc-1"},
		{ProductID: "p2", Quantity: dec("2"), UnitPrice: decPtr("50"), StockLocationID: "loc-1"},
	}
	q, err := f.uc.Create(ctx, dto.CreateOrderRequest{
		OrderPatch: dto.OrderPatch{CustomerID: strPtr("c1"), PaymentMethodID: strPtr("pix"), Lines: &lines},
	})
	require.NoError(t, err)

	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.ErrorContains(t, err, "timeout al debitar")

	assert.Equal(t, entity.OrderStatusQuote, f.reload(t, q.ID).Status)
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))
	assert.True(t, dec("5").Equal(f.stock.Quantity("p2", "loc-1")))

	movs := f.stock.Movements()
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeOUT, movs[0].Type)
	assert.Equal(t, entity.MovementTypeIN, movs[1].Type)
	assert.Equal(t, "p1", movs[1].ProductID)

	recs, err := f.receivables.ListByOrder(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestConfirm_FallaAlPersistirRevierteTodo(t *testing.T) {
	f := newFixtureWithOrders(t, nil, func(r *memory.OrderRepository) repository.OrderRepository {
		return staleOrders{r}
	})
	ctx := context.Background()
	q := f.quote(t, "boleto", "3")

	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.ErrorIs(t, err, domain.ErrStateConflict)

	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))
	recs, err := f.receivables.ListByOrder(ctx, q.ID)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	for _, r := range recs {
		assert.Equal(t, entity.ReceivableReversed, r.Status)
	}
}

func TestConfirm_SoloDesdeQuote(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "1")
	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.True(t, dec("9").Equal(f.stock.Quantity("p1", "loc-1")))
}

func TestConfirm_PedidoInexistente(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.lc.Confirm(context.Background(), "no-existe", dto.ConfirmOrderRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfirm_ConcurrenteDebitaUnaSolaVez(t *testing.T) {
	f := newFixture(t, nil)
	q := f.quote(t, "pix", "3")

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lc.Confirm(context.Background(), q.ID, dto.ConfirmOrderRequest{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrStateConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.True(t, dec("7").Equal(f.stock.Quantity("p1", "loc-1")))
}

func TestConfirm_UbicacionPorDefecto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	lines := []dto.OrderLineInput{{ProductID: "p1", Quantity: dec("2"), UnitPrice: decPtr("100")}}
	q, err := f.uc.Create(ctx, dto.CreateOrderRequest{OrderPatch: dto.OrderPatch{
		CustomerID:      strPtr("c1"),
		PaymentMethodID: strPtr("pix"),
		Lines:           &lines,
	}})
	require.NoError(t, err)

	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "lines[0].stock_location_id", domain.FieldOf(err))

	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{DefaultStockLocationID: "loc-off"})
	require.ErrorIs(t, err, domain.ErrValidation)

	o, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{DefaultStockLocationID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, "loc-1", o.Lines[0].StockLocationID)
	assert.True(t, dec("8").Equal(f.stock.Quantity("p1", "loc-1")))
}

func TestConfirm_FormaDePagoConCreditoQuedaPendiente(t *testing.T) {
	f := newFixture(t, nil)
	q := f.quote(t, "boleto", "1")

	o, err := f.lc.Confirm(context.Background(), q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)
	require.NotNil(t, o.CreditAnalysis)
	assert.Equal(t, entity.CreditAnalysisPending, o.CreditAnalysis.Status)
	assert.Nil(t, o.CreditAnalysis.DecidedAt)
}

// ─── approve ─────────────────────────────────────────────────────────────────

func TestApprove_SinAnalisisDeCredito(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "1")
	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	o, err := f.lc.Approve(ctx, q.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, o.Status)
	assert.Nil(t, o.CreditAnalysis)

	_, err = f.lc.Approve(ctx, q.ID, nil)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestApprove_QuoteEsConflicto(t *testing.T) {
	f := newFixture(t, nil)
	q := f.quote(t, "pix", "1")
	_, err := f.lc.Approve(context.Background(), q.ID, nil)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestApprove_BoletoExigeDecision(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "boleto", "1")
	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.lc.Approve(ctx, q.ID, nil)
	require.ErrorIs(t, err, domain.ErrCreditAnalysisRequired)
	assert.Equal(t, "decision", domain.FieldOf(err))
	assert.Equal(t, entity.OrderStatusConfirmed, f.reload(t, q.ID).Status)

	o, err := f.lc.Approve(ctx, q.ID, &dto.CreditDecisionDTO{Status: "APPROVED", Notes: "score ok"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, o.Status)
	require.NotNil(t, o.CreditAnalysis)
	assert.Equal(t, entity.CreditAnalysisApproved, o.CreditAnalysis.Status)
	assert.Equal(t, "score ok", o.CreditAnalysis.Notes)
	require.NotNil(t, o.CreditAnalysis.DecidedAt)
	assert.Equal(t, fixedNow, *o.CreditAnalysis.DecidedAt)
}

func TestApprove_CreditoRechazadoCancelaYRevierte(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "boleto", "3")
	_, err := f.uc.EditLines(ctx, q.ID, dto.OrderPatch{Installments: intPtr(2)})
	require.NoError(t, err)
	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)
	require.True(t, dec("7").Equal(f.stock.Quantity("p1", "loc-1")))

	o, err := f.lc.Approve(ctx, q.ID, &dto.CreditDecisionDTO{Status: "REJECTED", Notes: "score too low"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCanceled, o.Status)
	assert.Equal(t, "score too low", o.CancellationReason)
	require.NotNil(t, o.CreditAnalysis)
	assert.Equal(t, entity.CreditAnalysisRejected, o.CreditAnalysis.Status)

	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))
	recs, err := f.receivables.ListByOrder(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, entity.ReceivableReversed, r.Status)
	}
}

func TestApprove_RechazoSinNotas(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "boleto", "1")
	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.lc.Approve(ctx, q.ID, &dto.CreditDecisionDTO{Status: "REJECTED"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "decision.notes", domain.FieldOf(err))
}

// ─── submit / cancel / complete ──────────────────────────────────────────────

func TestSubmitForApproval_VentaDirecta(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	lines := []dto.OrderLineInput{{ProductID: "p1", Quantity: dec("1"), StockLocationID: "loc-1"}}
	d, err := f.uc.Create(ctx, dto.CreateOrderRequest{
		Status: "DRAFT",
		OrderPatch: dto.OrderPatch{
			CustomerID:      strPtr("c1"),
			PaymentMethodID: strPtr("boleto"),
			Lines:           &lines,
		},
	})
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(d.TotalAmount))

	o, err := f.lc.SubmitForApproval(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendingApproval, o.Status)
	require.NotNil(t, o.CreditAnalysis)
	assert.Equal(t, entity.CreditAnalysisPending, o.CreditAnalysis.Status)

	o, err = f.lc.Approve(ctx, d.ID, &dto.CreditDecisionDTO{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, o.Status)
	// sin confirm no hay débito de stock
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))

	_, err = f.lc.SubmitForApproval(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestCancel_DespuesDeConfirmarRevierte(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "4")
	_, err := f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.lc.Cancel(ctx, q.ID, "   ")
	require.ErrorIs(t, err, domain.ErrValidation)

	o, err := f.lc.Cancel(ctx, q.ID, "cliente desistió")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCanceled, o.Status)
	assert.Equal(t, "cliente desistió", o.CancellationReason)
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))

	_, err = f.lc.Cancel(ctx, q.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.True(t, dec("10").Equal(f.stock.Quantity("p1", "loc-1")))
}

func TestCancel_PresupuestoSinEfectos(t *testing.T) {
	f := newFixture(t, nil)
	q := f.quote(t, "pix", "1")

	o, err := f.lc.Cancel(context.Background(), q.ID, "vencido")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCanceled, o.Status)
	assert.Empty(t, f.stock.Movements())
}

func TestComplete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	q := f.quote(t, "pix", "1")

	_, err := f.lc.Complete(ctx, q.ID)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	_, err = f.lc.Confirm(ctx, q.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)
	o, err := f.lc.Complete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, o.Status)
	assert.NotNil(t, o.CompletedAt)

	_, err = f.lc.Cancel(ctx, q.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func intPtr(i int) *int { return &i }
