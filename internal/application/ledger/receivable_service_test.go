package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Vendas-api/internal/application/ledger"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/memory"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

var now = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService() (*ledger.ReceivableService, *memory.ReceivableRepository) {
	repo := memory.NewReceivableRepository()
	pms := memory.NewPaymentMethodRepository(
		&entity.PaymentMethod{ID: "boleto", Name: "Boleto", Type: entity.PaymentBoleto, IsActive: true,
			MaxInstallments: 3, DaysToFirstDue: 30, IntervalDays: 30},
		&entity.PaymentMethod{ID: "old", Name: "Cheque", Type: entity.PaymentPostdatedCheck, IsActive: false},
	)
	svc := ledger.NewReceivableService(repo, pms, logger.Nop()).WithClock(func() time.Time { return now })
	return svc, repo
}

func TestSplitInstallments_RestoEnLaPrimera(t *testing.T) {
	parts := ledger.SplitInstallments(dec("100"), 3)
	require.Len(t, parts, 3)
	assert.True(t, dec("33.34").Equal(parts[0]))
	assert.True(t, dec("33.33").Equal(parts[1]))
	assert.True(t, dec("33.33").Equal(parts[2]))
}

func TestPostReceivables_CuotasYVencimientos(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	ids, err := svc.PostReceivables(ctx, "order-1", "boleto", 3, dec("100"))
	require.NoError(t, err)
	require.Len(t, ids, 3)

	recs, err := repo.ListByOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, now.AddDate(0, 0, 30), recs[0].DueDate)
	assert.Equal(t, now.AddDate(0, 0, 90), recs[2].DueDate)
	assert.Equal(t, 3, recs[2].InstallmentNumber)
	assert.Equal(t, entity.ReceivableOpen, recs[0].Status)
}

func TestPostReceivables_Errores(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.PostReceivables(ctx, "o", "", 1, dec("10"))
	assert.ErrorIs(t, err, domain.ErrLedger)
	_, err = svc.PostReceivables(ctx, "o", "old", 1, dec("10"))
	assert.ErrorIs(t, err, domain.ErrLedger)
	_, err = svc.PostReceivables(ctx, "o", "boleto", 4, dec("10"))
	assert.ErrorIs(t, err, domain.ErrLedger)
	_, err = svc.PostReceivables(ctx, "o", "boleto", 1, dec("0"))
	assert.ErrorIs(t, err, domain.ErrLedger)
}

func TestReverseReceivables_Idempotente(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	ids, err := svc.PostReceivables(ctx, "order-1", "boleto", 2, dec("50"))
	require.NoError(t, err)

	require.NoError(t, svc.ReverseReceivables(ctx, "order-1", ids))
	recs, _ := repo.ListByOrder(ctx, "order-1")
	first := *recs[0].ReversedAt

	require.NoError(t, svc.ReverseReceivables(ctx, "order-1", ids))
	recs, _ = repo.ListByOrder(ctx, "order-1")
	for _, r := range recs {
		assert.Equal(t, entity.ReceivableReversed, r.Status)
	}
	assert.Equal(t, first, *recs[0].ReversedAt)
}
