// Package ledger genera y revierte las cuentas por cobrar de los pedidos.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

const defaultIntervalDays = 30

// ReceivableService implementa sales.LedgerPostingService.
type ReceivableService struct {
	receivables    repository.ReceivableRepository
	paymentMethods repository.PaymentMethodRepository
	log            *logger.Logger
	now            func() time.Time
}

// NewReceivableService construye el servicio.
func NewReceivableService(
	receivables repository.ReceivableRepository,
	paymentMethods repository.PaymentMethodRepository,
	log *logger.Logger,
) *ReceivableService {
	return &ReceivableService{
		receivables:    receivables,
		paymentMethods: paymentMethods,
		log:            log.Component("ledger"),
		now:            time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *ReceivableService) WithClock(now func() time.Time) *ReceivableService {
	s.now = now
	return s
}

// PostReceivables divide el total en cuotas según la forma de pago y las
// persiste. Devuelve los IDs en orden de cuota.
func (s *ReceivableService) PostReceivables(
	ctx context.Context,
	orderID, paymentMethodID string,
	installments int,
	totalAmount decimal.Decimal,
) ([]string, error) {
	if paymentMethodID == "" {
		return nil, domain.Ledger("el pedido no tiene forma de pago", nil)
	}
	pm, err := s.paymentMethods.GetByID(ctx, paymentMethodID)
	if err != nil {
		return nil, domain.Ledger("consultar forma de pago", err)
	}
	if pm == nil || !pm.IsActive {
		return nil, domain.Ledger(fmt.Sprintf("forma de pago %s inexistente o inactiva", paymentMethodID), nil)
	}
	maxInstallments := pm.MaxInstallments
	if maxInstallments < 1 {
		maxInstallments = 1
	}
	if installments < 1 || installments > maxInstallments {
		return nil, domain.Ledger(fmt.Sprintf("%s admite de 1 a %d cuotas", pm.Name, maxInstallments), nil)
	}
	if !totalAmount.IsPositive() {
		return nil, domain.Ledger("el total del pedido debe ser mayor que cero", nil)
	}

	interval := pm.IntervalDays
	if interval <= 0 {
		interval = defaultIntervalDays
	}
	now := s.now()
	firstDue := now.AddDate(0, 0, pm.DaysToFirstDue)

	amounts := SplitInstallments(totalAmount, installments)
	batch := make([]*entity.Receivable, 0, installments)
	ids := make([]string, 0, installments)
	for i, amount := range amounts {
		r := &entity.Receivable{
			ID:                uuid.New().String(),
			OrderID:           orderID,
			PaymentMethodID:   pm.ID,
			InstallmentNumber: i + 1,
			Installments:      installments,
			Amount:            amount,
			DueDate:           firstDue.AddDate(0, 0, i*interval),
			Status:            entity.ReceivableOpen,
			CreatedAt:         now,
		}
		batch = append(batch, r)
		ids = append(ids, r.ID)
	}
	if err := s.receivables.CreateBatch(ctx, batch); err != nil {
		return nil, domain.Ledger("registrar cuentas por cobrar", err)
	}
	s.log.Info().Str("order_id", orderID).Int("installments", installments).
		Str("total", totalAmount.StringFixed(2)).Msg("títulos generados")
	return ids, nil
}

// ReverseReceivables marca como revertidos los títulos abiertos. Los ya
// revertidos se ignoran.
func (s *ReceivableService) ReverseReceivables(ctx context.Context, orderID string, receivableIDs []string) error {
	if len(receivableIDs) == 0 {
		return nil
	}
	if err := s.receivables.MarkReversed(ctx, receivableIDs, s.now()); err != nil {
		return domain.Ledger("revertir cuentas por cobrar", err)
	}
	s.log.Info().Str("order_id", orderID).Int("receivables", len(receivableIDs)).Msg("títulos revertidos")
	return nil
}

// SplitInstallments divide total en n cuotas de centavos; el resto va a la primera.
func SplitInstallments(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		n = 1
	}
	base := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	remainder := total.Sub(base.Mul(decimal.NewFromInt(int64(n))))
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = base
	}
	out[0] = out[0].Add(remainder)
	return out
}
