package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var _ repository.ReceivableRepository = (*ReceivableRepo)(nil)

// ReceivableRepo títulos a cobrar de los pedidos.
type ReceivableRepo struct {
	q Querier
}

// NewReceivableRepository construye el adaptador.
func NewReceivableRepository(q Querier) *ReceivableRepo {
	return &ReceivableRepo{q: q}
}

// CreateBatch inserta todas las cuotas en un solo round-trip.
func (r *ReceivableRepo) CreateBatch(ctx context.Context, receivables []*entity.Receivable) error {
	if len(receivables) == 0 {
		return nil
	}
	const query = `
		INSERT INTO receivables (id, order_id, payment_method_id, installment_number, installments,
		                         amount, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	batch := &pgx.Batch{}
	for _, rc := range receivables {
		batch.Queue(query, rc.ID, rc.OrderID, rc.PaymentMethodID, rc.InstallmentNumber, rc.Installments,
			rc.Amount, rc.DueDate, rc.Status, rc.CreatedAt)
	}
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert receivables: %w", err)
		}
		return nil
	})
}

// ListByOrder títulos del pedido en orden de cuota.
func (r *ReceivableRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Receivable, error) {
	const query = `
		SELECT id, order_id, payment_method_id, installment_number, installments,
		       amount, due_date, status, created_at, reversed_at
		FROM receivables WHERE order_id = $1
		ORDER BY installment_number`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list receivables: %w", err)
	}
	defer rows.Close()

	var list []*entity.Receivable
	for rows.Next() {
		var rc entity.Receivable
		if err := rows.Scan(&rc.ID, &rc.OrderID, &rc.PaymentMethodID, &rc.InstallmentNumber, &rc.Installments,
			&rc.Amount, &rc.DueDate, &rc.Status, &rc.CreatedAt, &rc.ReversedAt); err != nil {
			return nil, fmt.Errorf("scan receivable: %w", err)
		}
		list = append(list, &rc)
	}
	return list, rows.Err()
}

// MarkReversed solo toca los títulos abiertos; repetir la llamada no cambia nada.
func (r *ReceivableRepo) MarkReversed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `
		UPDATE receivables SET status = $3, reversed_at = $2
		WHERE id = ANY($1) AND status = $4`
	if _, err := r.q.Exec(ctx, query, ids, at, entity.ReceivableReversed, entity.ReceivableOpen); err != nil {
		return fmt.Errorf("reverse receivables: %w", err)
	}
	return nil
}
