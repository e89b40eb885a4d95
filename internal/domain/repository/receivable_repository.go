package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// ReceivableRepository títulos a cobrar generados por los pedidos.
type ReceivableRepository interface {
	CreateBatch(ctx context.Context, receivables []*entity.Receivable) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Receivable, error)
	MarkReversed(ctx context.Context, ids []string, at time.Time) error
}
