package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var _ repository.ReceivableRepository = (*ReceivableRepository)(nil)

// ReceivableRepository títulos en memoria.
type ReceivableRepository struct {
	mu   sync.Mutex
	rows []*entity.Receivable
}

// NewReceivableRepository crea el repositorio vacío.
func NewReceivableRepository() *ReceivableRepository {
	return &ReceivableRepository{}
}

// CreateBatch agrega los títulos.
func (r *ReceivableRepository) CreateBatch(_ context.Context, receivables []*entity.Receivable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rc := range receivables {
		c := *rc
		r.rows = append(r.rows, &c)
	}
	return nil
}

// ListByOrder títulos del pedido en orden de cuota.
func (r *ReceivableRepository) ListByOrder(_ context.Context, orderID string) ([]*entity.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Receivable
	for _, rc := range r.rows {
		if rc.OrderID == orderID {
			c := *rc
			out = append(out, &c)
		}
	}
	return out, nil
}

// MarkReversed solo toca los títulos abiertos.
func (r *ReceivableRepository) MarkReversed(_ context.Context, ids []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, rc := range r.rows {
		if set[rc.ID] && rc.Status == entity.ReceivableOpen {
			t := at
			rc.Status = entity.ReceivableReversed
			rc.ReversedAt = &t
		}
	}
	return nil
}
