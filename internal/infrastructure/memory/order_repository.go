package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository pedidos en memoria con control optimista de versión.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*entity.Order
	seq    int
}

// NewOrderRepository crea el repositorio vacío.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*entity.Order)}
}

// Create inserta el pedido con versión 1.
func (r *OrderRepository) Create(_ context.Context, o *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("pedido %s ya existe", o.ID)
	}
	o.Version = 1
	r.orders[o.ID] = o.Clone()
	return nil
}

// GetByID devuelve una copia o nil, nil.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

// Update exige que la versión almacenada sea o.Version.
func (r *OrderRepository) Update(_ context.Context, o *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[o.ID]
	if !ok {
		return domain.NotFound("pedido", o.ID)
	}
	if cur.Version != o.Version {
		return domain.ErrConcurrentModification
	}
	o.Version++
	r.orders[o.ID] = o.Clone()
	return nil
}

// Delete borra el pedido.
func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return domain.NotFound("pedido", id)
	}
	delete(r.orders, id)
	return nil
}

// List filtra y pagina, más recientes primero.
func (r *OrderRepository) List(_ context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*entity.Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		all = append(all, o.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Code > all[j].Code
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := len(all)
	if f.Offset >= total {
		return []*entity.Order{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return all[f.Offset:end], total, nil
}

// NextCode PV-000001, PV-000002...
func (r *OrderRepository) NextCode(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("PV-%06d", r.seq), nil
}
