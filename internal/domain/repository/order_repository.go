package repository

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// OrderFilter filtros del listado de pedidos.
type OrderFilter struct {
	Status     entity.OrderStatus // vacío = todos
	CustomerID string
	Limit      int
	Offset     int
}

// OrderRepository puerto de persistencia del pedido (cabecera + líneas).
// GetByID devuelve nil, nil si el pedido no existe.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// Update persiste el pedido solo si la versión almacenada es order.Version;
	// en ese caso incrementa order.Version. Si no, devuelve domain.ErrConcurrentModification.
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, int, error)
	// NextCode genera el código humano del próximo pedido (PV-000001).
	NextCode(ctx context.Context) (string, error)
}
