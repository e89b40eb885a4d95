package repository

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// CustomerRepository consulta de clientes (solo lectura; el maestro vive en otro sistema).
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
}
