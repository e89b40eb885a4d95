package repository

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// StockLocationRepository consulta de ubicaciones de stock (solo lectura).
type StockLocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.StockLocation, error)
}
