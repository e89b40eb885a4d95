package repository

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// CompanyRepository datos del emisor de la NF-e (solo lectura).
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
