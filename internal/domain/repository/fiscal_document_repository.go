package repository

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// FiscalDocumentRepository persistencia append-only de intentos de emisión.
// No existe Delete: el historial por pedido es la pista de auditoría.
type FiscalDocumentRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	// ListBySale devuelve los intentos del pedido en orden de llamada.
	ListBySale(ctx context.Context, saleID string) ([]*entity.FiscalDocument, error)
	// UpdateProcessing guarda artefactos o el último error mientras el intento
	// sigue en PROCESSING.
	UpdateProcessing(ctx context.Context, doc *entity.FiscalDocument) error
	// SaveOutcome persiste el resultado terminal solo si el registro sigue en
	// PROCESSING; si ya es terminal devuelve domain.ErrStateConflict.
	SaveOutcome(ctx context.Context, doc *entity.FiscalDocument) error
}
