package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var (
	_ repository.FiscalDocumentRepository = (*FiscalDocumentRepository)(nil)
	_ repository.FiscalSeriesRepository   = (*FiscalSeriesRepository)(nil)
)

// FiscalDocumentRepository intentos de emisión en memoria, append-only.
type FiscalDocumentRepository struct {
	mu   sync.RWMutex
	docs []*entity.FiscalDocument
}

// NewFiscalDocumentRepository crea el repositorio vacío.
func NewFiscalDocumentRepository() *FiscalDocumentRepository {
	return &FiscalDocumentRepository{}
}

// Create agrega el intento.
func (r *FiscalDocumentRepository) Create(_ context.Context, doc *entity.FiscalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == doc.ID {
			return fmt.Errorf("documento fiscal %s ya existe", doc.ID)
		}
	}
	c := *doc
	r.docs = append(r.docs, &c)
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *FiscalDocumentRepository) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.docs {
		if d.ID == id {
			c := *d
			return &c, nil
		}
	}
	return nil, nil
}

// ListBySale intentos del pedido en orden de creación.
func (r *FiscalDocumentRepository) ListBySale(_ context.Context, saleID string) ([]*entity.FiscalDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*entity.FiscalDocument{}
	for _, d := range r.docs {
		if d.SaleID == saleID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

// UpdateProcessing reemplaza el registro mientras siga en PROCESSING.
func (r *FiscalDocumentRepository) UpdateProcessing(_ context.Context, doc *entity.FiscalDocument) error {
	return r.replace(doc, false)
}

// SaveOutcome persiste el resultado terminal solo sobre un registro PROCESSING.
func (r *FiscalDocumentRepository) SaveOutcome(_ context.Context, doc *entity.FiscalDocument) error {
	return r.replace(doc, true)
}

func (r *FiscalDocumentRepository) replace(doc *entity.FiscalDocument, terminal bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.docs {
		if d.ID != doc.ID {
			continue
		}
		if d.Status != entity.FiscalStatusProcessing {
			return domain.StateConflict(fmt.Sprintf("el documento fiscal %s ya está %s", d.ID, d.Status))
		}
		if terminal != doc.IsTerminal() {
			return fmt.Errorf("estado %s no corresponde a la operación", doc.Status)
		}
		c := *doc
		r.docs[i] = &c
		return nil
	}
	return domain.NotFound("documento fiscal", doc.ID)
}

type seriesKey struct {
	company string
	model   string
	series  int
}

// FiscalSeriesRepository numeración en memoria; arranca en 1.
type FiscalSeriesRepository struct {
	mu   sync.Mutex
	next map[seriesKey]int64
}

// NewFiscalSeriesRepository crea el repositorio vacío.
func NewFiscalSeriesRepository() *FiscalSeriesRepository {
	return &FiscalSeriesRepository{next: make(map[seriesKey]int64)}
}

// NextNumber reserva el próximo nNF.
func (r *FiscalSeriesRepository) NextNumber(_ context.Context, companyID, model string, series int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := seriesKey{companyID, model, series}
	if r.next[k] == 0 {
		r.next[k] = 1
	}
	n := r.next[k]
	r.next[k] = n + 1
	return n, nil
}
