package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/application/inventory"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var (
	_ repository.StockRepository         = (*StockStore)(nil)
	_ repository.StockMovementRepository = (*StockStore)(nil)
	_ inventory.TxRunner                 = (*StockStore)(nil)
)

type stockKey struct{ product, location string }

// StockStore saldos y movimientos en memoria. RunStock serializa las
// "transacciones" pero no hace rollback.
type StockStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	stock     map[stockKey]*entity.Stock
	movements []*entity.StockMovement
}

// NewStockStore crea el almacén vacío.
func NewStockStore() *StockStore {
	return &StockStore{stock: make(map[stockKey]*entity.Stock)}
}

// Set fija el saldo de un producto en una ubicación.
func (s *StockStore) Set(productID, locationID string, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[stockKey{productID, locationID}] = &entity.Stock{ProductID: productID, LocationID: locationID, Quantity: qty}
}

// Quantity saldo actual (cero si no hay fila).
func (s *StockStore) Quantity(productID, locationID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stock[stockKey{productID, locationID}]; ok {
		return st.Quantity
	}
	return decimal.Zero
}

// Movements copia de todos los movimientos registrados.
func (s *StockStore) Movements() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		out = append(out, *m)
	}
	return out
}

// RunStock ejecuta fn en exclusión mutua con otras llamadas a RunStock.
func (s *StockStore) RunStock(_ context.Context, fn func(repository.StockRepository, repository.StockMovementRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s, s)
}

// Get devuelve nil, nil si no hay fila.
func (s *StockStore) Get(_ context.Context, productID, locationID string) (*entity.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stock[stockKey{productID, locationID}]
	if !ok {
		return nil, nil
	}
	c := *st
	return &c, nil
}

// GetForUpdate sin fila devuelve saldo cero.
func (s *StockStore) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.Stock, error) {
	st, _ := s.Get(ctx, productID, locationID)
	if st == nil {
		return &entity.Stock{ProductID: productID, LocationID: locationID, Quantity: decimal.Zero}, nil
	}
	return st, nil
}

// Upsert guarda el saldo.
func (s *StockStore) Upsert(_ context.Context, st *entity.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *st
	s.stock[stockKey{st.ProductID, st.LocationID}] = &c
	return nil
}

// Create registra un movimiento.
func (s *StockStore) Create(_ context.Context, m *entity.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.movements = append(s.movements, &c)
	return nil
}

// ListByTransaction movimientos de una referencia en orden de registro.
func (s *StockStore) ListByTransaction(_ context.Context, transactionID string) ([]*entity.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range s.movements {
		if m.TransactionID == transactionID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}
