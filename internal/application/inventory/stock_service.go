package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// StockService debita y repone stock por ubicación de forma transaccional, con
// bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback. Implementa
// sales.StockCommitmentService.
type StockService struct {
	txRunner  TxRunner
	stockRepo repository.StockRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewStockService construye el servicio. stockRepo se usa para lecturas fuera de tx.
func NewStockService(txRunner TxRunner, stockRepo repository.StockRepository, log *logger.Logger) *StockService {
	return &StockService{
		txRunner:  txRunner,
		stockRepo: stockRepo,
		log:       log.Component("inventory.stock"),
		now:       time.Now,
	}
}

// Available devuelve el saldo actual (cero si no hay fila).
func (s *StockService) Available(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	st, err := s.stockRepo.Get(ctx, productID, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	if st == nil {
		return decimal.Zero, nil
	}
	return st.Quantity, nil
}

// Debit resta quantity del saldo y registra un movimiento OUT con reference como
// TransactionID. Si el saldo no alcanza devuelve domain.ErrInsufficientStock.
func (s *StockService) Debit(ctx context.Context, productID, locationID string, quantity decimal.Decimal, reference string) error {
	if !quantity.IsPositive() {
		return domain.Validation("quantity", "la cantidad a debitar debe ser mayor que cero")
	}
	now := s.now()
	return s.txRunner.RunStock(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		// Bloquea la fila para evitar condiciones de carrera entre pedidos
		stock, err := stockRepo.GetForUpdate(ctx, productID, locationID)
		if err != nil {
			return err
		}
		if stock.Quantity.LessThan(quantity) {
			return domain.InsufficientStock(productID, locationID)
		}
		stock.Quantity = stock.Quantity.Sub(quantity)
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:            uuid.New().String(),
			TransactionID: reference,
			ProductID:     productID,
			LocationID:    locationID,
			Type:          entity.MovementTypeOUT,
			Quantity:      quantity.Neg(),
			Reason:        "confirmación de pedido",
			CreatedAt:     now,
		})
	})
}

// Restore repone hasta quantity unidades debitadas con reference. Lo ya repuesto
// se descuenta, así que repetir la llamada no duplica stock.
func (s *StockService) Restore(ctx context.Context, productID, locationID string, quantity decimal.Decimal, reference string) error {
	if !quantity.IsPositive() {
		return nil
	}
	now := s.now()
	return s.txRunner.RunStock(ctx, func(stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, productID, locationID)
		if err != nil {
			return err
		}
		movs, err := movRepo.ListByTransaction(ctx, reference)
		if err != nil {
			return err
		}
		// OUT es negativo e IN positivo: lo pendiente de reponer es -Σ.
		net := decimal.Zero
		for _, m := range movs {
			if m.ProductID == productID && m.LocationID == locationID {
				net = net.Add(m.Quantity)
			}
		}
		pending := net.Neg()
		if !pending.IsPositive() {
			s.log.Debug().Str("reference", reference).Str("product_id", productID).Msg("nada que reponer")
			return nil
		}
		qty := decimal.Min(quantity, pending)

		stock.Quantity = stock.Quantity.Add(qty)
		stock.UpdatedAt = now
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:            uuid.New().String(),
			TransactionID: reference,
			ProductID:     productID,
			LocationID:    locationID,
			Type:          entity.MovementTypeIN,
			Quantity:      qty,
			Reason:        "reversión de pedido",
			CreatedAt:     now,
		})
	})
}
