package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/pricing"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	rules "github.com/jhoicas/Vendas-api/internal/domain/sales"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderUseCase casos de uso de CRUD del pedido (presupuestos y borradores).
type OrderUseCase struct {
	orders         repository.OrderRepository
	customers      repository.CustomerRepository
	products       repository.ProductRepository
	paymentMethods repository.PaymentMethodRepository
	locations      repository.StockLocationRepository
	locker         OrderLocker
	log            *logger.Logger
	now            func() time.Time
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(
	orders repository.OrderRepository,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	paymentMethods repository.PaymentMethodRepository,
	locations repository.StockLocationRepository,
	locker OrderLocker,
	log *logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:         orders,
		customers:      customers,
		products:       products,
		paymentMethods: paymentMethods,
		locations:      locations,
		locker:         locker,
		log:            log.Component("sales.orders"),
		now:            time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *OrderUseCase) WithClock(now func() time.Time) *OrderUseCase {
	uc.now = now
	return uc
}

// Create crea un pedido en QUOTE (default) o DRAFT con los totales calculados.
func (uc *OrderUseCase) Create(ctx context.Context, in dto.CreateOrderRequest) (*entity.Order, error) {
	status := entity.OrderStatus(in.Status)
	if status == "" {
		status = entity.OrderStatusQuote
	}
	if status != entity.OrderStatusQuote && status != entity.OrderStatusDraft {
		return nil, domain.Validation("status", "un pedido nuevo solo puede ser QUOTE o DRAFT")
	}

	now := uc.now()
	o := &entity.Order{
		ID:              uuid.New().String(),
		Status:          status,
		Installments:    1,
		DiscountMode:    entity.DiscountModeAmount,
		DeliveryAddress: entity.DeliveryAddress{UseCustomerAddress: true},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.applyPatch(ctx, o, in.OrderPatch); err != nil {
		return nil, err
	}
	if err := rules.Recompute(o); err != nil {
		return nil, err
	}
	if o.Status == entity.OrderStatusDraft {
		if err := rules.CheckStockLocations(o); err != nil {
			return nil, err
		}
	}

	code, err := uc.orders.NextCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generar código: %w", err)
	}
	o.Code = code
	if err := uc.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("code", o.Code).Str("status", string(o.Status)).Msg("pedido creado")
	return o, nil
}

// Get devuelve el pedido o NOT_FOUND.
func (uc *OrderUseCase) Get(ctx context.Context, id string) (*entity.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NotFound("pedido", id)
	}
	return o, nil
}

// List lista pedidos con filtros y paginación.
func (uc *OrderUseCase) List(ctx context.Context, filter repository.OrderFilter) ([]*entity.Order, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.Validation("status", "estado desconocido")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.orders.List(ctx, filter)
}

// EditLines aplica el patch sobre un pedido DRAFT/QUOTE y recalcula los totales.
// Fuera de esos estados devuelve STATE_CONFLICT sin modificar nada.
func (uc *OrderUseCase) EditLines(ctx context.Context, id string, patch dto.OrderPatch) (*entity.Order, error) {
	unlock, err := uc.locker.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bloquear pedido %s: %w", id, err)
	}
	defer unlock()

	o, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rules.CheckEditable(o); err != nil {
		return nil, err
	}

	work := o.Clone()
	if err := uc.applyPatch(ctx, work, patch); err != nil {
		return nil, err
	}
	if err := rules.Recompute(work); err != nil {
		return nil, err
	}
	if work.Status == entity.OrderStatusDraft {
		if err := rules.CheckStockLocations(work); err != nil {
			return nil, err
		}
	}
	work.UpdatedAt = uc.now()
	if err := uc.orders.Update(ctx, work); err != nil {
		return nil, err
	}
	return work, nil
}

// Delete borra físicamente un pedido DRAFT/QUOTE.
func (uc *OrderUseCase) Delete(ctx context.Context, id string) error {
	unlock, err := uc.locker.Lock(ctx, id)
	if err != nil {
		return fmt.Errorf("bloquear pedido %s: %w", id, err)
	}
	defer unlock()

	o, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := rules.CheckDelete(o); err != nil {
		return err
	}
	if err := uc.orders.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("order_id", id).Msg("pedido eliminado")
	return nil
}

// applyPatch copia al pedido los campos informados, validando referencias.
func (uc *OrderUseCase) applyPatch(ctx context.Context, o *entity.Order, p dto.OrderPatch) error {
	if p.CustomerID != nil {
		id := strings.TrimSpace(*p.CustomerID)
		if id != "" {
			c, err := uc.customers.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("consultar cliente: %w", err)
			}
			if c == nil {
				return domain.Validation("customer_id", "cliente no encontrado")
			}
		}
		o.CustomerID = id
	}

	if p.PaymentMethodID != nil {
		id := strings.TrimSpace(*p.PaymentMethodID)
		if id != "" {
			pm, err := uc.paymentMethods.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("consultar forma de pago: %w", err)
			}
			if pm == nil || !pm.IsActive {
				return domain.Validation("payment_method_id", "forma de pago inexistente o inactiva")
			}
		}
		o.PaymentMethodID = id
	}
	if p.Installments != nil {
		if *p.Installments < 1 {
			return domain.Validation("installments", "la cantidad de cuotas debe ser al menos 1")
		}
		o.Installments = *p.Installments
	}

	if p.DiscountAmount != nil && p.DiscountPercent != nil {
		return domain.Validation("discount_amount", "informe el descuento en monto o en porcentaje, no ambos")
	}
	if p.DiscountAmount != nil {
		o.DiscountMode = entity.DiscountModeAmount
		o.DiscountAmount = *p.DiscountAmount
	}
	if p.DiscountPercent != nil {
		o.DiscountMode = entity.DiscountModePercent
		o.DiscountPercent = *p.DiscountPercent
	}
	if p.ShippingCost != nil {
		o.ShippingCost = *p.ShippingCost
	}
	if p.ShippingModality != nil {
		o.ShippingModality = *p.ShippingModality
	}
	if p.OtherCharges != nil {
		o.OtherCharges = *p.OtherCharges
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.InternalNotes != nil {
		o.InternalNotes = *p.InternalNotes
	}
	if p.DeliveryAddress != nil {
		addr := p.DeliveryAddress.ToEntity()
		if !addr.UseCustomerAddress && strings.TrimSpace(addr.Address.Street) == "" {
			return domain.Validation("delivery_address.street", "informe la dirección de entrega o use la del cliente")
		}
		o.DeliveryAddress = addr
	}
	if p.ValidUntil != nil {
		v := *p.ValidUntil
		o.ValidUntil = &v
	}

	if p.Lines != nil {
		lines, err := uc.buildLines(ctx, *p.Lines)
		if err != nil {
			return err
		}
		o.Lines = lines
	}
	return nil
}

// buildLines resuelve precio y ubicación de cada línea. Los totales los calcula
// Recompute.
func (uc *OrderUseCase) buildLines(ctx context.Context, in []dto.OrderLineInput) ([]entity.OrderLine, error) {
	ids := make([]string, 0, len(in))
	for _, l := range in {
		ids = append(ids, l.ProductID)
	}
	products, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("consultar productos: %w", err)
	}

	locations := make(map[string]bool)
	lines := make([]entity.OrderLine, 0, len(in))
	for i, l := range in {
		field := fmt.Sprintf("lines[%d]", i)
		p, ok := products[l.ProductID]
		if !ok || p == nil {
			return nil, domain.Validation(field+".product_id", "producto no encontrado")
		}
		if !p.IsActive {
			return nil, domain.Validation(field+".product_id", "producto inactivo")
		}

		price, err := linePrice(p, l, field)
		if err != nil {
			return nil, err
		}

		if l.StockLocationID != "" && !locations[l.StockLocationID] {
			loc, err := uc.locations.GetByID(ctx, l.StockLocationID)
			if err != nil {
				return nil, fmt.Errorf("consultar ubicación: %w", err)
			}
			if loc == nil || !loc.IsActive {
				return nil, domain.Validation(field+".stock_location_id", "ubicación de stock inexistente o inactiva")
			}
			locations[l.StockLocationID] = true
		}

		lines = append(lines, entity.OrderLine{
			ID:              uuid.New().String(),
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitPrice:       price,
			Discount:        l.Discount,
			StockLocationID: l.StockLocationID,
			Notes:           l.Notes,
		})
	}
	return lines, nil
}

// linePrice: precio explícito, derivado del margen sobre el costo, o precio de lista.
func linePrice(p *entity.Product, l dto.OrderLineInput, field string) (decimal.Decimal, error) {
	switch {
	case l.UnitPrice != nil:
		return *l.UnitPrice, nil
	case l.MarginPercent != nil:
		cost := p.Cost
		v := pricing.Derive(pricing.Values{Cost: &cost, Margin: l.MarginPercent}, pricing.FieldMargin)
		if v.Sale == nil {
			return decimal.Zero, domain.Validation(field+".margin_percent", "el producto no tiene costo para derivar el precio")
		}
		return *v.Sale, nil
	default:
		return p.Price, nil
	}
}
