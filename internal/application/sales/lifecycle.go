package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	rules "github.com/jhoicas/Vendas-api/internal/domain/sales"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

const instrumentation = "github.com/jhoicas/Vendas-api/internal/application/sales"

var (
	tracer = otel.Tracer(instrumentation)
	meter  = otel.Meter(instrumentation)

	transitions, _ = meter.Int64Counter("sales.transitions",
		metric.WithDescription("Transiciones de estado de pedidos aplicadas"))
)

func recordTransition(ctx context.Context, to entity.OrderStatus) {
	transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(to))))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

// LifecycleController es dueño de la máquina de estados del pedido. Cada
// transición corre bajo el bloqueo del pedido y persiste con control optimista.
type LifecycleController struct {
	orders         repository.OrderRepository
	paymentMethods repository.PaymentMethodRepository
	locations      repository.StockLocationRepository
	stock          StockCommitmentService
	ledger         LedgerPostingService
	locker         OrderLocker
	log            *logger.Logger
	now            func() time.Time
}

// NewLifecycleController construye el controlador.
func NewLifecycleController(
	orders repository.OrderRepository,
	paymentMethods repository.PaymentMethodRepository,
	locations repository.StockLocationRepository,
	stock StockCommitmentService,
	ledger LedgerPostingService,
	locker OrderLocker,
	log *logger.Logger,
) *LifecycleController {
	return &LifecycleController{
		orders:         orders,
		paymentMethods: paymentMethods,
		locations:      locations,
		stock:          stock,
		ledger:         ledger,
		locker:         locker,
		log:            log.Component("sales.lifecycle"),
		now:            time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (c *LifecycleController) WithClock(now func() time.Time) *LifecycleController {
	c.now = now
	return c
}

// Confirm QUOTE → CONFIRMED. Como unidad atómica: verifica stock en cada
// ubicación, debita, genera los títulos y persiste el nuevo estado. Si un paso
// falla, los anteriores se compensan y el pedido sigue en QUOTE.
func (c *LifecycleController) Confirm(ctx context.Context, orderID string, in dto.ConfirmOrderRequest) (out *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "sales.Confirm", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	return c.withOrder(ctx, orderID, func(o *entity.Order) (*entity.Order, error) {
		if err := rules.CheckConfirm(o); err != nil {
			return nil, err
		}
		work := o.Clone()
		if err := c.resolveLocations(ctx, work, in.DefaultStockLocationID); err != nil {
			return nil, err
		}
		pm, err := c.paymentMethod(ctx, work.PaymentMethodID)
		if err != nil {
			return nil, err
		}

		// ═══ 1. Verificar stock en cada ubicación ═══
		for _, l := range work.Lines {
			available, err := c.stock.Available(ctx, l.ProductID, l.StockLocationID)
			if err != nil {
				return nil, fmt.Errorf("consultar stock: %w", err)
			}
			if available.LessThan(l.Quantity) {
				return nil, domain.InsufficientStock(l.ProductID, l.StockLocationID)
			}
		}

		// ═══ 2. Debitar ═══
		debited := make([]entity.OrderLine, 0, len(work.Lines))
		for _, l := range work.Lines {
			if err := c.stock.Debit(ctx, l.ProductID, l.StockLocationID, l.Quantity, work.ID); err != nil {
				c.restoreStock(ctx, work.ID, debited)
				return nil, err
			}
			debited = append(debited, l)
		}

		// ═══ 3. Títulos a cobrar ═══
		ids, err := c.ledger.PostReceivables(ctx, work.ID, work.PaymentMethodID, work.Installments, work.TotalAmount)
		if err != nil {
			c.restoreStock(ctx, work.ID, debited)
			if domain.KindOf(err) != domain.KindLedger {
				err = domain.Ledger("no fue posible generar las cuentas por cobrar", err)
			}
			return nil, err
		}

		// ═══ 4. Estado ═══
		work.Confirm(c.now(), ids, rules.RequiresCreditAnalysis(pm))
		if err := c.orders.Update(ctx, work); err != nil {
			c.reverseLedger(ctx, work.ID, ids)
			c.restoreStock(ctx, work.ID, debited)
			return nil, err
		}

		c.log.Info().Str("order_id", work.ID).Str("code", work.Code).
			Int("receivables", len(ids)).Msg("pedido confirmado")
		recordTransition(ctx, work.Status)
		return work, nil
	})
}

// SubmitForApproval DRAFT → PENDING_APPROVAL (venta directa sin presupuesto).
func (c *LifecycleController) SubmitForApproval(ctx context.Context, orderID string) (*entity.Order, error) {
	return c.withOrder(ctx, orderID, func(o *entity.Order) (*entity.Order, error) {
		if err := rules.CheckSubmit(o); err != nil {
			return nil, err
		}
		pm, err := c.paymentMethod(ctx, o.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		work := o.Clone()
		work.SubmitForApproval(c.now(), rules.RequiresCreditAnalysis(pm))
		if err := c.orders.Update(ctx, work); err != nil {
			return nil, err
		}
		c.log.Info().Str("order_id", work.ID).Msg("pedido enviado a aprobación")
		recordTransition(ctx, work.Status)
		return work, nil
	})
}

// Approve aprueba el pedido. Si la forma de pago exige análisis de crédito la
// decisión es obligatoria: APPROVED aprueba, REJECTED cancela con las notas como
// motivo (revirtiendo stock y títulos si el pedido ya estaba confirmado).
func (c *LifecycleController) Approve(ctx context.Context, orderID string, decision *dto.CreditDecisionDTO) (out *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "sales.Approve", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	return c.withOrder(ctx, orderID, func(o *entity.Order) (*entity.Order, error) {
		if err := rules.CheckApprove(o); err != nil {
			return nil, err
		}
		pm, err := c.paymentMethod(ctx, o.PaymentMethodID)
		if err != nil {
			return nil, err
		}

		work := o.Clone()
		now := c.now()
		if !rules.RequiresCreditAnalysis(pm) {
			work.Approve(now, nil)
		} else {
			if decision == nil {
				return nil, &domain.Error{
					Kind:    domain.KindCreditAnalysisRequired,
					Field:   "decision",
					Message: fmt.Sprintf("la forma de pago %s exige una decisión de análisis de crédito", pm.Name),
				}
			}
			switch entity.CreditAnalysisStatus(decision.Status) {
			case entity.CreditAnalysisApproved:
				work.Approve(now, &entity.CreditAnalysisDecision{Status: entity.CreditAnalysisApproved, Notes: decision.Notes})
			case entity.CreditAnalysisRejected:
				notes := strings.TrimSpace(decision.Notes)
				if notes == "" {
					return nil, domain.Validation("decision.notes", "el rechazo de crédito requiere notas")
				}
				if work.HasCommittedEffects() {
					if err := c.reverseEffects(ctx, work); err != nil {
						return nil, err
					}
				}
				work.RejectCredit(now, entity.CreditAnalysisDecision{Status: entity.CreditAnalysisRejected, Notes: notes})
			default:
				return nil, domain.Validation("decision.status", "la decisión debe ser APPROVED o REJECTED")
			}
		}

		if err := c.orders.Update(ctx, work); err != nil {
			return nil, err
		}
		c.log.Info().Str("order_id", work.ID).Str("status", string(work.Status)).Msg("aprobación procesada")
		recordTransition(ctx, work.Status)
		return work, nil
	})
}

// Cancel pasa a CANCELED con motivo. Si el pedido fue confirmado, primero repone
// el stock y revierte los títulos.
func (c *LifecycleController) Cancel(ctx context.Context, orderID, reason string) (out *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "sales.Cancel", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	return c.withOrder(ctx, orderID, func(o *entity.Order) (*entity.Order, error) {
		if err := rules.CheckCancel(o, reason); err != nil {
			return nil, err
		}
		work := o.Clone()
		if work.HasCommittedEffects() {
			if err := c.reverseEffects(ctx, work); err != nil {
				return nil, err
			}
		}
		work.Cancel(c.now(), strings.TrimSpace(reason))
		if err := c.orders.Update(ctx, work); err != nil {
			return nil, err
		}
		c.log.Info().Str("order_id", work.ID).Str("reason", work.CancellationReason).Msg("pedido cancelado")
		recordTransition(ctx, work.Status)
		return work, nil
	})
}

// Complete APPROVED/CONFIRMED → COMPLETED.
func (c *LifecycleController) Complete(ctx context.Context, orderID string) (*entity.Order, error) {
	return c.withOrder(ctx, orderID, func(o *entity.Order) (*entity.Order, error) {
		if err := rules.CheckComplete(o); err != nil {
			return nil, err
		}
		work := o.Clone()
		work.Complete(c.now())
		if err := c.orders.Update(ctx, work); err != nil {
			return nil, err
		}
		c.log.Info().Str("order_id", work.ID).Msg("pedido completado")
		recordTransition(ctx, work.Status)
		return work, nil
	})
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (c *LifecycleController) withOrder(ctx context.Context, orderID string, fn func(o *entity.Order) (*entity.Order, error)) (*entity.Order, error) {
	unlock, err := c.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("bloquear pedido %s: %w", orderID, err)
	}
	defer unlock()

	o, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NotFound("pedido", orderID)
	}
	return fn(o)
}

func (c *LifecycleController) paymentMethod(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	if id == "" {
		return nil, nil
	}
	pm, err := c.paymentMethods.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar forma de pago: %w", err)
	}
	if pm == nil {
		return nil, domain.Validation("payment_method_id", "forma de pago no encontrada")
	}
	return pm, nil
}

// resolveLocations completa la ubicación por defecto y verifica que existan.
func (c *LifecycleController) resolveLocations(ctx context.Context, o *entity.Order, fallback string) error {
	checked := make(map[string]bool)
	for i := range o.Lines {
		l := &o.Lines[i]
		if l.StockLocationID == "" {
			l.StockLocationID = fallback
		}
		field := fmt.Sprintf("lines[%d].stock_location_id", i)
		if l.StockLocationID == "" {
			return domain.Validation(field, "la línea no tiene ubicación de stock")
		}
		if checked[l.StockLocationID] {
			continue
		}
		loc, err := c.locations.GetByID(ctx, l.StockLocationID)
		if err != nil {
			return fmt.Errorf("consultar ubicación: %w", err)
		}
		if loc == nil || !loc.IsActive {
			return domain.Validation(field, "ubicación de stock inexistente o inactiva")
		}
		checked[l.StockLocationID] = true
	}
	return nil
}

// reverseEffects repone el stock de todas las líneas y revierte los títulos.
// Ambos colaboradores son idempotentes, así que un reintento es seguro.
func (c *LifecycleController) reverseEffects(ctx context.Context, o *entity.Order) error {
	var errs []error
	for _, l := range o.Lines {
		if err := c.stock.Restore(ctx, l.ProductID, l.StockLocationID, l.Quantity, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("reponer %s: %w", l.ProductID, err))
		}
	}
	if err := c.ledger.ReverseReceivables(ctx, o.ID, o.ReceivableIDs); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		c.log.Error().Err(errors.Join(errs...)).Str("order_id", o.ID).Msg("fallo al revertir efectos del pedido")
		return errors.Join(errs...)
	}
	return nil
}

func (c *LifecycleController) restoreStock(ctx context.Context, orderID string, lines []entity.OrderLine) {
	ctx = context.WithoutCancel(ctx)
	for _, l := range lines {
		if err := c.stock.Restore(ctx, l.ProductID, l.StockLocationID, l.Quantity, orderID); err != nil {
			c.log.Error().Err(err).Str("order_id", orderID).Str("product_id", l.ProductID).
				Msg("compensación de stock fallida")
		}
	}
}

func (c *LifecycleController) reverseLedger(ctx context.Context, orderID string, ids []string) {
	if err := c.ledger.ReverseReceivables(context.WithoutCancel(ctx), orderID, ids); err != nil {
		c.log.Error().Err(err).Str("order_id", orderID).Msg("compensación de títulos fallida")
	}
}
