package fiscal

import (
	"context"
	"fmt"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

// catalog carga pedido, emisor, destinatario, productos y forma de pago.
type catalog struct {
	orders         repository.OrderRepository
	customers      repository.CustomerRepository
	products       repository.ProductRepository
	paymentMethods repository.PaymentMethodRepository
	companies      repository.CompanyRepository
	companyID      string
}

func (c *catalog) order(ctx context.Context, id string) (*entity.Order, error) {
	o, err := c.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener pedido: %w", err)
	}
	if o == nil {
		return nil, domain.NotFound("pedido", id)
	}
	return o, nil
}

// documentData arma DocumentData sin el documento (lo completa el llamador).
func (c *catalog) documentData(ctx context.Context, order *entity.Order) (*DocumentData, error) {
	company, err := c.companies.GetByID(ctx, c.companyID)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener empresa emisora: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("fiscal: empresa emisora %s no configurada", c.companyID)
	}

	if order.CustomerID == "" {
		return nil, domain.Validation("customer_id", "el pedido no tiene cliente")
	}
	customer, err := c.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, domain.Validation("customer_id", fmt.Sprintf("cliente %s no encontrado", order.CustomerID))
	}

	ids := make([]string, 0, len(order.Lines))
	for _, l := range order.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := c.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener productos: %w", err)
	}

	var pm *entity.PaymentMethod
	if order.PaymentMethodID != "" {
		if pm, err = c.paymentMethods.GetByID(ctx, order.PaymentMethodID); err != nil {
			return nil, fmt.Errorf("fiscal: obtener forma de pago: %w", err)
		}
	}

	return &DocumentData{
		Issuer:        company,
		Customer:      customer,
		Order:         order,
		Products:      products,
		PaymentMethod: pm,
	}, nil
}
