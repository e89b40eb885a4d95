package fiscal

import (
	"errors"
	"fmt"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/sales"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

// ErrInvalidDocument agrupa los errores de validación previos al envío.
var ErrInvalidDocument = errors.New("NF-e inválida")

// ValidateDocumentData revisa que emisor, destinatario, productos y totales permitan
// armar una NF-e aceptable antes de consumir número de serie en la SEFAZ.
func ValidateDocumentData(
	issuer *entity.Company,
	customer *entity.Customer,
	order *entity.Order,
	products map[string]*entity.Product,
) error {
	if issuer == nil || customer == nil || order == nil {
		return fmt.Errorf("%w: emisor, destinatario y pedido son obligatorios", ErrInvalidDocument)
	}
	var errs []error

	if err := nfe.ValidateCNPJ(issuer.CNPJ); err != nil {
		errs = append(errs, fmt.Errorf("emisor: %w", err))
	}
	if _, ok := nfe.StateCodes[issuer.Address.State]; !ok {
		errs = append(errs, fmt.Errorf("emisor: UF %q desconocida", issuer.Address.State))
	}
	if err := nfe.ValidateTaxID(customer.TaxID); err != nil {
		errs = append(errs, fmt.Errorf("destinatario: %w", err))
	}

	if len(order.Lines) == 0 {
		errs = append(errs, fmt.Errorf("el pedido no tiene líneas"))
	}
	for i, l := range order.Lines {
		p, ok := products[l.ProductID]
		if !ok || p == nil {
			errs = append(errs, fmt.Errorf("línea %d: producto %s no encontrado", i+1, l.ProductID))
			continue
		}
		if len(nfe.OnlyDigits(p.NCM)) != 8 {
			errs = append(errs, fmt.Errorf("línea %d: NCM del producto %s debe tener 8 dígitos", i+1, p.SKU))
		}
	}
	if err := sales.CheckConsistency(order); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDocument}, errs...)...)
	}
	return nil
}
