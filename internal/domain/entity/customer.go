package entity

import "time"

// Customer destinatario del pedido y de la NF-e. Solo lectura para este servicio.
type Customer struct {
	ID                string
	Name              string
	TaxID             string // CPF (11) o CNPJ (14), solo dígitos
	StateRegistration string // IE; vacío para no contribuyente
	Email             string
	Phone             string
	Address           Address
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsCompany indica si el documento es un CNPJ.
func (c *Customer) IsCompany() bool {
	return len(c.TaxID) == 14
}
