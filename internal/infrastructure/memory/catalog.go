package memory

import (
	"context"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var (
	_ repository.CustomerRepository      = (*CustomerRepository)(nil)
	_ repository.ProductRepository       = (*ProductRepository)(nil)
	_ repository.PaymentMethodRepository = (*PaymentMethodRepository)(nil)
	_ repository.StockLocationRepository = (*StockLocationRepository)(nil)
	_ repository.CompanyRepository       = (*CompanyRepository)(nil)
)

// CustomerRepository clientes en memoria.
type CustomerRepository struct{ t *table[entity.Customer] }

// NewCustomerRepository crea el repo con los clientes dados.
func NewCustomerRepository(rows ...*entity.Customer) *CustomerRepository {
	r := &CustomerRepository{t: newTable[entity.Customer]()}
	for _, c := range rows {
		r.Put(c)
	}
	return r
}

// Put inserta o reemplaza.
func (r *CustomerRepository) Put(c *entity.Customer) { r.t.put(c.ID, c) }

// GetByID devuelve nil, nil si no existe.
func (r *CustomerRepository) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.t.get(id), nil
}

// ProductRepository productos en memoria.
type ProductRepository struct{ t *table[entity.Product] }

// NewProductRepository crea el repo con los productos dados.
func NewProductRepository(rows ...*entity.Product) *ProductRepository {
	r := &ProductRepository{t: newTable[entity.Product]()}
	for _, p := range rows {
		r.Put(p)
	}
	return r
}

// Put inserta o reemplaza.
func (r *ProductRepository) Put(p *entity.Product) { r.t.put(p.ID, p) }

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.t.get(id), nil
}

// GetByIDs omite los IDs inexistentes.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	for _, id := range ids {
		if p := r.t.get(id); p != nil {
			out[id] = p
		}
	}
	return out, nil
}

// PaymentMethodRepository formas de pago en memoria.
type PaymentMethodRepository struct{ t *table[entity.PaymentMethod] }

// NewPaymentMethodRepository crea el repo con las formas de pago dadas.
func NewPaymentMethodRepository(rows ...*entity.PaymentMethod) *PaymentMethodRepository {
	r := &PaymentMethodRepository{t: newTable[entity.PaymentMethod]()}
	for _, pm := range rows {
		r.Put(pm)
	}
	return r
}

// Put inserta o reemplaza.
func (r *PaymentMethodRepository) Put(pm *entity.PaymentMethod) { r.t.put(pm.ID, pm) }

// GetByID devuelve nil, nil si no existe.
func (r *PaymentMethodRepository) GetByID(_ context.Context, id string) (*entity.PaymentMethod, error) {
	return r.t.get(id), nil
}

// StockLocationRepository ubicaciones en memoria.
type StockLocationRepository struct{ t *table[entity.StockLocation] }

// NewStockLocationRepository crea el repo con las ubicaciones dadas.
func NewStockLocationRepository(rows ...*entity.StockLocation) *StockLocationRepository {
	r := &StockLocationRepository{t: newTable[entity.StockLocation]()}
	for _, l := range rows {
		r.Put(l)
	}
	return r
}

// Put inserta o reemplaza.
func (r *StockLocationRepository) Put(l *entity.StockLocation) { r.t.put(l.ID, l) }

// GetByID devuelve nil, nil si no existe.
func (r *StockLocationRepository) GetByID(_ context.Context, id string) (*entity.StockLocation, error) {
	return r.t.get(id), nil
}

// CompanyRepository empresas en memoria.
type CompanyRepository struct{ t *table[entity.Company] }

// NewCompanyRepository crea el repo con las empresas dadas.
func NewCompanyRepository(rows ...*entity.Company) *CompanyRepository {
	r := &CompanyRepository{t: newTable[entity.Company]()}
	for _, c := range rows {
		r.Put(c)
	}
	return r
}

// Put inserta o reemplaza.
func (r *CompanyRepository) Put(c *entity.Company) { r.t.put(c.ID, c) }

// GetByID devuelve nil, nil si no existe.
func (r *CompanyRepository) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return r.t.get(id), nil
}
