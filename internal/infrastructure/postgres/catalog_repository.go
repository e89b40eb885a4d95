package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

// Los maestros (empresa, clientes, productos, formas de pago, ubicaciones) los
// administra otro sistema; aquí solo se leen.

var (
	_ repository.CompanyRepository       = (*CompanyRepo)(nil)
	_ repository.CustomerRepository      = (*CustomerRepo)(nil)
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.PaymentMethodRepository = (*PaymentMethodRepo)(nil)
	_ repository.StockLocationRepository = (*StockLocationRepo)(nil)
)

// addressColumns columnas de entity.Address en el orden de addressDest.
const addressColumns = `street, number, complement, district, city_code, city, state, zip_code`

func addressDest(a *entity.Address) []any {
	return []any{&a.Street, &a.Number, &a.Complement, &a.District, &a.CityCode, &a.City, &a.State, &a.ZipCode}
}

// ── Empresa ───────────────────────────────────────────────────────────────────

// CompanyRepo datos del emisor.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID devuelve nil, nil si no existe.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, legal_name, trade_name, cnpj, state_registration, tax_regime, phone, email,
		       ` + addressColumns + `, created_at, updated_at
		FROM companies WHERE id = $1`
	var c entity.Company
	dest := append([]any{&c.ID, &c.LegalName, &c.TradeName, &c.CNPJ, &c.StateRegistration, &c.TaxRegime, &c.Phone, &c.Email},
		addressDest(&c.Address)...)
	dest = append(dest, &c.CreatedAt, &c.UpdatedAt)
	if err := r.q.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// ── Clientes ──────────────────────────────────────────────────────────────────

// CustomerRepo consulta de clientes.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// GetByID devuelve nil, nil si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `
		SELECT id, name, tax_id, state_registration, email, phone,
		       ` + addressColumns + `, created_at, updated_at
		FROM customers WHERE id = $1`
	var c entity.Customer
	dest := append([]any{&c.ID, &c.Name, &c.TaxID, &c.StateRegistration, &c.Email, &c.Phone}, addressDest(&c.Address)...)
	dest = append(dest, &c.CreatedAt, &c.UpdatedAt)
	if err := r.q.QueryRow(ctx, query, id).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// ── Productos ─────────────────────────────────────────────────────────────────

// ProductRepo consulta de productos.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, gtin, ncm, cfop, origin, unit_measure, price, cost, is_active, created_at, updated_at`

func scanProduct(row pgxScanner) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.GTIN, &p.NCM, &p.CFOP, &p.Origin, &p.UnitMeasure,
		&p.Price, &p.Cost, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs carga varios productos en una consulta; omite los inexistentes.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// ── Formas de pago ────────────────────────────────────────────────────────────

// PaymentMethodRepo consulta de formas de pago.
type PaymentMethodRepo struct {
	q Querier
}

// NewPaymentMethodRepository construye el adaptador.
func NewPaymentMethodRepository(q Querier) *PaymentMethodRepo {
	return &PaymentMethodRepo{q: q}
}

// GetByID devuelve nil, nil si no existe.
func (r *PaymentMethodRepo) GetByID(ctx context.Context, id string) (*entity.PaymentMethod, error) {
	const query = `
		SELECT id, name, type, is_active, max_installments, days_to_first_due, interval_days
		FROM payment_methods WHERE id = $1`
	var pm entity.PaymentMethod
	err := r.q.QueryRow(ctx, query, id).Scan(
		&pm.ID, &pm.Name, &pm.Type, &pm.IsActive, &pm.MaxInstallments, &pm.DaysToFirstDue, &pm.IntervalDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment_method: %w", err)
	}
	return &pm, nil
}

// ── Ubicaciones de stock ──────────────────────────────────────────────────────

// StockLocationRepo consulta de ubicaciones.
type StockLocationRepo struct {
	q Querier
}

// NewStockLocationRepository construye el adaptador.
func NewStockLocationRepository(q Querier) *StockLocationRepo {
	return &StockLocationRepo{q: q}
}

// GetByID devuelve nil, nil si no existe.
func (r *StockLocationRepo) GetByID(ctx context.Context, id string) (*entity.StockLocation, error) {
	const query = `
		SELECT id, name, address, is_active, created_at, updated_at
		FROM stock_locations WHERE id = $1`
	var l entity.StockLocation
	if err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.Address, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock_location: %w", err)
	}
	return &l, nil
}
