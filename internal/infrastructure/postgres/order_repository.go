package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedido (cabecera en orders, líneas en order_lines) con control
// optimista por la columna version.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// deliveryJSON forma de delivery_address (jsonb).
type deliveryJSON struct {
	UseCustomerAddress bool   `json:"use_customer_address"`
	Street             string `json:"street,omitempty"`
	Number             string `json:"number,omitempty"`
	Complement         string `json:"complement,omitempty"`
	District           string `json:"district,omitempty"`
	CityCode           string `json:"city_code,omitempty"`
	City               string `json:"city,omitempty"`
	State              string `json:"state,omitempty"`
	ZipCode            string `json:"zip_code,omitempty"`
}

func toDeliveryJSON(d entity.DeliveryAddress) deliveryJSON {
	a := d.Address
	return deliveryJSON{
		UseCustomerAddress: d.UseCustomerAddress,
		Street:             a.Street, Number: a.Number, Complement: a.Complement, District: a.District,
		CityCode: a.CityCode, City: a.City, State: a.State, ZipCode: a.ZipCode,
	}
}

func (j deliveryJSON) entity() entity.DeliveryAddress {
	return entity.DeliveryAddress{
		UseCustomerAddress: j.UseCustomerAddress,
		Address: entity.Address{
			Street: j.Street, Number: j.Number, Complement: j.Complement, District: j.District,
			CityCode: j.CityCode, City: j.City, State: j.State, ZipCode: j.ZipCode,
		},
	}
}

const orderColumns = `
	id, code, status, customer_id, payment_method_id, installments,
	subtotal, discount_amount, discount_percent, discount_mode, shipping_cost, shipping_modality,
	other_charges, total_amount, notes, internal_notes, delivery_address,
	credit_status, credit_notes, credit_decided_at, valid_until, receivable_ids,
	confirmed_at, approved_at, completed_at, canceled_at, cancellation_reason,
	version, created_at, updated_at`

// orderArgs valores en el orden de orderColumns.
func orderArgs(o *entity.Order) []any {
	var creditStatus, creditNotes *string
	var creditDecided *time.Time
	if ca := o.CreditAnalysis; ca != nil {
		s := string(ca.Status)
		creditStatus, creditNotes, creditDecided = &s, &ca.Notes, ca.DecidedAt
	}
	receivables := o.ReceivableIDs
	if receivables == nil {
		receivables = []string{}
	}
	return []any{
		o.ID, o.Code, o.Status, o.CustomerID, nullIfEmpty(o.PaymentMethodID), o.Installments,
		o.Subtotal, o.DiscountAmount, o.DiscountPercent, o.DiscountMode, o.ShippingCost, o.ShippingModality,
		o.OtherCharges, o.TotalAmount, o.Notes, o.InternalNotes, toDeliveryJSON(o.DeliveryAddress),
		creditStatus, creditNotes, creditDecided, o.ValidUntil, receivables,
		o.ConfirmedAt, o.ApprovedAt, o.CompletedAt, o.CanceledAt, o.CancellationReason,
		o.Version, o.CreatedAt, o.UpdatedAt,
	}
}

func scanOrder(row pgxScanner) (*entity.Order, error) {
	var (
		o             entity.Order
		paymentMethod *string
		delivery      deliveryJSON
		creditStatus  *string
		creditNotes   *string
		creditDecided *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.Status, &o.CustomerID, &paymentMethod, &o.Installments,
		&o.Subtotal, &o.DiscountAmount, &o.DiscountPercent, &o.DiscountMode, &o.ShippingCost, &o.ShippingModality,
		&o.OtherCharges, &o.TotalAmount, &o.Notes, &o.InternalNotes, &delivery,
		&creditStatus, &creditNotes, &creditDecided, &o.ValidUntil, &o.ReceivableIDs,
		&o.ConfirmedAt, &o.ApprovedAt, &o.CompletedAt, &o.CanceledAt, &o.CancellationReason,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PaymentMethodID = derefString(paymentMethod)
	o.DeliveryAddress = delivery.entity()
	if creditStatus != nil {
		o.CreditAnalysis = &entity.CreditAnalysisDecision{
			Status:    entity.CreditAnalysisStatus(*creditStatus),
			Notes:     derefString(creditNotes),
			DecidedAt: creditDecided,
		}
	}
	return &o, nil
}

// Create inserta cabecera y líneas en una transacción, con versión 1.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	o.Version = 1
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		query := `INSERT INTO orders (` + orderColumns + `) VALUES (` + placeholders(30) + `)`
		if _, err := tx.Exec(ctx, query, orderArgs(o)...); err != nil {
			if isUniqueViolation(err) {
				return domain.StateConflict(fmt.Sprintf("el pedido %s ya existe", o.ID))
			}
			return fmt.Errorf("insert order: %w", err)
		}
		return insertLines(ctx, tx, o)
	})
}

// GetByID devuelve nil, nil si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	lines, err := r.loadLines(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// Update reemplaza cabecera y líneas si version coincide; incrementa o.Version.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	err := pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		args := orderArgs(o)
		args[27] = o.Version + 1 // version
		query := `UPDATE orders SET (` + orderColumns + `) = (` + placeholders(30) + `)
			WHERE id = $1 AND version = $31`
		tag, err := tx.Exec(ctx, query, append(args, o.Version)...)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if !exists {
				return domain.NotFound("pedido", o.ID)
			}
			return domain.ErrConcurrentModification
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
			return fmt.Errorf("delete order_lines: %w", err)
		}
		return insertLines(ctx, tx, o)
	})
	if err != nil {
		return err
	}
	o.Version++
	return nil
}

// Delete borra el pedido; las líneas caen por ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("pedido", id)
	}
	return nil
}

// List filtra y pagina, más recientes primero. Devuelve también el total.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, int, error) {
	var where []string
	var args []any
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM orders`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + cond + ` ORDER BY created_at DESC, code DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	list := []*entity.Order{}
	ids := []string{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, o := range list {
		o.Lines = lines[o.ID]
	}
	return list, total, nil
}

// NextCode PV-000001, PV-000002... a partir de la secuencia order_code_seq.
func (r *OrderRepo) NextCode(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('order_code_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order code: %w", err)
	}
	return fmt.Sprintf("PV-%06d", n), nil
}

// ── líneas ────────────────────────────────────────────────────────────────────

func insertLines(ctx context.Context, tx pgx.Tx, o *entity.Order) error {
	if len(o.Lines) == 0 {
		return nil
	}
	const query = `
		INSERT INTO order_lines (id, order_id, position, product_id, quantity, unit_price, discount,
		                         subtotal, total, stock_location_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(query, l.ID, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice, l.Discount,
			l.Subtotal, l.Total, nullIfEmpty(l.StockLocationID), l.Notes)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order_lines: %w", err)
	}
	return nil
}

func (r *OrderRepo) loadLines(ctx context.Context, orderIDs []string) (map[string][]entity.OrderLine, error) {
	out := make(map[string][]entity.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	const query = `
		SELECT order_id, id, product_id, quantity, unit_price, discount, subtotal, total, stock_location_id, notes
		FROM order_lines WHERE order_id = ANY($1)
		ORDER BY order_id, position`
	rows, err := r.q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("list order_lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID  string
			l        entity.OrderLine
			location *string
		)
		if err := rows.Scan(&orderID, &l.ID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Discount,
			&l.Subtotal, &l.Total, &location, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan order_line: %w", err)
		}
		l.StockLocationID = derefString(location)
		out[orderID] = append(out[orderID], l)
	}
	return out, rows.Err()
}

// placeholders "$1, $2, ..., $n".
func placeholders(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "$%d", i)
	}
	return sb.String()
}
