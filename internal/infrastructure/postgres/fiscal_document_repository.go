package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

var (
	_ repository.FiscalDocumentRepository = (*FiscalDocumentRepo)(nil)
	_ repository.FiscalSeriesRepository   = (*FiscalSeriesRepo)(nil)
)

// FiscalDocumentRepo intentos de emisión, append-only. seq (bigserial) conserva
// el orden de llamada para ListBySale.
type FiscalDocumentRepo struct {
	q Querier
}

// NewFiscalDocumentRepository construye el adaptador.
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q}
}

const fiscalDocumentColumns = `
	id, sale_id, status, model, series, number, environment, operation_nature,
	final_consumer, buyer_presence, freight_modality, cfop, total_amount, access_key,
	authorization_protocol, authorization_timestamp, rejection_code, rejection_reason, last_error,
	generated_xml, signed_xml, authorized_xml, error_xml, rendered_document_url,
	created_at, updated_at`

func scanFiscalDocument(row pgxScanner) (*entity.FiscalDocument, error) {
	var d entity.FiscalDocument
	err := row.Scan(
		&d.ID, &d.SaleID, &d.Status, &d.Model, &d.Series, &d.Number, &d.Environment, &d.OperationNature,
		&d.FinalConsumer, &d.BuyerPresence, &d.FreightModality, &d.CFOP, &d.TotalAmount, &d.AccessKey,
		&d.AuthorizationProtocol, &d.AuthorizationTimestamp, &d.RejectionCode, &d.RejectionReason, &d.LastError,
		&d.GeneratedXML, &d.SignedXML, &d.AuthorizedXML, &d.ErrorXML, &d.RenderedDocumentURL,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserta el intento (siempre en PROCESSING).
func (r *FiscalDocumentRepo) Create(ctx context.Context, d *entity.FiscalDocument) error {
	query := `INSERT INTO fiscal_documents (` + fiscalDocumentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.SaleID, d.Status, d.Model, d.Series, d.Number, d.Environment, d.OperationNature,
		d.FinalConsumer, d.BuyerPresence, d.FreightModality, d.CFOP, d.TotalAmount, d.AccessKey,
		d.AuthorizationProtocol, nullTime(d.AuthorizationTimestamp), d.RejectionCode, d.RejectionReason, d.LastError,
		d.GeneratedXML, d.SignedXML, d.AuthorizedXML, d.ErrorXML, d.RenderedDocumentURL,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.StateConflict(fmt.Sprintf("documento fiscal duplicado (%s/%d/%d)", d.Model, d.Series, d.Number))
		}
		return fmt.Errorf("insert fiscal_document: %w", err)
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *FiscalDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	d, err := scanFiscalDocument(r.q.QueryRow(ctx, `SELECT `+fiscalDocumentColumns+` FROM fiscal_documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal_document: %w", err)
	}
	return d, nil
}

// ListBySale intentos del pedido en orden de llamada.
func (r *FiscalDocumentRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.FiscalDocument, error) {
	rows, err := r.q.Query(ctx, `SELECT `+fiscalDocumentColumns+` FROM fiscal_documents WHERE sale_id = $1 ORDER BY seq`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list fiscal_documents: %w", err)
	}
	defer rows.Close()

	list := []*entity.FiscalDocument{}
	for rows.Next() {
		d, err := scanFiscalDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fiscal_document: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// UpdateProcessing guarda artefactos o el último error de un intento en PROCESSING.
func (r *FiscalDocumentRepo) UpdateProcessing(ctx context.Context, d *entity.FiscalDocument) error {
	if d.IsTerminal() {
		return fmt.Errorf("estado %s no corresponde a UpdateProcessing", d.Status)
	}
	return r.update(ctx, d)
}

// SaveOutcome sella el resultado terminal; solo aplica sobre PROCESSING.
func (r *FiscalDocumentRepo) SaveOutcome(ctx context.Context, d *entity.FiscalDocument) error {
	if !d.IsTerminal() {
		return fmt.Errorf("estado %s no es terminal", d.Status)
	}
	return r.update(ctx, d)
}

func (r *FiscalDocumentRepo) update(ctx context.Context, d *entity.FiscalDocument) error {
	const query = `
		UPDATE fiscal_documents SET
			status = $2, authorization_protocol = $3, authorization_timestamp = $4,
			rejection_code = $5, rejection_reason = $6, last_error = $7,
			generated_xml = $8, signed_xml = $9, authorized_xml = $10, error_xml = $11,
			rendered_document_url = $12, updated_at = $13
		WHERE id = $1 AND status = 'PROCESSING'`
	tag, err := r.q.Exec(ctx, query,
		d.ID, d.Status, d.AuthorizationProtocol, nullTime(d.AuthorizationTimestamp),
		d.RejectionCode, d.RejectionReason, d.LastError,
		d.GeneratedXML, d.SignedXML, d.AuthorizedXML, d.ErrorXML,
		d.RenderedDocumentURL, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fiscal_document: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	cur, err := r.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.NotFound("documento fiscal", d.ID)
	}
	return domain.StateConflict(fmt.Sprintf("el documento fiscal %s ya está %s", d.ID, cur.Status))
}

// ── Numeración ────────────────────────────────────────────────────────────────

// FiscalSeriesRepo numeración por (empresa, modelo, serie).
type FiscalSeriesRepo struct {
	q Querier
}

// NewFiscalSeriesRepository construye el adaptador.
func NewFiscalSeriesRepository(q Querier) *FiscalSeriesRepo {
	return &FiscalSeriesRepo{q: q}
}

// NextNumber reserva el próximo nNF en una sola sentencia: el UPSERT toma el
// lock de fila, así que dos emisiones concurrentes nunca reciben el mismo
// número. Una serie nueva arranca en 1; una serie inactiva es error de validación.
func (r *FiscalSeriesRepo) NextNumber(ctx context.Context, companyID, model string, series int) (int64, error) {
	const query = `
		INSERT INTO fiscal_series (company_id, model, series, next_number, is_active, updated_at)
		VALUES ($1, $2, $3, 2, true, now())
		ON CONFLICT (company_id, model, series) DO UPDATE
			SET next_number = fiscal_series.next_number + 1, updated_at = now()
			WHERE fiscal_series.is_active
		RETURNING next_number - 1`
	var n int64
	if err := r.q.QueryRow(ctx, query, companyID, model, series).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.Validation("series", fmt.Sprintf("la serie %d del modelo %s está inactiva", series, model))
		}
		return 0, fmt.Errorf("next fiscal number: %w", err)
	}
	return n, nil
}
