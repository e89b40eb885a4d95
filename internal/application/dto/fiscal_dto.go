package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// DocumentEmissionParams parámetros de operación de una emisión de NF-e.
// Los nil toman el valor por defecto de la configuración o del pedido.
type DocumentEmissionParams struct {
	Model           string `json:"model,omitempty" validate:"omitempty,oneof=55 65"`
	Series          *int   `json:"series,omitempty" validate:"omitempty,min=0,max=999"`
	OperationNature string `json:"operation_nature" validate:"required,max=60"`
	FinalConsumer   bool   `json:"final_consumer"`
	BuyerPresence   int    `json:"buyer_presence" validate:"oneof=0 1 2 3 4 9"`
	FreightModality *int   `json:"freight_modality,omitempty" validate:"omitempty,oneof=0 1 2 3 4 9"`
	CFOP            string `json:"cfop,omitempty" validate:"omitempty,len=4,numeric"`
	// TimeoutSeconds acota la espera de la SEFAZ; 0 usa el valor configurado.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=120"`
}

// Timeout devuelve el timeout pedido o def.
func (p DocumentEmissionParams) Timeout(def time.Duration) time.Duration {
	if p.TimeoutSeconds > 0 {
		return time.Duration(p.TimeoutSeconds) * time.Second
	}
	return def
}

// FiscalDocumentResponse intento de emisión en respuestas.
type FiscalDocumentResponse struct {
	ID                     string          `json:"id"`
	SaleID                 string          `json:"sale_id"`
	Status                 string          `json:"status"`
	Model                  string          `json:"model"`
	Series                 int             `json:"series"`
	Number                 int64           `json:"number"`
	Environment            int             `json:"environment"`
	OperationNature        string          `json:"operation_nature"`
	TotalAmount            decimal.Decimal `json:"total_amount"`
	AccessKey              string          `json:"access_key,omitempty"`
	AuthorizationProtocol  string          `json:"authorization_protocol,omitempty"`
	AuthorizationTimestamp *time.Time      `json:"authorization_timestamp,omitempty"`
	RejectionCode          string          `json:"rejection_code,omitempty"`
	RejectionReason        string          `json:"rejection_reason,omitempty"`
	LastError              string          `json:"last_error,omitempty"`
	RenderedDocumentURL    string          `json:"rendered_document_url,omitempty"`
	HasSignedXML           bool            `json:"has_signed_xml"`
	HasErrorXML            bool            `json:"has_error_xml"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// NewFiscalDocumentResponse mapea la entidad; los XML se descargan por su ruta.
func NewFiscalDocumentResponse(d *entity.FiscalDocument) FiscalDocumentResponse {
	return FiscalDocumentResponse{
		ID:                     d.ID,
		SaleID:                 d.SaleID,
		Status:                 string(d.Status),
		Model:                  d.Model,
		Series:                 d.Series,
		Number:                 d.Number,
		Environment:            d.Environment,
		OperationNature:        d.OperationNature,
		TotalAmount:            d.TotalAmount,
		AccessKey:              d.AccessKey,
		AuthorizationProtocol:  d.AuthorizationProtocol,
		AuthorizationTimestamp: d.AuthorizationTimestamp,
		RejectionCode:          d.RejectionCode,
		RejectionReason:        d.RejectionReason,
		LastError:              d.LastError,
		RenderedDocumentURL:    d.RenderedDocumentURL,
		HasSignedXML:           d.SignedXML != "",
		HasErrorXML:            d.ErrorXML != "",
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
}
