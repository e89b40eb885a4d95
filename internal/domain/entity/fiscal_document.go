package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalDocumentStatus estado de un intento de emisión de NF-e.
type FiscalDocumentStatus string

const (
	FiscalStatusProcessing FiscalDocumentStatus = "PROCESSING" // enviado o pendiente de respuesta
	FiscalStatusAuthorized FiscalDocumentStatus = "AUTHORIZED" // autorizado por la SEFAZ (cStat 100)
	FiscalStatusRejected   FiscalDocumentStatus = "REJECTED"   // rechazo de negocio
)

// Modelos de documento fiscal.
const (
	FiscalModelNFe  = "55"
	FiscalModelNFCe = "65"
)

// FiscalDocument representa un intento de emisión. Nunca se sobrescribe ni se
// borra: cada reintento es un registro nuevo con ID propio.
type FiscalDocument struct {
	ID     string
	SaleID string
	Status FiscalDocumentStatus

	Model  string
	Series int
	Number int64

	Environment     int // tpAmb: 1 produção, 2 homologação
	OperationNature string
	FinalConsumer   bool
	BuyerPresence   int
	FreightModality int
	CFOP            string
	TotalAmount     decimal.Decimal

	AccessKey              string // chave de acesso (44 dígitos)
	AuthorizationProtocol  string
	AuthorizationTimestamp *time.Time
	RejectionCode          string
	RejectionReason        string
	LastError              string // último error transitorio (el intento sigue en PROCESSING)

	GeneratedXML        string
	SignedXML           string
	AuthorizedXML       string // nfeProc: NF-e firmada + protNFe
	ErrorXML            string
	RenderedDocumentURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal: AUTHORIZED y REJECTED son inmutables.
func (d *FiscalDocument) IsTerminal() bool {
	return d.Status == FiscalStatusAuthorized || d.Status == FiscalStatusRejected
}

// Authorize sella la autorización. Solo aplica desde PROCESSING.
func (d *FiscalDocument) Authorize(protocol string, at time.Time, authorizedXML string, now time.Time) bool {
	if d.Status != FiscalStatusProcessing {
		return false
	}
	d.Status = FiscalStatusAuthorized
	d.AuthorizationProtocol = protocol
	d.AuthorizationTimestamp = &at
	d.AuthorizedXML = authorizedXML
	d.LastError = ""
	d.UpdatedAt = now
	return true
}

// Reject sella el rechazo de negocio. Solo aplica desde PROCESSING.
func (d *FiscalDocument) Reject(code, reason, errorXML string, now time.Time) bool {
	if d.Status != FiscalStatusProcessing {
		return false
	}
	d.Status = FiscalStatusRejected
	d.RejectionCode = code
	d.RejectionReason = reason
	d.ErrorXML = errorXML
	d.LastError = ""
	d.UpdatedAt = now
	return true
}
