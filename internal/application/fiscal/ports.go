package fiscal

import (
	"context"
	"time"

	"github.com/jhoicas/Vendas-api/internal/domain/entity"
)

// DocumentData reúne todo lo necesario para generar el XML y el DANFE de un
// intento de emisión. Lo arma el Issuer y lo consumen el builder y el renderer.
type DocumentData struct {
	Document      *entity.FiscalDocument
	Issuer        *entity.Company
	Customer      *entity.Customer
	Order         *entity.Order
	Products      map[string]*entity.Product
	PaymentMethod *entity.PaymentMethod
	IssuedAt      time.Time
	NumericCode   string // cNF
}

// DocumentBuilder genera el XML NF-e 4.00 (sin firma) con infNFe Id="NFe<chave>".
type DocumentBuilder interface {
	Build(data *DocumentData) ([]byte, error)
}

// DocumentSigner firma el XML generado. Sin certificado configurado el Issuer
// recibe nil y envía el XML sin firmar (solo sirve con el gateway simulado).
type DocumentSigner interface {
	Sign(xmlBytes []byte, referenceID string) ([]byte, error)
}

// AuthorizationRequest lo que se envía a la autoridad fiscal.
type AuthorizationRequest struct {
	DocumentID      string
	AccessKey       string
	Model           string
	Environment     int
	StateCode       string // cUF del emisor
	OperationNature string
	XML             []byte // NF-e firmada
}

// AuthorizationResult respuesta de negocio de la SEFAZ. CStat decide el destino:
// 100/150 autorizado, 108/109 indisponibilidad, cualquier otro rechazo.
type AuthorizationResult struct {
	CStat        string
	Reason       string // xMotivo
	Protocol     string // nProt
	AuthorizedAt time.Time
	ProcessedXML string // nfeProc (NF-e + protNFe); solo si fue autorizado
	ResponseXML  string // retEnviNFe completo
}

// FiscalAuthorityGateway envía la NF-e a la SEFAZ. Un error devuelto significa
// que no hubo respuesta de negocio (red, timeout, SOAP fault): es transitorio.
type FiscalAuthorityGateway interface {
	Authorize(ctx context.Context, req *AuthorizationRequest) (*AuthorizationResult, error)
}

// DocumentRenderer genera el DANFE en PDF de un documento autorizado.
type DocumentRenderer interface {
	Render(ctx context.Context, data *DocumentData) ([]byte, error)
}

// ArtifactStore guarda artefactos (DANFE, XML autorizado) y devuelve su URL.
type ArtifactStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// IdempotencyStore deduplica emisiones por Idempotency-Key.
//
// Claim reserva la clave. Si ya existía devuelve claimed=false y el ID del
// documento asociado (vacío mientras la primera llamada sigue en curso).
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (documentID string, claimed bool, err error)
	Bind(ctx context.Context, key, documentID string) error
	Release(ctx context.Context, key string) error
}
