package fiscal

import (
	"context"
	"fmt"

	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
)

// ArtifactUseCase sirve los artefactos de un intento: DANFE on-demand y XML.
type ArtifactUseCase struct {
	catalog
	docs     repository.FiscalDocumentRepository
	renderer DocumentRenderer
}

// NewArtifactUseCase construye el caso de uso reutilizando las dependencias del Issuer.
func NewArtifactUseCase(deps IssuerDeps, companyID string) *ArtifactUseCase {
	return &ArtifactUseCase{
		catalog: catalog{
			orders:         deps.Orders,
			customers:      deps.Customers,
			products:       deps.Products,
			paymentMethods: deps.PaymentMethods,
			companies:      deps.Companies,
			companyID:      companyID,
		},
		docs:     deps.Documents,
		renderer: deps.Renderer,
	}
}

// DownloadDANFE genera el PDF de un documento autorizado.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el documento no existe.
//   - domain.ErrFiscalRejection  si la SEFAZ rechazó el documento.
//   - domain.ErrStateConflict    si el documento sigue en PROCESSING.
func (uc *ArtifactUseCase) DownloadDANFE(ctx context.Context, documentID string) (pdfBytes []byte, filename string, err error) {
	doc, err := uc.document(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	if doc.Status == entity.FiscalStatusRejected {
		return nil, "", domain.FiscalRejection(doc.RejectionCode, doc.RejectionReason)
	}
	if doc.Status != entity.FiscalStatusAuthorized {
		return nil, "", domain.StateConflict(fmt.Sprintf("el documento está en %s; el DANFE solo existe para NF-e autorizadas", doc.Status))
	}
	if uc.renderer == nil {
		return nil, "", fmt.Errorf("fiscal: no hay generador de DANFE configurado")
	}

	order, err := uc.order(ctx, doc.SaleID)
	if err != nil {
		return nil, "", err
	}
	data, err := uc.documentData(ctx, order)
	if err != nil {
		return nil, "", err
	}
	data.Document = doc
	data.IssuedAt = doc.CreatedAt
	if len(doc.AccessKey) == 44 {
		data.NumericCode = doc.AccessKey[35:43]
	}

	pdfBytes, err = uc.renderer.Render(ctx, data)
	if err != nil {
		return nil, "", fmt.Errorf("fiscal: generar DANFE: %w", err)
	}
	return pdfBytes, fmt.Sprintf("danfe_%s.pdf", doc.AccessKey), nil
}

// DownloadXML devuelve el XML más avanzado del intento: nfeProc si fue
// autorizado, si no el firmado, si no el generado.
func (uc *ArtifactUseCase) DownloadXML(ctx context.Context, documentID string) (xmlBytes []byte, filename string, err error) {
	doc, err := uc.document(ctx, documentID)
	if err != nil {
		return nil, "", err
	}
	switch {
	case doc.AuthorizedXML != "":
		return []byte(doc.AuthorizedXML), fmt.Sprintf("%s-procNFe.xml", doc.AccessKey), nil
	case doc.SignedXML != "":
		return []byte(doc.SignedXML), fmt.Sprintf("%s-NFe.xml", doc.AccessKey), nil
	case doc.GeneratedXML != "":
		return []byte(doc.GeneratedXML), fmt.Sprintf("%s-NFe.xml", doc.AccessKey), nil
	}
	return nil, "", domain.NotFound("XML del documento", documentID)
}

func (uc *ArtifactUseCase) document(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener documento: %w", err)
	}
	if doc == nil {
		return nil, domain.NotFound("documento fiscal", id)
	}
	return doc, nil
}
