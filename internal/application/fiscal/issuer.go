// Package fiscal orquesta la emisión de NF-e a partir de un pedido:
//
//	numeración → chave de acesso → XML 4.00 → firma → NFeAutorizacao4 → DANFE
//
// Cada llamada a Emit crea un FiscalDocument nuevo. Los intentos nunca se
// sobrescriben ni se borran: el historial por pedido es la pista de auditoría.
package fiscal

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	fiscalrules "github.com/jhoicas/Vendas-api/internal/domain/fiscal"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	salesrules "github.com/jhoicas/Vendas-api/internal/domain/sales"
	"github.com/jhoicas/Vendas-api/pkg/logger"
	"github.com/jhoicas/Vendas-api/pkg/nfe"
)

const instrumentation = "github.com/jhoicas/Vendas-api/internal/application/fiscal"

var (
	tracer = otel.Tracer(instrumentation)
	meter  = otel.Meter(instrumentation)

	emissions, _ = meter.Int64Counter("fiscal.emissions",
		metric.WithDescription("Intentos de emisión de NF-e por resultado"))
)

func recordEmission(ctx context.Context, outcome string) {
	emissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

// IssuerConfig parámetros fijos de la emisión.
type IssuerConfig struct {
	CompanyID     string // empresa emisora
	Environment   int    // tpAmb
	DefaultModel  string
	DefaultSeries int
	SubmitTimeout time.Duration
	PublicBaseURL string // base de la ruta on-demand del DANFE
}

// Issuer emite NF-e para pedidos confirmados.
type Issuer struct {
	catalog
	docs     repository.FiscalDocumentRepository
	series   repository.FiscalSeriesRepository
	keys     *fiscalrules.AccessKeyCalculatorService
	builder  DocumentBuilder
	signer   DocumentSigner // nil = sin firma
	gateway  FiscalAuthorityGateway
	renderer DocumentRenderer // nil = DANFE solo on-demand
	store    ArtifactStore    // nil = sin subida
	idem     IdempotencyStore // nil = sin deduplicación
	cfg      IssuerConfig
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// IssuerDeps dependencias del Issuer. Signer, Renderer, Store e Idempotency son opcionales.
type IssuerDeps struct {
	Orders         repository.OrderRepository
	Customers      repository.CustomerRepository
	Products       repository.ProductRepository
	PaymentMethods repository.PaymentMethodRepository
	Companies      repository.CompanyRepository
	Documents      repository.FiscalDocumentRepository
	Series         repository.FiscalSeriesRepository
	Builder        DocumentBuilder
	Signer         DocumentSigner
	Gateway        FiscalAuthorityGateway
	Renderer       DocumentRenderer
	Store          ArtifactStore
	Idempotency    IdempotencyStore
}

// NewIssuer construye el emisor.
func NewIssuer(cfg IssuerConfig, deps IssuerDeps, log *logger.Logger) *Issuer {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = entity.FiscalModelNFe
	}
	return &Issuer{
		catalog: catalog{
			orders:         deps.Orders,
			customers:      deps.Customers,
			products:       deps.Products,
			paymentMethods: deps.PaymentMethods,
			companies:      deps.Companies,
			companyID:      cfg.CompanyID,
		},
		docs:     deps.Documents,
		series:   deps.Series,
		keys:     fiscalrules.NewAccessKeyCalculatorService(),
		builder:  deps.Builder,
		signer:   deps.Signer,
		gateway:  deps.Gateway,
		renderer: deps.Renderer,
		store:    deps.Store,
		idem:     deps.Idempotency,
		cfg:      cfg,
		log:      log.Component("fiscal.issuer"),
		now:      time.Now,
		newID:    func() string { return ulid.Make().String() },
	}
}

// WithClock reemplaza el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Emit crea un intento de emisión nuevo para el pedido y espera el resultado de la SEFAZ.
//
// Retorna:
//   - (doc AUTHORIZED o REJECTED, nil) cuando hubo respuesta de negocio.
//   - domain.ErrFiscalTransient si la SEFAZ no respondió; el intento queda en
//     PROCESSING con LastError y se reintenta con otra llamada a Emit.
//   - domain.ErrStateConflict si el pedido no está CONFIRMED, APPROVED o COMPLETED.
//
// Con idempotencyKey no vacío, repetir la clave devuelve el documento AUTHORIZED o
// REJECTED de la primera llamada. La clave se asocia solo a resultados terminales.
func (i *Issuer) Emit(ctx context.Context, saleID string, params dto.DocumentEmissionParams, idempotencyKey string) (doc *entity.FiscalDocument, err error) {
	ctx, span := tracer.Start(ctx, "fiscal.Emit", trace.WithAttributes(attribute.String("order.id", saleID)))
	defer func() { endSpan(span, err) }()

	if idempotencyKey == "" || i.idem == nil {
		return i.emit(ctx, saleID, params)
	}

	key := saleID + ":" + idempotencyKey
	prevID, claimed, err := i.idem.Claim(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fiscal: reservar Idempotency-Key: %w", err)
	}
	if !claimed {
		if prevID == "" {
			return nil, domain.StateConflict("ya hay una emisión en curso con la misma Idempotency-Key")
		}
		i.log.Info().Str("order_id", saleID).Str("document_id", prevID).Msg("emisión repetida, se devuelve el intento original")
		return i.GetDocument(ctx, prevID)
	}

	doc, err = i.emit(ctx, saleID, params)
	if err != nil {
		// Sin resultado terminal la clave se libera: el reintento con la misma
		// clave crea un intento nuevo.
		if rErr := i.idem.Release(context.WithoutCancel(ctx), key); rErr != nil {
			i.log.Warn().Err(rErr).Str("order_id", saleID).Msg("no se pudo liberar la Idempotency-Key")
		}
		return nil, err
	}
	if bErr := i.idem.Bind(context.WithoutCancel(ctx), key, doc.ID); bErr != nil {
		i.log.Warn().Err(bErr).Str("document_id", doc.ID).Msg("no se pudo asociar la Idempotency-Key")
	}
	return doc, nil
}

func (i *Issuer) emit(ctx context.Context, saleID string, params dto.DocumentEmissionParams) (*entity.FiscalDocument, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Pedido, parámetros y datos del documento
	// ═══════════════════════════════════════════════════════════════════════════
	order, err := i.order(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := salesrules.CheckIssuable(order); err != nil {
		return nil, err
	}
	p, err := i.resolveParams(order, params)
	if err != nil {
		return nil, err
	}
	data, err := i.documentData(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := fiscalrules.ValidateDocumentData(data.Issuer, data.Customer, order, data.Products); err != nil {
		return nil, domain.Validation("order", err.Error())
	}
	stateCode := nfe.StateCodes[data.Issuer.Address.State]

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Numeración, chave y registro PROCESSING
	// ═══════════════════════════════════════════════════════════════════════════
	number, err := i.series.NextNumber(ctx, i.cfg.CompanyID, p.model, p.series)
	if err != nil {
		return nil, fmt.Errorf("fiscal: reservar número: %w", err)
	}
	now := i.now().In(nfe.BrasiliaTime)
	docID := i.newID()
	numericCode := NumericCode(docID, number)
	accessKey, err := i.keys.Calculate(&fiscalrules.AccessKeyParams{
		StateCode:    stateCode,
		IssuedAt:     now,
		CNPJ:         data.Issuer.CNPJ,
		Model:        p.model,
		Series:       p.series,
		Number:       number,
		EmissionType: nfe.EmissionNormal,
		NumericCode:  numericCode,
	})
	if err != nil {
		return nil, fmt.Errorf("fiscal: calcular chave: %w", err)
	}

	doc := &entity.FiscalDocument{
		ID:              docID,
		SaleID:          order.ID,
		Status:          entity.FiscalStatusProcessing,
		Model:           p.model,
		Series:          p.series,
		Number:          number,
		Environment:     i.cfg.Environment,
		OperationNature: p.nature,
		FinalConsumer:   p.finalConsumer,
		BuyerPresence:   p.presence,
		FreightModality: p.freight,
		CFOP:            p.cfop,
		TotalAmount:     order.TotalAmount,
		AccessKey:       accessKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := i.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("fiscal: registrar intento: %w", err)
	}
	i.log.Info().Str("order_id", order.ID).Str("document_id", doc.ID).
		Str("model", p.model).Int("series", p.series).Int64("number", number).Msg("intento de emisión creado")

	data.Document = doc
	data.IssuedAt = now
	data.NumericCode = numericCode

	// A partir de aquí el registro existe: el resultado se persiste aunque el
	// cliente corte la conexión.
	persistCtx := context.WithoutCancel(ctx)

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. XML y firma
	// ═══════════════════════════════════════════════════════════════════════════
	generated, err := i.builder.Build(data)
	if err != nil {
		return nil, i.failProcessing(persistCtx, doc, "generar XML", err)
	}
	doc.GeneratedXML = string(generated)
	payload := generated
	if i.signer != nil {
		signed, err := i.signer.Sign(generated, "NFe"+accessKey)
		if err != nil {
			return nil, i.failProcessing(persistCtx, doc, "firmar XML", err)
		}
		doc.SignedXML = string(signed)
		payload = signed
	}
	doc.UpdatedAt = i.now()
	if err := i.docs.UpdateProcessing(persistCtx, doc); err != nil {
		return nil, fmt.Errorf("fiscal: guardar XML: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Envío a la SEFAZ con timeout
	// ═══════════════════════════════════════════════════════════════════════════
	submitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	res, err := i.gateway.Authorize(submitCtx, &AuthorizationRequest{
		DocumentID:      doc.ID,
		AccessKey:       accessKey,
		Model:           p.model,
		Environment:     i.cfg.Environment,
		StateCode:       stateCode,
		OperationNature: p.nature,
		XML:             payload,
	})
	cancel()
	switch {
	case err != nil:
		return nil, i.markTransient(persistCtx, doc, err)
	case nfe.IsTransientStatus(res.CStat):
		return nil, i.markTransient(persistCtx, doc, fmt.Errorf("cStat %s: %s", res.CStat, res.Reason))
	case nfe.IsAuthorizedStatus(res.CStat) && strings.TrimSpace(res.Protocol) == "":
		return nil, i.markTransient(persistCtx, doc, fmt.Errorf("cStat %s sin protocolo de autorización", res.CStat))
	case nfe.IsAuthorizedStatus(res.CStat):
		return i.authorize(persistCtx, data, res)
	default:
		return i.reject(persistCtx, doc, res)
	}
}

func (i *Issuer) authorize(ctx context.Context, data *DocumentData, res *AuthorizationResult) (*entity.FiscalDocument, error) {
	doc := data.Document
	now := i.now()
	at := res.AuthorizedAt
	if at.IsZero() {
		at = now
	}
	processed := res.ProcessedXML
	if processed == "" {
		processed = doc.SignedXML
	}
	doc.Authorize(res.Protocol, at, processed, now)
	doc.RenderedDocumentURL = i.publishArtifacts(ctx, data)

	if err := i.docs.SaveOutcome(ctx, doc); err != nil {
		return nil, fmt.Errorf("fiscal: guardar autorización: %w", err)
	}
	recordEmission(ctx, "authorized")
	i.log.Info().Str("document_id", doc.ID).Str("access_key", doc.AccessKey).
		Str("c_stat", res.CStat).Str("protocol", res.Protocol).Msg("NF-e autorizada")
	return doc, nil
}

func (i *Issuer) reject(ctx context.Context, doc *entity.FiscalDocument, res *AuthorizationResult) (*entity.FiscalDocument, error) {
	doc.Reject(res.CStat, res.Reason, res.ResponseXML, i.now())
	if err := i.docs.SaveOutcome(ctx, doc); err != nil {
		return nil, fmt.Errorf("fiscal: guardar rechazo: %w", err)
	}
	recordEmission(ctx, "rejected")
	i.log.Warn().Str("document_id", doc.ID).Str("order_id", doc.SaleID).
		Str("c_stat", res.CStat).Str("reason", res.Reason).Msg("NF-e rechazada")
	return doc, nil
}

// markTransient deja el intento en PROCESSING con el error y devuelve ErrFiscalTransient.
func (i *Issuer) markTransient(ctx context.Context, doc *entity.FiscalDocument, cause error) error {
	doc.LastError = cause.Error()
	doc.UpdatedAt = i.now()
	if err := i.docs.UpdateProcessing(ctx, doc); err != nil {
		i.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo registrar el error transitorio")
	}
	recordEmission(ctx, "transient")
	i.log.Warn().Err(cause).Str("document_id", doc.ID).Str("order_id", doc.SaleID).Msg("SEFAZ sin respuesta, el intento sigue en PROCESSING")
	return domain.FiscalTransient(fmt.Sprintf("no fue posible obtener respuesta de la SEFAZ; el intento %s sigue en PROCESSING", doc.ID), cause)
}

// failProcessing registra un fallo interno (XML o firma) sin volver terminal el intento.
func (i *Issuer) failProcessing(ctx context.Context, doc *entity.FiscalDocument, step string, cause error) error {
	doc.LastError = step + ": " + cause.Error()
	doc.UpdatedAt = i.now()
	if err := i.docs.UpdateProcessing(ctx, doc); err != nil {
		i.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo registrar el fallo")
	}
	recordEmission(ctx, "failed")
	return fmt.Errorf("fiscal: %s: %w", step, cause)
}

// publishArtifacts sube DANFE y XML autorizado y devuelve la URL del DANFE. Si no
// hay almacén o la subida falla, la URL es la ruta on-demand.
func (i *Issuer) publishArtifacts(ctx context.Context, data *DocumentData) string {
	doc := data.Document
	onDemand := strings.TrimRight(i.cfg.PublicBaseURL, "/") + "/api/fiscal-documents/" + doc.ID + "/danfe"
	if i.store == nil || i.renderer == nil {
		return onDemand
	}

	pdfBytes, err := i.renderer.Render(ctx, data)
	if err != nil {
		i.log.Warn().Err(err).Str("document_id", doc.ID).Msg("DANFE no generado, queda on-demand")
		return onDemand
	}
	url, err := i.store.Put(ctx, "nfe/"+doc.AccessKey+"-danfe.pdf", pdfBytes, "application/pdf")
	if err != nil {
		i.log.Warn().Err(err).Str("document_id", doc.ID).Msg("DANFE no subido, queda on-demand")
		return onDemand
	}
	if _, err := i.store.Put(ctx, "nfe/"+doc.AccessKey+"-procNFe.xml", []byte(doc.AuthorizedXML), "application/xml"); err != nil {
		i.log.Warn().Err(err).Str("document_id", doc.ID).Msg("XML autorizado no subido")
	}
	return url
}

// ListDocuments devuelve los intentos del pedido en orden de llamada.
func (i *Issuer) ListDocuments(ctx context.Context, saleID string) ([]*entity.FiscalDocument, error) {
	if _, err := i.order(ctx, saleID); err != nil {
		return nil, err
	}
	docs, err := i.docs.ListBySale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("fiscal: listar documentos: %w", err)
	}
	return docs, nil
}

// GetDocument devuelve un intento por ID.
func (i *Issuer) GetDocument(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	doc, err := i.docs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fiscal: obtener documento: %w", err)
	}
	if doc == nil {
		return nil, domain.NotFound("documento fiscal", id)
	}
	return doc, nil
}

// ── Parámetros ────────────────────────────────────────────────────────────────

type emissionParams struct {
	model         string
	series        int
	nature        string
	finalConsumer bool
	presence      int
	freight       int
	cfop          string
	timeout       time.Duration
}

func (i *Issuer) resolveParams(order *entity.Order, in dto.DocumentEmissionParams) (*emissionParams, error) {
	p := &emissionParams{
		model:         in.Model,
		series:        i.cfg.DefaultSeries,
		nature:        strings.TrimSpace(in.OperationNature),
		finalConsumer: in.FinalConsumer,
		presence:      in.BuyerPresence,
		cfop:          in.CFOP,
		timeout:       in.Timeout(i.cfg.SubmitTimeout),
	}
	if p.model == "" {
		p.model = i.cfg.DefaultModel
	}
	if p.model != entity.FiscalModelNFe && p.model != entity.FiscalModelNFCe {
		return nil, domain.Validation("model", "el modelo debe ser 55 (NF-e) o 65 (NFC-e)")
	}
	if in.Series != nil {
		p.series = *in.Series
	}
	if p.series < 0 || p.series > 999 {
		return nil, domain.Validation("series", "la serie debe estar entre 0 y 999")
	}
	if p.nature == "" {
		return nil, domain.Validation("operation_nature", "la naturaleza de la operación es obligatoria")
	}
	if len([]rune(p.nature)) > 60 {
		return nil, domain.Validation("operation_nature", "la naturaleza de la operación admite hasta 60 caracteres")
	}
	if !nfe.ValidBuyerPresence[p.presence] {
		return nil, domain.Validation("buyer_presence", "indicador de presencia inválido")
	}
	if p.model == entity.FiscalModelNFCe {
		if !p.finalConsumer {
			return nil, domain.Validation("final_consumer", "la NFC-e es siempre a consumidor final")
		}
		if p.presence != nfe.PresenceInPerson && p.presence != nfe.PresenceDelivery {
			return nil, domain.Validation("buyer_presence", "la NFC-e admite presencia 1 o 4")
		}
	}

	switch {
	case in.FreightModality != nil:
		p.freight = *in.FreightModality
	case order.ShippingModality != "":
		m, err := strconv.Atoi(order.ShippingModality)
		if err != nil {
			return nil, domain.Validation("freight_modality", "la modalidad de flete del pedido no es numérica")
		}
		p.freight = m
	case order.ShippingCost.IsPositive():
		p.freight = nfe.FreightBySender
	default:
		p.freight = nfe.FreightNone
	}
	if !nfe.ValidFreightModalities[p.freight] {
		return nil, domain.Validation("freight_modality", "modalidad de flete inválida")
	}
	if p.cfop != "" && (len(p.cfop) != 4 || nfe.OnlyDigits(p.cfop) != p.cfop) {
		return nil, domain.Validation("cfop", "el CFOP debe tener 4 dígitos")
	}
	return p, nil
}

// NumericCode deriva el cNF (8 dígitos) del ID del intento. La SEFAZ rechaza
// cNF igual a nNF, así que en ese caso se desplaza en uno.
func NumericCode(documentID string, number int64) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(documentID))
	n := int64(h.Sum32() % 100_000_000)
	if n == number%100_000_000 {
		n = (n + 1) % 100_000_000
	}
	return fmt.Sprintf("%08d", n)
}
