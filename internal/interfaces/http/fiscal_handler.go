package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// IdempotencyKeyHeader deduplica emisiones repetidas del mismo pedido.
const IdempotencyKeyHeader = "Idempotency-Key"

// FiscalHandler expone la emisión de NF-e y sus artefactos.
type FiscalHandler struct {
	issuer    *fiscal.Issuer
	artifacts *fiscal.ArtifactUseCase
	log       *logger.Logger
}

// NewFiscalHandler construye el handler.
func NewFiscalHandler(issuer *fiscal.Issuer, artifacts *fiscal.ArtifactUseCase, log *logger.Logger) *FiscalHandler {
	return &FiscalHandler{issuer: issuer, artifacts: artifacts, log: log.Component("http.fiscal")}
}

// Emit godoc
// @Summary      Emitir NF-e del pedido
// @Description  Crea un intento nuevo y espera la respuesta de la SEFAZ. AUTHORIZED y REJECTED se devuelven
// @Description  con 201; si la SEFAZ no responde el intento queda PROCESSING y se responde 503.
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        id               path      string                      true   "ID del pedido"
// @Param        Idempotency-Key  header    string                      false  "repetir la clave devuelve el intento original"
// @Param        body             body      dto.DocumentEmissionParams  true   "parámetros de la operación"
// @Success      201              {object}  dto.FiscalDocumentResponse
// @Failure      400              {object}  dto.ErrorResponse
// @Failure      409              {object}  dto.ErrorResponse
// @Failure      503              {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/fiscal-documents [post]
func (h *FiscalHandler) Emit(c *fiber.Ctx) error {
	var in dto.DocumentEmissionParams
	if err := bindJSON(c, &in, false); err != nil {
		return writeError(c, h.log, err)
	}
	doc, err := h.issuer.Emit(c.UserContext(), c.Params("id"), in, c.Get(IdempotencyKeyHeader))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewFiscalDocumentResponse(doc))
}

// ListBySale godoc
// @Summary      Historial de emisiones del pedido
// @Tags         fiscal
// @Produce      json
// @Param        id   path      string  true  "ID del pedido"
// @Success      200  {array}   dto.FiscalDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/fiscal-documents [get]
func (h *FiscalHandler) ListBySale(c *fiber.Ctx) error {
	docs, err := h.issuer.ListDocuments(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.FiscalDocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.NewFiscalDocumentResponse(d))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener documento fiscal
// @Tags         fiscal
// @Produce      json
// @Param        id   path      string  true  "ID del documento"
// @Success      200  {object}  dto.FiscalDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fiscal-documents/{id} [get]
func (h *FiscalHandler) Get(c *fiber.Ctx) error {
	doc, err := h.issuer.GetDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewFiscalDocumentResponse(doc))
}

// DownloadDANFE godoc
// @Summary      DANFE en PDF
// @Tags         fiscal
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/fiscal-documents/{id}/danfe [get]
func (h *FiscalHandler) DownloadDANFE(c *fiber.Ctx) error {
	pdf, filename, err := h.artifacts.DownloadDANFE(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, filename))
	return c.Send(pdf)
}

// DownloadXML godoc
// @Summary      XML del intento (nfeProc si fue autorizado)
// @Tags         fiscal
// @Produce      application/xml
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/fiscal-documents/{id}/xml [get]
func (h *FiscalHandler) DownloadXML(c *fiber.Ctx) error {
	xmlBytes, filename, err := h.artifacts.DownloadXML(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(xmlBytes)
}
