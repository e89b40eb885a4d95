package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain/pricing"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// PricingHandler expone la calculadora de costo, margen y precio.
type PricingHandler struct {
	log *logger.Logger
}

// NewPricingHandler construye el handler.
func NewPricingHandler(log *logger.Logger) *PricingHandler {
	return &PricingHandler{log: log.Component("http.pricing")}
}

// Derive godoc
// @Summary      Derivar precio o margen
// @Description  cost o margin_percent editados recalculan sale_price; sale_price editado recalcula margin_percent.
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        body  body      dto.DerivePriceRequest  true  "valores y campo editado"
// @Success      200   {object}  dto.DerivePriceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/pricing/derive [post]
func (h *PricingHandler) Derive(c *fiber.Ctx) error {
	var in dto.DerivePriceRequest
	if err := bindJSON(c, &in, false); err != nil {
		return writeError(c, h.log, err)
	}
	out := pricing.Derive(pricing.Values{Cost: in.Cost, Margin: in.Margin, Sale: in.Sale}, pricing.Field(in.Edited))
	return c.JSON(dto.DerivePriceResponse{Cost: out.Cost, Margin: out.Margin, Sale: out.Sale})
}
