package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/domain"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// statusByKind traduce el tipo de error de dominio a código HTTP.
var statusByKind = map[domain.Kind]int{
	domain.KindValidation:             fiber.StatusBadRequest,
	domain.KindNotFound:               fiber.StatusNotFound,
	domain.KindStateConflict:          fiber.StatusConflict,
	domain.KindCreditAnalysisRequired: fiber.StatusPreconditionRequired,
	domain.KindInsufficientStock:      fiber.StatusConflict,
	domain.KindLedger:                 fiber.StatusUnprocessableEntity,
	domain.KindFiscalRejection:        fiber.StatusUnprocessableEntity,
	domain.KindFiscalTransient:        fiber.StatusServiceUnavailable,
	domain.KindInternal:               fiber.StatusInternalServerError,
}

// StatusOf devuelve el código HTTP para err.
func StatusOf(err error) int {
	if st, ok := statusByKind[domain.KindOf(err)]; ok {
		return st
	}
	return fiber.StatusInternalServerError
}

// writeError responde con dto.ErrorResponse. Los errores internos no exponen
// el detalle al cliente; quedan en el log.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status := StatusOf(err)
	body := dto.ErrorResponse{Code: string(domain.KindOf(err)), Field: domain.FieldOf(err)}

	var de *domain.Error
	if status != fiber.StatusInternalServerError && errors.As(err, &de) {
		body.Message = de.Message
	} else {
		body.Code = string(domain.KindInternal)
		body.Message = "error interno"
	}

	ev := log.Warn()
	if status >= fiber.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("petición fallida")

	return c.Status(status).JSON(body)
}
