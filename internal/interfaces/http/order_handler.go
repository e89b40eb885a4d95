package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Vendas-api/internal/application/dto"
	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/internal/domain/entity"
	"github.com/jhoicas/Vendas-api/internal/domain/repository"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// OrderHandler expone el ciclo de vida del pedido de venta.
type OrderHandler struct {
	orders    *sales.OrderUseCase
	lifecycle *sales.LifecycleController
	log       *logger.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(orders *sales.OrderUseCase, lifecycle *sales.LifecycleController, log *logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, lifecycle: lifecycle, log: log.Component("http.orders")}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Crea un presupuesto (QUOTE, por defecto) o un borrador (DRAFT) con código PV-xxxxxx.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateOrderRequest  true  "status, customer_id, payment_method_id, lines, cargos"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := bindJSON(c, &in, false); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.orders.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewOrderResponse(o))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Produce      json
// @Param        status       query     string  false  "QUOTE, DRAFT, PENDING_APPROVAL, CONFIRMED, APPROVED, COMPLETED, CANCELED"
// @Param        customer_id  query     string  false  "Filtrar por cliente"
// @Param        limit        query     int     false  "Máximo 100 (default 20)"
// @Param        offset       query     int     false  "Desplazamiento"
// @Success      200          {object}  dto.OrderListResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	if err := validateStruct(page); err != nil {
		return writeError(c, h.log, err)
	}
	page.DefaultPage()

	orders, total, err := h.orders.List(c.UserContext(), repository.OrderFilter{
		Status:     entity.OrderStatus(c.Query("status")),
		CustomerID: c.Query("customer_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(orders)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, o := range orders {
		out.Items = append(out.Items, dto.NewOrderResponse(o))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.orders.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Update godoc
// @Summary      Editar pedido
// @Description  Aplica un OrderPatch (solo en DRAFT o QUOTE). lines reemplaza el conjunto completo.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "ID del pedido"
// @Param        body  body      dto.OrderPatch  true  "campos a modificar"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [patch]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var patch dto.OrderPatch
	if err := bindJSON(c, &patch, false); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.orders.EditLines(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Delete godoc
// @Summary      Eliminar pedido
// @Tags         orders
// @Param        id   path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.orders.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Confirm godoc
// @Summary      Confirmar pedido
// @Description  Debita stock y genera las cuentas por cobrar. Marca análisis de crédito pendiente si la forma de pago lo exige.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true   "ID del pedido"
// @Param        body  body      dto.ConfirmOrderRequest  false  "ubicación de stock por defecto"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	var in dto.ConfirmOrderRequest
	if err := bindJSON(c, &in, true); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.lifecycle.Confirm(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Submit godoc
// @Summary      Enviar borrador a aprobación
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	o, err := h.lifecycle.SubmitForApproval(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Approve godoc
// @Summary      Aprobar pedido
// @Description  decision es obligatoria si la forma de pago exige análisis de crédito; REJECTED cancela el pedido.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true   "ID del pedido"
// @Param        body  body      dto.ApproveOrderRequest  false  "decisión de crédito"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      428   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveOrderRequest
	if err := bindJSON(c, &in, true); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.lifecycle.Approve(c.UserContext(), c.Params("id"), in.Decision)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Description  Si el pedido ya fue confirmado, repone el stock y revierte las cuentas por cobrar.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del pedido"
// @Param        body  body      dto.CancelOrderRequest  true  "motivo"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelOrderRequest
	if err := bindJSON(c, &in, false); err != nil {
		return writeError(c, h.log, err)
	}
	o, err := h.lifecycle.Cancel(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}

// Complete godoc
// @Summary      Completar pedido
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	o, err := h.lifecycle.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewOrderResponse(o))
}
