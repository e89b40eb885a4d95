package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Orders    *sales.OrderUseCase
	Lifecycle *sales.LifecycleController
	Issuer    *fiscal.Issuer
	Artifacts *fiscal.ArtifactUseCase
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Pedidos
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.Orders, deps.Lifecycle, deps.Log)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)
	orders.Patch("/:id", orderHandler.Update)
	orders.Delete("/:id", orderHandler.Delete)
	orders.Post("/:id/confirm", orderHandler.Confirm)
	orders.Post("/:id/submit", orderHandler.Submit)
	orders.Post("/:id/approve", orderHandler.Approve)
	orders.Post("/:id/cancel", orderHandler.Cancel)
	orders.Post("/:id/complete", orderHandler.Complete)

	// NF-e
	fiscalHandler := NewFiscalHandler(deps.Issuer, deps.Artifacts, deps.Log)
	orders.Post("/:id/fiscal-documents", fiscalHandler.Emit)
	orders.Get("/:id/fiscal-documents", fiscalHandler.ListBySale)
	docs := api.Group("/fiscal-documents")
	docs.Get("/:id", fiscalHandler.Get)
	docs.Get("/:id/danfe", fiscalHandler.DownloadDANFE)
	docs.Get("/:id/xml", fiscalHandler.DownloadXML)

	// Calculadora de precios
	pricingHandler := NewPricingHandler(deps.Log)
	api.Post("/pricing/derive", pricingHandler.Derive)
}
