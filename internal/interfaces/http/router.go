package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-afip/internal/application/auth"
	"github.com/jhoicas/facturador-afip/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	InvoiceUC InvoiceService
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token y rol admin)
	adminOnly := []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin)}

	// Auth
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/register", append(adminOnly, authHandler.Register)...)

	// Facturación
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	facturas := api.Group("/facturas", adminOnly...)
	facturas.Post("/", invoiceHandler.Generate)
	facturas.Get("/:idCompra/pdf", invoiceHandler.DownloadPDF)

	api.Get("/afip/status", append(adminOnly, invoiceHandler.Status)...)
}
