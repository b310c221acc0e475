package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/application/query"
	"github.com/jhoicas/metrologia-api/internal/application/usecase"
	"github.com/jhoicas/metrologia-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ControlUC    *inspection.ControlUseCase
	ControlQuery *query.ControlQuery
	InvoiceUC    *billing.InvoiceUseCase
	PaymentUC    *billing.PaymentUseCase
	InvoicePDF   *billing.PDFUseCase
	Sweeper      *billing.OverdueSweeper
	CompanyUC    *usecase.CompanyUseCase
	InstrumentUC *usecase.InstrumentUseCase
	AgentUC      *usecase.AgentUseCase
	ActivityUC   *usecase.ActivityUseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
//
// Roles: admin todo; inspector controles, empresas e instrumentos;
// accountant facturas y consulta de empresas.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole())

	admin := RequireRole(jwt.RoleAdmin)
	inspectors := RequireRole(jwt.RoleAdmin, jwt.RoleInspector)
	accounting := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant)

	// Controls
	controls := api.Group("/controls")
	controlHandler := NewControlHandler(deps.ControlUC, deps.ControlQuery)
	controls.Post("/", inspectors, controlHandler.Create)
	controls.Get("/", controlHandler.List)
	controls.Get("/stats", controlHandler.Stats)
	controls.Get("/:id", controlHandler.GetByID)
	controls.Post("/:id/start", inspectors, controlHandler.Start)
	controls.Post("/:id/complete", inspectors, controlHandler.Complete)
	controls.Put("/:id", admin, controlHandler.AdminUpdate)
	controls.Delete("/:id", admin, controlHandler.Delete)

	// Invoices
	invoices := api.Group("/invoices", accounting)
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC, deps.PaymentUC, deps.InvoicePDF, deps.Sweeper)
	invoices.Post("/", invoiceHandler.Issue)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/stats", invoiceHandler.Stats)
	invoices.Post("/overdue-sweep", admin, invoiceHandler.SweepOverdue)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Post("/:id/settle", invoiceHandler.Settle)
	invoices.Post("/:id/pay", invoiceHandler.Pay)
	invoices.Delete("/:id", invoiceHandler.Delete)

	// Companies & instruments
	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.InstrumentUC)
	companies := api.Group("/companies")
	companies.Post("/", admin, companyHandler.Create)
	companies.Get("/", companyHandler.List)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Delete("/:id", admin, companyHandler.Delete)
	companies.Get("/:id/instruments", companyHandler.ListInstruments)
	api.Post("/instruments", inspectors, companyHandler.CreateInstrument)

	// Agents
	agents := api.Group("/agents")
	agentHandler := NewAgentHandler(deps.AgentUC)
	agents.Post("/", admin, agentHandler.Create)
	agents.Get("/", agentHandler.List)
	agents.Get("/:id", agentHandler.GetByID)

	// Activity log
	activityHandler := NewActivityHandler(deps.ActivityUC)
	api.Get("/activity", admin, activityHandler.List)
}
