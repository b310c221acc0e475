package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	_ "github.com/jhoicas/metrologia-api/docs"
	"github.com/jhoicas/metrologia-api/internal/application/billing"
	"github.com/jhoicas/metrologia-api/internal/application/inspection"
	"github.com/jhoicas/metrologia-api/internal/application/query"
	"github.com/jhoicas/metrologia-api/internal/application/usecase"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/audit"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/metrics"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/payment"
	infrapdf "github.com/jhoicas/metrologia-api/internal/infrastructure/pdf"
	infraredis "github.com/jhoicas/metrologia-api/internal/infrastructure/redis"
	"github.com/jhoicas/metrologia-api/internal/infrastructure/store"
	httpRouter "github.com/jhoicas/metrologia-api/internal/interfaces/http"
	"github.com/jhoicas/metrologia-api/pkg/config"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// @title                       Metrología API
// @version                     1.0
// @description                 Controles metrológicos, conformidad de empresas y facturación.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Str("audit", cfg.Audit.Backend).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer repos.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Log de actividad: cola en memoria drenada por un worker hacia el backend elegido.
	writer, closeWriter, err := auditWriter(ctx, cfg, repos, log)
	if err != nil {
		log.Fatal().Err(err).Msg("backend de auditoría")
	}
	defer closeWriter()
	sink := audit.NewAsyncSink(writer, cfg.Audit.BufferSize, log.Named("audit"), m)

	controlUC := inspection.NewControlUseCase(
		repos.Tx, repos.Controls, repos.Companies, repos.Agents, repos.Instruments, sink, m,
	)
	controlQuery := query.NewControlQuery(repos.Controls, repos.Companies, repos.Agents, repos.Instruments)

	invoiceUC := billing.NewInvoiceUseCase(
		repos.Tx, repos.Invoices, repos.Companies, repos.Controls, sink, m, cfg.Billing.DefaultTaxRate,
	)
	gateway := payment.NewSimulatedGateway(cfg.Payment.SimulatedDelay)
	paymentUC := billing.NewPaymentUseCase(invoiceUC, gateway, m, log.Named("payment"))
	sweeper := billing.NewOverdueSweeper(repos.Invoices, sink, m, log.Named("sweeper"))

	// PDF: representación gráfica de la factura
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name, cfg.Billing.Currency)
	invoicePDFUC := billing.NewPDFUseCase(repos.Invoices, repos.Companies, repos.Controls, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Metrología API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if repos.Health != nil {
			if err := repos.Health(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{
			"status":        "ok",
			"service":       cfg.App.Name,
			"audit_pending": sink.Pending(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ControlUC:    controlUC,
		ControlQuery: controlQuery,
		InvoiceUC:    invoiceUC,
		PaymentUC:    paymentUC,
		InvoicePDF:   invoicePDFUC,
		Sweeper:      sweeper,
		CompanyUC:    usecase.NewCompanyUseCase(repos.Companies, repos.Controls, repos.Invoices, sink),
		InstrumentUC: usecase.NewInstrumentUseCase(repos.Instruments, repos.Companies),
		AgentUC:      usecase.NewAgentUseCase(repos.Agents),
		ActivityUC:   usecase.NewActivityUseCase(repos.Activity),
		JWTSecret:    cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	g.Go(func() error {
		return sink.Run(gctx)
	})
	g.Go(func() error {
		return sweeper.Run(gctx, cfg.Billing.SweepInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}

// auditWriter elige el destino del log de actividad según AUDIT_BACKEND.
func auditWriter(ctx context.Context, cfg *config.Config, repos *store.Repositories, log *logger.Logger) (audit.Writer, func(), error) {
	switch cfg.Audit.Backend {
	case config.AuditBackendRedis:
		client, err := infraredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("AUDIT_BACKEND=redis requiere REDIS_URL")
		}
		return audit.NewRedisStreamWriter(client, cfg.Audit.Stream, cfg.Audit.StreamMaxLen), func() { _ = client.Close() }, nil
	case config.AuditBackendLog:
		return audit.NewLogWriter(log.Named("activity")), func() {}, nil
	default:
		return audit.NewRepositoryWriter(repos.Activity), func() {}, nil
	}
}
