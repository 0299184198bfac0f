// @title                       Facturador AFIP API
// @version                     1.0
// @description                 Emisión de Factura C electrónica (WSAA + WSFEv1) para ventas del e-commerce.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/facturador-afip/docs"
	"github.com/jhoicas/facturador-afip/internal/application/auth"
	"github.com/jhoicas/facturador-afip/internal/application/billing"
	infraafip "github.com/jhoicas/facturador-afip/internal/infrastructure/afip"
	infrapdf "github.com/jhoicas/facturador-afip/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-afip/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/facturador-afip/internal/interfaces/http"
	pkgafip "github.com/jhoicas/facturador-afip/pkg/afip"
	"github.com/jhoicas/facturador-afip/pkg/config"
	"github.com/jhoicas/facturador-afip/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("afip_env", cfg.AFIP.Env).
		Int("pto_vta", cfg.AFIP.PuntoVenta).
		Msg("iniciando aplicación")

	if cfg.AFIP.CUITNumber() == 0 {
		log.Fatal().Msg("AFIP_CUIT es obligatorio")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:          cfg.Storage.Driver,
		Bucket:          cfg.Storage.Bucket,
		LocalDir:        cfg.Storage.LocalDir,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("object storage")
	}
	defer closeStore()

	certs, err := storage.CertificateLoaderFor(cfg.AFIP.CertSource, store, cfg.AFIP.CertPath, cfg.AFIP.KeyPath, cfg.AFIP.CertPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("certificado AFIP")
	}

	endpoints, err := pkgafip.EndpointsFor(cfg.AFIP.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("endpoints AFIP")
	}
	wsaa := infraafip.NewWSAAClient(infraafip.WSAAConfig{
		URL:     endpoints.WSAA,
		Service: cfg.AFIP.Service,
		TTL:     time.Duration(cfg.AFIP.TRATTL) * time.Minute,
	}, certs, nil, log.Component("wsaa"))
	wsfe := infraafip.NewWSFEClient(endpoints.WSFE, cfg.AFIP.CUITNumber(), nil, log.Component("wsfe"))

	invoiceUC := billing.NewInvoiceUseCase(
		postgres.NewSaleRepository(pool),
		postgres.NewTxRunner(pool),
		wsaa,
		wsfe,
		infrapdf.NewMarotoPDFGenerator(),
		store,
		billing.Issuer{
			Cuit:         cfg.AFIP.CUITNumber(),
			PtoVta:       cfg.AFIP.PuntoVenta,
			BusinessName: cfg.AFIP.BusinessName,
		},
		log.Component("billing"),
	)
	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
		// WSAA + WSFE + PDF en una misma request: el SOAP tiene 60 s de timeout.
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 150,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturador AFIP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "afip_env": cfg.AFIP.Env})
	})

	// PDFs públicos cuando el store es un directorio local.
	if cfg.Storage.Driver == "local" {
		app.Static("/files", cfg.Storage.LocalDir)
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		InvoiceUC: invoiceUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
