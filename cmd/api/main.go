// @title        Vendas API
// @version      1.0
// @description  Ciclo de vida de pedidos de venta y emisión de NF-e/NFC-e.
// @BasePath     /
package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/Vendas-api/docs"
	"github.com/jhoicas/Vendas-api/internal/application/fiscal"
	"github.com/jhoicas/Vendas-api/internal/application/inventory"
	"github.com/jhoicas/Vendas-api/internal/application/ledger"
	"github.com/jhoicas/Vendas-api/internal/application/sales"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Vendas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/sefaz"
	"github.com/jhoicas/Vendas-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Vendas-api/internal/interfaces/http"
	"github.com/jhoicas/Vendas-api/pkg/config"
	"github.com/jhoicas/Vendas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Int("fiscal_environment", cfg.Fiscal.Environment).
		Bool("fiscal_simulate", cfg.Fiscal.Simulate).
		Msg("iniciando aplicación")

	ctx := context.Background()

	if cfg.DB.AutoMigrate {
		m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar migraciones")
		}
		if err := m.Up(); err != nil {
			log.Fatal().Err(err).Msg("aplicar migraciones")
		}
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar migrador")
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	orderRepo := postgres.NewOrderRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	paymentMethodRepo := postgres.NewPaymentMethodRepository(pool)
	locationRepo := postgres.NewStockLocationRepository(pool)
	receivableRepo := postgres.NewReceivableRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Bloqueo por pedido e Idempotency-Key: Redis si está configurado, si no en proceso (un solo nodo).
	var (
		locker      sales.OrderLocker       = memory.NewOrderLocker()
		idempotency fiscal.IdempotencyStore = memory.NewIdempotencyStore(24 * time.Hour)
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = cache.NewRedisOrderLocker(rdb, cfg.Redis.LockTTL, log)
		idempotency = cache.NewRedisIdempotencyStore(rdb, 24*time.Hour)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: bloqueo e idempotencia en memoria, no usar con varias réplicas")
	}

	stockSvc := inventory.NewStockService(txRunner, postgres.NewStockRepository(pool), log)
	ledgerSvc := ledger.NewReceivableService(receivableRepo, paymentMethodRepo, log)
	orderUC := sales.NewOrderUseCase(orderRepo, customerRepo, productRepo, paymentMethodRepo, locationRepo, locker, log)
	lifecycle := sales.NewLifecycleController(orderRepo, paymentMethodRepo, locationRepo, stockSvc, ledgerSvc, locker, log)

	// NF-e: certificado A1 → firma XMLDSig → SEFAZ (o simulador)
	cert, err := sefaz.LoadCertificate(cfg.Fiscal.CertPath, cfg.Fiscal.CertKeyPath, cfg.Fiscal.CertPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar certificado digital")
	}
	deps := fiscal.IssuerDeps{
		Orders:         orderRepo,
		Customers:      customerRepo,
		Products:       productRepo,
		PaymentMethods: paymentMethodRepo,
		Companies:      companyRepo,
		Documents:      postgres.NewFiscalDocumentRepository(pool),
		Series:         postgres.NewFiscalSeriesRepository(pool),
		Builder:        sefaz.NewXMLBuilder(),
		Renderer:       infrapdf.NewDANFERenderer(),
		Idempotency:    idempotency,
	}
	if cert != nil {
		signer, err := sefaz.NewXMLSigner(*cert)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar firma XML")
		}
		deps.Signer = signer
	} else {
		log.Warn().Msg("FISCAL_CERT_PATH vacío: las NF-e se envían sin firma")
	}
	deps.Gateway = newGateway(cfg.Fiscal, cert, log)

	if cfg.S3.Enabled() {
		store, err := storage.NewS3ArtifactStore(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar almacén S3")
		}
		deps.Store = store
	}

	issuerCfg := fiscal.IssuerConfig{
		CompanyID:     cfg.Fiscal.CompanyID,
		Environment:   cfg.Fiscal.Environment,
		DefaultModel:  cfg.Fiscal.DefaultModel,
		DefaultSeries: cfg.Fiscal.DefaultSeries,
		SubmitTimeout: cfg.Fiscal.SubmitTimeout,
		PublicBaseURL: cfg.Fiscal.PublicBaseURL,
	}
	issuer := fiscal.NewIssuer(issuerCfg, deps, log)
	artifacts := fiscal.NewArtifactUseCase(deps, cfg.Fiscal.CompanyID)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Vendas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Orders:    orderUC,
		Lifecycle: lifecycle,
		Issuer:    issuer,
		Artifacts: artifacts,
		Log:       log,
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

// newGateway elige el simulador o el cliente SOAP de la UF.
func newGateway(cfg config.FiscalConfig, cert *tls.Certificate, log *logger.Logger) fiscal.FiscalAuthorityGateway {
	if cfg.Simulate {
		log.Warn().Msg("FISCAL_SIMULATE=true: las NF-e no se envían a la SEFAZ")
		return sefaz.NewSimulatedGateway(log)
	}
	gw, err := sefaz.NewSOAPGateway(cfg.AuthorizationURL, cert, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar cliente SEFAZ")
	}
	return gw
}
