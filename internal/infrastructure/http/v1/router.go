// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocklot/internal/domain/audit"
	"stocklot/internal/domain/batch"
	"stocklot/internal/domain/consumption"
	"stocklot/internal/domain/ledger"
	"stocklot/internal/domain/purchase"
	"stocklot/internal/domain/reports"
	"stocklot/internal/domain/sale"
	"stocklot/internal/infrastructure/http/v1/handlers"
	"stocklot/internal/infrastructure/http/v1/middleware"
	"stocklot/internal/infrastructure/storage/postgres"
	"stocklot/internal/infrastructure/storage/postgres/catalog_repo"
	"stocklot/internal/infrastructure/storage/postgres/document_repo"
	"stocklot/internal/infrastructure/storage/postgres/inventory_repo"
	"stocklot/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks and repositories).
	Pool *postgres.Pool

	// TxManager coordinates statement groups for document writes.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// JWTSecret signs and verifies tenant tokens.
	JWTSecret []byte

	// AllowTenantHeader accepts X-Tenant-ID without a token. Development only.
	AllowTenantHeader bool

	// IdempotencyEnabled guards mutating endpoints with X-Idempotency-Key.
	IdempotencyEnabled bool

	// IdempotencyTTL bounds how long acquired keys are kept.
	IdempotencyTTL time.Duration

	// Audit records entity changes. Optional.
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	batchRepo := inventory_repo.NewBatchRepo(cfg.TxManager)
	ledgerRepo := inventory_repo.NewLedgerRepo(cfg.TxManager)
	catalogRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	saleRepo := document_repo.NewSaleRepo(cfg.TxManager)
	purchaseRepo := document_repo.NewPurchaseRepo(cfg.TxManager)
	numbers := postgres.NewSequenceGenerator(cfg.TxManager)

	// Services
	batchSvc := batch.NewService(batchRepo)
	ledgerSvc := ledger.NewService(ledgerRepo)
	engine := consumption.NewEngine(batchRepo, ledgerSvc)
	reportsSvc := reports.NewService(batchSvc, ledgerSvc)

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit != nil {
		recorder = cfg.Audit
	}

	saleSvc := sale.NewService(saleRepo, catalogRepo, engine, ledgerSvc, numbers, recorder)
	purchaseSvc := purchase.NewService(purchaseRepo, catalogRepo, batchSvc, ledgerSvc, numbers, recorder)

	// Handlers
	base := handlers.NewBaseHandler()
	saleHandler := handlers.NewSaleHandler(base, saleSvc)
	purchaseHandler := handlers.NewPurchaseHandler(base, purchaseSvc)
	stockHandler := handlers.NewStockHandler(base, batchSvc, ledgerSvc, reportsSvc)
	productHandler := handlers.NewProductHandler(base, catalogRepo)

	// API v1 - every route is tenant scoped
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.TenantResolver(cfg.JWTSecret, cfg.AllowTenantHeader))

	if cfg.IdempotencyEnabled {
		ttl := cfg.IdempotencyTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		store := postgres.NewIdempotencyStore(cfg.TxManager, ttl)
		apiV1.Use(middleware.Idempotency(store))
	}

	{
		saleHandler.RegisterRoutes(apiV1.Group("/sales"))
		purchaseHandler.RegisterRoutes(apiV1.Group("/purchases"))
		productHandler.RegisterRoutes(apiV1.Group("/products"))
		stockHandler.RegisterRoutes(apiV1.Group("/stock"), apiV1.Group("/reports"))
	}

	return router
}
