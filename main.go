package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/config"
	"github.com/yourusername/vat-einvoice/drafts"
	"github.com/yourusername/vat-einvoice/handlers"
	"github.com/yourusername/vat-einvoice/middleware"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/repository"
	"github.com/yourusername/vat-einvoice/submission"
	"github.com/yourusername/vat-einvoice/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	rdb := config.InitRedis(cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	handler, err := setupRouter(cfg, db, rdb, logger)
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting e-invoice API server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// setupRouter wires the stores, external adapters and handlers. A nil rdb selects
// the in-process in-flight set and draft store.
func setupRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) (http.Handler, error) {
	invoices := repository.NewInvoiceRepository(db)
	products := repository.NewProductRepository(db)
	customers := repository.NewCustomerRepository(db)

	signer, err := utils.NewKeypairSigner(invoices, invoices, cfg.SignerSeed, cfg.InvoiceSerial)
	if err != nil {
		return nil, err
	}
	logger.Info("invoice signer ready", zap.String("public_key", signer.Address()))

	var gateway submission.TaxAuthorityGateway = utils.SandboxTaxGateway{}
	if cfg.TaxGatewayURL != "" {
		gateway = utils.NewHTTPTaxGateway(cfg.TaxGatewayURL, cfg.TaxGatewayTimeout)
	} else {
		logger.Warn("TAX_GATEWAY_URL not set, using the sandbox tax gateway")
	}

	var (
		inflight   submission.InFlight = submission.NewMemoryInFlight()
		draftStore drafts.Store        = drafts.NewMemoryStore()
		catalog    calc.CatalogLookup  = products
		cache      handlers.ProductCache
	)
	if rdb != nil {
		inflight = submission.NewRedisInFlight(rdb, cfg.InFlightTTL)
		draftStore = drafts.NewRedisStore(rdb, cfg.DraftTTL)
		cached := repository.NewCachedCatalog(products, rdb, cfg.CatalogCacheTTL, logger)
		catalog = cached
		cache = cached
	}

	coordinator := submission.NewCoordinator(invoices, signer, gateway, inflight, logger)

	authHandler := handlers.NewAuthHandler(db, cfg)
	invoiceHandler := handlers.NewInvoiceHandler(invoices, catalog, coordinator, cfg.InvoiceSerial, logger)
	lineHandler := handlers.NewLineHandler(catalog)
	catalogHandler := handlers.NewCatalogHandler(products, customers, cache, logger)
	draftHandler := handlers.NewDraftHandler(draftStore)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger.Named("http")), middleware.Metrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "vat-einvoice-api",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)
	}

	protected := api.Group("", middleware.JwtAuthMiddleware(cfg))
	{
		protected.POST("/users", middleware.RequireRole(models.RoleAdmin), authHandler.CreateUser)

		protected.POST("/lines/recompute", lineHandler.Recompute)
		protected.POST("/lines/totals", lineHandler.Totals)
		protected.POST("/lines/add", lineHandler.Add)
		protected.POST("/lines/remove", lineHandler.Remove)
		protected.POST("/lines/reconcile", lineHandler.Reconcile)

		protected.GET("/statuses", catalogHandler.Statuses)
		protected.GET("/customers/lookup", catalogHandler.LookupCustomer)
		protected.POST("/customers", catalogHandler.CreateCustomer)
		protected.GET("/products", catalogHandler.SearchProducts)
		protected.POST("/products", middleware.RequireRole(models.RoleAdmin, models.RoleHOD), catalogHandler.CreateProduct)
		protected.PUT("/products/:id", middleware.RequireRole(models.RoleAdmin, models.RoleHOD), catalogHandler.UpdateProduct)

		protected.POST("/invoices", invoiceHandler.CreateInvoice)
		protected.GET("/invoices", invoiceHandler.ListInvoices)
		protected.GET("/invoices/:id", invoiceHandler.GetInvoice)
		protected.PUT("/invoices/:id", invoiceHandler.UpdateInvoice)
		protected.POST("/invoices/:id/transitions", invoiceHandler.Transition)
		protected.POST("/invoices/:id/sign", invoiceHandler.Sign)
		protected.POST("/invoices/:id/issue", invoiceHandler.Issue)
		protected.POST("/invoices/:id/resend", invoiceHandler.Resend)
		protected.POST("/invoices/:id/derivatives", invoiceHandler.CreateDerivative)

		protected.GET("/drafts", draftHandler.GetDraft)
		protected.PUT("/drafts", draftHandler.SaveDraft)
		protected.DELETE("/drafts", draftHandler.ClearDraft)
	}

	return middleware.NewCORS(cfg)(router), nil
}
