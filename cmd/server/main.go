package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	financeapp "github.com/expensetracker/backend/internal/application/finance"
	identityapp "github.com/expensetracker/backend/internal/application/identity"
	"github.com/expensetracker/backend/internal/infrastructure/auth"
	"github.com/expensetracker/backend/internal/infrastructure/cache"
	"github.com/expensetracker/backend/internal/infrastructure/config"
	"github.com/expensetracker/backend/internal/infrastructure/logger"
	"github.com/expensetracker/backend/internal/infrastructure/persistence"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/scoped"
	"github.com/expensetracker/backend/internal/infrastructure/persistence/tenant"
	"github.com/expensetracker/backend/internal/infrastructure/telemetry"
	"github.com/expensetracker/backend/internal/interfaces/http/handler"
	"github.com/expensetracker/backend/internal/interfaces/http/middleware"
	"github.com/expensetracker/backend/internal/interfaces/http/router"
	"github.com/expensetracker/backend/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting expense tracker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("isolation", cfg.Isolation.Mode),
	)

	ctx := context.Background()

	// Tracing
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Shared state: token revocations and provisioning marks
	stores, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStores(ctx)
	if err != nil {
		log.Fatal("Failed to create stores", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing redis", zap.Error(err))
		}
	}()

	// Isolation
	connRouter, err := tenant.NewRouter(db.DB, cfg.Isolation.DefaultSchema)
	if err != nil {
		log.Fatal("Failed to create connection router", zap.Error(err))
	}
	strategy, err := scoped.New(cfg.Isolation.Mode, db.DB, connRouter)
	if err != nil {
		log.Fatal("Failed to create isolation strategy", zap.Error(err))
	}
	provisioner, err := tenant.NewProvisioner(db.DB, migrations.Tenant(), cfg.Isolation.MigrationsTable, stores.Provisioned, log)
	if err != nil {
		log.Fatal("Failed to load tenant migrations", zap.Error(err))
	}
	if !cfg.SchemaIsolation() {
		// owner mode keeps every finance table in the default schema
		if err := provisioner.Provision(ctx, cfg.Isolation.DefaultSchema); err != nil {
			log.Fatal("Failed to migrate default schema", zap.Error(err))
		}
	}

	// Repositories
	repos, err := persistence.NewFinanceRepositories(db.DB, strategy)
	if err != nil {
		log.Fatal("Failed to create repositories", zap.Error(err))
	}
	principalRepo := persistence.NewGormPrincipalRepository(strategy)
	tenantRepo := persistence.NewGormTenantRepository(strategy)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		principalRepo,
		tenantRepo,
		provisioner,
		auth.NewBcryptHasher(),
		jwtService,
		stores.Blacklist,
		identityapp.AuthServiceConfig{
			SchemaIsolation: cfg.SchemaIsolation(),
			SchemaPrefix:    cfg.Isolation.SchemaPrefix,
		},
		log,
	)
	tenantService := identityapp.NewTenantService(provisioner, log)
	categoryService := financeapp.NewCategoryService(repos.Categories)
	bankService := financeapp.NewBankService(repos.Banks, repos.Cards)
	incomeService := financeapp.NewIncomeService(repos.Incomes)
	expenseService := financeapp.NewExpenseService(repos.Expenses, repos.Cards, repos.Categories, log)
	settingsService := financeapp.NewSettingsService(repos.Settings)
	summaryService := financeapp.NewSummaryService(repos.Incomes, repos.Expenses, repos.Cards)

	// Handlers
	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Category: handler.NewCategoryHandler(categoryService),
		Bank:     handler.NewBankHandler(bankService),
		Income:   handler.NewIncomeHandler(incomeService),
		Expense:  handler.NewExpenseHandler(expenseService),
		Settings: handler.NewSettingsHandler(settingsService),
		Summary:  handler.NewSummaryHandler(summaryService),
		Tenant:   handler.NewTenantHandler(tenantService),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.Ping,
			"redis":    stores.Ping,
		}),
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		Filter: middleware.ContextFilterConfig{
			Verifier:              jwtService,
			Blacklist:             stores.Blacklist,
			GatewaySecret:         cfg.Security.GatewaySecret,
			InternalOperationsKey: cfg.Security.InternalOperationsKey,
			PublicPaths:           cfg.Security.PublicPaths,
			Logger:                log,
		},
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		BodyLimit: middleware.DefaultBodyLimit,
	}, handlers)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
