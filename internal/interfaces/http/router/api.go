package router

import (
	"github.com/expensetracker/backend/internal/infrastructure/logger"
	"github.com/expensetracker/backend/internal/interfaces/http/handler"
	"github.com/expensetracker/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	Auth     *handler.AuthHandler
	Category *handler.CategoryHandler
	Bank     *handler.BankHandler
	Income   *handler.IncomeHandler
	Expense  *handler.ExpenseHandler
	Settings *handler.SettingsHandler
	Summary  *handler.SummaryHandler
	Tenant   *handler.TenantHandler
	Health   *handler.HealthHandler
}

// EngineConfig configures the middleware chain of the API engine
type EngineConfig struct {
	Logger    *zap.Logger
	Filter    middleware.ContextFilterConfig
	CORS      middleware.CORSConfig
	Tracing   middleware.TracingConfig
	BodyLimit int64
}

// NewEngine builds the gin engine with the full middleware chain and every
// API route. /health is served outside the context filter.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Filter.Logger == nil {
		cfg.Filter.Logger = log
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = middleware.DefaultBodyLimit
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(cfg.Tracing),
		middleware.SpanErrorMarker(),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.BodyLimit),
	)

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"), WithMiddleware(middleware.ContextFilter(cfg.Filter)))

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	r.Register(auth)

	categories := NewDomainGroup("categories", "/categories")
	categories.GET("", h.Category.List)
	categories.POST("", h.Category.Create)
	categories.GET("/:id", h.Category.GetByID)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)
	r.Register(categories)

	banks := NewDomainGroup("banks", "/banks")
	banks.GET("", h.Bank.ListBanks)
	banks.POST("", h.Bank.CreateBank)
	banks.GET("/:id", h.Bank.GetBank)
	banks.PUT("/:id", h.Bank.UpdateBank)
	banks.DELETE("/:id", h.Bank.DeleteBank)
	r.Register(banks)

	cards := NewDomainGroup("cards", "/cards")
	cards.GET("", h.Bank.ListCards)
	cards.POST("", h.Bank.CreateCard)
	cards.GET("/:id", h.Bank.GetCard)
	cards.PUT("/:id", h.Bank.UpdateCard)
	cards.DELETE("/:id", h.Bank.DeleteCard)
	r.Register(cards)

	incomes := NewDomainGroup("incomes", "/incomes")
	incomes.GET("", h.Income.List)
	incomes.POST("", h.Income.Create)
	incomes.GET("/:id", h.Income.GetByID)
	incomes.PUT("/:id", h.Income.Update)
	incomes.DELETE("/:id", h.Income.Delete)
	r.Register(incomes)

	expenses := NewDomainGroup("expenses", "/expenses")
	expenses.GET("", h.Expense.List)
	expenses.POST("", h.Expense.Create)
	expenses.GET("/:id", h.Expense.GetByID)
	expenses.PUT("/:id", h.Expense.Update)
	expenses.DELETE("/:id", h.Expense.Delete)
	r.Register(expenses)

	settings := NewDomainGroup("settings", "/settings")
	settings.GET("", h.Settings.Get)
	settings.PUT("", h.Settings.Update)
	r.Register(settings)

	summary := NewDomainGroup("summary", "/summary")
	summary.GET("", h.Summary.Monthly)
	r.Register(summary)

	tenants := NewDomainGroup("tenants", "/tenants").Use(middleware.RequireInternal())
	tenants.POST("/migrate", h.Tenant.Migrate)
	r.Register(tenants)

	r.Setup()
	return engine
}
