package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/foliotrack/foliotrack/internal/transport/httpapi/handler"
	"github.com/foliotrack/foliotrack/internal/transport/httpapi/middleware"
	"github.com/foliotrack/foliotrack/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger             *logger.Logger
	AllowedOrigins     []string
	AccountHandler     *handler.AccountHandler
	AssetHandler       *handler.AssetHandler
	TransactionHandler *handler.TransactionHandler
	PortfolioHandler   *handler.PortfolioHandler
	DashboardHandler   *handler.DashboardHandler
	HealthHandler      *handler.HealthHandler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Account routes
		if cfg.AccountHandler != nil {
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.CreateAccount)
				r.Get("/", cfg.AccountHandler.GetAccounts)
				r.Get("/{id}", cfg.AccountHandler.GetAccount)
				r.Get("/{id}/balance", cfg.AccountHandler.GetAccountBalance)
				r.Put("/{id}", cfg.AccountHandler.UpdateAccount)
				r.Delete("/{id}", cfg.AccountHandler.DeleteAccount)
			})
		}

		// Asset routes
		if cfg.AssetHandler != nil {
			r.Route("/assets", func(r chi.Router) {
				r.Post("/", cfg.AssetHandler.CreateAsset)
				r.Get("/", cfg.AssetHandler.ListAssets)
				r.Post("/update_prices", cfg.AssetHandler.UpdatePrices)
				r.Get("/{id}", cfg.AssetHandler.GetAsset)
				r.Get("/{id}/price", cfg.AssetHandler.GetAssetPrice)
				r.Put("/{id}", cfg.AssetHandler.UpdateAsset)
				r.Delete("/{id}", cfg.AssetHandler.DeleteAsset)
			})
		}

		// Transaction routes
		if cfg.TransactionHandler != nil {
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", cfg.TransactionHandler.CreateTransaction)
				r.Get("/", cfg.TransactionHandler.GetTransactions)
				r.Get("/{id}", cfg.TransactionHandler.GetTransaction)
				r.Put("/{id}", cfg.TransactionHandler.UpdateTransaction)
				r.Delete("/{id}", cfg.TransactionHandler.DeleteTransaction)
			})
		}

		// Portfolio routes
		if cfg.PortfolioHandler != nil {
			r.Route("/portfolios", func(r chi.Router) {
				r.Post("/", cfg.PortfolioHandler.CreatePortfolio)
				r.Get("/", cfg.PortfolioHandler.GetPortfolios)
				r.Get("/{id}", cfg.PortfolioHandler.GetPortfolio)
				r.Get("/{id}/summary", cfg.PortfolioHandler.GetPortfolioSummary)
				r.Put("/{id}", cfg.PortfolioHandler.UpdatePortfolio)
				r.Delete("/{id}", cfg.PortfolioHandler.DeletePortfolio)
			})
		}

		// Dashboard routes
		if cfg.DashboardHandler != nil {
			r.Get("/dashboard/stats", cfg.DashboardHandler.GetDashboardStats)
		}
	})

	return r
}
