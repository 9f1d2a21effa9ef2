package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/arangbara/ppob/internal/balance"
	"github.com/arangbara/ppob/internal/repository"
	"github.com/arangbara/ppob/internal/transaction"
)

// NewRouter creates the Chi router with all API routes mounted. corsOrigin
// is the storefront SPA origin allowed to call the API from a browser.
func NewRouter(
	txnSvc *transaction.Service,
	txnRepo *repository.TransactionRepo,
	productRepo *repository.ProductRepo,
	anomalyRepo *repository.AnomalyRepo,
	balances *balance.Checker,
	corsOrigin string,
) http.Handler {
	h := &Handlers{
		txnSvc:      txnSvc,
		txnRepo:     txnRepo,
		productRepo: productRepo,
		anomalyRepo: anomalyRepo,
		balances:    balances,
		validate:    validator.New(),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{corsOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Transactions.
		r.Post("/transactions", h.SubmitTransaction)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{refID}", h.GetTransaction)

		// Balance.
		r.Get("/balance", h.GetBalance)

		// Products.
		r.Get("/products", h.ListProducts)
		r.Post("/products/sync", h.SyncProducts)

		// Anomalies.
		r.Get("/anomalies", h.ListAnomalies)
		r.Get("/anomalies/summary", h.GetAnomalySummary)

		// Dashboard.
		r.Get("/dashboard", h.GetDashboard)

		r.Get("/healthz", h.Healthz)
	})

	return r
}
