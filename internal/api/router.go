package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lending-engine/internal/api/handler"
	mw "lending-engine/internal/api/middleware"
	"lending-engine/internal/config"
	"lending-engine/internal/domain/audit"
	"lending-engine/internal/domain/customer"
	"lending-engine/internal/domain/ledger"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/domain/pricing"
	"lending-engine/internal/domain/staff"
)

// Services bundles everything the router needs wired up.
type Services struct {
	Loans     loan.Service
	Ledger    ledger.Service
	Customers customer.Service
	Staff     staff.Service
	Catalog   *pricing.Catalog
	Audit     *audit.Recorder
}

func SetupRouter(svcs Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	authCfg := cfg.Server.Auth
	authHandler := handler.NewAuthHandler(authCfg, svcs.Staff, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
	})

	setupLoanRoutes(router, svcs, authCfg, logger)
	setupCustomerRoutes(router, svcs, authCfg, logger)
	setupStaffRoutes(router, svcs, authCfg, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.Metrics())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupLoanRoutes(router *chi.Mux, svcs Services, authCfg config.AuthConfig, logger *slog.Logger) {
	h := handler.NewLoanHandler(svcs.Loans, svcs.Ledger, svcs.Catalog, logger)

	officerOrAdmin := mw.RequireRoles(authCfg, logger, staff.RoleOfficer, staff.RoleAdmin)
	cashierOrAdmin := mw.RequireRoles(authCfg, logger, staff.RoleCashier, staff.RoleAdmin)
	adminOnly := mw.RequireRoles(authCfg, logger, staff.RoleAdmin)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(authCfg, logger))
		r.Get("/", h.ListLoans)
		r.With(officerOrAdmin).Post("/", h.CreateLoan)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetLoan)
			r.With(officerOrAdmin).Put("/", h.EditLoan)
			r.With(officerOrAdmin).Post("/approve", h.ApproveLoan)
			r.With(adminOnly).Post("/default", h.DefaultLoan)
			r.With(cashierOrAdmin).Post("/payments", h.MakePayment)
			r.Get("/schedule", h.GetSchedule)
			r.Get("/transactions", h.ListTransactions)
		})
	})

	router.Route("/products", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(authCfg, logger))
		r.Get("/", h.ListProducts)
	})
}

func setupCustomerRoutes(router *chi.Mux, svcs Services, authCfg config.AuthConfig, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svcs.Customers, svcs.Loans, logger)

	officerOrAdmin := mw.RequireRoles(authCfg, logger, staff.RoleOfficer, staff.RoleAdmin)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(authCfg, logger))
		r.Get("/", h.ListCustomers)
		r.With(officerOrAdmin).Post("/", h.CreateCustomer)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.With(officerOrAdmin).Put("/", h.UpdateCustomer)
			r.With(officerOrAdmin).Post("/status", h.ToggleCustomerStatus)
			r.Get("/active-loan", h.HasActiveLoan)
		})
	})
}

func setupStaffRoutes(router *chi.Mux, svcs Services, authCfg config.AuthConfig, logger *slog.Logger) {
	h := handler.NewStaffHandler(svcs.Staff, svcs.Audit, logger)

	adminOnly := mw.RequireRoles(authCfg, logger, staff.RoleAdmin)

	router.Route("/staff", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(authCfg, logger))
		r.Use(adminOnly)
		r.Post("/", h.CreateStaff)
		r.Get("/", h.ListStaff)
		r.Route("/{staffID}", func(r chi.Router) {
			r.Put("/", h.UpdateStaff)
			r.Delete("/", h.DeleteStaff)
			r.Post("/status", h.ToggleStaffStatus)
		})
	})

	router.Route("/audit", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(authCfg, logger))
		r.Use(adminOnly)
		r.Get("/", h.ListAuditLog)
	})
}
