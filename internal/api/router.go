package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/portalops/ledger-backend/internal/api/handlers"
	"github.com/portalops/ledger-backend/internal/auth"
	"github.com/portalops/ledger-backend/internal/config"
	"github.com/portalops/ledger-backend/internal/metrics"
	"github.com/portalops/ledger-backend/internal/middleware"
	"github.com/portalops/ledger-backend/internal/models"
	"github.com/portalops/ledger-backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	TM         *auth.TokenManager
	UserSvc    *services.UserService
	ClientSvc  *services.ClientService
	BalanceSvc *services.BalanceService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authHandler := handlers.NewAuthHandler(d.UserSvc)
	clientsHandler := handlers.NewClientsHandler(d.ClientSvc)
	ledgerHandler := handlers.NewLedgerHandler(d.BalanceSvc)
	gatewayHandler := handlers.NewGatewayHandler(d.BalanceSvc)
	am := middleware.NewAuthMiddleware(d.TM, d.Cfg.GatewayKeys)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		// gateway callbacks use shared-key auth, not JWT
		r.Group(func(r chi.Router) {
			r.Use(am.GatewayAuth)
			r.Post("/gateway/payments", gatewayHandler.Payment)
		})

		r.Group(func(r chi.Router) {
			r.Use(am.Auth)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleViewer))
				r.Get("/clients", clientsHandler.List)
				r.Get("/clients/{id}", clientsHandler.Get)
				r.Get("/clients/{id}/balance", ledgerHandler.Balance)
				r.Get("/clients/{id}/ledger", ledgerHandler.History)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Post("/clients", clientsHandler.Create)
				r.Post("/clients/{id}/ledger", ledgerHandler.Adjust)
				r.Post("/clients/{id}/balance/recompute", ledgerHandler.Recompute)
			})
		})
	})

	return r
}
