package httpx

import (
	"encoding/json"
	"net/http"

	"billbridge/internal/http/handlers"
	middlewarex "billbridge/internal/http/middleware"
	"billbridge/internal/provider/registry"
	"billbridge/internal/store/repositories"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the HTTP router
type RouterDependencies struct {
	Registry *registry.Registry
	Events   repositories.EventRepository
}

// NewRouter creates the HTTP router
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})
	r.Get("/health/providers", handlers.ProvidersHealth(deps.Registry))

	// API routes (caller identity required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarex.UserAuth())

		r.Get("/providers", handlers.ListProviders(deps.Registry))

		// Bill payments
		r.Route("/bills", func(r chi.Router) {
			r.Get("/providers/{category}", handlers.BillProviders(deps.Registry))
			r.Get("/data-plans/{vendor}", handlers.DataPlans(deps.Registry))
			r.Get("/tv-packages/{vendor}", handlers.TVPackages(deps.Registry))
			r.Post("/validate", handlers.ValidateCustomer(deps.Registry))
			r.Post("/pay", handlers.PayBill(deps.Registry))
			r.Get("/transactions", handlers.ListTransactions(deps.Registry))
			r.Get("/transactions/{reference}", handlers.GetTransaction(deps.Registry))
			r.Post("/favorites", handlers.SaveFavorite(deps.Registry))
			r.Get("/favorites", handlers.ListFavorites(deps.Registry))
			r.Delete("/favorites/{id}", handlers.DeleteFavorite(deps.Registry))
		})

		// Subscription plans
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", handlers.ListPlans(deps.Registry))
			r.Post("/", handlers.CreatePlan(deps.Registry))
			r.Get("/{id}", handlers.GetPlan(deps.Registry))
			r.Patch("/{id}", handlers.UpdatePlan(deps.Registry))
			r.Post("/{id}/deactivate", handlers.DeactivatePlan(deps.Registry))
		})

		// Subscriptions
		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/", handlers.ListUserSubscriptions(deps.Registry))
			r.Post("/", handlers.CreateSubscription(deps.Registry))
			r.Get("/{id}", handlers.GetSubscription(deps.Registry))
			r.Patch("/{id}", handlers.UpdateSubscription(deps.Registry))
			r.Post("/{id}/cancel", handlers.CancelSubscription(deps.Registry))
			r.Post("/{id}/suspend", handlers.SuspendSubscription(deps.Registry))
			r.Post("/{id}/resume", handlers.ResumeSubscription(deps.Registry))
		})
	})

	// Webhook endpoints (public, validated by provider signature)
	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/{provider}", handlers.WebhookIntake(deps.Registry, deps.Events))
	})

	return r
}
