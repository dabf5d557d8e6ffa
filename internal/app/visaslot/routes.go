// Package visaslot предоставляет маршруты для основного приложения.
package visaslot

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/visaslot-backend/internal/config"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/payment/checkout"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/user/confirmpayment"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/user/read"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/handlers/user/upsert"
	"github.com/magabrotheeeer/visaslot-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/visaslot-backend/internal/paymentprovider"
	reconcileservice "github.com/magabrotheeeer/visaslot-backend/internal/services/reconcile"
	subservice "github.com/magabrotheeeer/visaslot-backend/internal/services/subscriber"
	"github.com/magabrotheeeer/visaslot-backend/internal/storage"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, db *storage.Storage,
	subscriberService *subservice.SubscriberService, reconcileService *reconcileservice.Service,
	providerClient *paymentprovider.Client) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.CORSMiddleware(cfg.AllowedOrigins),
	)

	r.Route("/api", func(r chi.Router) {
		// Webhook endpoint: сырое тело, без rate limit —
		// ограничивать доставку провайдера нельзя
		r.Post("/webhook", webhook.New(logger, reconcileService).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/users", upsert.New(logger, subscriberService).ServeHTTP)
			r.Get("/users/{email}", read.New(logger, subscriberService).ServeHTTP)
			r.Post("/users/confirm-payment", confirmpayment.New(logger, subscriberService).ServeHTTP)
			r.Post("/create-checkout-session", checkout.New(logger, providerClient).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
