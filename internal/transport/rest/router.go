package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/course-payments/internal/auth"
	"github.com/frahmantamala/course-payments/internal/paymentrequest"
	"github.com/frahmantamala/course-payments/internal/transport/middleware"
	"github.com/frahmantamala/course-payments/internal/transport/swagger"
	"github.com/frahmantamala/course-payments/internal/user"
)

// Handlers groups what RegisterAllRoutes mounts. A nil handler leaves its routes out.
type Handlers struct {
	Auth           *auth.Handler
	User           *user.Handler
	PaymentRequest *paymentrequest.Handler
	Health         *HealthHandler
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, allowedOrigins string, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(logger)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Method("GET", swagger.SpecPath, swagger.SpecHandler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.PaymentRequest == nil {
				return
			}

			pr.Get("/collections/{id}/access", h.PaymentRequest.HasAccess)

			pr.Route("/admin/payment-requests", func(ar chi.Router) {
				ar.Use(rbac.RequireAdmin())
				ar.Get("/", h.PaymentRequest.List)
				ar.Post("/action", h.PaymentRequest.Act)
				ar.Get("/{id}", h.PaymentRequest.Get)
			})
		})
	})
}
