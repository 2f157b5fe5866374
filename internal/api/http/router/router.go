package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modkit/modkit-server/internal/api/http/handler"
	"github.com/modkit/modkit-server/internal/api/http/middleware"
	"github.com/modkit/modkit-server/internal/logger"
)

// Router wires HTTP handlers and middleware into the service's route tree.
type Router struct {
	webhook      *handler.Webhook
	plan         *handler.Plan
	secret       *handler.Secret
	authenticate *middleware.Authenticate
	logger       *logger.Logger
}

// New creates a new Router instance.
func New(
	webhook *handler.Webhook,
	plan *handler.Plan,
	secret *handler.Secret,
	authenticate *middleware.Authenticate,
	logger *logger.Logger,
) *Router {
	return &Router{
		webhook:      webhook,
		plan:         plan,
		secret:       secret,
		authenticate: authenticate,
		logger:       logger,
	}
}

// Handler builds the route tree. The webhook endpoint authenticates through
// its own signature verification; everything else under /api/v1 requires a
// bearer token.
func (rt *Router) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.NewLogging(rt.logger).Handle)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.Route("/api/v1", func(api chi.Router) {
		api.Post("/webhooks/billing", rt.webhook.Handle)

		api.Group(func(protected chi.Router) {
			protected.Use(rt.authenticate.Handle)

			protected.Post("/plans", rt.plan.Create)
			protected.Get("/plans/{id}", rt.plan.Get)

			protected.Route("/modules/{namespace}/secrets/{key}", func(secrets chi.Router) {
				secrets.Put("/", rt.secret.Put)
				secrets.Get("/", rt.secret.Get)
				secrets.Delete("/", rt.secret.Delete)
			})
		})
	})

	return mux
}
