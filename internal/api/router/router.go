package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/hospitalquick/platform/internal/http/middleware"
	"github.com/hospitalquick/platform/internal/ussd"
	"github.com/hospitalquick/platform/internal/webhooks"
	"github.com/hospitalquick/platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	USSDHandler     *ussd.Handler
	WebhooksHandler *webhooks.Handler
	MetricsHandler  http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/ussd", cfg.USSDHandler.HandleUSSD)
		if cfg.WebhooksHandler != nil {
			api.Post("/webhooks/sms", cfg.WebhooksHandler.HandleSMSDelivery)
			api.Post("/webhooks/payment", cfg.WebhooksHandler.HandlePayment)
		}
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
