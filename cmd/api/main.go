package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hospitalquick/platform/internal/accounts"
	"github.com/hospitalquick/platform/internal/api/router"
	"github.com/hospitalquick/platform/internal/app/bootstrap"
	"github.com/hospitalquick/platform/internal/booking"
	"github.com/hospitalquick/platform/internal/catalog"
	appconfig "github.com/hospitalquick/platform/internal/config"
	"github.com/hospitalquick/platform/internal/notify"
	"github.com/hospitalquick/platform/internal/observability/metrics"
	"github.com/hospitalquick/platform/internal/session"
	"github.com/hospitalquick/platform/internal/ussd"
	"github.com/hospitalquick/platform/internal/webhooks"
	"github.com/hospitalquick/platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hospitalquick API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"service_code", cfg.ServiceCode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	ussdMetrics := metrics.NewUSSDMetrics(prometheus.DefaultRegisterer)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	sessions := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if mem, ok := sessions.(*session.MemoryStore); ok {
		go sampleLiveSessions(ctx, mem, ussdMetrics, cfg.SessionSweepInterval)
	}

	smsSender := buildSMSSender(cfg, logger)
	notifier := notify.NewService(smsSender, cfg.SupportPhone, logger)

	catalogRepo := catalog.NewRepository(pool)
	accountService := accounts.NewService(pool, notifier, logger)
	bookingManager := booking.NewManager(pool, notifier, bookingMetrics, logger)

	engine := ussd.NewEngine(catalogRepo, accountService, bookingManager, cfg.ServiceCode, cfg.SupportPhone, logger)
	ussdHandler := ussd.NewHandler(engine, sessions, ussdMetrics, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		USSDHandler:     ussdHandler,
		WebhooksHandler: webhooks.NewHandler(logger),
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildSMSSender picks the SMS backend. Only the logging sender ships
// today; real providers slot in behind the same interface.
func buildSMSSender(cfg *appconfig.Config, logger *logging.Logger) notify.SMSSender {
	switch cfg.SMSProvider {
	case "log", "":
		return notify.NewLogSender(cfg.SMSSenderID, logger)
	default:
		logger.Warn("unknown SMS provider, falling back to log sender", "provider", cfg.SMSProvider)
		return notify.NewLogSender(cfg.SMSSenderID, logger)
	}
}

// sampleLiveSessions keeps the live-session gauge current for the
// in-memory store. The Redis store's sessions expire server-side, so
// there is nothing to count locally.
func sampleLiveSessions(ctx context.Context, store *session.MemoryStore, m *metrics.USSDMetrics, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetLiveSessions(store.Len())
		}
	}
}
