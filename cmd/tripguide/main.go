package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/api"
	"github.com/Kerhoff/TripGuide/internal/config"
	"github.com/Kerhoff/TripGuide/internal/extract"
	"github.com/Kerhoff/TripGuide/internal/handlers"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/metrics"
	"github.com/Kerhoff/TripGuide/internal/repository"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/internal/repository/postgres"
	"github.com/Kerhoff/TripGuide/internal/service"
	"github.com/Kerhoff/TripGuide/internal/telegram"
	"github.com/Kerhoff/TripGuide/internal/wizard"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting TripGuide...")

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Storage
	var store repository.Store
	if cfg.MemoryStore {
		l.Warn("Using in-memory store, data is lost on exit")
		store = memstore.New()
	} else {
		db, err := config.NewDatabase(ctx, cfg.DatabaseURL, l)
		if err != nil {
			l.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(cfg.MigrationsPath); err != nil {
			l.Fatalf("Failed to run migrations: %v", err)
		}
		store = postgres.NewStore(db.DB)
	}

	// Media
	objects, err := media.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
	if err != nil {
		l.Fatalf("Failed to open media store: %v", err)
	}
	pipeline := media.NewPipeline(objects, media.PipelineConfig{
		TempDir:      cfg.TempDir,
		MaxBytes:     cfg.MaxImageBytes,
		MaxPixels:    cfg.MaxImagePixels,
		FetchTimeout: cfg.FetchTimeout,
	}, l)

	// Document extraction is optional
	var extractor extract.Extractor
	if cfg.ExtractorURL != "" {
		extractor = extract.NewClient(cfg.ExtractorURL, cfg.ExtractorToken, 2*cfg.FetchTimeout, l)
	} else {
		l.Warn("EXTRACTOR_URL not set, URL and PDF import disabled")
	}

	// Service layer
	svc := service.New(store, pipeline, l)
	orch := wizard.New(store, pipeline, extractor, l)

	// Telegram bot
	var onStatus service.StatusCallback
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramAdminChatID, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram bot: %v", err)
		}
		orch.SetNotifier(bot)
		onStatus = bot.TripStatusChanged

		bot.RegisterCommand("start", handlers.NewStartHandler(l))
		bot.RegisterCommand("help", handlers.NewHelpHandler(l))
		bot.RegisterCommand("trips", handlers.NewTripsHandler(svc, l))
		bot.RegisterCommand("trip", handlers.NewTripHandler(svc, l))

		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	// Background jobs
	go orch.StartSweeper(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTimeout)
	go svc.StartStatusScheduler(ctx, cfg.StatusCheckInterval, onStatus)

	// HTTP API
	apiServer := api.NewServer(svc, orch, api.Options{
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
		MediaRoot:      cfg.MediaRoot,
		MediaPath:      mediaPath(cfg.MediaBaseURL),
		MaxUploadBytes: 2 * cfg.MaxImageBytes,
	}, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              ":" + cfg.PrometheusPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	for name, srv := range map[string]*http.Server{"HTTP": httpServer, "Metrics": metricsServer} {
		go serve(l, name, srv)
	}

	l.Info("TripGuide started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP servers...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	for _, srv := range []*http.Server{httpServer, metricsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.WithError(err).Warn("Server shutdown incomplete")
		}
	}

	l.Info("TripGuide stopped")
}

func serve(l *logrus.Logger, name string, srv *http.Server) {
	l.Infof("%s server listening on %s", name, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Errorf("%s server error: %v", name, err)
	}
}

// mediaPath returns the URL path media is served under, or "" when the base
// URL points at another host.
func mediaPath(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host != "" {
		return ""
	}
	return u.Path
}
