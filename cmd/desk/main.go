package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contractor-desk/contractor-desk/internal/app"
	"github.com/contractor-desk/contractor-desk/internal/auth"
	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata"
	"github.com/contractor-desk/contractor-desk/internal/observability"
	"github.com/contractor-desk/contractor-desk/internal/platform/cache"
	"github.com/contractor-desk/contractor-desk/internal/shared"
	"github.com/contractor-desk/contractor-desk/internal/view"
	"github.com/contractor-desk/contractor-desk/report"
)

const deskPruneInterval = 10 * time.Minute

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "desk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	api := backend.NewClient(cfg.APIBaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		backend.WithLogger(logger),
		backend.WithRecorder(metrics),
	)

	var pdf masterdata.PDFRenderer
	gotenberg := report.NewClient(cfg.GotenbergURL, cfg.AppRequestTimeout)
	if gotenberg.Enabled() {
		if err := gotenberg.Ping(ctx); err != nil {
			logger.Warn("gotenberg ping", slog.Any("error", err))
		}
		pdf = gotenberg
	}

	desks := masterdata.NewDesks(api)
	authHandler := auth.NewHandler(logger, auth.NewService(api.Bind(nil)), templates, sessionManager, csrfManager, desks)
	masterDataHandler := masterdata.NewHandler(logger, templates, csrfManager, desks, pdf)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		MasterDataHandler: masterDataHandler,
		Backend:           api,
		Sessions:          cache.NewChecker(redisClient),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go pruneDesks(ctx, logger, desks, metrics, cfg.SessionTTL)

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", api.BaseURL()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// pruneDesks drops workspaces whose browser session has outlived its TTL.
func pruneDesks(ctx context.Context, logger *slog.Logger, desks *masterdata.Desks, metrics *observability.Metrics, ttl time.Duration) {
	ticker := time.NewTicker(deskPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := desks.Prune(now.Add(-ttl)); n > 0 {
				logger.Debug("pruned idle desks", slog.Int("count", n))
			}
			metrics.SetActiveDesks(desks.Len())
		}
	}
}
