package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Lianues/LeiNaoArena/internal/adapters/catalog"
	"github.com/Lianues/LeiNaoArena/internal/adapters/http/api"
	"github.com/Lianues/LeiNaoArena/internal/adapters/http/site"
	"github.com/Lianues/LeiNaoArena/internal/adapters/http/swagger"
	"github.com/Lianues/LeiNaoArena/internal/adapters/repository"
	app "github.com/Lianues/LeiNaoArena/internal/app"
	"github.com/Lianues/LeiNaoArena/internal/config"
	"github.com/Lianues/LeiNaoArena/pkg/logger"
	"github.com/Lianues/LeiNaoArena/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// The custom registry carries all arena metrics; the default Go and
	// process collectors would only duplicate what /healthz serves.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// An inline pool wins; the catalog file is the fallback.
	pool := catalog.Normalize(cfg.ModelPool)
	if len(pool) == 0 && cfg.ModelPoolFile != "" {
		pool, err = catalog.LoadPool(cfg.ModelPoolFile)
		if err != nil {
			log.Error(ctx, "failed to load model pool file", logger.String("path", cfg.ModelPoolFile), logger.Error(err))
			return
		}
	}
	if len(pool) < 2 {
		log.Error(ctx, "model pool needs at least two models", logger.Int("pool_size", len(pool)))
		return
	}

	opts := []app.Option{
		app.WithLogger(log.Named("engine")),
		app.WithPool(pool),
		app.WithKFactor(cfg.KFactor),
		app.WithBaseline(cfg.BaselineRating),
		app.WithLockWait(time.Duration(cfg.LockWaitMS) * time.Millisecond),
		app.WithJournalQueueSize(cfg.JournalQueueSize),
		app.WithJournalWorkers(cfg.JournalWorkers),
	}
	if cfg.DBPath != "" {
		store, err := repository.NewSQLStore(ctx, cfg.DBPath)
		if err != nil {
			log.Error(ctx, "failed to open database", logger.String("path", cfg.DBPath), logger.Error(err))
			return
		}
		opts = append(opts, app.WithStore(store))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start battle engine", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()

	// Front page and API docs.
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically refreshes the gauges derived from
// service state. GetStats pushes the session counts itself.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if depth, ok := stats["journal_depth"].(int); ok {
				metrics.UpdateJournalDepth(depth)
			}
			if tracked, ok := stats["models_tracked"].(int); ok {
				metrics.UpdateModelsTracked(tracked)
			}
		}
	}
}
