package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/ladder/internal/adapters/eventlog"
	"github.com/okian/ladder/internal/adapters/http/api"
	"github.com/okian/ladder/internal/adapters/http/live"
	"github.com/okian/ladder/internal/adapters/http/swagger"
	app "github.com/okian/ladder/internal/app"
	"github.com/okian/ladder/internal/config"
	"github.com/okian/ladder/internal/domain/rating"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	day                       = 24 * time.Hour
)

func main() {
	// We collect our own system metrics on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> .env -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	events, err := openEventLog(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open event log", logger.String("store", cfg.Store), logger.Error(err))
		os.Exit(1)
	}

	svc := newService(cfg, events, loggerInstance)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		_ = events.Close()
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	hub := live.NewHub(svc, live.WithLogger(loggerInstance.Named("live")))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc, hub, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	// Hijacked websocket connections outlive Shutdown.
	_ = hub.Close()

	loggerInstance.Info(ctx, "server stopped")
}

// openEventLog opens the backend named by cfg.Store.
func openEventLog(ctx context.Context, cfg *config.Config) (eventlog.Log, error) {
	return eventlog.Open(ctx, eventlog.Options{
		Kind:          cfg.Store,
		SQLitePath:    cfg.SQLitePath,
		PostgresDSN:   cfg.PostgresDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisKey:      cfg.RedisKey,
		BoltPath:      cfg.BoltPath,
	})
}

// newEngine builds the rating engine from configuration.
func newEngine(cfg *config.Config) *rating.Engine {
	opts := []rating.Option{
		rating.WithDefaultRating(cfg.DefaultRating),
		rating.WithKFactors(cfg.KSingles, cfg.KDoubles),
		rating.WithScale(cfg.Scale),
		rating.WithNewPlayerMarker(cfg.NewPlayerMarker),
	}
	if len(cfg.SeedRatings) > 0 {
		opts = append(opts, rating.WithSeeds(cfg.SeedRatings))
	}
	return rating.NewEngine(opts...)
}

// newService wires the service from configuration.
func newService(cfg *config.Config, events eventlog.Log, l logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(l),
		app.WithEventLog(events),
		app.WithEngine(newEngine(cfg)),
		app.WithActivityWindow(time.Duration(cfg.ActivityWindowDays)*day),
		app.WithDedupeSize(cfg.DedupeSize),
	)
}

// newRouter registers the docs, business and live routes.
func newRouter(svc *app.Service, hub *live.Hub, l logger.Logger) chi.Router {
	r := chi.NewRouter()
	swagger.Register(r)
	api.NewServer(svc, api.WithLogger(l.Named("api")), api.WithNotifier(hub)).Register(r)
	hub.Register(r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
