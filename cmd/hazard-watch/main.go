package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mr1hm/go-hazard-watch/internal/api"
	"github.com/mr1hm/go-hazard-watch/internal/cache"
	"github.com/mr1hm/go-hazard-watch/internal/config"
	"github.com/mr1hm/go-hazard-watch/internal/ingestion"
	"github.com/mr1hm/go-hazard-watch/internal/logging"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/notify"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/places"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "db_backend", cfg.DB.Backend)

	store, err := openStore(cfg.DB)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// Event cache with scheduled retention sweep
	eventCache := cache.New(store, cfg.Cache.Retention, clock, metrics)
	if err := eventCache.StartPruner(ctx, cfg.Cache.PruneSchedule); err != nil {
		logging.Fatalf("Failed to start cache pruner: %v", err)
	}

	defaults := preferences.Defaults()
	defaults.PollingFrequency = cfg.Poll.DefaultInterval.Milliseconds()
	prefs := preferences.NewStore(store, clock, defaults)
	prefs.Init(ctx)

	book := places.NewBook(store, clock)
	layers := preferences.NewLayers()

	// Notices fan out to SSE subscribers
	broadcaster := notify.NewBroadcaster()
	registry.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "hazard_watch",
		Name:      "notice_deliveries_dropped_total",
		Help:      "Notice deliveries skipped because a stream subscriber fell behind.",
	}, func() float64 { return float64(broadcaster.Dropped()) }))
	notifier := notify.NewNotifier(prefs, book, broadcaster, clock, metrics, cfg.Worker.Count, cfg.Worker.BufferSize)
	notifier.Start(ctx)

	fetcher := sources.NewFetcher(&http.Client{Timeout: cfg.Sources.HTTPTimeout}, metrics)
	mgr := ingestion.NewManager(ingestion.Sources{
		Earthquakes: sources.NewUSGS(fetcher, cfg.Sources.SeismicBaseURL),
		Tsunami: []ingestion.TsunamiSource{
			sources.NewNOAA(fetcher, cfg.Sources.TsunamiAlertsURL),
			sources.NewDerivedTsunami(fetcher, cfg.Sources.TsunamiDerivedURL),
			sources.InfoTsunami{},
		},
		Plates:    sources.NewPlates(fetcher, cfg.Sources.PlatesURL),
		Nuclear:   sources.NewNuclear(fetcher, cfg.Sources.NuclearURL, cfg.Sources.NuclearTimeout),
		Volcanoes: sources.Volcanoes,
	}, eventCache, prefs, ingestion.Options{
		Clock:     clock,
		Metrics:   metrics,
		Observer:  notifier,
		StaticTTL: cfg.Sources.StaticDataTTL,
	})
	mgr.Start(ctx)
	prefs.OnChange(func(prev, next models.Preferences) {
		if prev.PollingFrequency != next.PollingFrequency {
			mgr.PollIntervalChanged()
		}
	})

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS, "/health", "/metrics", "/api/status/stream", "/api/notices/stream"))

	handler := api.NewHandler(api.Deps{
		Feeds:    mgr,
		Prefs:    prefs,
		Places:   book,
		Layers:   layers,
		Notices:  broadcaster,
		Gatherer: registry,
		Clock:    clock,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	notifier.Stop()
	broadcaster.Close() // Close all streams gracefully
	eventCache.StopPruner()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func openStore(cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return repository.NewMemoryStore(), nil
	default:
		db, err := repository.NewSQLiteDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}
