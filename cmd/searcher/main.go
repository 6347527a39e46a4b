// Command searcher serves the API search index over HTTP.
//
// It loads the configured blob (or the newest container in the data
// directory), keeps it fresh through a file watcher and index.published
// events, and answers as-you-type queries with stale-response discard.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/watcher"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index", cfg.Index.Path, "data_dir", cfg.Index.DataDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	shutdownMetrics := metrics.StartServer(cfg.Metrics, prometheus.DefaultGatherer)
	defer shutdownMetrics(context.Background())

	checker := health.NewChecker()

	// Analytics: always aggregated in process, optionally shipped to Kafka.
	agg := analytics.NewAggregator()
	recorders := []indexer.LoadRecorder{agg}
	trackers := []analytics.Tracker{agg}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		batch := collector.NewBatchCollector(producer, 100, 5*time.Second)
		batch.Start(ctx)
		defer batch.Close()
		trackers = append(trackers, batch)
		recorders = append(recorders, batch)
		slog.Info("analytics events shipped to kafka", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, load history not persisted", "error", err)
		} else {
			defer db.Close()
			if err := db.EnsureSchema(ctx); err != nil {
				slog.Error("failed to apply schema", "error", err)
				os.Exit(1)
			}
			recorders = append(recorders, aggregator.NewStore(db))
			checker.Register("postgres", health.Ping(db.Ping, true))
		}
	}

	engine := indexer.NewEngine(cfg.Index, m)
	engine.SetTracer(tracing.New(cfg.Tracing))
	engine.SetRecorder(indexer.Recorders(recorders...))
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		st := engine.Status()
		if !st.Loaded {
			return health.ComponentHealth{Status: health.StatusDown, Message: st.LastError}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: "version " + st.Stats.Version}
	})

	if _, err := engine.Reload(ctx, "startup"); err != nil {
		// Serve anyway: queries fail closed until a later reload succeeds.
		slog.Error("initial index load failed", "error", err)
	}

	// Query cache: local LRU, plus redis when configured and reachable.
	var remote cache.Remote
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, using local cache only", "error", err)
		} else {
			defer redisClient.Close()
			remote = redisClient
			checker.Register("redis", health.Ping(redisClient.Ping, true))
		}
	}
	queryCache, err := cache.New(remote, cfg.Redis, m)
	if err != nil {
		slog.Error("failed to create query cache", "error", err)
		os.Exit(1)
	}
	engine.OnSwap(func(old, cur *index.Snapshot) {
		if old != nil {
			queryCache.Purge()
		}
	})

	if cfg.Index.Watch {
		w, err := watcher.New(engine, cfg.Index)
		if err != nil {
			slog.Error("failed to start index watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("index watcher error", "error", err)
			}
		}()
	}

	if cfg.Kafka.Enabled {
		retry := resilience.RetryConfig{MaxAttempts: 5, InitialDelay: 200 * time.Millisecond}
		// Each replica has its own group so every searcher sees every
		// publication.
		host, _ := os.Hostname()
		reloads := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexPublished,
			consumer.HandleMessage(engine, retry),
			kafka.WithGroupID(cfg.Kafka.ConsumerGroup+"-searcher-"+host)))
		checker.Register("kafka", health.Ping(kafka.Ping(cfg.Kafka.Brokers), true))
		go func() {
			if err := reloads.Start(ctx); err != nil {
				slog.Error("reload consumer error", "error", err)
			}
		}()
	}

	sessions, err := executor.NewTracker(cfg.Search.SessionCapacity)
	if err != nil {
		slog.Error("failed to create session tracker", "error", err)
		os.Exit(1)
	}
	exec := executor.New(engine, cfg.Search, m)
	searchHandler := handler.New(exec, queryCache, sessions, engine, analytics.Multi(trackers...), cfg.Search, m)
	analyticsHandler := analytics.NewHandler(agg)

	mux := http.NewServeMux()
	searchHandler.Register(mux)
	analyticsHandler.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging(slog.Default()),
		middleware.Metrics(m),
		middleware.CORS(corsCfg),
	}
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.New(cfg.RateLimit)
		if err != nil {
			slog.Error("failed to create rate limiter", "error", err)
			os.Exit(1)
		}
		mws = append(mws, middleware.RateLimit(limiter, m))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
