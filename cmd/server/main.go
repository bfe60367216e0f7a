package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mediastream/sourceservice/internal/aggregate"
	apihttp "mediastream/sourceservice/internal/api/http"
	"mediastream/sourceservice/internal/app"
	"mediastream/sourceservice/internal/endpoints"
	"mediastream/sourceservice/internal/fetch"
	"mediastream/sourceservice/internal/metadata"
	"mediastream/sourceservice/internal/metrics"
	"mediastream/sourceservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "source-aggregator")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "source-aggregator"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("fetchTimeout", cfg.FetchTimeout),
		slog.Duration("runTimeout", cfg.RunTimeout),
		slog.Duration("cacheTTL", cfg.CacheTTL),
		slog.Int("primaryEndpoints", len(cfg.Primary)),
		slog.Int("secondaryEndpoints", len(cfg.Secondary)),
		slog.Int("fallbackEndpoints", len(cfg.Fallback)),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("hasMetadataKey", cfg.MetadataAPIKey != ""),
	)

	redisClient := connectRedis(cfg.RedisURL, logger)

	fetcher := fetch.New(fetch.Config{
		MaxRetries:     cfg.FetchRetries,
		InitialDelay:   cfg.RetryDelay,
		AttemptTimeout: cfg.FetchTimeout,
		UserAgent:      cfg.UserAgent,
		Client:         &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Logger:         logger,
	})

	router := endpoints.NewRouter(endpoints.Config{
		Primary:   cfg.Primary,
		Secondary: cfg.Secondary,
		Fallback:  cfg.Fallback,
	})

	serviceOpts := []aggregate.ServiceOption{
		aggregate.WithLogger(logger),
		aggregate.WithCacheTTL(cfg.CacheTTL),
		aggregate.WithRunTimeout(cfg.RunTimeout),
		aggregate.WithTierPacing(cfg.TierPacing),
	}
	if cfg.MetadataAPIKey != "" {
		oracle := metadata.NewClient(metadata.Config{
			APIKey:  cfg.MetadataAPIKey,
			BaseURL: cfg.MetadataURL,
			Client:  &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Redis:   redisClient,
		})
		serviceOpts = append(serviceOpts, aggregate.WithMetadata(oracle))
	} else {
		logger.Info("metadata api key not configured, validation oracle disabled")
	}

	serverOpts := []apihttp.ServerOption{apihttp.WithLogger(logger)}
	if redisClient != nil {
		backend := aggregate.NewRedisCacheBackend(redisClient)
		serviceOpts = append(serviceOpts, aggregate.WithRedisCache(backend))
		serverOpts = append(serverOpts, apihttp.WithRedisPinger(backend))
	}

	aggregator := aggregate.NewService(fetcher, router, serviceOpts...)

	handler := apihttp.NewServer(aggregator, serverOpts...).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Aggregation runs can take up to the full run timeout before the
		// response is written.
		WriteTimeout: cfg.RunTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("source aggregator started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("source aggregator stopped")
}

func connectRedis(rawURL string, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(rawURL)
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", opts.Addr))
	return client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
