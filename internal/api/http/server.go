package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"mediastream/sourceservice/internal/aggregate"
	"mediastream/sourceservice/internal/domain"
)

// Aggregator is the service surface the HTTP layer depends on.
type Aggregator interface {
	AggregateMovie(ctx context.Context, contentID, title string, year int) (*domain.AggregationResult, error)
	AggregateSeries(ctx context.Context, contentID, title string) (*domain.AggregationResult, error)
}

// Pinger reports whether an optional backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	aggregator Aggregator
	redis      Pinger
	logger     *slog.Logger
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRedisPinger(pinger Pinger) ServerOption {
	return func(s *Server) {
		s.redis = pinger
	}
}

func NewServer(aggregator Aggregator, options ...ServerOption) *Server {
	server := &Server{
		aggregator: aggregator,
		logger:     slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/sources/health", s.handleSourcesHealth)
	mux.HandleFunc("/sources/movie/", s.handleMovie)
	mux.HandleFunc("/sources/series/", s.handleSeries)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "source-aggregator",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSourcesHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	payload := map[string]any{
		"status":    "ok",
		"checkedAt": time.Now().UTC(),
	}
	if s.redis != nil {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(pingCtx); err != nil {
			payload["redis"] = "unavailable"
		} else {
			payload["redis"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contentID := pathSuffix(r.URL.Path, "/sources/movie/")
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	year := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid year")
			return
		}
		year = parsed
	}

	startedAt := time.Now()
	result, err := s.aggregator.AggregateMovie(r.Context(), contentID, title, year)
	if err != nil {
		s.writeAggregateError(w, err)
		return
	}

	s.logger.Info("movie sources resolved",
		slog.String("contentId", contentID),
		slog.Int("streams", len(result.Torrents)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contentID := pathSuffix(r.URL.Path, "/sources/series/")
	title := strings.TrimSpace(r.URL.Query().Get("title"))

	startedAt := time.Now()
	result, err := s.aggregator.AggregateSeries(r.Context(), contentID, title)
	if err != nil {
		s.writeAggregateError(w, err)
		return
	}

	s.logger.Info("series sources resolved",
		slog.String("contentId", contentID),
		slog.Int("episodes", len(result.Episodes)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeAggregateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, aggregate.ErrMissingContentID), errors.Is(err, aggregate.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("aggregation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "aggregation failed")
	}
}

func pathSuffix(path, prefix string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimPrefix(path, prefix), "/"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
