package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"mediastream/sourceservice/internal/metrics"
)

const maxResponseBytes = 4 * 1024 * 1024

// Config controls the retry/backoff behavior of a Fetcher.
type Config struct {
	MaxRetries     int
	InitialDelay   time.Duration
	AttemptTimeout time.Duration
	MaxDelay       time.Duration
	UserAgent      string
	Client         *http.Client
	Logger         *slog.Logger
}

// DefaultConfig returns the production defaults: 3 retries starting at 1s,
// 15s per attempt.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialDelay:   time.Second,
		AttemptTimeout: 15 * time.Second,
		MaxDelay:       30 * time.Second,
	}
}

// Fetcher performs single GETs with a hard per-attempt timeout and
// classified retry/backoff. It never propagates errors to callers: every
// failure mode collapses to a nil payload, logged and counted, so
// aggregation can proceed with whatever the other sources returned.
type Fetcher struct {
	client         *http.Client
	logger         *slog.Logger
	maxRetries     int
	initialDelay   time.Duration
	attemptTimeout time.Duration
	maxDelay       time.Duration
	userAgent      string
}

// statusError is a classified non-2xx response. Its class decides whether
// and how hard the next attempt backs off.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.status)
}

var errNotFound = errors.New("resource not found")

func New(cfg Config) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	return &Fetcher{
		client:         client,
		logger:         logger,
		maxRetries:     cfg.MaxRetries,
		initialDelay:   cfg.InitialDelay,
		attemptTimeout: cfg.AttemptTimeout,
		maxDelay:       cfg.MaxDelay,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
	}
}

// Fetch GETs url and returns the JSON payload, or nil when the source is
// unavailable. 404 means absence, not a transient fault, and returns nil
// immediately. 429 retries with 2x backoff, 500 and timeouts with 1.5x; any
// other non-2xx status retries with 1.5x until attempts are exhausted.
func (f *Fetcher) Fetch(ctx context.Context, url string) json.RawMessage {
	delay := f.initialDelay

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		payload, err := f.attempt(ctx, url)
		if err == nil {
			return payload
		}
		if errors.Is(err, errNotFound) {
			metrics.FetchesTotal.WithLabelValues("not_found").Inc()
			f.logger.Debug("source returned 404", slog.String("url", url))
			return nil
		}
		if ctx.Err() != nil {
			metrics.FetchesTotal.WithLabelValues("cancelled").Inc()
			return nil
		}

		multiplier := backoffMultiplier(err)
		if attempt == f.maxRetries {
			metrics.FetchesTotal.WithLabelValues("exhausted").Inc()
			f.logger.Warn("source unavailable, retries exhausted",
				slog.String("url", url),
				slog.String("reason", err.Error()),
			)
			return nil
		}

		metrics.FetchRetriesTotal.Inc()
		f.logger.Debug("fetch attempt failed, backing off",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("reason", err.Error()),
		)

		if !sleepContext(ctx, applyJitter(delay)) {
			metrics.FetchesTotal.WithLabelValues("cancelled").Inc()
			return nil
		}
		delay = time.Duration(float64(delay) * multiplier)
		if delay > f.maxDelay {
			delay = f.maxDelay
		}
	}
	return nil
}

func (f *Fetcher) attempt(ctx context.Context, url string) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, &statusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	// A non-JSON content-type still gets one best-effort parse before the
	// source is written off.
	if !json.Valid(body) {
		metrics.FetchesTotal.WithLabelValues("bad_payload").Inc()
		f.logger.Warn("source returned unparseable payload",
			slog.String("url", url),
			slog.String("contentType", resp.Header.Get("Content-Type")),
		)
		return nil, nil
	}

	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return json.RawMessage(body), nil
}

// backoffMultiplier maps the error class to its penalty: rate limiting is
// assumed transient but penalized harder than server faults and timeouts.
func backoffMultiplier(err error) float64 {
	var classified *statusError
	if errors.As(err, &classified) && classified.status == http.StatusTooManyRequests {
		return 2.0
	}
	return 1.5
}

func applyJitter(d time.Duration) time.Duration {
	// jitter in range [0.9, 1.1)
	factor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(d) * factor)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
