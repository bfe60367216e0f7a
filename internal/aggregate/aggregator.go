package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"mediastream/sourceservice/internal/domain"
	"mediastream/sourceservice/internal/endpoints"
	"mediastream/sourceservice/internal/heuristics"
	"mediastream/sourceservice/internal/metrics"
	"mediastream/sourceservice/internal/trust"
)

var (
	ErrMissingContentID = errors.New("content id is required")
	ErrMissingTitle     = errors.New("title is required")
)

// maxConcurrentFetches bounds the per-tier fan-out so a tier with many
// configured endpoints does not open them all at once.
const maxConcurrentFetches = 8

const (
	defaultRunTimeout = 60 * time.Second
	defaultTierPacing = 2 * time.Second
)

// minMovieQualities is the fallback gate for movies: fewer distinct
// qualities than this after primary+secondary escalates to the fallback
// tier.
const minMovieQualities = 3

// runState tracks where an aggregation run is in its lifecycle. States only
// ever move forward; the fallback state is skipped when the first two tiers
// produced enough variety.
type runState string

const (
	stateNotStarted        runState = "not_started"
	stateFetchingPrimary   runState = "fetching_primary"
	stateFetchingSecondary runState = "fetching_secondary"
	stateFetchingFallback  runState = "fetching_fallback"
	stateMerging           runState = "merging"
	stateCached            runState = "cached"
)

// Fetcher retrieves one endpoint payload. A nil return means the source is
// unavailable; the aggregation proceeds without it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) json.RawMessage
}

// MetadataOracle resolves catalog facts used to route and validate: the
// cross-reference id some endpoints key on, and the season layout series
// episode numbers are checked against.
type MetadataOracle interface {
	ExternalID(ctx context.Context, kind domain.MediaKind, contentID string) (string, error)
	Seasons(ctx context.Context, contentID string) ([]domain.SeasonInfo, error)
}

type Service struct {
	fetcher    Fetcher
	router     *endpoints.Router
	oracle     MetadataOracle
	cache      *ResultCache
	redisCache *RedisCacheBackend
	logger     *slog.Logger
	runTimeout time.Duration
	tierPacing time.Duration
	cacheTTL   time.Duration
}

type ServiceOption func(*Service)

func WithMetadata(oracle MetadataOracle) ServiceOption {
	return func(s *Service) {
		s.oracle = oracle
	}
}

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.redisCache = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithRunTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.runTimeout = timeout
		}
	}
}

func WithTierPacing(pacing time.Duration) ServiceOption {
	return func(s *Service) {
		if pacing >= 0 {
			s.tierPacing = pacing
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(fetcher Fetcher, router *endpoints.Router, opts ...ServiceOption) *Service {
	svc := &Service{
		fetcher:    fetcher,
		router:     router,
		logger:     slog.Default(),
		runTimeout: defaultRunTimeout,
		tierPacing: defaultTierPacing,
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.cache = NewResultCache(svc.cacheTTL)
	return svc
}

// AggregateMovie collects, ranks and dedupes movie streams for a content
// id. The only error cases are the missing-precondition ones; every
// upstream failure degrades to a smaller (possibly empty) result instead.
func (s *Service) AggregateMovie(ctx context.Context, contentID, title string, year int) (*domain.AggregationResult, error) {
	ref, err := newContentRef(domain.MediaKindMovie, contentID, title, year)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, ref)
}

// AggregateSeries collects series streams grouped into per-episode buckets.
func (s *Service) AggregateSeries(ctx context.Context, contentID, title string) (*domain.AggregationResult, error) {
	ref, err := newContentRef(domain.MediaKindSeries, contentID, title, 0)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, ref)
}

func newContentRef(kind domain.MediaKind, contentID, title string, year int) (domain.ContentRef, error) {
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return domain.ContentRef{}, ErrMissingContentID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.ContentRef{}, ErrMissingTitle
	}
	return domain.ContentRef{ID: contentID, Title: title, Year: year, Kind: kind}, nil
}

func (s *Service) aggregate(ctx context.Context, ref domain.ContentRef) (*domain.AggregationResult, error) {
	cacheKey := CacheKey(ref.Kind, ref.ID)
	if cached, ok := s.cache.Get(cacheKey, time.Now()); ok {
		return cached, nil
	}
	if s.redisCache != nil {
		if mirrored, ok, err := s.redisCache.Get(ctx, cacheKey); err == nil && ok {
			s.cache.Put(cacheKey, *mirrored, time.Now())
			return mirrored, nil
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	startedAt := time.Now()
	state := stateNotStarted
	setState := func(next runState) {
		state = next
		s.logger.Debug("aggregation state",
			slog.String("contentId", ref.ID),
			slog.String("kind", string(ref.Kind)),
			slog.String("state", string(state)),
		)
	}

	externalID := s.lookupExternalID(runCtx, ref)
	var seasons []domain.SeasonInfo
	if ref.Kind == domain.MediaKindSeries {
		seasons = s.lookupSeasons(runCtx, ref)
	}

	tiers := s.router.Route(ref.ID, externalID)
	// Burst 1 means the first tier starts immediately and each later tier
	// waits out the pacing interval.
	limiter := rate.NewLimiter(rate.Every(s.tierPacing), 1)
	if s.tierPacing <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	var candidates []domain.RawCandidate

	_ = limiter.Wait(runCtx)
	setState(stateFetchingPrimary)
	candidates = append(candidates, s.collectTier(runCtx, tiers.Primary)...)

	_ = limiter.Wait(runCtx)
	setState(stateFetchingSecondary)
	candidates = append(candidates, s.collectTier(runCtx, tiers.Secondary)...)

	if len(tiers.Fallback) > 0 && s.needsFallback(ref, candidates, seasons) {
		metrics.FallbackTierTotal.WithLabelValues(string(ref.Kind)).Inc()
		_ = limiter.Wait(runCtx)
		setState(stateFetchingFallback)
		candidates = append(candidates, s.collectTier(runCtx, tiers.Fallback)...)
	}

	setState(stateMerging)
	var result domain.AggregationResult
	if ref.Kind == domain.MediaKindMovie {
		result = mergeMovie(ref, candidates)
	} else {
		result = mergeSeries(ref, candidates, seasons)
	}

	// An abandoned run may have stopped between tiers; whatever it collected
	// is not a complete aggregation and must not be served for the next TTL.
	if ctx.Err() != nil {
		metrics.AggregationsTotal.WithLabelValues(string(ref.Kind), "abandoned").Inc()
		s.logger.Warn("aggregation abandoned, result not cached",
			slog.String("contentId", ref.ID),
			slog.String("kind", string(ref.Kind)),
			slog.Int("candidates", len(candidates)),
		)
		return &result, nil
	}

	setState(stateCached)
	s.cache.Put(cacheKey, result, time.Now())
	if s.redisCache != nil {
		if err := s.redisCache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("redis cache mirror write failed", slog.String("error", err.Error()))
		}
	}

	status := "ok"
	if len(result.Torrents) == 0 && len(result.Episodes) == 0 {
		status = "empty"
	}
	metrics.AggregationsTotal.WithLabelValues(string(ref.Kind), status).Inc()
	metrics.AggregationDuration.WithLabelValues(string(ref.Kind)).Observe(time.Since(startedAt).Seconds())

	s.logger.Info("aggregation completed",
		slog.String("contentId", ref.ID),
		slog.String("kind", string(ref.Kind)),
		slog.Int("candidates", len(candidates)),
		slog.Int("streams", len(result.Torrents)),
		slog.Int("episodes", len(result.Episodes)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	return &result, nil
}

// collectTier fans out over every endpoint of one tier concurrently and
// waits for all of them. The barrier keeps tier ordering observable: no
// secondary fetch starts while a primary one is still in flight.
func (s *Service) collectTier(ctx context.Context, tier []endpoints.Endpoint) []domain.RawCandidate {
	if len(tier) == 0 {
		return nil
	}

	var (
		mu        sync.Mutex
		collected []domain.RawCandidate
	)
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	var wg sync.WaitGroup

	for _, endpoint := range tier {
		wg.Add(1)
		go func(endpoint endpoints.Endpoint) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			payload := s.fetcher.Fetch(ctx, endpoint.URL)
			if payload == nil {
				return
			}
			items := s.router.Adapt(endpoint, payload)
			if len(items) == 0 {
				return
			}
			metrics.CandidatesTotal.WithLabelValues(string(endpoint.Family)).Add(float64(len(items)))

			mu.Lock()
			collected = append(collected, items...)
			mu.Unlock()
		}(endpoint)
	}
	wg.Wait()
	return collected
}

func (s *Service) needsFallback(ref domain.ContentRef, candidates []domain.RawCandidate, seasons []domain.SeasonInfo) bool {
	if ref.Kind == domain.MediaKindMovie {
		return distinctQualities(ref, candidates) < minMovieQualities
	}

	expected := len(seasons)
	if expected == 0 {
		// No season layout from the catalog: any coverage at all counts.
		expected = 1
	}
	return discoveredSeasons(ref, candidates) < expected
}

func (s *Service) lookupExternalID(ctx context.Context, ref domain.ContentRef) string {
	if s.oracle == nil {
		return ""
	}
	externalID, err := s.oracle.ExternalID(ctx, ref.Kind, ref.ID)
	if err != nil {
		s.logger.Warn("external id lookup failed",
			slog.String("contentId", ref.ID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return externalID
}

func (s *Service) lookupSeasons(ctx context.Context, ref domain.ContentRef) []domain.SeasonInfo {
	if s.oracle == nil {
		return nil
	}
	seasons, err := s.oracle.Seasons(ctx, ref.ID)
	if err != nil {
		s.logger.Warn("season layout lookup failed",
			slog.String("contentId", ref.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return seasons
}

// titleMatches filters out candidates whose release title has nothing to do
// with the requested content. Substring containment after normalization is
// the strong signal; a majority token overlap keeps reordered titles.
func titleMatches(rawTitle, referenceTitle string) bool {
	candidate := heuristics.NormalizeTitle(rawTitle)
	reference := heuristics.NormalizeTitle(referenceTitle)
	if reference == "" || candidate == "" {
		return false
	}
	if strings.Contains(candidate, reference) {
		return true
	}

	referenceTokens := strings.Fields(reference)
	candidateTokens := make(map[string]struct{})
	for _, token := range strings.Fields(candidate) {
		candidateTokens[token] = struct{}{}
	}
	matched := 0
	for _, token := range referenceTokens {
		if _, ok := candidateTokens[token]; ok {
			matched++
		}
	}
	return matched*2 > len(referenceTokens)
}

// buildStream converts one accepted candidate into its outgoing stream
// shape: canonical quality, trust score, magnet link and a display size.
func buildStream(ref domain.ContentRef, candidate domain.RawCandidate) domain.Stream {
	quality := heuristics.ExtractQuality(candidate.RawTitle, candidate.DeclaredQuality)
	sizeLabel := candidate.SizeLabel
	if sizeLabel == "" && candidate.SizeBytes > 0 {
		sizeLabel = heuristics.FormatSize(candidate.SizeBytes)
	}
	if sizeLabel == "" {
		sizeLabel = heuristics.ExtractSizeLabel(candidate.RawTitle)
	}
	return domain.Stream{
		Title:      candidate.RawTitle,
		InfoHash:   candidate.InfoHash,
		Quality:    quality,
		SizeLabel:  sizeLabel,
		Seeds:      candidate.Seeds,
		Peers:      candidate.Peers,
		TrustScore: trust.Score(candidate, ref.Title, ref.Year),
		MagnetURI:  endpoints.BuildMagnet(candidate.InfoHash, candidate.RawTitle),
	}
}

func acceptCandidate(ref domain.ContentRef, candidate domain.RawCandidate) bool {
	if candidate.InfoHash == "" {
		return false
	}
	return titleMatches(candidate.RawTitle, ref.Title)
}

func distinctQualities(ref domain.ContentRef, candidates []domain.RawCandidate) int {
	seen := make(map[domain.Quality]struct{})
	for _, candidate := range candidates {
		if !acceptCandidate(ref, candidate) {
			continue
		}
		seen[heuristics.ExtractQuality(candidate.RawTitle, candidate.DeclaredQuality)] = struct{}{}
	}
	return len(seen)
}

func discoveredSeasons(ref domain.ContentRef, candidates []domain.RawCandidate) int {
	seen := make(map[int]struct{})
	for _, candidate := range candidates {
		if !acceptCandidate(ref, candidate) {
			continue
		}
		season, episode := heuristics.ExtractSeasonEpisode(candidate.RawTitle)
		if season <= 0 || episode <= 0 {
			continue
		}
		seen[season] = struct{}{}
	}
	return len(seen)
}
