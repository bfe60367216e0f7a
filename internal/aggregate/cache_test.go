package aggregate

import (
	"testing"
	"time"

	"mediastream/sourceservice/internal/domain"
)

func sampleResult(contentID string, seeds int) domain.AggregationResult {
	return domain.AggregationResult{
		ContentID: contentID,
		Title:     "Sample",
		Kind:      domain.MediaKindMovie,
		Torrents: []domain.Stream{
			{Title: "Sample 1080p", InfoHash: hashA, Quality: domain.Quality1080P, Seeds: seeds},
		},
	}
}

func TestCacheKeySeparatesKinds(t *testing.T) {
	movie := CacheKey(domain.MediaKindMovie, "42")
	series := CacheKey(domain.MediaKindSeries, "42")
	if movie == series {
		t.Fatalf("movie and series keys must differ: %q", movie)
	}
	if movie != "movie-42" {
		t.Fatalf("unexpected key format: %q", movie)
	}
}

func TestCacheExpiresOnRead(t *testing.T) {
	cache := NewResultCache(30 * time.Minute)
	now := time.Now()
	cache.Put("movie-42", sampleResult("42", 10), now)

	if _, ok := cache.Get("movie-42", now.Add(29*time.Minute)); !ok {
		t.Fatalf("entry must be fresh before the TTL elapses")
	}
	if _, ok := cache.Get("movie-42", now.Add(31*time.Minute)); ok {
		t.Fatalf("entry must expire after the TTL")
	}
	// Expired entries are not purged, only masked; a rewrite revives the key.
	if cache.size() != 1 {
		t.Fatalf("expired entry should remain until overwritten, len=%d", cache.size())
	}
}

func TestCacheLastWriterWins(t *testing.T) {
	cache := NewResultCache(30 * time.Minute)
	now := time.Now()
	cache.Put("movie-42", sampleResult("42", 10), now)
	cache.Put("movie-42", sampleResult("42", 99), now.Add(time.Second))

	got, ok := cache.Get("movie-42", now.Add(2*time.Second))
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Torrents[0].Seeds != 99 {
		t.Fatalf("expected the later write to win, got seeds=%d", got.Torrents[0].Seeds)
	}
}

func TestCacheGetReturnsIsolatedCopy(t *testing.T) {
	cache := NewResultCache(30 * time.Minute)
	now := time.Now()
	cache.Put("movie-42", sampleResult("42", 10), now)

	first, _ := cache.Get("movie-42", now)
	first.Torrents[0].Seeds = 12345

	second, _ := cache.Get("movie-42", now)
	if second.Torrents[0].Seeds != 10 {
		t.Fatalf("cache entry mutated through a returned copy")
	}
}
