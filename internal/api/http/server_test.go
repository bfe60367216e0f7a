package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediastream/sourceservice/internal/aggregate"
	"mediastream/sourceservice/internal/domain"
)

type fakeAggregator struct {
	movieResult  *domain.AggregationResult
	seriesResult *domain.AggregationResult
	lastYear     int
}

func (f *fakeAggregator) AggregateMovie(_ context.Context, contentID, title string, year int) (*domain.AggregationResult, error) {
	if contentID == "" {
		return nil, aggregate.ErrMissingContentID
	}
	if title == "" {
		return nil, aggregate.ErrMissingTitle
	}
	f.lastYear = year
	if f.movieResult != nil {
		return f.movieResult, nil
	}
	return &domain.AggregationResult{ContentID: contentID, Title: title, Kind: domain.MediaKindMovie}, nil
}

func (f *fakeAggregator) AggregateSeries(_ context.Context, contentID, title string) (*domain.AggregationResult, error) {
	if contentID == "" {
		return nil, aggregate.ErrMissingContentID
	}
	if title == "" {
		return nil, aggregate.ErrMissingTitle
	}
	if f.seriesResult != nil {
		return f.seriesResult, nil
	}
	return &domain.AggregationResult{ContentID: contentID, Title: title, Kind: domain.MediaKindSeries}, nil
}

func TestMovieEndpointReturnsAggregation(t *testing.T) {
	agg := &fakeAggregator{
		movieResult: &domain.AggregationResult{
			ContentID: "42",
			Title:     "Inception",
			Kind:      domain.MediaKindMovie,
			Torrents: []domain.Stream{
				{Title: "Inception 1080p", InfoHash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Quality: domain.Quality1080P, Seeds: 90},
			},
		},
	}
	handler := NewServer(agg).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sources/movie/42?title=Inception&year=2010", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload domain.AggregationResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if payload.ContentID != "42" || len(payload.Torrents) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if agg.lastYear != 2010 {
		t.Fatalf("year query parameter not forwarded, got %d", agg.lastYear)
	}
}

func TestMovieEndpointRejectsMissingTitle(t *testing.T) {
	handler := NewServer(&fakeAggregator{}).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sources/movie/42", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", recorder.Code)
	}
}

func TestMovieEndpointRejectsInvalidYear(t *testing.T) {
	handler := NewServer(&fakeAggregator{}).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sources/movie/42?title=Inception&year=abc", nil))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid year, got %d", recorder.Code)
	}
}

func TestSeriesEndpointReturnsEpisodeBuckets(t *testing.T) {
	agg := &fakeAggregator{
		seriesResult: &domain.AggregationResult{
			ContentID: "7",
			Title:     "Dark Show",
			Kind:      domain.MediaKindSeries,
			Episodes: []domain.EpisodeBucket{
				{Season: 1, Episode: 1, Streams: []domain.Stream{{Title: "Dark Show S01E01", Season: 1, Episode: 1}}},
			},
		},
	}
	handler := NewServer(agg).Handler()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sources/series/7?title=Dark+Show", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload domain.AggregationResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if len(payload.Episodes) != 1 || payload.Episodes[0].Season != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEndpointsRejectNonGETMethods(t *testing.T) {
	handler := NewServer(&fakeAggregator{}).Handler()

	for _, path := range []string{"/sources/movie/42", "/sources/series/7", "/sources/health"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, path, nil))
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("path %s: expected 405, got %d", path, recorder.Code)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler := NewServer(&fakeAggregator{}).Handler()

	for _, path := range []string{"/health", "/sources/health"} {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("path %s: expected 200, got %d", path, recorder.Code)
		}
	}
}

func TestNormalizeRouteBoundsMetricLabels(t *testing.T) {
	cases := map[string]string{
		"/sources/movie/12345": "/sources/movie/{id}",
		"/sources/series/9":    "/sources/series/{id}",
		"/sources/health":      "/sources/health",
		"/anything/else":       "/other",
	}
	for path, want := range cases {
		if got := normalizeRoute(path); got != want {
			t.Fatalf("path %s: expected %s, got %s", path, want, got)
		}
	}
}
