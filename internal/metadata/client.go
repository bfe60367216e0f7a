package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mediastream/sourceservice/internal/domain"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	redisCacheKey  = "srcagg:meta:"
)

// Client resolves catalog metadata for a content id: the cross-reference id
// some endpoints key on, and the season/episode layout of a series. It is
// the validation oracle for episode numbers parsed out of release titles.
type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
}

type Config struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type externalIDsResponse struct {
	IMDBID string `json:"imdb_id"`
}

type seriesDetailResponse struct {
	Seasons []struct {
		SeasonNumber int `json:"season_number"`
		EpisodeCount int `json:"episode_count"`
	} `json:"seasons"`
}

// ExternalID returns the cross-reference id for a movie or series, or ""
// when the catalog has none. Failure is not fatal for aggregation, so the
// error is surfaced for logging but callers may proceed without the id.
func (c *Client) ExternalID(ctx context.Context, kind domain.MediaKind, contentID string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	cacheKey := fmt.Sprintf("extid:%s:%s", kind, contentID)
	if cached, ok := c.cacheGet(ctx, cacheKey); ok {
		var id string
		if json.Unmarshal(cached, &id) == nil {
			return id, nil
		}
	}

	path := "/movie/"
	if kind == domain.MediaKindSeries {
		path = "/tv/"
	}
	var response externalIDsResponse
	if err := c.get(ctx, path+contentID+"/external_ids", &response); err != nil {
		return "", err
	}

	c.cachePut(ctx, cacheKey, response.IMDBID)
	return response.IMDBID, nil
}

// Seasons returns the known season layout of a series, skipping the
// season-zero specials bucket. An empty slice means the catalog has no
// layout for the id; validation then falls back to range checks only.
func (c *Client) Seasons(ctx context.Context, contentID string) ([]domain.SeasonInfo, error) {
	if !c.Enabled() {
		return nil, nil
	}

	cacheKey := "seasons:" + contentID
	if cached, ok := c.cacheGet(ctx, cacheKey); ok {
		var seasons []domain.SeasonInfo
		if json.Unmarshal(cached, &seasons) == nil {
			return seasons, nil
		}
	}

	var response seriesDetailResponse
	if err := c.get(ctx, "/tv/"+contentID, &response); err != nil {
		return nil, err
	}

	seasons := make([]domain.SeasonInfo, 0, len(response.Seasons))
	for _, season := range response.Seasons {
		if season.SeasonNumber <= 0 {
			continue
		}
		seasons = append(seasons, domain.SeasonInfo{
			Season:       season.SeasonNumber,
			EpisodeCount: season.EpisodeCount,
		})
	}

	c.cachePut(ctx, cacheKey, seasons)
	return seasons, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	reqURL := c.baseURL + path + "?api_key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("metadata HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, redisCacheKey+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Client) cachePut(ctx context.Context, key string, value any) {
	if c.redis == nil {
		return
	}
	if data, err := json.Marshal(value); err == nil {
		_ = c.redis.Set(ctx, redisCacheKey+key, data, c.cacheTTL).Err()
	}
}
