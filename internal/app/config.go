package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"mediastream/sourceservice/internal/endpoints"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	LogFormat      string
	UserAgent      string
	FetchTimeout   time.Duration
	FetchRetries   int
	RetryDelay     time.Duration
	RunTimeout     time.Duration
	TierPacing     time.Duration
	CacheTTL       time.Duration
	RedisURL       string
	MetadataAPIKey string
	MetadataURL    string
	Primary        []endpoints.Template
	Secondary      []endpoints.Template
	Fallback       []endpoints.Template
}

// Endpoint template lists use the "family|tag|url" comma-separated format,
// e.g. SOURCES_PRIMARY="metaxref|apibay|https://apibay.org/q.php?q={extid}".
func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:      getEnv("SOURCES_USER_AGENT", "media-source-aggregator/1.0"),
		FetchTimeout:   time.Duration(getEnvInt("SOURCES_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		FetchRetries:   getEnvInt("SOURCES_FETCH_RETRIES", 3),
		RetryDelay:     time.Duration(getEnvInt("SOURCES_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		RunTimeout:     time.Duration(getEnvInt("SOURCES_RUN_TIMEOUT_SECONDS", 60)) * time.Second,
		TierPacing:     time.Duration(getEnvInt("SOURCES_TIER_PACING_MS", 2000)) * time.Millisecond,
		CacheTTL:       time.Duration(getEnvInt("SOURCES_CACHE_TTL_MINUTES", 30)) * time.Minute,
		RedisURL:       getEnv("REDIS_URL", ""),
		MetadataAPIKey: strings.TrimSpace(os.Getenv("METADATA_API_KEY")),
		MetadataURL:    getEnv("METADATA_BASE_URL", "https://api.themoviedb.org/3"),
		Primary:        endpoints.ParseTemplates(getEnv("SOURCES_PRIMARY", "")),
		Secondary:      endpoints.ParseTemplates(getEnv("SOURCES_SECONDARY", "")),
		Fallback:       endpoints.ParseTemplates(getEnv("SOURCES_FALLBACK", "")),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
