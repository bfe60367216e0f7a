package heuristics

import (
	"regexp"
	"strconv"
	"strings"

	"mediastream/sourceservice/internal/domain"
)

const (
	minSeasonEpisode = 1
	maxSeasonEpisode = 100
)

// seasonEpisodePatterns is the ordered cascade of combined season+episode
// extractors. Order matters: the first matching pattern wins, and the bare
// 3-digit form is only trusted when the surrounding text looks like a TV
// release at all.
var seasonEpisodePatterns = []struct {
	re        *regexp.Regexp
	needsHint bool
}{
	{re: regexp.MustCompile(`(?i)\bs(\d{1,2})\s*e(\d{1,3})\b`)},
	{re: regexp.MustCompile(`(?i)\bseason\s*(\d{1,2})\s+episode\s*(\d{1,3})\b`)},
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`)},
	{re: regexp.MustCompile(`(?i)\bs(\d{1,2})\.e(\d{1,3})\b`)},
	{re: regexp.MustCompile(`\[(\d{1,2})\.(\d{1,3})\]`)},
	{re: regexp.MustCompile(`(?i)\bseason\s*(\d{1,2})\s*-\s*(\d{1,3})\b`)},
	{re: regexp.MustCompile(`(?i)\bse\s*(\d{1,2})-(\d{1,3})\b`)},
	{re: regexp.MustCompile(`\b(\d)(\d{2})\b`), needsHint: true},
}

var seasonOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bseason\s*(\d{1,2})\b`),
	regexp.MustCompile(`(?i)\bs(\d{1,2})\b`),
}

var episodeOnlyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bepisode\s*(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bep?\s*(\d{1,3})\b`),
}

var tvHintKeywords = []string{"episode", "season", "series", "tv", "show"}

// ExtractSeasonEpisode runs the pattern cascade against a free-text release
// title. When no combined pattern matches it falls back to independent
// season-only and episode-only sets; either number may then be zero.
func ExtractSeasonEpisode(title string) (season, episode int) {
	lower := strings.ToLower(title)

	for _, pattern := range seasonEpisodePatterns {
		if pattern.needsHint && !hasTVHint(lower) {
			continue
		}
		match := pattern.re.FindStringSubmatch(title)
		if len(match) < 3 {
			continue
		}
		return atoiOrZero(match[1]), atoiOrZero(match[2])
	}

	for _, re := range seasonOnlyPatterns {
		if match := re.FindStringSubmatch(title); len(match) >= 2 {
			season = atoiOrZero(match[1])
			break
		}
	}
	for _, re := range episodeOnlyPatterns {
		if match := re.FindStringSubmatch(title); len(match) >= 2 {
			episode = atoiOrZero(match[1])
			break
		}
	}
	return season, episode
}

// ValidateSeasonEpisode rejects season/episode values outside [1,100] and,
// when the caller knows the real season list, values exceeding the known
// bounds. Candidates failing validation are discarded, never corrected.
func ValidateSeasonEpisode(season, episode int, known []domain.SeasonInfo) bool {
	if season < minSeasonEpisode || season > maxSeasonEpisode {
		return false
	}
	if episode < minSeasonEpisode || episode > maxSeasonEpisode {
		return false
	}
	if len(known) == 0 {
		return true
	}
	for _, info := range known {
		if info.Season != season {
			continue
		}
		if info.EpisodeCount > 0 && episode > info.EpisodeCount {
			return false
		}
		return true
	}
	return false
}

func hasTVHint(lower string) bool {
	for _, keyword := range tvHintKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func atoiOrZero(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
